package telemetry

import (
	"fmt"

	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/domain/values"
	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/infrastructure/repositories/models"
	"github.com/shopspring/decimal"
)

//store writes v into the one value column that matches its kind and clears the others
func store(point *models.DataPoint, v values.Value) {
	point.ValueText = nil
	point.ValueInt = nil
	point.ValueDec = decimal.NullDecimal{}
	point.ValueBool = nil

	switch tv := v.(type) {
	case values.StringValue:
		s := string(tv)
		point.ValueText = &s
	case values.IntegerValue:
		i := int64(tv)
		point.ValueInt = &i
	case values.DecimalValue:
		point.ValueDec = decimal.NewNullDecimal(tv.Decimal())
	case values.BooleanValue:
		b := bool(tv)
		point.ValueBool = &b
	}
}

//load reads the value column selected by kind back into a typed value
func load(point *models.DataPoint, kind values.Kind) (values.Value, error) {
	switch kind {
	case values.KindString:
		if point.ValueText != nil {
			return values.StringValue(*point.ValueText), nil
		}
	case values.KindInteger:
		if point.ValueInt != nil {
			return values.IntegerValue(*point.ValueInt), nil
		}
	case values.KindDecimal:
		if point.ValueDec.Valid {
			return values.NewDecimalValue(point.ValueDec.Decimal), nil
		}
	case values.KindBoolean:
		if point.ValueBool != nil {
			return values.BooleanValue(*point.ValueBool), nil
		}
	default:
		return nil, fmt.Errorf("data point %d has undefined value type %q", point.ID, point.Tag.ValueTypeID)
	}

	return nil, fmt.Errorf("data point %d has no %s value", point.ID, kind)
}
