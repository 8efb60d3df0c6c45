package values

import (
	"strconv"

	"github.com/shopspring/decimal"
)

//Value is a coerced, typed tag value. The set of implementations is closed:
//StringValue, IntegerValue, DecimalValue and BooleanValue.
type Value interface {
	Kind() Kind
	//String renders the value as text that coerces back to an equal value
	String() string
	sealed()
}

//StringValue is a verbatim text value
type StringValue string

//IntegerValue is a signed integer value
type IntegerValue int64

//BooleanValue is a true/false value
type BooleanValue bool

//DecimalValue is a fixed point value with DecimalScale fractional digits
type DecimalValue struct {
	d decimal.Decimal
}

//NewDecimalValue rounds d to DecimalScale places
func NewDecimalValue(d decimal.Decimal) DecimalValue {
	return DecimalValue{d: d.Round(DecimalScale)}
}

//Decimal returns the underlying fixed point number
func (v DecimalValue) Decimal() decimal.Decimal {
	return v.d
}

//Equal compares two decimal values numerically
func (v DecimalValue) Equal(other DecimalValue) bool {
	return v.d.Equal(other.d)
}

func (StringValue) Kind() Kind  { return KindString }
func (IntegerValue) Kind() Kind { return KindInteger }
func (DecimalValue) Kind() Kind { return KindDecimal }
func (BooleanValue) Kind() Kind { return KindBoolean }

func (v StringValue) String() string  { return string(v) }
func (v IntegerValue) String() string { return strconv.FormatInt(int64(v), 10) }
func (v DecimalValue) String() string { return v.d.StringFixed(DecimalScale) }
func (v BooleanValue) String() string { return strconv.FormatBool(bool(v)) }

func (StringValue) sealed()  {}
func (IntegerValue) sealed() {}
func (DecimalValue) sealed() {}
func (BooleanValue) sealed() {}
