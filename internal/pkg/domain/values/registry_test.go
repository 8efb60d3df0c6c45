package values

import (
	"context"
	"errors"
	"testing"

	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/domain"
	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/infrastructure/repositories/models"
)

type lookupMock struct {
	valueTypes map[string]models.ValueType
}

func (l *lookupMock) GetValueTypeFromID(ctx context.Context, valueTypeID string) (*models.ValueType, error) {
	vt, ok := l.valueTypes[valueTypeID]
	if !ok {
		return nil, domain.NotFoundf("value type %s", valueTypeID)
	}
	return &vt, nil
}

func newRegistryForTest() *Registry {
	return NewRegistry(&lookupMock{valueTypes: map[string]models.ValueType{
		"dec":   {ValueTypeID: "dec", Name: "Decimal number", Kind: "decimal"},
		"bool":  {ValueTypeID: "bool", Name: "Boolean", Kind: "BOOL"},
		"blob":  {ValueTypeID: "blob", Name: "Binary", Kind: "binary"},
		"count": {ValueTypeID: "count", Name: "Counter", Kind: "int"},
	}})
}

func TestThatRegistryResolvesDecimalConstraints(t *testing.T) {
	vt, err := newRegistryForTest().Resolve(context.Background(), "dec")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if vt.Kind != KindDecimal {
		t.Errorf("kind = %s, want decimal", vt.Kind)
	}
	if vt.Constraints.Precision != 8 || vt.Constraints.Scale != 3 {
		t.Errorf("decimal constraints = %+v, want precision 8 and scale 3", vt.Constraints)
	}
}

func TestThatRegistryAcceptsKindAliases(t *testing.T) {
	registry := newRegistryForTest()

	if vt, _ := registry.Resolve(context.Background(), "bool"); vt.Kind != KindBoolean {
		t.Errorf("BOOL should resolve to boolean, got %s", vt.Kind)
	}
	if vt, _ := registry.Resolve(context.Background(), "count"); vt.Kind != KindInteger {
		t.Errorf("int should resolve to integer, got %s", vt.Kind)
	}
}

func TestThatRegistryReportsUnknownValueTypes(t *testing.T) {
	_, err := newRegistryForTest().Resolve(context.Background(), "nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestThatUnsupportedKindsCannotBeCoerced(t *testing.T) {
	vt, err := newRegistryForTest().Resolve(context.Background(), "blob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = Coerce("0101", vt)

	var verr *domain.ValidationError
	if !errors.As(err, &verr) || verr.Reason != "value type not defined." {
		t.Errorf("expected value type not defined, got %v", err)
	}
}
