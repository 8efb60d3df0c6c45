package values

import (
	"context"

	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/infrastructure/repositories/models"
)

//Lookup finds stored value types by identifier
type Lookup interface {
	GetValueTypeFromID(ctx context.Context, valueTypeID string) (*models.ValueType, error)
}

//Registry resolves value type identifiers into Types
type Registry struct {
	lookup Lookup
}

//NewRegistry creates a Registry backed by lookup
func NewRegistry(lookup Lookup) *Registry {
	return &Registry{lookup: lookup}
}

//Resolve returns the Type for valueTypeID. A missing value type is reported as
//domain.ErrNotFound by the lookup.
func (r *Registry) Resolve(ctx context.Context, valueTypeID string) (Type, error) {
	vt, err := r.lookup.GetValueTypeFromID(ctx, valueTypeID)
	if err != nil {
		return Type{}, err
	}
	return TypeOf(vt), nil
}

//TypeOf converts a stored value type. Kinds that are not recognised resolve to
//KindUndefined, which Coerce rejects.
func TypeOf(vt *models.ValueType) Type {
	kind, err := ParseKind(vt.Kind)
	if err != nil {
		kind = KindUndefined
	}
	return NewType(vt.ValueTypeID, vt.Name, kind)
}
