// Package values implements the typed value system for tag data: the four value kinds,
// their constraints, coercion of raw text into typed values and the value type registry.
package values

import (
	"fmt"
	"strings"
)

//Kind is the primitive storage kind declared by a value type
type Kind int

const (
	//KindUndefined marks a value type whose declared kind is not one of the supported kinds
	KindUndefined Kind = iota
	KindString
	KindInteger
	KindDecimal
	KindBoolean
)

//Storage limits of the data point value slots
const (
	DecimalPrecision = 8
	DecimalScale     = 3
	MaxStringLength  = 100
)

var kindNames = map[Kind]string{
	KindString:  "string",
	KindInteger: "integer",
	KindDecimal: "decimal",
	KindBoolean: "boolean",
}

var kindAliases = map[string]Kind{
	"string":  KindString,
	"integer": KindInteger,
	"int":     KindInteger,
	"decimal": KindDecimal,
	"dec":     KindDecimal,
	"boolean": KindBoolean,
	"bool":    KindBoolean,
}

//ParseKind maps a kind name (or one of its short aliases) to a Kind
func ParseKind(name string) (Kind, error) {
	kind, ok := kindAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return KindUndefined, fmt.Errorf("unknown value kind %q", name)
	}
	return kind, nil
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "undefined"
}

//Constraints carries the kind specific bounds a raw value is checked against
type Constraints struct {
	Precision int
	Scale     int
	MaxLength int
}

//IntegerDigits returns how many digits are allowed before the decimal point
func (c Constraints) IntegerDigits() int {
	return c.Precision - c.Scale
}

//DefaultConstraints returns the storage bounds for the given kind
func DefaultConstraints(kind Kind) Constraints {
	switch kind {
	case KindDecimal:
		return Constraints{Precision: DecimalPrecision, Scale: DecimalScale}
	case KindString:
		return Constraints{MaxLength: MaxStringLength}
	default:
		return Constraints{}
	}
}

//Type is a resolved value type
type Type struct {
	ID          string
	Name        string
	Kind        Kind
	Constraints Constraints
}

//NewType builds a Type for the given kind with its default constraints
func NewType(id, name string, kind Kind) Type {
	return Type{ID: id, Name: name, Kind: kind, Constraints: DefaultConstraints(kind)}
}
