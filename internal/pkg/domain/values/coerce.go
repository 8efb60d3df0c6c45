package values

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/domain"
	"github.com/shopspring/decimal"
)

//ValueField is the input field that coercion errors are reported against
const ValueField = "value"

const (
	msgBooleanRequired = "boolean value required (true, yes, y, on, 1, false, no, n, off, 0)."
	msgIntegerRequired = "integer value required."
	msgIntegerRange    = "integer value out of range."
	msgNumericRequired = "numeric value required."
	msgNotDefined      = "value type not defined."
)

var booleanTokens = map[string]bool{
	"true": true, "yes": true, "y": true, "on": true, "1": true,
	"false": false, "no": false, "n": false, "off": false, "0": false,
}

//Coerce validates raw against the value type and converts it into a typed Value.
//Failures are returned as *domain.ValidationError keyed on ValueField.
func Coerce(raw string, t Type) (Value, error) {
	switch t.Kind {
	case KindBoolean:
		return coerceBoolean(raw)
	case KindInteger:
		return coerceInteger(raw)
	case KindDecimal:
		return coerceDecimal(raw, t.Constraints)
	case KindString:
		return coerceString(raw, t.Constraints)
	case KindUndefined:
		return nil, invalid(msgNotDefined)
	default:
		return nil, invalid(msgNotDefined)
	}
}

func coerceBoolean(raw string) (Value, error) {
	b, ok := booleanTokens[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return nil, invalid(msgBooleanRequired)
	}
	return BooleanValue(b), nil
}

func coerceInteger(raw string) (Value, error) {
	i, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return nil, invalid(msgIntegerRange)
		}
		return nil, invalid(msgIntegerRequired)
	}
	return IntegerValue(i), nil
}

func coerceDecimal(raw string, c Constraints) (Value, error) {
	if c.Precision <= 0 {
		c = DefaultConstraints(KindDecimal)
	}

	sign, intPart, fracPart, ok := splitDecimal(strings.TrimSpace(raw))
	if !ok {
		return nil, invalid(msgNumericRequired)
	}

	if len(intPart) > c.IntegerDigits() {
		return nil, invalid(fmt.Sprintf("maximum of %d digits before the decimal point exceeded.", c.IntegerDigits()))
	}
	if len(fracPart) > c.Scale {
		return nil, invalid(fmt.Sprintf("maximum of %d digits after the decimal point exceeded.", c.Scale))
	}

	d, err := decimal.NewFromString(sign + orZero(intPart) + "." + orZero(fracPart))
	if err != nil {
		return nil, invalid(msgNumericRequired)
	}

	return NewDecimalValue(d), nil
}

func coerceString(raw string, c Constraints) (Value, error) {
	if c.MaxLength <= 0 {
		c = DefaultConstraints(KindString)
	}
	if utf8.RuneCountInString(raw) > c.MaxLength {
		return nil, invalid(fmt.Sprintf("string value exceeds maximum length of %d characters.", c.MaxLength))
	}
	return StringValue(raw), nil
}

//splitDecimal splits plain decimal notation into sign, integer digits and fractional digits
func splitDecimal(s string) (sign, intPart, fracPart string, ok bool) {
	if s == "" {
		return "", "", "", false
	}

	if s[0] == '-' || s[0] == '+' {
		if s[0] == '-' {
			sign = "-"
		}
		s = s[1:]
	}

	intPart = s
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		intPart, fracPart = s[:dot], s[dot+1:]
	}

	if intPart == "" && fracPart == "" {
		return "", "", "", false
	}
	if !allDigits(intPart) || !allDigits(fracPart) {
		return "", "", "", false
	}

	return sign, intPart, fracPart, true
}

func allDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

func invalid(reason string) error {
	return domain.NewValidationError(ValueField, reason)
}
