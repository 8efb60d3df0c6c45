package inventory

import (
	"fmt"
	"unicode/utf8"

	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/domain"
)

const msgRequired = "This field is required."

//field describes one optional string of an input. Supplied values may only be
//empty when blank is set, regardless of whether the field is required.
type field struct {
	name     string
	value    *string
	required bool
	blank    bool
	min, max int
}

//check validates fields in order and reports the first offending one
func check(fields ...field) error {
	for _, f := range fields {
		if f.value == nil {
			if f.required {
				return domain.NewValidationError(f.name, msgRequired)
			}
			continue
		}

		length := utf8.RuneCountInString(*f.value)
		if !f.blank && length == 0 {
			return domain.NewValidationError(f.name, "This field may not be blank.")
		}
		if length < f.min {
			return domain.NewValidationError(f.name, fmt.Sprintf("Ensure this field has at least %d characters.", f.min))
		}
		if f.max > 0 && length > f.max {
			return domain.NewValidationError(f.name, fmt.Sprintf("Ensure this field has no more than %d characters.", f.max))
		}
	}

	return nil
}

//checkPathID rejects bodies whose identifier disagrees with the one in the url
func checkPathID(name string, body *string, pathID string) error {
	if body != nil && *body != pathID {
		return domain.NewValidationError(name, fmt.Sprintf("%s in payload (%s) does not match the identifier given in the url (%s).", name, *body, pathID))
	}
	return nil
}

func valueOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
