package telemetry

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/domain"
)

//DefaultMax is the number of data points returned when no max is requested
const DefaultMax = 100

const datetimeHint = "2010-06-30T15:30:00Z"

//Filter selects a window of data points. Begin and End are inclusive, After and Before
//exclusive; an inclusive bound wins over the exclusive bound on the same side.
type Filter struct {
	Tag    string
	Begin  *time.Time
	After  *time.Time
	End    *time.Time
	Before *time.Time
	Max    int
}

//NewFilter returns an unbounded filter limited to DefaultMax data points
func NewFilter() Filter {
	return Filter{Max: DefaultMax}
}

//ParseFilter reads a Filter from query parameters. Invalid parameters are reported
//as a *domain.ValidationError keyed on the parameter name.
func ParseFilter(params url.Values) (Filter, error) {
	filter := NewFilter()
	filter.Tag = params.Get("tag")

	var err error

	bounds := []struct {
		name   string
		target **time.Time
	}{
		{"begin", &filter.Begin},
		{"after", &filter.After},
		{"end", &filter.End},
		{"before", &filter.Before},
	}

	for _, b := range bounds {
		if *b.target, err = parseDatetime(params, b.name); err != nil {
			return Filter{}, err
		}
	}

	if raw := params.Get("max"); raw != "" {
		filter.Max, err = strconv.Atoi(raw)
		if err != nil || filter.Max < 0 {
			return Filter{}, domain.NewValidationError("max", "A non-negative integer is required.")
		}
	}

	return filter, nil
}

func parseDatetime(params url.Values, name string) (*time.Time, error) {
	raw := params.Get(name)
	if raw == "" {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, domain.NewValidationError(name, fmt.Sprintf("Datetime has wrong format. Use a date and time with zone designator, e.g. %s.", datetimeHint))
	}

	t = t.UTC()
	return &t, nil
}
