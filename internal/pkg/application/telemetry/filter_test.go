package telemetry

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/domain"
)

func TestParseFilterDefaults(t *testing.T) {
	filter, err := ParseFilter(url.Values{})
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}

	if filter.Max != DefaultMax || filter.Tag != "" || filter.Begin != nil || filter.Before != nil {
		t.Errorf("unexpected default filter: %+v", filter)
	}
}

func TestParseFilterConvertsTimesToUTC(t *testing.T) {
	filter, err := ParseFilter(url.Values{"after": {"2010-06-30T17:30:00+02:00"}, "max": {"0"}})
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}

	want := time.Date(2010, 6, 30, 15, 30, 0, 0, time.UTC)
	if filter.After == nil || !filter.After.Equal(want) || filter.After.Location() != time.UTC {
		t.Errorf("after = %v, want %v", filter.After, want)
	}
	if filter.Max != 0 {
		t.Errorf("max = %d, want 0", filter.Max)
	}
}

func TestParseFilterRejectsBadParameters(t *testing.T) {
	tests := []struct {
		params url.Values
		field  string
	}{
		{url.Values{"begin": {"2010-06-30"}}, "begin"},
		{url.Values{"end": {"2010-06-30T15:30:00"}}, "end"},
		{url.Values{"before": {"yesterday"}}, "before"},
		{url.Values{"max": {"-1"}}, "max"},
		{url.Values{"max": {"ten"}}, "max"},
	}

	for _, tc := range tests {
		_, err := ParseFilter(tc.params)

		var verr *domain.ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("%v: expected a validation error, got %v", tc.params, err)
			continue
		}
		if verr.Field != tc.field {
			t.Errorf("%v: field = %s, want %s", tc.params, verr.Field, tc.field)
		}
	}
}
