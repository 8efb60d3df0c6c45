package logging

import "testing"

func TestThatUnknownLevelsAreRejected(t *testing.T) {
	if _, err := NewLoggerWithConfig("chatty", "json"); err == nil {
		t.Error("expected an error for an unknown log level")
	}

	if _, err := NewLoggerWithConfig("debug", "text"); err != nil {
		t.Errorf("unexpected error: %s", err.Error())
	}
}
