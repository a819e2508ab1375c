package logger

import (
	"bytes"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug": DEBUG,
		"warn":  WARN,
		"error": ERROR,
		"fatal": FATAL,
		"":      INFO,
		"bogus": INFO,
	}
	for input, want := range cases {
		if got := ParseLevel(input); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestLoggerSatisfiesDispatchLogger(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, DEBUG)
	// Warnf/Errorf must not panic even with no formatting args.
	l.Warnf("no args")
	l.Errorf("one arg: %d", 1)
	if buf.Len() == 0 {
		t.Fatal("expected log output, got none")
	}
}
