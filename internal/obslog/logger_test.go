package obslog

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"DEBUG":   zapcore.DebugLevel,
		"debug":   zapcore.DebugLevel,
		"WARN":    zapcore.WarnLevel,
		"WARNING": zapcore.WarnLevel,
		"ERROR":   zapcore.ErrorLevel,
		"INFO":    zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewTagsComponent(t *testing.T) {
	logger := New("filter", "DEBUG")
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
	defer logger.Sync()
}

func TestActionDoesNotPanic(t *testing.T) {
	logger := New("test", "INFO")
	defer logger.Sync()
	Action(logger, "did_a_thing", nil)
	Action(logger, "did_a_thing_badly", errExample{})
}

type errExample struct{}

func (errExample) Error() string { return "boom" }
