package logger

import "testing"

func TestGetWithoutInit(t *testing.T) {
	log := Get()
	if log == nil {
		t.Fatal("Get must fall back to a default logger")
	}
	if again := Get(); again != log {
		t.Error("Get must return the same global logger")
	}
}

func TestSync(t *testing.T) {
	Get()
	// stdout sync may fail on some platforms; Sync must not panic either way
	_ = Sync()
}

func TestNewLoggerRejectsBadLevel(t *testing.T) {
	if _, err := newLogger(Config{Level: "shouting", Encoding: "json"}); err == nil {
		t.Fatal("expected an invalid level to fail")
	}
}

func TestNewLoggerEncodings(t *testing.T) {
	for _, enc := range []string{"json", "console"} {
		if _, err := newLogger(Config{Level: "info", Encoding: enc}); err != nil {
			t.Errorf("encoding %q failed: %v", enc, err)
		}
	}
}
