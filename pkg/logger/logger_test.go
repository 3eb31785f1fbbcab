package logger

import (
	"testing"
)

func TestLogger(t *testing.T) {
	log := NewDefault()
	if log == nil {
		t.Fatal("Failed to create default logger")
	}

	log.Info("test message",
		"key1", "value1",
		"key2", 123,
	)

	contextLogger := log.With(
		"endpoint", "health",
		"environment", "prod",
	)
	contextLogger.Info("test with context")

	log.Debug("debug message")
	log.Info("info message")
	log.Warn("warning message")
	log.Error("error message")
}

func TestLoggerLevels(t *testing.T) {
	debug := NewWithLevel("debug")
	if debug == nil {
		t.Fatal("Failed to create debug logger")
	}
	debug.Debug("visible at debug level")

	// An unknown level falls back to info rather than failing.
	fallback := NewWithLevel("chatty")
	if fallback == nil {
		t.Fatal("Failed to create fallback logger")
	}
}
