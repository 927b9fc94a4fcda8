package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
	}{
		{name: "default config", config: nil},
		{name: "debug level", config: &Config{Level: LevelDebug, Output: &bytes.Buffer{}}},
		{name: "error level", config: &Config{Level: LevelError, Output: &bytes.Buffer{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewLogger(tt.config)
			if logger == nil {
				t.Fatal("NewLogger() returned nil")
			}
		})
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelWarn, Output: &buf})

	logger.Debug("should not appear")
	logger.Info("also should not appear")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below configured level, got: %s", buf.String())
	}

	logger.Warn("ordinal not supported", "ordinal", "0x99")
	output := buf.String()
	if !strings.Contains(output, "ordinal not supported") || !strings.Contains(output, "ordinal=0x99") {
		t.Errorf("expected warn message with fields, got: %s", output)
	}
}

func TestLoggerCritical(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelDebug, Output: &buf})

	logger.Critical("negative leave depth", "thread", "t1")
	output := buf.String()
	if !strings.Contains(output, "[CRITICAL]") || !strings.Contains(output, "thread=t1") {
		t.Errorf("expected critical-level output with fields, got: %s", output)
	}
}

func TestGlobalLoggerFunctions(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(NewLogger(&Config{Level: LevelDebug, Output: &buf}))

	Debug("debug message", "key", "value")
	if output := buf.String(); !strings.Contains(output, "debug message") || !strings.Contains(output, "key=value") {
		t.Errorf("expected debug message with fields, got: %s", output)
	}

	buf.Reset()
	Warn("warning message")
	if output := buf.String(); !strings.Contains(output, "warning message") {
		t.Errorf("expected warning message, got: %s", output)
	}

	buf.Reset()
	Error("error message")
	if output := buf.String(); !strings.Contains(output, "error message") {
		t.Errorf("expected error message, got: %s", output)
	}

	buf.Reset()
	Critical("critical message")
	if output := buf.String(); !strings.Contains(output, "critical message") {
		t.Errorf("expected critical message, got: %s", output)
	}
}
