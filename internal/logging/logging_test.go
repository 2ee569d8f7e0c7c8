package logging

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestNew_ReturnsInfoLevelLogger(t *testing.T) {
	logger := New()

	if logger.GetLevel() != zerolog.TraceLevel && logger.GetLevel() != zerolog.InfoLevel {
		// zerolog.New defaults to TraceLevel until a level is set
		t.Errorf("New() level = %v", logger.GetLevel())
	}
}

func TestNewWithLevel_ValidLevels(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			logger := NewWithLevel(tt.input)
			if logger.GetLevel() != tt.want {
				t.Errorf("NewWithLevel(%q) level = %v, want %v", tt.input, logger.GetLevel(), tt.want)
			}
		})
	}
}

func TestNewWithLevel_InvalidLevelDefaultsToInfo(t *testing.T) {
	for _, input := range []string{"", "invalid", "verbose", "123"} {
		t.Run(input, func(t *testing.T) {
			logger := NewWithLevel(input)
			if logger.GetLevel() != zerolog.InfoLevel {
				t.Errorf("NewWithLevel(%q) level = %v, want info", input, logger.GetLevel())
			}
		})
	}
}

func TestNewWithLevel_TrimsWhitespace(t *testing.T) {
	logger := NewWithLevel("  debug  ")
	if logger.GetLevel() != zerolog.DebugLevel {
		t.Errorf("expected whitespace to be trimmed, got %v", logger.GetLevel())
	}
}
