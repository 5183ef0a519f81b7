package core

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

func TestNewDefaultLogger(t *testing.T) {
	logger := NewDefaultLogger()

	if logger == nil {
		t.Error("NewDefaultLogger() should not return nil")
	}

	// Test that logger methods don't panic
	logger.Error("test error")
	logger.Errorf("test error: %s", "message")
	logger.Warn("test warning")
	logger.Warnf("test warning: %s", "message")
	logger.Info("test info")
	logger.Infof("test info: %s", "message")
	logger.Debug("test debug")
	logger.Debugf("test debug: %s", "message")
}

func TestWriterLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(LevelWarn, &buf)

	logger.Debugf("debug %d", 1)
	logger.Infof("info %d", 2)
	logger.Warnf("warn %d", 3)
	logger.Error("error ", 4)

	out := buf.String()
	for _, absent := range []string{"[DEBUG]", "[INFO]"} {
		if strings.Contains(out, absent) {
			t.Errorf("output contains %s below minimum level:\n%s", absent, out)
		}
	}
	for _, want := range []string{"[WARN] ", "warn 3", "[ERROR] ", "error 4"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriterLogger_ConcurrentWrites(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(LevelDebug, &buf)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if j%2 == 0 {
					logger.Infof("g%d line %d", i, j)
				} else {
					logger.Errorf("g%d line %d", i, j)
				}
			}
		}(i)
	}
	wg.Wait()

	if got := strings.Count(buf.String(), "\n"); got != 400 {
		t.Errorf("got %d lines, want 400", got)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"", LevelInfo, false},
		{"INFO", LevelInfo, false},
		{"warning", LevelWarn, false},
		{" error ", LevelError, false},
		{"loud", LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLevel_String(t *testing.T) {
	if got := LevelWarn.String(); got != "warn" {
		t.Errorf("LevelWarn.String() = %q, want warn", got)
	}
	if got := Level(7).String(); got != "level(7)" {
		t.Errorf("Level(7).String() = %q, want level(7)", got)
	}
}
