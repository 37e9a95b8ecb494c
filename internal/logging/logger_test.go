package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoggerSetOutput(t *testing.T) {
	l := NewLogger("cli", Options{})
	var buf bytes.Buffer
	l.SetOutput(&buf)

	l.Infof("uploaded %d files", 3)

	if !strings.Contains(buf.String(), "uploaded 3 files") {
		t.Errorf("Expected message in output, got %q", buf.String())
	}
	if l.Output() != &buf {
		t.Error("Output() should return the writer passed to SetOutput")
	}
}

func TestLoggerFileOutput(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "pdfmerge.log")
	l := NewLogger("gui", Options{File: logPath})
	var buf bytes.Buffer
	l.SetOutput(&buf)

	l.Warn().Str("stored_name", "abc").Msg("remove failed")
	if err := l.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "remove failed") {
		t.Errorf("Expected message in log file, got %q", string(data))
	}
	if !strings.Contains(buf.String(), "remove failed") {
		t.Errorf("Expected message on console too, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{"", zerolog.InfoLevel, false},
		{"info", zerolog.InfoLevel, false},
		{"DEBUG", zerolog.DebugLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"loud", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRetryLogger(t *testing.T) {
	l := NewLogger("cli", Options{})
	var buf bytes.Buffer
	l.SetOutput(&buf)

	RetryLogger{L: l}.Warn("request failed", "url", "http://x/upload", "attempt", 1)

	out := buf.String()
	if !strings.Contains(out, "[retry] request failed") {
		t.Errorf("Expected retry message, got %q", out)
	}
	if !strings.Contains(out, "http://x/upload") {
		t.Errorf("Expected key/value fields, got %q", out)
	}
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Errorf("nothing %s", "here")
	if err := l.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
