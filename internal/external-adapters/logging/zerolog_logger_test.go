package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ochairo/relmirror/internal/domain/interfaces"
)

func TestZerologLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "relmirror", zerolog.InfoLevel, FormatJSON)

	logger.With(interfaces.F("run_id", "abc")).Warn("download failed",
		interfaces.F("platform", "mac"),
		interfaces.F("error", errors.New("timeout")),
		interfaces.F("bytes", 42))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}

	want := map[string]any{
		"level":    "warn",
		"app":      "relmirror",
		"run_id":   "abc",
		"platform": "mac",
		"error":    "timeout",
		"bytes":    float64(42),
		"message":  "download failed",
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s = %v, want %v", k, entry[k], v)
		}
	}
	if _, ok := entry["time"]; !ok {
		t.Error("missing timestamp")
	}
}

func TestZerologLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "relmirror", zerolog.WarnLevel, FormatJSON)

	logger.Debug("hidden")
	logger.Info("hidden", interfaces.F("k", "v"))
	if buf.Len() != 0 {
		t.Errorf("below-level entries were written: %q", buf.String())
	}

	logger.Error("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("error entry missing: %q", buf.String())
	}
}

func TestZerologLogger_Console(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "relmirror", zerolog.DebugLevel, FormatConsole).Info("resolved platform", interfaces.F("version", "2.10.8"))

	out := buf.String()
	if !strings.Contains(out, "resolved platform") || !strings.Contains(out, "version") || !strings.Contains(out, "2.10.8") {
		t.Errorf("console output = %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    zerolog.Level
		wantErr bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"", zerolog.InfoLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"warn", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"verbose", zerolog.NoLevel, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("JSON"); err != nil || f != FormatJSON {
		t.Errorf("ParseFormat(JSON) = %v, %v", f, err)
	}
	if f, err := ParseFormat(""); err != nil || f != FormatConsole {
		t.Errorf("ParseFormat('') = %v, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) should fail")
	}
}
