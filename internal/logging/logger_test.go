package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLogger_JSONWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "info", "auto", false)
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("job completed", "job_id", "abc")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %q", buf.String())
	}
	if rec["msg"] != "job completed" || rec["job_id"] != "abc" {
		t.Fatalf("record = %v", rec)
	}
}

func TestNewLogger_ConsoleOnTerminal(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "info", "auto", true)
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("hello", "k", "v")
	if !strings.Contains(buf.String(), "msg=hello") || !strings.Contains(buf.String(), "k=v") {
		t.Fatalf("unexpected console output %q", buf.String())
	}
}

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "warn", "json", false)
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info written at warn level: %q", buf.String())
	}
}

func TestNewLogger_InvalidFormat(t *testing.T) {
	if _, err := newLogger(&bytes.Buffer{}, "info", "xml", false); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
