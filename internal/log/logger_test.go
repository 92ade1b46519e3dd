package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestJSONLoggerTagsComponentOnce(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Format: "json", Output: &buf}).WithComponent(ComponentDataset)

	l.Info("Dataset loaded", FieldRecords, 3)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid json %q: %v", buf.String(), err)
	}
	if entry[FieldComponent] != ComponentDataset {
		t.Fatalf("component = %v", entry[FieldComponent])
	}
	if strings.Count(buf.String(), `"component"`) != 1 {
		t.Fatalf("component must appear once: %s", buf.String())
	}
	if entry[FieldRecords] != float64(3) {
		t.Fatalf("records = %v", entry[FieldRecords])
	}
}

func TestContextRoundTrip(t *testing.T) {
	l := Discard()
	if FromContext(NewContext(context.Background(), l)) != l {
		t.Fatal("logger not carried by context")
	}
	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext must fall back to the default logger")
	}
}

func TestStructuredLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelDebug, Output: &buf}))
	r := httptest.NewRequest("GET", "/api/summary?anno=2026", nil)

	sl.LogHTTPEnd(context.Background(), r, "req-1", 503, 5*time.Millisecond, "127.0.0.1")
	if !strings.Contains(buf.String(), "level=ERROR") || !strings.Contains(buf.String(), "request_id=req-1") {
		t.Fatalf("unexpected output: %s", buf.String())
	}

	buf.Reset()
	sl.LogError(context.Background(), "render failed", errors.New("boom"), ComponentRender, OpChart, nil)
	if !strings.Contains(buf.String(), "component=render") || !strings.Contains(buf.String(), "error=boom") {
		t.Fatalf("unexpected output: %s", buf.String())
	}
}
