package slog

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/ktevet1983-hub/scorecache"
)

func TestSlogJSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "debug", "json")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Info("hydrated", scorecache.Fields{"group": "10:2024", "items": 2})

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("not json: %q", buf.String())
	}
	if line["msg"] != "hydrated" || line["group"] != "10:2024" || line["items"] != float64(2) {
		t.Fatalf("line = %v", line)
	}
}

func TestSlogLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "warn", "text")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Info("hidden", nil)
	if buf.Len() != 0 {
		t.Fatalf("info written at warn level: %q", buf.String())
	}
	if _, err := New(&buf, "loud", "text"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
