// ABOUTME: Tests for logger construction
// ABOUTME: Checks level filtering and formatter selection
package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, Options{Level: "warn"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info("hidden message")
	logger.Warn("visible message", "file", "a.pdf")

	out := buf.String()
	if strings.Contains(out, "hidden message") {
		t.Error("info message logged at warn level")
	}
	if !strings.Contains(out, "visible message") || !strings.Contains(out, "a.pdf") {
		t.Errorf("warn output missing fields: %q", out)
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, Options{Level: "info", Format: "json"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info("indexed", "chunks", 12)

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "indexed" {
		t.Errorf("msg = %v, want indexed", entry["msg"])
	}
}

func TestNew_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"bad level", Options{Level: "loud"}},
		{"bad format", Options{Format: "xml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(&bytes.Buffer{}, tt.opts); err == nil {
				t.Error("New() should fail")
			}
		})
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Error("nothing to see")
}
