package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default config", DefaultConfig(), false},
		{"text format", Config{Level: "debug", Format: "text"}, false},
		{"console format", Config{Level: "warning", Format: "console"}, false},
		{"empty level", Config{Format: "json"}, false},
		{"unknown format", Config{Level: "info", Format: "xml"}, true},
		{"unknown level", Config{Level: "loud"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && l == nil {
				t.Fatal("New() returned nil logger")
			}
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "warn", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	l.Debug("d")
	l.Info("i")
	l.Warn("w")
	l.Error("e")

	lines := decodeLines(t, &buf)
	if len(lines) != 2 || lines[0]["msg"] != "w" || lines[1]["msg"] != "e" {
		t.Fatalf("got %v", lines)
	}
}

func TestSharedLevelVar(t *testing.T) {
	var buf bytes.Buffer
	lv := new(slog.LevelVar)
	l, err := New(Config{Level: "error", Output: &buf, LevelVar: lv})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	l.Info("hidden")
	lv.Set(slog.LevelDebug)
	l.Debug("shown")

	lines := decodeLines(t, &buf)
	if len(lines) != 1 || lines[0]["msg"] != "shown" {
		t.Fatalf("got %v", lines)
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	l, _ := New(Config{Output: &buf})
	l.With("node", "n1").With("component", "ring").Info("started")

	lines := decodeLines(t, &buf)
	if lines[0]["node"] != "n1" || lines[0]["component"] != "ring" {
		t.Fatalf("got %v", lines[0])
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
		if name := LevelName(got); tt.in != "" && !strings.EqualFold(name, tt.in) && tt.in != "warning" {
			t.Errorf("LevelName(%v) = %q", got, name)
		}
	}
}

func TestDefaultAndNop(t *testing.T) {
	prev := Default()
	defer SetDefault(prev)

	var buf bytes.Buffer
	l, _ := New(Config{Output: &buf})
	SetDefault(l)
	SetDefault(nil)
	Default().Info("via default")
	if !strings.Contains(buf.String(), "via default") {
		t.Fatal("Default() did not return the logger set by SetDefault")
	}

	Nop().Error("dropped")
}
