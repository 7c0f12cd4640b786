package config

import (
	"log/slog"
	"os"
	"strings"
	"testing"
)

var keys = []string{
	"VIMY_SOCKET", "VIMY_WS_ADDR", "VIMY_WS_PATH", "VIMY_PROTOCOL_VERSION", "VIMY_TEXT_ENCODING",
	"VIMY_MAX_FRAME", "VIMY_SCRIPT", "VIMY_OTEL_ENDPOINT", "VIMY_OTEL_ENABLED", "VIMY_LOG_LEVEL",
}

// unset clears every host variable for the test; t.Setenv restores them.
func unset(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	unset(t)
	t.Setenv("VIMY_SOCKET", "/tmp/vimy-host.sock")

	h, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if h.Socket != "/tmp/vimy-host.sock" || h.WebSocketAddr != "" || h.WebSocketPath != "/robot" {
		t.Errorf("listeners = %+v", h)
	}
	if h.MaxFrame != 1<<20 || h.LogLevel != slog.LevelInfo || h.Tracing() {
		t.Errorf("host = %+v", h)
	}
	if v, _ := h.Version(); v != 0x01090500 {
		t.Errorf("Version = %#x, want 0x01090500", v)
	}
}

func TestLoadOverrides(t *testing.T) {
	unset(t)
	t.Setenv("VIMY_WS_ADDR", ":8788")
	t.Setenv("VIMY_PROTOCOL_VERSION", "1.10")
	t.Setenv("VIMY_TEXT_ENCODING", "ISO-8859-1")
	t.Setenv("VIMY_MAX_FRAME", "4096")
	t.Setenv("VIMY_OTEL_ENDPOINT", "http://localhost:4318")
	t.Setenv("VIMY_LOG_LEVEL", "debug")

	h, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if h.WebSocketAddr != ":8788" || h.MaxFrame != 4096 || h.LogLevel != slog.LevelDebug {
		t.Errorf("host = %+v", h)
	}
	if v, _ := h.Version(); v != 0x010A0000 {
		t.Errorf("Version = %#x, want 0x010a0000", v)
	}
	if !h.Tracing() {
		t.Error("tracing off with an endpoint set")
	}

	t.Setenv("VIMY_OTEL_ENABLED", "false")
	if h, _ := Load(); h.Tracing() {
		t.Error("tracing on while disabled")
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name, key, value, want string
	}{
		{"frame", "VIMY_MAX_FRAME", "0", "VIMY_MAX_FRAME"},
		{"frame type", "VIMY_MAX_FRAME", "big", "parse env:"},
		{"version", "VIMY_PROTOCOL_VERSION", "1.x", "parse version"},
		{"encoding", "VIMY_TEXT_ENCODING", "klingon", "lookup text encoding"},
		{"level", "VIMY_LOG_LEVEL", "loud", "parse env:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unset(t)
			t.Setenv("VIMY_SOCKET", "/tmp/x.sock")
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Load = %v, want error containing %q", err, tt.want)
			}
		})
	}

	t.Run("no listener", func(t *testing.T) {
		unset(t)
		if _, err := Load(); err == nil || !strings.Contains(err.Error(), "VIMY_SOCKET or VIMY_WS_ADDR") {
			t.Fatalf("Load = %v, want a missing listener error", err)
		}
	})
}
