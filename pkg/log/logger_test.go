package log

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestNoopLogger(t *testing.T) {
	// Must not panic and must accept any event.
	var l Logger = NoopLogger{}
	l.Log(Event{})
	l.Log(Event{Component: "service", Message: "x", Err: errors.New("boom")})
}

func TestSlogAdapterFields(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(slog.New(slog.NewTextHandler(&buf, nil)))

	adapter.Log(Event{
		Component: "service",
		Message:   "auth init",
		Username:  "alice",
		SessionID: "sess-1",
	})

	out := buf.String()
	for _, want := range []string{"auth init", "component=service", "username=alice", "session_id=sess-1", "level=INFO"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestSlogAdapterErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(slog.New(slog.NewTextHandler(&buf, nil)))

	adapter.Log(Event{Component: "authd", Message: "login failed", Err: errors.New("kc mismatch")})

	out := buf.String()
	if !strings.Contains(out, "level=WARN") {
		t.Errorf("error events should log at WARN: %s", out)
	}
	if !strings.Contains(out, "kc mismatch") {
		t.Errorf("output missing error detail: %s", out)
	}
}
