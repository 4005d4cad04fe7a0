package goSession

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/MrEthical07/goSession/internal/devbackend"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, AuditEvent) {
	s.count.Add(1)
}

func (s *countingSink) Count() int64 {
	return s.count.Load()
}

func withAudit(sink AuditSink) func(*Builder) {
	return func(b *Builder) {
		cfg := b.config
		cfg.Audit.Enabled = true
		cfg.Audit.BufferSize = 32
		cfg.Audit.DropIfFull = false
		b.WithConfig(cfg).WithAuditSink(sink)
	}
}

func collectEvents(t *testing.T, sink *ChannelSink, n int) []AuditEvent {
	t.Helper()
	events := make([]AuditEvent, 0, n)
	timeout := time.After(2 * time.Second)
	for len(events) < n {
		select {
		case ev := <-sink.Events():
			events = append(events, ev)
		case <-timeout:
			t.Fatalf("expected %d audit events, got %d", n, len(events))
		}
	}
	return events
}

func TestAuditDisabledNoSinkCalls(t *testing.T) {
	sink := &countingSink{}
	h := newHarness(t, func(b *Builder) { b.WithAuditSink(sink) })

	_, _ = h.engine.Login(context.Background(), "admin", "wrong")
	h.login(t, "admin", "admin1234")
	if err := h.engine.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if sink.Count() != 0 {
		t.Fatalf("expected no audit sink calls when disabled, got %d", sink.Count())
	}
}

func TestAuditForcedLogoutSequence(t *testing.T) {
	sink := NewChannelSink(32)
	h := newHarness(t, withAudit(sink))
	h.login(t, "admin", "admin1234")

	h.backend.EndSessions()
	_, _ = h.engine.Get(context.Background(), "/api/data/orders", nil)
	if err := h.engine.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	events := collectEvents(t, sink, 4)
	want := []string{AuditLogin, AuditForcedLogout, AuditRenew, AuditAuthorizationLost}
	for i, ev := range events {
		if ev.EventType != want[i] {
			t.Fatalf("event %d: expected %s, got %s", i, want[i], ev.EventType)
		}
	}
	if events[2].Success || events[2].Error == "" {
		t.Fatalf("expected failed renewal event, got %+v", events[2])
	}
	if events[1].LoginID != "" {
		t.Fatalf("forced logout is recorded after the session is cleared, got %q", events[1].LoginID)
	}
}

func TestAuditNoSecretsInEvents(t *testing.T) {
	sink := NewChannelSink(32)
	h := newHarness(t, withAudit(sink))

	const password = "admin1234"
	_, _ = h.engine.Login(context.Background(), "admin", "not-"+password)
	h.login(t, "admin", password)
	token := h.engine.Store().Credential().Token

	h.backend.RevokeAccessTokens()
	if _, err := h.engine.Get(context.Background(), "/api/data/orders", nil); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if h.backend.Calls(devbackend.CallRefresh) != 1 {
		t.Fatal("expected a renewal")
	}
	renewed := h.engine.Store().Credential().Token
	if err := h.engine.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	events := collectEvents(t, sink, 3)
	needles := []string{password, "not-" + password, token, renewed}
	for _, ev := range events {
		for _, needle := range needles {
			if strings.Contains(ev.Error, needle) {
				t.Fatalf("sensitive value leaked in audit error field of %s", ev.EventType)
			}
			for k, v := range ev.Metadata {
				if strings.Contains(k, needle) || strings.Contains(v, needle) {
					t.Fatalf("sensitive value leaked in audit metadata of %s", ev.EventType)
				}
			}
		}
	}
}

func TestAuditJSONWriterSinkWritesJSONLines(t *testing.T) {
	var buf syncBuffer
	sink := NewJSONWriterSink(&buf)
	h := newHarness(t, withAudit(sink))

	ctx := WithRequestID(context.Background(), "req-login")
	if _, err := h.engine.Login(ctx, "admin", "admin1234"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if err := h.engine.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if !buf.Contains(`"event_type":"login"`) {
		t.Fatal("expected JSON log line to contain event type")
	}
	if !buf.Contains(`"login_id":"admin"`) || !buf.Contains(`"request_id":"req-login"`) {
		t.Fatalf("expected login id and request id, got %s", buf.String())
	}
}

func TestAuditDefaultsToEngineLog(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := newHarness(t, withAudit(nil), func(b *Builder) { b.WithLogger(zap.New(core)) })

	h.login(t, "admin", "admin1234")
	if err := h.engine.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	entries := logs.FilterLoggerName("engine.audit").FilterField(zap.String("event_type", AuditLogin)).AllUntimed()
	if len(entries) != 1 {
		t.Fatalf("expected one logged login event, got %d", len(entries))
	}
	if got := h.engine.AuditStats(); got.Delivered == 0 || got.Panics != 0 {
		t.Fatalf("unexpected audit stats %+v", got)
	}
}

func TestAuditMultiSinkReachesEverySink(t *testing.T) {
	first, second := NewChannelSink(16), NewChannelSink(16)
	h := newHarness(t, withAudit(NewMultiSink(first, second)))

	h.login(t, "admin", "admin1234")
	if err := h.engine.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	a := collectEvents(t, first, 1)
	b := collectEvents(t, second, 1)
	if a[0].ID != b[0].ID || a[0].EventType != AuditLogin {
		t.Fatalf("sinks saw different events: %+v / %+v", a[0], b[0])
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}

func (b *syncBuffer) Contains(v string) bool {
	return strings.Contains(b.String(), v)
}
