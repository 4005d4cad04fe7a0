package interceptor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/notify"
	"github.com/MrEthical07/goSession/refresh"
	"github.com/MrEthical07/goSession/session"
	"github.com/MrEthical07/goSession/transport"
)

type fixture struct {
	store    *session.Store
	pipeline *Pipeline
	alerts   *notify.Recorder
	renewals atomic.Int32
	lost     atomic.Int32
	lostErr  atomic.Value
}

type backend func(req *transport.Request, attempt int) (*transport.Response, error)

func jsonResponse(t *testing.T, status int, body any) *transport.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var data any
	_ = json.Unmarshal(raw, &data)
	return &transport.Response{StatusCode: status, Header: http.Header{}, Body: raw, Data: data}
}

func statusFailure(t *testing.T, req *transport.Request, status int, body any) (*transport.Response, error) {
	t.Helper()
	resp := jsonResponse(t, status, body)
	return resp, &transport.StatusError{Method: req.Method, Path: req.Path, StatusCode: status, Body: resp.Body}
}

func newFixture(t *testing.T, expiresIn time.Duration, renew refresh.Fetcher, be backend) *fixture {
	t.Helper()
	f := &fixture{alerts: &notify.Recorder{}}
	f.store = session.NewStore(session.Config{}, nil)
	seed := session.Payload{AccessToken: session.Token("T1"), LoginID: "bob"}
	if expiresIn != 0 {
		seed.ExpiresAt = session.At(time.Now().Add(expiresIn))
	}
	if err := f.store.ApplySession(context.Background(), seed, session.ApplyOptions{}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	coord, err := refresh.New(f.store, refresh.Config{
		Renew: func(ctx context.Context) (session.Payload, error) {
			f.renewals.Add(1)
			return renew(ctx)
		},
	})
	if err != nil {
		t.Fatalf("coordinator: %v", err)
	}

	var mu sync.Mutex
	attempts := map[string]int{}
	next := transport.DoerFunc(func(_ context.Context, req *transport.Request) (*transport.Response, error) {
		mu.Lock()
		attempts[req.Path]++
		n := attempts[req.Path]
		mu.Unlock()
		return be(req, n)
	})

	f.pipeline, err = New(next, Config{
		Store:    f.store,
		Renewer:  coord,
		Notifier: f.alerts,
		OnAuthorizationLost: func(_ context.Context, err error) {
			f.lost.Add(1)
			f.lostErr.Store(err)
		},
	})
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	return f
}

func renewTo(token string) refresh.Fetcher {
	return func(context.Context) (session.Payload, error) {
		return session.Payload{AccessToken: session.Token(token), ExpiresIn: 3600}, nil
	}
}

func TestPipelineAttachesHeadersAndNormalizes(t *testing.T) {
	var seen http.Header
	f := newFixture(t, time.Hour, renewTo("T2"), func(req *transport.Request, _ int) (*transport.Response, error) {
		seen = req.Header.Clone()
		return jsonResponse(t, 200, map[string]any{"list": []any{map[string]any{"a": 1}}}), nil
	})

	in := &transport.Request{Method: http.MethodGet, Path: "/api/orders"}
	resp, err := f.pipeline.Do(context.Background(), in)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if got := seen.Get("Authorization"); got != "Bearer T1" {
		t.Fatalf("unexpected Authorization %q", got)
	}
	if seen.Get(DefaultRequestIDHeader) == "" {
		t.Fatal("expected request id header")
	}
	if in.Header != nil {
		t.Fatal("caller's request must not be modified")
	}
	row := resp.Data.(map[string]any)["list"].([]any)[0].(map[string]any)
	if row[RowIDKey] != "0" || row[RowCRUDKey] != RowRead {
		t.Fatalf("row not normalized: %v", row)
	}
	if f.renewals.Load() != 0 || len(f.alerts.Alerts()) != 0 {
		t.Fatal("fresh credential must not renew or alert")
	}
}

func TestPipelineApplicationErrorAlertsOnce(t *testing.T) {
	f := newFixture(t, time.Hour, renewTo("T2"), func(req *transport.Request, _ int) (*transport.Response, error) {
		return jsonResponse(t, 200, map[string]any{"__errmsg__": "order.locked", "msgargs": []any{"A-1"}}), nil
	})

	_, err := f.pipeline.Do(context.Background(), &transport.Request{Path: "/api/orders"})
	var appErr *ApplicationError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected ApplicationError, got %v", err)
	}
	if appErr.Key != "order.locked" {
		t.Fatalf("unexpected key %q", appErr.Key)
	}
	alerts := f.alerts.Alerts()
	if len(alerts) != 1 || alerts[0].Message.Key != "order.locked" || alerts[0].Title != notify.TitleError {
		t.Fatalf("expected one Error alert, got %+v", alerts)
	}
	if len(alerts[0].Message.Args) != 1 || alerts[0].Message.Args[0] != "A-1" {
		t.Fatalf("expected message args, got %+v", alerts[0].Message.Args)
	}
}

func TestPipelineRetriesOnceAfterUnauthorized(t *testing.T) {
	var auths []string
	var mu sync.Mutex
	f := newFixture(t, time.Hour, renewTo("T2"), func(req *transport.Request, attempt int) (*transport.Response, error) {
		mu.Lock()
		auths = append(auths, req.Header.Get("Authorization"))
		mu.Unlock()
		if attempt == 1 {
			return statusFailure(t, req, 401, map[string]any{})
		}
		if !req.Retried {
			t.Error("second attempt must carry the retry marker")
		}
		return jsonResponse(t, 200, map[string]any{"ok": true}), nil
	})

	resp, err := f.pipeline.Do(context.Background(), &transport.Request{Path: "/api/orders"})
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if f.renewals.Load() != 1 {
		t.Fatalf("expected one renewal, got %d", f.renewals.Load())
	}
	if len(auths) != 2 || auths[0] != "Bearer T1" || auths[1] != "Bearer T2" {
		t.Fatalf("unexpected Authorization sequence %v", auths)
	}
	if len(f.alerts.Alerts()) != 0 {
		t.Fatalf("recovered call must not alert, got %+v", f.alerts.Alerts())
	}
}

func TestPipelineSecondUnauthorizedDeniesAuthorization(t *testing.T) {
	var sends atomic.Int32
	f := newFixture(t, time.Hour, renewTo("T2"), func(req *transport.Request, _ int) (*transport.Response, error) {
		sends.Add(1)
		return statusFailure(t, req, 401, map[string]any{})
	})

	_, err := f.pipeline.Do(context.Background(), &transport.Request{Path: "/api/orders"})
	if !errors.Is(err, ErrAuthorizationDenied) {
		t.Fatalf("expected ErrAuthorizationDenied, got %v", err)
	}
	if sends.Load() != 2 {
		t.Fatalf("expected exactly one resend, got %d sends", sends.Load())
	}
	if f.store.IsAuthenticated() {
		t.Fatal("store must be logged out")
	}
	if f.lost.Load() != 1 {
		t.Fatalf("expected one authorization-lost callback, got %d", f.lost.Load())
	}
	if n := len(f.alerts.Alerts()); n != 1 {
		t.Fatalf("expected exactly one alert, got %d", n)
	}
}

func TestPipelineRejectedRenewalLogsOut(t *testing.T) {
	f := newFixture(t, time.Hour, func(context.Context) (session.Payload, error) {
		return session.Payload{}, &transport.StatusError{StatusCode: 403}
	}, func(req *transport.Request, _ int) (*transport.Response, error) {
		return statusFailure(t, req, 401, map[string]any{})
	})

	_, err := f.pipeline.Do(context.Background(), &transport.Request{Path: "/api/orders"})
	if !errors.Is(err, ErrAuthorizationDenied) || !errors.Is(err, refresh.ErrInvalidCredential) {
		t.Fatalf("expected denied wrapping invalid credential, got %v", err)
	}
	if f.store.IsAuthenticated() {
		t.Fatal("store must be logged out")
	}
	if f.lost.Load() != 1 {
		t.Fatal("expected redirect callback")
	}
	alerts := f.alerts.Alerts()
	if len(alerts) != 1 || alerts[0].Message.Key != notify.KeySessionExpired {
		t.Fatalf("expected one session-expired alert, got %+v", alerts)
	}
}

func TestPipelineTransientRenewalKeepsSession(t *testing.T) {
	f := newFixture(t, time.Hour, func(context.Context) (session.Payload, error) {
		return session.Payload{}, errors.New("connection reset")
	}, func(req *transport.Request, _ int) (*transport.Response, error) {
		return statusFailure(t, req, 401, map[string]any{})
	})

	_, err := f.pipeline.Do(context.Background(), &transport.Request{Path: "/api/orders"})
	if !errors.Is(err, refresh.ErrTransientNetwork) {
		t.Fatalf("expected ErrTransientNetwork, got %v", err)
	}
	if errors.Is(err, ErrAuthorizationDenied) {
		t.Fatal("transient failure must not deny authorization")
	}
	if !f.store.IsAuthenticated() {
		t.Fatal("transient failure must not log out")
	}
	if f.lost.Load() != 0 {
		t.Fatal("transient failure must not redirect")
	}
	if n := len(f.alerts.Alerts()); n != 1 {
		t.Fatalf("expected one alert, got %d", n)
	}
}

func TestPipelineStaleCredentialRenewsOnceForConcurrentCalls(t *testing.T) {
	release := make(chan struct{})
	var seenMu sync.Mutex
	seen := map[string]int{}
	f := newFixture(t, 30*time.Second, func(context.Context) (session.Payload, error) {
		<-release
		return session.Payload{AccessToken: session.Token("T2"), ExpiresIn: 3600}, nil
	}, func(req *transport.Request, _ int) (*transport.Response, error) {
		seenMu.Lock()
		seen[req.Header.Get("Authorization")]++
		seenMu.Unlock()
		return jsonResponse(t, 200, map[string]any{}), nil
	})

	const n = 10
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if _, err := f.pipeline.Do(context.Background(), &transport.Request{Path: "/api/orders"}); err != nil {
				t.Errorf("do: %v", err)
			}
		}()
	}
	time.Sleep(50 * time.Millisecond)
	if f.pipeline.InFlight() != n {
		t.Errorf("expected %d calls waiting in pre-send, got %d", n, f.pipeline.InFlight())
	}
	close(release)
	wg.Wait()

	if f.renewals.Load() != 1 {
		t.Fatalf("expected one renewal, got %d", f.renewals.Load())
	}
	if seen["Bearer T2"] != n || len(seen) != 1 {
		t.Fatalf("every call must carry the renewed credential, got %v", seen)
	}
	if f.pipeline.InFlight() != 0 {
		t.Fatal("in-flight counter must return to zero")
	}
}

func TestPipelinePreSendFailureAbortsWithoutSending(t *testing.T) {
	var sends atomic.Int32
	f := newFixture(t, 30*time.Second, func(context.Context) (session.Payload, error) {
		return session.Payload{}, errors.New("offline")
	}, func(req *transport.Request, _ int) (*transport.Response, error) {
		sends.Add(1)
		return jsonResponse(t, 200, map[string]any{}), nil
	})

	_, err := f.pipeline.Do(context.Background(), &transport.Request{Path: "/api/orders"})
	if !errors.Is(err, refresh.ErrTransientNetwork) {
		t.Fatalf("expected ErrTransientNetwork, got %v", err)
	}
	if sends.Load() != 0 {
		t.Fatal("request must not be sent after a failed pre-send renewal")
	}
	alerts := f.alerts.Alerts()
	if len(alerts) != 1 || alerts[0].Message.Key != notify.KeyNetworkError {
		t.Fatalf("expected one network alert, got %+v", alerts)
	}
}

func TestPipelineOtherFailuresAlertBackendMessage(t *testing.T) {
	cases := []struct {
		name string
		body any
		key  string
	}{
		{name: "backend message", body: map[string]any{"__errmsg__": "db.unavailable"}, key: "db.unavailable"},
		{name: "no message", body: map[string]any{}, key: notify.KeyGenericError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, time.Hour, renewTo("T2"), func(req *transport.Request, _ int) (*transport.Response, error) {
				return statusFailure(t, req, 500, tc.body)
			})
			resp, err := f.pipeline.Do(context.Background(), &transport.Request{Path: "/api/orders"})
			var se *transport.StatusError
			if !errors.As(err, &se) || se.StatusCode != 500 {
				t.Fatalf("expected StatusError 500, got %v", err)
			}
			if resp == nil {
				t.Fatal("error response must be returned")
			}
			alerts := f.alerts.Alerts()
			if len(alerts) != 1 || alerts[0].Message.Key != tc.key {
				t.Fatalf("expected one %q alert, got %+v", tc.key, alerts)
			}
			if f.renewals.Load() != 0 {
				t.Fatal("non-401 failures must not renew")
			}
		})
	}
}

func TestPipelineRenewalRequestsBypassSessionHandling(t *testing.T) {
	var seen http.Header
	f := newFixture(t, 30*time.Second, renewTo("T2"), func(req *transport.Request, _ int) (*transport.Response, error) {
		seen = req.Header.Clone()
		return statusFailure(t, req, 401, map[string]any{})
	})

	_, err := f.pipeline.Do(context.Background(), &transport.Request{Method: http.MethodPost, Path: "/api/auth/refresh", Renewal: true})
	if refresh.StatusOf(err) != 401 {
		t.Fatalf("expected raw 401, got %v", err)
	}
	if seen.Get("Authorization") != "" {
		t.Fatal("renewal call must not carry the stale credential")
	}
	if seen.Get(DefaultRequestIDHeader) == "" {
		t.Fatal("renewal call still carries a request id")
	}
	if f.renewals.Load() != 0 || len(f.alerts.Alerts()) != 0 {
		t.Fatal("renewal call must not renew or alert")
	}
}

func TestNewValidatesDependencies(t *testing.T) {
	store := session.NewStore(session.Config{}, nil)
	next := transport.DoerFunc(func(context.Context, *transport.Request) (*transport.Response, error) { return nil, nil })
	if _, err := New(nil, Config{Store: store}); err == nil {
		t.Fatal("expected error without transport")
	}
	if _, err := New(next, Config{}); err == nil {
		t.Fatal("expected error without store")
	}
	if _, err := New(next, Config{Store: store}); err == nil {
		t.Fatal("expected error without renewer")
	}
}

func TestPipelineLateUnauthorizedReusesCompletedRenewal(t *testing.T) {
	bSent := make(chan struct{})
	aDone := make(chan struct{})
	f := newFixture(t, time.Hour, renewTo("T2"), func(req *transport.Request, attempt int) (*transport.Response, error) {
		if req.Header.Get("Authorization") == "Bearer T2" {
			return jsonResponse(t, 200, map[string]any{"path": req.Path}), nil
		}
		switch req.Path {
		case "/a":
			<-bSent
		case "/b":
			close(bSent)
			<-aDone
		}
		return statusFailure(t, req, http.StatusUnauthorized, map[string]any{})
	})

	errs := make(chan error, 1)
	go func() {
		_, err := f.pipeline.Do(context.Background(), &transport.Request{Path: "/b"})
		errs <- err
	}()

	if _, err := f.pipeline.Do(context.Background(), &transport.Request{Path: "/a"}); err != nil {
		t.Fatalf("/a: %v", err)
	}
	close(aDone)
	if err := <-errs; err != nil {
		t.Fatalf("/b: %v", err)
	}

	if got := f.renewals.Load(); got != 1 {
		t.Fatalf("expected one renewal, got %d", got)
	}
	if got := f.store.Credential().Token; got != "T2" {
		t.Fatalf("expected T2, got %q", got)
	}
	if len(f.alerts.Alerts()) != 0 || f.lost.Load() != 0 {
		t.Fatal("recovered calls must not alert or end the session")
	}
}

func TestPipelineRejectsMissingResponse(t *testing.T) {
	f := newFixture(t, time.Hour, renewTo("T2"), func(*transport.Request, int) (*transport.Response, error) {
		return nil, nil
	})

	resp, err := f.pipeline.Do(context.Background(), &transport.Request{Path: "/api/orders"})
	if !errors.Is(err, ErrNoResponse) || resp != nil {
		t.Fatalf("expected ErrNoResponse, got %v, %v", resp, err)
	}
	if len(f.alerts.Alerts()) != 1 {
		t.Fatalf("expected one alert, got %d", len(f.alerts.Alerts()))
	}
}
