package goSession

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	internalaudit "github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/interceptor"
	"github.com/MrEthical07/goSession/logger"
	"github.com/MrEthical07/goSession/navigation"
	"github.com/MrEthical07/goSession/notify"
	"github.com/MrEthical07/goSession/refresh"
	"github.com/MrEthical07/goSession/session"
	"github.com/MrEthical07/goSession/transport"
)

// Engine coordinates the session of one tab: the credential store, the shared
// renewal slot, the request pipeline and the navigation guard. All methods are safe
// for concurrent use.
type Engine struct {
	config Config
	tabID  string

	store    *session.Store
	coord    *refresh.Coordinator
	pipeline *interceptor.Pipeline
	guard    *navigation.Guard

	notifier   notify.Notifier
	redirector navigation.Redirector
	log        *zap.Logger
	metrics    *Metrics
	audit      *internalaudit.Dispatcher

	closers   []func() error
	closeOnce sync.Once
	closeErr  error
}

// Close flushes pending audit events and releases storage and idle connections.
func (e *Engine) Close() error {
	if e == nil {
		return nil
	}
	e.closeOnce.Do(func() {
		e.audit.Close()
		e.closeErr = e.shutdown()
	})
	return e.closeErr
}

func (e *Engine) shutdown() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}

// abort releases what a failed Build already opened and joins any close error to err.
func (e *Engine) abort(err error) error {
	return errors.Join(err, e.shutdown())
}

// AuditDropped returns the number of audit events dropped under backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// AuditStats returns audit delivery counters. They are zero when auditing is off.
func (e *Engine) AuditStats() AuditStats {
	if e == nil {
		return AuditStats{}
	}
	return e.audit.Stats()
}

// MetricsSnapshot returns the current counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// TabID identifies this engine in audit events.
func (e *Engine) TabID() string { return e.tabID }

// Store exposes the credential store for read access.
func (e *Engine) Store() *session.Store { return e.store }

// Config returns a copy of the configuration.
func (e *Engine) Config() Config { return cloneConfig(e.config) }

func (e *Engine) IsAuthenticated() bool { return e.store.IsAuthenticated() }

func (e *Engine) Identity() session.Identity { return e.store.Identity() }

// InFlight returns the number of API calls in progress.
func (e *Engine) InFlight() int64 { return e.pipeline.InFlight() }

// IsLoading reports whether any API call is in progress.
func (e *Engine) IsLoading() bool { return e.pipeline.InFlight() > 0 }

/*
====================================
SESSION LIFECYCLE
====================================
*/

// Login submits credentials to the login endpoint and applies the returned session.
// The login id fills the identity when the response does not name the user.
func (e *Engine) Login(ctx context.Context, loginID, password string) (session.Identity, error) {
	if e == nil || e.pipeline == nil {
		return session.Identity{}, ErrEngineNotReady
	}

	resp, err := e.pipeline.Do(ctx, &transport.Request{
		Method:  http.MethodPost,
		Path:    e.config.Endpoints.Login,
		Body:    map[string]string{"loginId": loginID, "password": password},
		Renewal: true,
	})
	appErr, hasAppErr := interceptor.ApplicationErrorOf(resp)
	if err == nil && hasAppErr {
		err = appErr
	}

	var payload session.Payload
	if err == nil {
		payload, err = session.DecodePayload(resp.Body)
		if err == nil && (payload.AccessToken == nil || *payload.AccessToken == "") {
			err = ErrLoginIncomplete
		}
	}

	if err != nil {
		e.metricInc(MetricLoginFailure)
		if status := refresh.StatusOf(err); status == http.StatusUnauthorized || status == http.StatusForbidden {
			err = fmt.Errorf("%w: %w", ErrLoginRejected, err)
		}
		if ctx.Err() == nil {
			msg := notify.Message{Key: notify.KeyGenericError}
			if hasAppErr {
				msg = notify.Message{Key: appErr.Key, Args: appErr.Args}
			}
			e.alert(ctx, msg)
		}
		e.emit(ctx, AuditLogin, func(ev *AuditEvent) {
			ev.LoginID = loginID
			ev.Error = err.Error()
		})
		logger.WithRequestID(ctx, e.log).Info("login failed", zap.String("login_id", loginID), zap.Error(err))
		return session.Identity{}, err
	}

	if err := e.store.ApplySession(ctx, payload, session.ApplyOptions{FallbackLoginID: loginID}); err != nil {
		e.log.Warn("persist login session", zap.Error(err))
	}
	e.metricInc(MetricLoginSuccess)
	id := e.store.Identity()
	e.emit(ctx, AuditLogin, func(ev *AuditEvent) { ev.Success = true })
	logger.WithRequestID(ctx, e.log).Info("logged in", zap.String("login_id", id.LoginID))
	return id, nil
}

// Logout tells the server to end the session, then clears the local session. The
// local session is cleared even when the server call fails.
func (e *Engine) Logout(ctx context.Context) error {
	if e == nil || e.pipeline == nil {
		return ErrEngineNotReady
	}
	prev := e.store.Identity()
	if cred := e.store.Credential(); cred.Present() {
		_, err := e.pipeline.Do(ctx, &transport.Request{
			Method:  http.MethodPost,
			Path:    e.config.Endpoints.Logout,
			Header:  http.Header{"Authorization": {cred.HeaderValue()}},
			Renewal: true,
		})
		if err != nil {
			logger.WithRequestID(ctx, e.log).Debug("server logout failed", zap.Error(err))
		}
	}

	err := e.store.Logout(ctx)
	e.metricInc(MetricLogout)
	e.emit(ctx, AuditLogout, func(ev *AuditEvent) {
		ev.LoginID = prev.LoginID
		ev.UserID = string(prev.UserID)
		ev.Success = err == nil
		if err != nil {
			ev.Error = err.Error()
		}
	})
	return err
}

// Reset clears the session including the hydration flag and drops the persisted
// snapshot.
func (e *Engine) Reset(ctx context.Context) error {
	return e.store.Reset(ctx)
}

// Restore reloads the session persisted for this tab.
func (e *Engine) Restore(ctx context.Context) error {
	return e.store.Restore(ctx)
}

// EnsureFreshCredential returns a credential valid beyond the lead time, renewing it
// through the shared slot when needed.
func (e *Engine) EnsureFreshCredential(ctx context.Context) (session.Credential, error) {
	return e.coord.EnsureFreshCredential(ctx)
}

// Renew forces a renewal through the shared slot.
func (e *Engine) Renew(ctx context.Context) (session.Credential, error) {
	return e.coord.Renew(ctx)
}

// Hydrate runs the once-per-tab identity probe.
func (e *Engine) Hydrate(ctx context.Context) error {
	return e.coord.Hydrate(ctx)
}

/*
====================================
API CALLS
====================================
*/

// Do sends req through the interceptor pipeline.
func (e *Engine) Do(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	if e == nil || e.pipeline == nil {
		return nil, ErrEngineNotReady
	}
	return e.pipeline.Do(ctx, req)
}

func (e *Engine) Get(ctx context.Context, path string, params transport.Params) (*transport.Response, error) {
	return e.Do(ctx, &transport.Request{Method: http.MethodGet, Path: path, Params: params})
}

func (e *Engine) Post(ctx context.Context, path string, body any) (*transport.Response, error) {
	return e.Do(ctx, &transport.Request{Method: http.MethodPost, Path: path, Body: body})
}

func (e *Engine) fetchRenewal(ctx context.Context) (session.Payload, error) {
	return e.fetchPayload(ctx, http.MethodPost, e.config.Endpoints.Refresh)
}

func (e *Engine) fetchIdentity(ctx context.Context) (session.Payload, error) {
	return e.fetchPayload(ctx, http.MethodGet, e.config.Endpoints.Me)
}

func (e *Engine) fetchPayload(ctx context.Context, method, path string) (session.Payload, error) {
	resp, err := e.pipeline.Do(ctx, &transport.Request{Method: method, Path: path, Renewal: true})
	if err != nil {
		return session.Payload{}, err
	}
	if appErr, ok := interceptor.ApplicationErrorOf(resp); ok {
		return session.Payload{}, appErr
	}
	return session.DecodePayload(resp.Body)
}

/*
====================================
NAVIGATION
====================================
*/

// Navigate evaluates to and follows redirects until the navigation settles.
func (e *Engine) Navigate(ctx context.Context, to, from string) (navigation.Decision, error) {
	return e.guard.Navigate(ctx, to, from)
}

// BeforeEach is the router hook: next receives the decision exactly once.
func (e *Engine) BeforeEach(ctx context.Context, to, from string, next func(navigation.Decision)) {
	e.guard.BeforeEach(ctx, to, from, next)
}

// Check evaluates one navigation step without following redirects.
func (e *Engine) Check(ctx context.Context, to, from string) navigation.Decision {
	return e.guard.Check(ctx, to, from)
}

/*
====================================
OBSERVATION
====================================
*/

func (e *Engine) refreshHooks() refresh.Hooks {
	return refresh.Hooks{
		Started: func(kind refresh.Kind) {
			if kind == refresh.KindRenew {
				e.metricInc(MetricRenewStarted)
			}
		},
		Joined: func(kind refresh.Kind) {
			if kind == refresh.KindRenew {
				e.metricInc(MetricRenewJoined)
			}
		},
		Succeeded: func(kind refresh.Kind, elapsed time.Duration) {
			switch kind {
			case refresh.KindRenew:
				e.metricInc(MetricRenewSuccess)
				e.metrics.Observe(MetricRenewLatency, elapsed)
				e.emit(context.Background(), AuditRenew, func(ev *AuditEvent) { ev.Success = true })
			case refresh.KindHydrate:
				e.metricInc(MetricHydrateSuccess)
				e.emit(context.Background(), AuditHydrate, func(ev *AuditEvent) { ev.Success = true })
			}
		},
		Failed: func(kind refresh.Kind, err error) {
			id, event := MetricRenewFailure, AuditRenew
			if kind == refresh.KindHydrate {
				id, event = MetricHydrateFailure, AuditHydrate
			}
			e.metricInc(id)
			e.emit(context.Background(), event, func(ev *AuditEvent) { ev.Error = err.Error() })
		},
		ForcedLogout: func(err error) {
			e.metricInc(MetricForcedLogout)
			e.emit(context.Background(), AuditForcedLogout, func(ev *AuditEvent) { ev.Error = err.Error() })
		},
	}
}

func (e *Engine) pipelineHooks() interceptor.Hooks {
	return interceptor.Hooks{
		Completed: func(req *transport.Request, status int, err error, elapsed time.Duration) {
			if err != nil {
				e.metricInc(MetricRequestFailure)
			} else {
				e.metricInc(MetricRequestSuccess)
			}
			e.metrics.Observe(MetricRequestLatency, elapsed)
		},
		Retried: func(*transport.Request) {
			e.metricInc(MetricRequestRetried)
		},
		AuthorizationLost: func(err error) {
			e.metricInc(MetricAuthorizationLost)
			e.emit(context.Background(), AuditAuthorizationLost, func(ev *AuditEvent) { ev.Error = err.Error() })
		},
	}
}

// onAuthorizationLost sends the host router to the login page.
func (e *Engine) onAuthorizationLost(ctx context.Context, _ error) {
	if e.redirector == nil {
		return
	}
	if err := e.redirector.Redirect(ctx, e.config.Navigation.LoginPath); err != nil {
		logger.WithRequestID(ctx, e.log).Warn("redirect to login", zap.Error(err))
	}
}

func (e *Engine) decided(to string, d navigation.Decision) {
	switch d.Kind {
	case navigation.Proceed:
		e.metricInc(MetricNavigationProceed)
	case navigation.Redirect:
		e.metricInc(MetricNavigationRedirect)
	case navigation.Cancel:
		e.metricInc(MetricNavigationCancel)
	}

	var event string
	switch {
	case errors.Is(d.Err, navigation.ErrRouteForbidden):
		event = AuditNavigationDenied
	case errors.Is(d.Err, navigation.ErrRouteNotFound):
		event = AuditNavigationNotFound
	default:
		return
	}
	e.emit(context.Background(), event, func(ev *AuditEvent) {
		ev.Target = to
		ev.Error = d.Err.Error()
		ev.Metadata = map[string]string{"decision": d.Kind.String()}
		if d.Kind == navigation.Redirect {
			ev.Metadata["redirect"] = d.Target
		}
	})
}

func (e *Engine) alert(ctx context.Context, msg notify.Message) {
	if err := e.notifier.Alert(ctx, msg, notify.TitleError); err != nil {
		e.log.Warn("deliver alert", zap.String("key", msg.Key), zap.Error(err))
	}
}

// emit stamps an event with the tab, the current identity and the request id of
// ctx, applies fill, and queues it.
func (e *Engine) emit(ctx context.Context, eventType string, fill func(*AuditEvent)) {
	if e.audit == nil {
		return
	}
	ev := internalaudit.NewEvent(eventType, time.Now())
	ev.TabID = e.tabID
	ev.RequestID = requestIDFromContext(ctx)
	id := e.store.Identity()
	ev.LoginID = id.LoginID
	ev.UserID = string(id.UserID)
	if fill != nil {
		fill(&ev)
	}
	e.audit.Emit(ctx, ev)
}
