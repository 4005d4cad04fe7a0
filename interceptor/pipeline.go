package interceptor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MrEthical07/goSession/logger"
	"github.com/MrEthical07/goSession/notify"
	"github.com/MrEthical07/goSession/refresh"
	"github.com/MrEthical07/goSession/session"
	"github.com/MrEthical07/goSession/transport"
)

// DefaultRequestIDHeader carries the per-call correlation id.
const DefaultRequestIDHeader = "X-Request-ID"

// Renewer is the part of the refresh coordinator the pipeline uses.
type Renewer interface {
	EnsureFreshCredential(ctx context.Context) (session.Credential, error)
	RenewRejected(ctx context.Context, token string) (session.Credential, error)
}

// Hooks observe pipeline activity. Nil hooks are skipped.
type Hooks struct {
	Completed         func(req *transport.Request, status int, err error, elapsed time.Duration)
	Retried           func(req *transport.Request)
	AuthorizationLost func(err error)
}

// Config wires a [Pipeline].
type Config struct {
	Store    *session.Store
	Renewer  Renewer
	Notifier notify.Notifier
	Logger   *zap.Logger

	// OnAuthorizationLost runs after the store has been logged out because the
	// session could not be recovered. Hosts redirect to their login page here.
	OnAuthorizationLost func(ctx context.Context, err error)

	// RequestIDHeader defaults to [DefaultRequestIDHeader].
	RequestIDHeader string

	// DisableNormalization leaves response data untouched.
	DisableNormalization bool

	Hooks Hooks
}

// Pipeline is a [transport.Doer] that applies session handling around next.
type Pipeline struct {
	next     transport.Doer
	cfg      Config
	log      *zap.Logger
	inFlight atomic.Int64
}

// New returns a Pipeline sending through next.
func New(next transport.Doer, cfg Config) (*Pipeline, error) {
	if next == nil {
		return nil, errors.New("interceptor: transport is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("interceptor: store is required")
	}
	if cfg.Renewer == nil {
		return nil, errors.New("interceptor: renewer is required")
	}
	if cfg.Notifier == nil {
		cfg.Notifier = notify.Nop{}
	}
	if cfg.RequestIDHeader == "" {
		cfg.RequestIDHeader = DefaultRequestIDHeader
	}
	return &Pipeline{
		next: next,
		cfg:  cfg,
		log:  logger.OrNop(cfg.Logger).Named("interceptor"),
	}, nil
}

// InFlight returns the number of calls currently inside the pipeline.
func (p *Pipeline) InFlight() int64 {
	return p.inFlight.Load()
}

// Do implements transport.Doer. Requests marked Renewal skip credential handling and
// notifications. On failure the response is returned when one was received.
func (p *Pipeline) Do(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	if req == nil {
		return nil, errors.New("interceptor: nil request")
	}
	p.inFlight.Add(1)
	defer p.inFlight.Add(-1)

	r := req.Clone()
	if r.Header == nil {
		r.Header = make(http.Header)
	}
	reqID := r.Header.Get(p.cfg.RequestIDHeader)
	if reqID == "" {
		reqID = logger.RequestID(ctx)
	}
	if reqID == "" {
		reqID = uuid.NewString()
	}
	r.Header.Set(p.cfg.RequestIDHeader, reqID)
	ctx = logger.ContextWithRequestID(ctx, reqID)

	if r.Renewal {
		return p.send(ctx, r)
	}
	return p.do(ctx, r)
}

func (p *Pipeline) do(ctx context.Context, r *transport.Request) (*transport.Response, error) {
	log := logger.WithRequestID(ctx, p.log)

	if p.cfg.Store.ShouldRenewSoon() {
		if _, err := p.cfg.Renewer.EnsureFreshCredential(ctx); err != nil {
			return nil, p.renewalFailed(ctx, err, false)
		}
	}
	cred := p.cfg.Store.Credential()
	if auth := cred.HeaderValue(); auth != "" {
		r.Header.Set("Authorization", auth)
	}

	resp, err := p.send(ctx, r)
	if err == nil && resp == nil {
		p.alert(ctx, notify.Message{Key: notify.KeyGenericError})
		return nil, ErrNoResponse
	}
	if err == nil {
		if appErr, ok := applicationError(resp.Data, resp.StatusCode); ok {
			p.alert(ctx, notify.Message{Key: appErr.Key, Args: appErr.Args})
			return resp, appErr
		}
		if !p.cfg.DisableNormalization {
			Normalize(resp.Data)
		}
		return resp, nil
	}

	if ctx.Err() != nil {
		return resp, err
	}

	if refresh.StatusOf(err) == http.StatusUnauthorized {
		if r.Retried {
			log.Warn("renewed credential refused", zap.String("path", r.Path))
			if logoutErr := p.cfg.Store.Logout(ctx); logoutErr != nil {
				log.Warn("persist logout", zap.Error(logoutErr))
			}
			denied := fmt.Errorf("%w: %w", ErrAuthorizationDenied, err)
			p.alert(ctx, notify.Message{Key: notify.KeyAuthorizationLost})
			p.authorizationLost(ctx, denied)
			return resp, denied
		}

		if _, rerr := p.cfg.Renewer.RenewRejected(ctx, cred.Token); rerr != nil {
			return resp, p.renewalFailed(ctx, rerr, true)
		}
		retry := r.Clone()
		retry.Retried = true
		retry.Header.Del("Authorization")
		if p.cfg.Hooks.Retried != nil {
			p.cfg.Hooks.Retried(retry)
		}
		log.Debug("resending after renewal", zap.String("path", r.Path))
		return p.do(ctx, retry)
	}

	p.alert(ctx, errorMessage(resp))
	return resp, err
}

// renewalFailed surfaces a failed renewal once. A rejected credential ends the
// session.
func (p *Pipeline) renewalFailed(ctx context.Context, err error, afterUnauthorized bool) error {
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return err
	}
	if errors.Is(err, refresh.ErrInvalidCredential) {
		p.alert(ctx, notify.Message{Key: notify.KeySessionExpired})
		if afterUnauthorized {
			err = fmt.Errorf("%w: %w", ErrAuthorizationDenied, err)
		}
		p.authorizationLost(ctx, err)
		return err
	}
	p.alert(ctx, notify.Message{Key: notify.KeyNetworkError})
	return err
}

func (p *Pipeline) send(ctx context.Context, r *transport.Request) (*transport.Response, error) {
	start := time.Now()
	resp, err := p.next.Do(ctx, r)
	elapsed := time.Since(start)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	if p.cfg.Hooks.Completed != nil {
		p.cfg.Hooks.Completed(r, status, err, elapsed)
	}
	logger.WithRequestID(ctx, p.log).Debug("api call",
		zap.String("method", r.Method),
		zap.String("path", r.Path),
		zap.Int("status", status),
		zap.Bool("retried", r.Retried),
		zap.Duration("elapsed", elapsed),
		zap.Error(err),
	)
	return resp, err
}

func (p *Pipeline) authorizationLost(ctx context.Context, err error) {
	if p.cfg.Hooks.AuthorizationLost != nil {
		p.cfg.Hooks.AuthorizationLost(err)
	}
	if p.cfg.OnAuthorizationLost != nil {
		p.cfg.OnAuthorizationLost(ctx, err)
	}
}

func (p *Pipeline) alert(ctx context.Context, msg notify.Message) {
	if err := p.cfg.Notifier.Alert(ctx, msg, notify.TitleError); err != nil {
		logger.WithRequestID(ctx, p.log).Warn("deliver alert", zap.String("key", msg.Key), zap.Error(err))
	}
}

// errorMessage picks the backend message from an error body, or the generic key.
func errorMessage(resp *transport.Response) notify.Message {
	if resp != nil {
		if appErr, ok := applicationError(resp.Data, resp.StatusCode); ok {
			return notify.Message{Key: appErr.Key, Args: appErr.Args}
		}
	}
	return notify.Message{Key: notify.KeyGenericError}
}
