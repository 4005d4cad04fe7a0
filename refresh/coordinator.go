package refresh

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/MrEthical07/goSession/logger"
	"github.com/MrEthical07/goSession/session"
)

const (
	keyRenew   = "renew"
	keyHydrate = "hydrate"
)

// Kind names the shared operation a hook fires for.
type Kind string

const (
	KindRenew   Kind = "renew"
	KindHydrate Kind = "hydrate"
)

// Fetcher performs one renewal or probe call and decodes its payload.
type Fetcher func(ctx context.Context) (session.Payload, error)

// Hooks observe coordinator activity. Nil hooks are skipped. Hooks run on the
// goroutine performing the shared call and must not block.
type Hooks struct {
	Started      func(kind Kind)
	Joined       func(kind Kind)
	Succeeded    func(kind Kind, elapsed time.Duration)
	Failed       func(kind Kind, err error)
	ForcedLogout func(err error)
}

// Config wires a [Coordinator].
type Config struct {
	// Renew calls the renewal endpoint. Required.
	Renew Fetcher

	// Probe calls the identity endpoint during hydration. Without it hydration only
	// marks the session as checked.
	Probe Fetcher

	// ForceLogoutStatuses are renewal statuses that prove the credential is dead.
	// Defaults to 401 and 403.
	ForceLogoutStatuses []int

	Hooks  Hooks
	Logger *zap.Logger
}

// Coordinator owns the renewal and hydration slots of one store.
type Coordinator struct {
	store *session.Store
	cfg   Config
	log   *zap.Logger
	group singleflight.Group
	now   func() time.Time
}

// New returns a Coordinator for store.
func New(store *session.Store, cfg Config) (*Coordinator, error) {
	if store == nil {
		return nil, errors.New("refresh: store is required")
	}
	if cfg.Renew == nil {
		return nil, errors.New("refresh: renew fetcher is required")
	}
	if len(cfg.ForceLogoutStatuses) == 0 {
		cfg.ForceLogoutStatuses = []int{http.StatusUnauthorized, http.StatusForbidden}
	}
	return &Coordinator{
		store: store,
		cfg:   cfg,
		log:   logger.OrNop(cfg.Logger).Named("refresh"),
		now:   time.Now,
	}, nil
}

// EnsureFreshCredential returns the current credential, renewing it first when it is
// expired or inside the lead-time window. A missing credential or one without
// expiry is returned as is.
func (c *Coordinator) EnsureFreshCredential(ctx context.Context) (session.Credential, error) {
	if !c.stale() {
		return c.store.Credential(), nil
	}
	return c.renewWhen(ctx, c.stale)
}

func (c *Coordinator) stale() bool {
	cred := c.store.Credential()
	return cred.Present() && !cred.ExpiresAt.IsZero() && c.store.ShouldRenewSoon()
}

// Renew starts the shared renewal, or joins the one in flight, and returns the
// renewed credential. Cancelling ctx detaches this caller only.
func (c *Coordinator) Renew(ctx context.Context) (session.Credential, error) {
	return c.renewWhen(ctx, nil)
}

// RenewRejected renews after the server refused token. When the store already holds
// another credential, a renewal finished in the meantime and that credential is
// returned without a network call.
func (c *Coordinator) RenewRejected(ctx context.Context, token string) (session.Credential, error) {
	current := func() bool {
		cred := c.store.Credential()
		return !cred.Present() || cred.Token == token
	}
	if !current() {
		return c.store.Credential(), nil
	}
	return c.renewWhen(ctx, current)
}

// renewWhen runs the shared renewal. needed is checked again by the caller that ends
// up owning the slot, since a renewal may have completed between the caller's own
// check and its joining.
func (c *Coordinator) renewWhen(ctx context.Context, needed func() bool) (session.Credential, error) {
	v, err := c.share(ctx, keyRenew, KindRenew, func(ctx context.Context) (any, error) {
		if needed != nil && !needed() {
			c.log.Debug("renewal no longer needed")
			return c.store.Credential(), nil
		}
		return c.renew(ctx)
	})
	if err != nil {
		return session.Credential{}, err
	}
	return v.(session.Credential), nil
}

// Hydrate probes the server once per tab for an ambient session. It is a no-op when
// the store is authenticated or the probe has already run. A failed probe marks the
// session as checked and returns the classified error.
func (c *Coordinator) Hydrate(ctx context.Context) error {
	if c.hydrated() {
		return nil
	}
	if c.cfg.Probe == nil {
		return c.store.MarkSessionChecked(ctx)
	}
	_, err := c.share(ctx, keyHydrate, KindHydrate, c.hydrate)
	return err
}

func (c *Coordinator) hydrated() bool {
	return c.store.IsAuthenticated() || c.store.SessionChecked()
}

func (c *Coordinator) share(ctx context.Context, key string, kind Kind, fn func(context.Context) (any, error)) (any, error) {
	leader := false
	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		leader = true
		return fn(detached)
	})

	select {
	case <-ctx.Done():
		c.log.Debug("caller detached from shared call", zap.String("kind", string(kind)), zap.Error(ctx.Err()))
		return nil, ctx.Err()
	case res := <-ch:
		if !leader && c.cfg.Hooks.Joined != nil {
			c.cfg.Hooks.Joined(kind)
		}
		return res.Val, res.Err
	}
}

func (c *Coordinator) renew(ctx context.Context) (any, error) {
	start := c.now()
	log := logger.WithRequestID(ctx, c.log)
	if c.cfg.Hooks.Started != nil {
		c.cfg.Hooks.Started(KindRenew)
	}
	log.Debug("credential renewal started")

	payload, err := c.cfg.Renew(ctx)
	if err == nil && (payload.AccessToken == nil || *payload.AccessToken == "") {
		err = errMissingToken
	}
	if err != nil {
		err = classify(err, c.cfg.ForceLogoutStatuses)
		if errors.Is(err, ErrInvalidCredential) {
			if logoutErr := c.store.Logout(ctx); logoutErr != nil {
				log.Warn("persist forced logout", zap.Error(logoutErr))
			}
			if c.cfg.Hooks.ForcedLogout != nil {
				c.cfg.Hooks.ForcedLogout(err)
			}
		}
		if c.cfg.Hooks.Failed != nil {
			c.cfg.Hooks.Failed(KindRenew, err)
		}
		log.Warn("credential renewal failed", zap.Error(err))
		return nil, err
	}

	if err := c.store.ApplySession(ctx, payload, session.ApplyOptions{PreserveExisting: true}); err != nil {
		log.Warn("persist renewed session", zap.Error(err))
	}
	elapsed := c.now().Sub(start)
	if c.cfg.Hooks.Succeeded != nil {
		c.cfg.Hooks.Succeeded(KindRenew, elapsed)
	}
	log.Info("credential renewed", zap.Duration("elapsed", elapsed))
	return c.store.Credential(), nil
}

func (c *Coordinator) hydrate(ctx context.Context) (any, error) {
	if c.hydrated() {
		return nil, nil
	}
	start := c.now()
	log := logger.WithRequestID(ctx, c.log)
	if c.cfg.Hooks.Started != nil {
		c.cfg.Hooks.Started(KindHydrate)
	}

	payload, err := c.cfg.Probe(ctx)
	if err != nil {
		err = classify(err, nil)
		if markErr := c.store.MarkSessionChecked(ctx); markErr != nil {
			log.Warn("persist session checked flag", zap.Error(markErr))
		}
		if c.cfg.Hooks.Failed != nil {
			c.cfg.Hooks.Failed(KindHydrate, err)
		}
		log.Debug("no ambient session", zap.Error(err))
		return nil, err
	}

	if err := c.store.ApplySession(ctx, payload, session.ApplyOptions{PreserveExisting: true}); err != nil {
		log.Warn("persist hydrated session", zap.Error(err))
	}
	if c.cfg.Hooks.Succeeded != nil {
		c.cfg.Hooks.Succeeded(KindHydrate, c.now().Sub(start))
	}
	log.Debug("session hydrated", zap.Bool("authenticated", c.store.IsAuthenticated()))
	return nil, nil
}
