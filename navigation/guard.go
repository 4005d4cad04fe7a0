package navigation

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/MrEthical07/goSession/logger"
	"github.com/MrEthical07/goSession/notify"
	"github.com/MrEthical07/goSession/session"
)

// Default landing paths.
const (
	DefaultLoginPath   = "/login"
	DefaultAuthLanding = "/main"
	RootPath           = "/"
)

// maxRedirects bounds [Guard.Navigate].
const maxRedirects = 8

// Hydrator runs the one-per-tab session probe.
type Hydrator interface {
	Hydrate(ctx context.Context) error
}

// Redirector moves the host router to path.
type Redirector interface {
	Redirect(ctx context.Context, path string) error
}

// RedirectorFunc adapts a function to [Redirector].
type RedirectorFunc func(ctx context.Context, path string) error

// Redirect implements Redirector.
func (f RedirectorFunc) Redirect(ctx context.Context, path string) error {
	return f(ctx, path)
}

// Config wires a [Guard].
type Config struct {
	Store    *session.Store
	Routes   *RouteTable
	Hydrator Hydrator
	Notifier notify.Notifier
	Logger   *zap.Logger

	LoginPath     string
	AuthLanding   string
	UnauthLanding string

	// PublicPaths skip menu authorization for authenticated users.
	PublicPaths []string

	// MenuAuth, when set, is asked about destinations the local menu data does not
	// cover.
	MenuAuth MenuAuthChecker

	// ConfirmLeave runs before an allowed navigation proceeds; false cancels it.
	ConfirmLeave func(ctx context.Context, from, to string) (bool, error)

	// Decided observes every final decision.
	Decided func(to string, d Decision)
}

// Guard evaluates navigations.
type Guard struct {
	cfg     Config
	log     *zap.Logger
	allowed []string
}

// NewGuard validates cfg and returns a Guard.
func NewGuard(cfg Config) (*Guard, error) {
	if cfg.Store == nil {
		return nil, errors.New("navigation: store is required")
	}
	if cfg.Routes == nil || cfg.Routes.Len() == 0 {
		return nil, errors.New("navigation: route table is empty")
	}
	if cfg.Notifier == nil {
		cfg.Notifier = notify.Nop{}
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = DefaultLoginPath
	}
	if cfg.AuthLanding == "" {
		cfg.AuthLanding = DefaultAuthLanding
	}
	if cfg.UnauthLanding == "" {
		cfg.UnauthLanding = cfg.LoginPath
	}

	allowed := []string{RootPath, cfg.LoginPath, cfg.AuthLanding}
	allowed = append(allowed, cfg.PublicPaths...)

	return &Guard{
		cfg:     cfg,
		log:     logger.OrNop(cfg.Logger).Named("navigation"),
		allowed: allowed,
	}, nil
}

// LoginPath returns the configured login path.
func (g *Guard) LoginPath() string {
	return g.cfg.LoginPath
}

// BeforeEach evaluates the navigation from -> to and calls next exactly once with the
// decision.
func (g *Guard) BeforeEach(ctx context.Context, to, from string, next func(Decision)) {
	d := g.Check(ctx, to, from)
	next(d)
}

// Navigate follows redirect decisions until the navigation settles and returns the
// final decision. On Proceed, Target is the path that was reached.
func (g *Guard) Navigate(ctx context.Context, to, from string) (Decision, error) {
	for hop := 0; hop < maxRedirects; hop++ {
		d := g.Check(ctx, to, from)
		if d.Kind != Redirect {
			return d, nil
		}
		from, to = to, d.Target
	}
	return cancel(StateDenied, ErrRedirectLoop), fmt.Errorf("%w: stopped at %s", ErrRedirectLoop, to)
}

// Check evaluates one navigation step without following redirects.
func (g *Guard) Check(ctx context.Context, to, from string) Decision {
	d := g.check(ctx, to, from)
	logger.WithRequestID(ctx, g.log).Debug("navigation decided",
		zap.String("to", to),
		zap.String("from", from),
		zap.Stringer("kind", d.Kind),
		zap.Stringer("state", d.State),
		zap.String("target", d.Target),
		zap.Error(d.Err),
	)
	if g.cfg.Decided != nil {
		g.cfg.Decided(to, d)
	}
	return d
}

func (g *Guard) check(ctx context.Context, to, from string) Decision {
	store := g.cfg.Store

	if !store.IsAuthenticated() && !store.SessionChecked() && g.cfg.Hydrator != nil {
		if err := g.cfg.Hydrator.Hydrate(ctx); err != nil {
			if ctx.Err() != nil {
				return cancel(StateHydrating, ctx.Err())
			}
			logger.WithRequestID(ctx, g.log).Debug("hydration found no session", zap.Error(err))
		}
	}
	authed := store.IsAuthenticated()

	route, ok := g.cfg.Routes.Resolve(to)
	if !ok {
		g.alert(ctx, notify.KeyRouteNotFound, to)
		return cancel(StateDenied, fmt.Errorf("%w: %s", ErrRouteNotFound, to))
	}

	switch {
	case route.Path == RootPath:
		if authed {
			return redirect(g.cfg.AuthLanding, nil)
		}
		return redirect(g.cfg.UnauthLanding, nil)
	case route.Path == g.cfg.LoginPath:
		if authed {
			return redirect(g.cfg.AuthLanding, nil)
		}
		return g.proceed(ctx, from, route.Path)
	case !authed:
		return redirect(g.cfg.LoginPath, ErrNotAuthenticated)
	}

	if slices.Contains(g.allowed, route.Path) {
		return g.proceed(ctx, from, route.Path)
	}

	if g.reachable(ctx, route) {
		return g.proceed(ctx, from, route.Path)
	}

	forbidden := fmt.Errorf("%w: %s", ErrRouteForbidden, route.Path)
	if fallback, ok := g.fallback(route.Path); ok {
		d := redirect(fallback, forbidden)
		d.State = StateDenied
		return d
	}
	g.alert(ctx, notify.KeyRouteForbidden, route.Path)
	return cancel(StateDenied, forbidden)
}

func (g *Guard) reachable(ctx context.Context, route Route) bool {
	store := g.cfg.Store
	if store.HasAccess(route.Path) || store.HasAccess(route.Name) {
		return true
	}
	if g.cfg.MenuAuth == nil {
		return false
	}
	name := route.Name
	if name == "" {
		name = route.Path
	}
	ok, err := g.cfg.MenuAuth.MenuAuthExists(ctx, name)
	if err != nil {
		logger.WithRequestID(ctx, g.log).Warn("menu authorization query failed", zap.String("route", name), zap.Error(err))
		return false
	}
	return ok
}

// fallback picks the first active leaf menu, in tree order, whose path is a known
// route other than the rejected destination.
func (g *Guard) fallback(rejected string) (string, bool) {
	for _, leaf := range g.cfg.Store.LeafMenus() {
		if !bool(leaf.Active) || leaf.Path == "" {
			continue
		}
		route, ok := g.cfg.Routes.Resolve(leaf.Path)
		if !ok || route.Path == rejected {
			continue
		}
		return route.Path, true
	}
	return "", false
}

func (g *Guard) proceed(ctx context.Context, from, to string) Decision {
	if g.cfg.ConfirmLeave == nil || from == "" || from == to {
		return proceed(to)
	}
	ok, err := g.cfg.ConfirmLeave(ctx, from, to)
	if err != nil {
		return cancel(StateAllowed, err)
	}
	if !ok {
		return cancel(StateAllowed, nil)
	}
	return proceed(to)
}

// ConfirmModified builds a ConfirmLeave hook that asks the user only while modified
// reports unsaved changes.
func ConfirmModified(n notify.Notifier, modified func() bool) func(ctx context.Context, from, to string) (bool, error) {
	return func(ctx context.Context, _, _ string) (bool, error) {
		if modified == nil || !modified() {
			return true, nil
		}
		return n.Confirm(ctx, notify.Message{Key: notify.KeyConfirmLeave}, notify.TitleConfirm)
	}
}

func (g *Guard) alert(ctx context.Context, key, target string) {
	msg := notify.Message{Key: key, Args: []any{target}}
	if err := g.cfg.Notifier.Alert(ctx, msg, notify.TitleWarning); err != nil {
		logger.WithRequestID(ctx, g.log).Warn("deliver alert", zap.String("key", key), zap.Error(err))
	}
}
