package goSession

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	internalaudit "github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/interceptor"
	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/logger"
	"github.com/MrEthical07/goSession/navigation"
	"github.com/MrEthical07/goSession/notify"
	"github.com/MrEthical07/goSession/refresh"
	"github.com/MrEthical07/goSession/session"
	"github.com/MrEthical07/goSession/transport"
)

// Builder assembles an [Engine]. A Builder is single-use.
type Builder struct {
	config Config

	redis        redis.UniversalClient
	storage      session.Storage
	transport    transport.Doer
	notifier     notify.Notifier
	redirector   navigation.Redirector
	routes       []navigation.Route
	logger       *zap.Logger
	auditSink    AuditSink
	menuAuth     navigation.MenuAuthChecker
	confirmLeave func(ctx context.Context, from, to string) (bool, error)
	now          func() time.Time

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis persists the tab snapshot in Redis. It overrides Session.Storage.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithStorage persists the tab snapshot in s. It takes precedence over WithRedis
// and Session.Storage.
func (b *Builder) WithStorage(s session.Storage) *Builder {
	b.storage = s
	return b
}

// WithTransport sends API calls through doer instead of the configured client.
func (b *Builder) WithTransport(doer transport.Doer) *Builder {
	b.transport = doer
	return b
}

func (b *Builder) WithNotifier(n notify.Notifier) *Builder {
	b.notifier = n
	return b
}

// WithRedirector receives the login redirect when a session is lost during a call.
func (b *Builder) WithRedirector(r navigation.Redirector) *Builder {
	b.redirector = r
	return b
}

// WithRoutes sets the route table of the navigation guard. Required.
func (b *Builder) WithRoutes(routes ...navigation.Route) *Builder {
	b.routes = append(b.routes, routes...)
	return b
}

func (b *Builder) WithLogger(l *zap.Logger) *Builder {
	b.logger = l
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMenuAuth overrides the legacy menu-auth checker.
func (b *Builder) WithMenuAuth(c navigation.MenuAuthChecker) *Builder {
	b.menuAuth = c
	return b
}

// WithLeaveConfirmation runs fn before every allowed navigation away from a page.
func (b *Builder) WithLeaveConfirmation(fn func(ctx context.Context, from, to string) (bool, error)) *Builder {
	b.confirmLeave = fn
	return b
}

// WithClock overrides the store clock.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires store, coordinator, pipeline and
// guard together.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(b.routes) == 0 {
		return nil, errors.New("routes must be provided")
	}

	log := b.logger
	if log == nil && cfg.Logging.Enabled {
		l, err := logger.New(logger.Config{Level: cfg.Logging.Level, Encoding: cfg.Logging.Encoding})
		if err != nil {
			return nil, fmt.Errorf("build logger: %w", err)
		}
		log = l
	}
	log = logger.OrNop(log)

	notifier := b.notifier
	if notifier == nil {
		notifier = notify.NewLogNotifier(log, true)
	}

	e := &Engine{
		config:     cfg,
		tabID:      uuid.NewString(),
		notifier:   notifier,
		redirector: b.redirector,
		log:        log.Named("engine"),
		metrics:    NewMetrics(cfg.Metrics),
	}

	// -------- TRANSPORT --------
	doer := b.transport
	if doer == nil {
		if cfg.Transport.BaseURL == "" {
			return nil, errors.New("Transport BaseURL required without a custom transport")
		}
		switch cfg.Transport.Client {
		case ClientFastHTTP:
			fc := transport.NewFastHTTPClient(cfg.Transport.BaseURL, cfg.Transport.Timeout)
			e.closers = append(e.closers, func() error {
				fc.CloseIdleConnections()
				return nil
			})
			doer = fc
		default:
			doer = transport.NewHTTPClient(cfg.Transport.BaseURL, transport.WithTimeout(cfg.Transport.Timeout))
		}
	}

	// -------- SESSION STORE --------
	storage, err := b.buildStorage(cfg, e)
	if err != nil {
		return nil, e.abort(err)
	}
	storeCfg := session.Config{
		Key:              cfg.Session.Key,
		LeadTime:         cfg.Session.LeadTime,
		DefaultTokenType: cfg.Session.DefaultTokenType,
		Now:              b.now,
	}
	if cfg.Session.InferExpiryFromToken {
		storeCfg.ExpiryFromToken = jwt.NewInspector().ExpiresAt
	}
	e.store = session.NewStore(storeCfg, storage)

	// -------- REFRESH COORDINATOR --------
	coord, err := refresh.New(e.store, refresh.Config{
		Renew:               e.fetchRenewal,
		Probe:               e.fetchIdentity,
		ForceLogoutStatuses: cfg.Failure.ForceLogoutStatuses,
		Hooks:               e.refreshHooks(),
		Logger:              log,
	})
	if err != nil {
		return nil, e.abort(err)
	}
	e.coord = coord

	// -------- INTERCEPTOR PIPELINE --------
	pipeline, err := interceptor.New(doer, interceptor.Config{
		Store:               e.store,
		Renewer:             coord,
		Notifier:            notifier,
		Logger:              log,
		OnAuthorizationLost: e.onAuthorizationLost,
		Hooks:               e.pipelineHooks(),
	})
	if err != nil {
		return nil, e.abort(err)
	}
	e.pipeline = pipeline

	// -------- NAVIGATION GUARD --------
	menuAuth := b.menuAuth
	if menuAuth == nil && cfg.Navigation.LegacyMenuAuth {
		menuAuth = navigation.NewLegacyMenuAuth(pipeline, cfg.Endpoints.MenuAuth)
	}
	guard, err := navigation.NewGuard(navigation.Config{
		Store:         e.store,
		Routes:        navigation.NewRouteTable(b.routes...),
		Hydrator:      coord,
		Notifier:      notifier,
		Logger:        log,
		LoginPath:     cfg.Navigation.LoginPath,
		AuthLanding:   cfg.Navigation.AuthLanding,
		UnauthLanding: cfg.Navigation.UnauthLanding,
		PublicPaths:   cfg.Navigation.PublicPaths,
		MenuAuth:      menuAuth,
		ConfirmLeave:  b.confirmLeave,
		Decided:       e.decided,
	})
	if err != nil {
		return nil, e.abort(err)
	}
	e.guard = guard

	// Started last so failed builds leave no goroutine behind. Without a sink, events
	// go to the engine log.
	sink := b.auditSink
	if sink == nil && cfg.Audit.Enabled {
		sink = internalaudit.NewZapSink(e.log)
	}
	e.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, sink)

	b.built = true
	e.log.Debug("engine built",
		zap.String("tab_id", e.tabID),
		zap.String("storage", storageName(cfg, b)),
		zap.Int("routes", len(b.routes)),
	)
	return e, nil
}

func (b *Builder) buildStorage(cfg Config, e *Engine) (session.Storage, error) {
	switch {
	case b.storage != nil:
		return b.storage, nil
	case b.redis != nil:
		return session.NewRedisStorage(b.redis, cfg.Session.RedisPrefix, cfg.Session.RedisTTL), nil
	}

	switch cfg.Session.Storage {
	case StorageNone:
		return nil, nil
	case StorageRedis:
		return nil, errors.New("redis storage requires a redis client")
	case StorageBolt:
		bs, err := session.OpenBoltStorage(cfg.Session.BoltPath, cfg.Session.BoltBucket)
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, bs.Close)
		return bs, nil
	default:
		return session.NewMemoryStorage(), nil
	}
}

func storageName(cfg Config, b *Builder) string {
	switch {
	case b.storage != nil:
		return "custom"
	case b.redis != nil:
		return StorageRedis
	case cfg.Session.Storage == "":
		return StorageMemory
	default:
		return cfg.Session.Storage
	}
}
