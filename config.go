package goSession

import (
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/navigation"
	"github.com/MrEthical07/goSession/session"
	"github.com/MrEthical07/goSession/transport"
)

// Config configures an [Engine].
//
// Config instances are built once, validated by [Builder.Build] and then treated as
// immutable.
type Config struct {
	Transport  TransportConfig
	Endpoints  EndpointsConfig
	Session    SessionConfig
	Navigation NavigationConfig
	Failure    FailureConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
	Logging    LoggingConfig
}

/*
====================================
TRANSPORT CONFIG
====================================
*/

// Transport client kinds.
const (
	ClientHTTP     = "http"
	ClientFastHTTP = "fasthttp"
)

// TransportConfig selects the built-in transport. It is ignored when a transport is
// supplied through [Builder.WithTransport].
type TransportConfig struct {
	BaseURL string
	Timeout time.Duration
	Client  string // "http" (default) or "fasthttp"
}

/*
====================================
ENDPOINTS CONFIG
====================================
*/

// EndpointsConfig names the backend paths the engine calls.
type EndpointsConfig struct {
	Login    string
	Logout   string
	Refresh  string
	Me       string
	MenuAuth string
}

/*
====================================
SESSION CONFIG
====================================
*/

// Storage kinds for the tab snapshot.
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageBolt   = "bolt"
	StorageNone   = "none"
)

// SessionConfig controls the credential store and its persistence.
type SessionConfig struct {
	Key              string
	LeadTime         time.Duration
	DefaultTokenType string

	// InferExpiryFromToken reads the exp claim of JWT access tokens when a payload
	// carries no expiry of its own.
	InferExpiryFromToken bool

	Storage     string // memory (default), redis, bolt or none
	RedisPrefix string
	RedisTTL    time.Duration
	BoltPath    string
	BoltBucket  string
}

/*
====================================
NAVIGATION CONFIG
====================================
*/

// NavigationConfig controls the navigation guard.
type NavigationConfig struct {
	LoginPath     string
	AuthLanding   string
	UnauthLanding string
	PublicPaths   []string

	// LegacyMenuAuth asks the menu-auth endpoint about destinations the local menu
	// tree does not cover.
	LegacyMenuAuth bool
}

/*
====================================
FAILURE CONFIG
====================================
*/

// FailureConfig decides which renewal failures end the session.
type FailureConfig struct {
	ForceLogoutStatuses []int
}

/*
====================================
OBSERVABILITY CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// LoggingConfig builds the engine logger when none is supplied.
type LoggingConfig struct {
	Enabled  bool
	Level    string
	Encoding string
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the configuration of the reference portal backend.
func DefaultConfig() Config {
	return Config{
		Transport: TransportConfig{
			Timeout: transport.DefaultTimeout,
			Client:  ClientHTTP,
		},
		Endpoints: EndpointsConfig{
			Login:    "/api/auth/login",
			Logout:   "/api/auth/logout",
			Refresh:  "/api/auth/refresh",
			Me:       "/api/auth/me",
			MenuAuth: navigation.DefaultMenuAuthPath,
		},
		Session: SessionConfig{
			Key:                  session.DefaultKey,
			LeadTime:             session.DefaultLeadTime,
			DefaultTokenType:     session.DefaultTokenType,
			InferExpiryFromToken: true,
			Storage:              StorageMemory,
			RedisPrefix:          "portal:tab:",
			RedisTTL:             12 * time.Hour,
			BoltBucket:           "sessions",
		},
		Navigation: NavigationConfig{
			LoginPath:   navigation.DefaultLoginPath,
			AuthLanding: navigation.DefaultAuthLanding,
		},
		Failure: FailureConfig{
			ForceLogoutStatuses: []int{401, 403},
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "json",
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Navigation.PublicPaths = append([]string(nil), cfg.Navigation.PublicPaths...)
	out.Failure.ForceLogoutStatuses = append([]int(nil), cfg.Failure.ForceLogoutStatuses...)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Transport.Client {
	case "", ClientHTTP, ClientFastHTTP:
	default:
		return errors.New("Transport Client must be http or fasthttp")
	}
	if c.Transport.Timeout < 0 {
		return errors.New("Transport Timeout must be >= 0")
	}
	if c.Transport.BaseURL != "" && !strings.HasPrefix(c.Transport.BaseURL, "http://") && !strings.HasPrefix(c.Transport.BaseURL, "https://") {
		return errors.New("Transport BaseURL must be an http(s) URL")
	}

	for _, ep := range []struct{ name, path string }{
		{"Login", c.Endpoints.Login},
		{"Logout", c.Endpoints.Logout},
		{"Refresh", c.Endpoints.Refresh},
		{"Me", c.Endpoints.Me},
	} {
		if !strings.HasPrefix(ep.path, "/") {
			return errors.New("Endpoints " + ep.name + " must be an absolute path")
		}
	}
	if c.Navigation.LegacyMenuAuth && !strings.HasPrefix(c.Endpoints.MenuAuth, "/") {
		return errors.New("Endpoints MenuAuth must be an absolute path when LegacyMenuAuth is enabled")
	}

	if c.Session.LeadTime < 0 {
		return errors.New("Session LeadTime must be >= 0")
	}
	switch c.Session.Storage {
	case "", StorageMemory, StorageRedis, StorageNone:
	case StorageBolt:
		if c.Session.BoltPath == "" {
			return errors.New("Session BoltPath is required for bolt storage")
		}
	default:
		return errors.New("Session Storage must be memory, redis, bolt or none")
	}
	if c.Session.RedisTTL < 0 {
		return errors.New("Session RedisTTL must be >= 0")
	}

	for _, p := range []string{c.Navigation.LoginPath, c.Navigation.AuthLanding, c.Navigation.UnauthLanding} {
		if p != "" && !strings.HasPrefix(p, "/") {
			return errors.New("Navigation paths must be absolute")
		}
	}
	if c.Navigation.LoginPath != "" && c.Navigation.LoginPath == c.Navigation.AuthLanding {
		return errors.New("Navigation AuthLanding must differ from LoginPath")
	}

	for _, status := range c.Failure.ForceLogoutStatuses {
		if status < 400 || status > 599 {
			return errors.New("Failure ForceLogoutStatuses must be 4xx or 5xx codes")
		}
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0")
	}
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}
	switch c.Logging.Encoding {
	case "", "json", "console":
	default:
		return errors.New("Logging Encoding must be json or console")
	}
	return nil
}
