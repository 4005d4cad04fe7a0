//go:build integration
// +build integration

package test

import (
	"context"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/internal/devbackend"
	"github.com/MrEthical07/goSession/navigation"
)

const tokenTTL = 5 * time.Minute

// redisMode describes which Redis backend the suite is running against.
type redisMode struct {
	name  string
	setup func(t *testing.T) redis.UniversalClient
}

// redisModes always includes miniredis. A real standalone server is added when
// REDIS_ADDR is set (e.g. "127.0.0.1:6379").
func redisModes(t *testing.T) []redisMode {
	t.Helper()
	modes := []redisMode{
		{
			name: "miniredis",
			setup: func(t *testing.T) redis.UniversalClient {
				t.Helper()
				mr, err := miniredis.Run()
				if err != nil {
					t.Fatalf("miniredis: %v", err)
				}
				rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
				t.Cleanup(func() { _ = rdb.Close(); mr.Close() })
				return rdb
			},
		},
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		modes = append(modes, redisMode{
			name: "standalone:" + addr,
			setup: func(t *testing.T) redis.UniversalClient {
				t.Helper()
				rdb := redis.NewClient(&redis.Options{Addr: addr})
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				if err := rdb.Ping(ctx).Err(); err != nil {
					t.Skipf("cannot connect to Redis at %s: %v", addr, err)
				}
				rdb.FlushDB(context.Background())
				t.Cleanup(func() { rdb.FlushDB(context.Background()); _ = rdb.Close() })
				return rdb
			},
		})
	}
	return modes
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Unix(1_700_000_000, 0)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type portal struct {
	clock   *clock
	backend *devbackend.Server
	baseURL string
}

func newPortal(t *testing.T) *portal {
	t.Helper()
	c := newClock()
	backend, err := devbackend.NewDemo(tokenTTL, c.Now)
	if err != nil {
		t.Fatalf("NewDemo failed: %v", err)
	}
	ts := httptest.NewServer(backend)
	t.Cleanup(ts.Close)
	return &portal{clock: c, backend: backend, baseURL: ts.URL}
}

func (p *portal) engine(t *testing.T, rdb redis.UniversalClient) *goSession.Engine {
	t.Helper()
	cfg := goSession.DefaultConfig()
	cfg.Transport.BaseURL = p.baseURL
	cfg.Session.RedisPrefix = "itest:tab:"

	engine, err := goSession.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithClock(p.clock.Now).
		WithRoutes(
			navigation.Route{Path: "/"},
			navigation.Route{Path: "/login", Name: "login"},
			navigation.Route{Path: "/main", Name: "main"},
			navigation.Route{Path: "/system/users", Name: "users"},
			navigation.Route{Path: "/reports/daily", Name: "daily"},
		).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(func() { _ = engine.Close() })
	return engine
}
