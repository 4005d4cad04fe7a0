// Command portal-devserver serves the in-process portal backend used by the tests, so
// that portalctl and host applications can be tried without a real portal.
//
// Accounts: admin/admin1234 sees every menu, clerk/clerk1234 sees the daily report
// and reaches /audit only through the menu-auth endpoint.
//
// Run:
//
//	go run ./cmd/portal-devserver -addr 127.0.0.1:8080 -ttl 2m
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/MrEthical07/goSession/internal/devbackend"
	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/logger"
)

func main() {
	var (
		addr     = flag.String("addr", "127.0.0.1:8080", "listen address")
		ttl      = flag.Duration("ttl", 5*time.Minute, "access token lifetime")
		secret   = flag.String("secret", devbackend.DemoSecret, "HS256 signing secret (at least 16 bytes)")
		logLevel = flag.String("log-level", "info", "log level")
		encoding = flag.String("log-encoding", "console", "log encoding: console or json")
	)
	flag.Parse()

	log, err := logger.New(logger.Config{Level: *logLevel, Encoding: *encoding})
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	issuer, err := jwt.NewIssuer(jwt.IssuerConfig{
		AccessTTL: *ttl,
		Secret:    []byte(*secret),
		Issuer:    "portal-devbackend",
	})
	if err != nil {
		log.Fatal("build issuer", zap.Error(err))
	}

	backend, err := devbackend.New(devbackend.Config{
		Issuer: issuer,
		Users:  devbackend.DemoUsers(),
		Logger: log,
	})
	if err != nil {
		log.Fatal("build backend", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           backend,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("portal dev backend listening",
		zap.String("addr", *addr),
		zap.Duration("access_ttl", *ttl),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("serve", zap.Error(err))
	}
}
