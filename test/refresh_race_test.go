//go:build integration
// +build integration

package test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/internal/devbackend"
	"github.com/MrEthical07/goSession/session"
)

func TestRefreshRacePersistsSingleRenewal(t *testing.T) {
	for _, mode := range redisModes(t) {
		t.Run(mode.name, func(t *testing.T) {
			ctx := context.Background()
			rdb := mode.setup(t)
			p := newPortal(t)

			engine := p.engine(t, rdb)
			if _, err := engine.Login(ctx, "admin", "admin1234"); err != nil {
				t.Fatalf("Login failed: %v", err)
			}
			before := engine.Store().Credential()

			p.clock.Advance(tokenTTL - 10*time.Second)
			p.backend.DelayRefresh(100 * time.Millisecond)

			const workers = 16
			start := make(chan struct{})
			errs := make(chan error, workers)
			var wg sync.WaitGroup
			wg.Add(workers)
			for i := 0; i < workers; i++ {
				go func() {
					defer wg.Done()
					<-start
					_, err := engine.Get(ctx, "/api/data/orders", nil)
					errs <- err
				}()
			}
			close(start)
			wg.Wait()
			close(errs)

			for err := range errs {
				if err != nil {
					t.Fatalf("unexpected call error: %v", err)
				}
			}
			if got := p.backend.Calls(devbackend.CallRefresh); got != 1 {
				t.Fatalf("expected one refresh call, got %d", got)
			}

			after := engine.Store().Credential()
			if after.Token == before.Token {
				t.Fatal("expected a renewed credential")
			}

			data, err := session.NewRedisStorage(rdb, "itest:tab:", 0).Load(ctx, session.DefaultKey)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			snap, err := session.Decode(data)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if snap.Credential.Token != after.Token {
				t.Fatal("expected the renewed credential to be persisted")
			}
		})
	}
}
