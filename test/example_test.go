package test

import (
	"context"
	"fmt"
	"net/http/httptest"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/internal/devbackend"
	"github.com/MrEthical07/goSession/navigation"
)

// ExampleEngine_Check logs in against the demo backend and asks the guard about
// two destinations.
func ExampleEngine_Check() {
	backend, err := devbackend.NewDemo(5*time.Minute, time.Now)
	if err != nil {
		panic(err)
	}
	ts := httptest.NewServer(backend)
	defer ts.Close()

	cfg := goSession.DefaultConfig()
	cfg.Transport.BaseURL = ts.URL

	engine, err := goSession.New().
		WithConfig(cfg).
		WithRoutes(
			navigation.Route{Path: "/"},
			navigation.Route{Path: "/login", Name: "login"},
			navigation.Route{Path: "/main", Name: "main"},
			navigation.Route{Path: "/system/users", Name: "users"},
			navigation.Route{Path: "/reports/daily", Name: "daily"},
		).
		Build()
	if err != nil {
		panic(err)
	}
	defer engine.Close()

	ctx := context.Background()
	if _, err := engine.Login(ctx, "clerk", "clerk1234"); err != nil {
		panic(err)
	}

	for _, to := range []string{"/reports/daily", "/system/users"} {
		d := engine.Check(ctx, to, "/main")
		fmt.Println(to, d.Kind, d.Target)
	}
	// Output:
	// /reports/daily proceed /reports/daily
	// /system/users redirect /reports/daily
}

// ExampleEngine_Get shows an API call with query parameters. The credential is
// attached and renewed by the engine.
func ExampleEngine_Get() {
	var engine *goSession.Engine
	resp, err := engine.Get(context.Background(), "/api/data/orders", goSession.Query{"page": 1})
	if err != nil {
		return
	}
	_ = resp.Data
}
