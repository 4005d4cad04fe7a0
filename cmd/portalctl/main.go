// Command portalctl signs in to a portal backend and drives the session from the
// terminal.
//
// Run:
//
//	go run ./cmd/portal-devserver &
//	go run ./cmd/portalctl --base-url http://127.0.0.1:8080 login admin -w admin1234
//	go run ./cmd/portalctl --base-url http://127.0.0.1:8080 call /api/data/orders page=1
//	go run ./cmd/portalctl --base-url http://127.0.0.1:8080 nav /system/users
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MrEthical07/goSession/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
