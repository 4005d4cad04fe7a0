package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MrEthical07/goSession/metrics/export/prometheus"
)

// newShellCmd keeps one engine open across input lines. Each line is parsed by a
// fresh command tree.
func newShellCmd(a *app) *cobra.Command {
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Run session commands interactively on one open profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			a.interactive = true

			if metricsAddr != "" {
				addr, stop, err := serveMetrics(env, metricsAddr)
				if err != nil {
					return err
				}
				defer stop()
				fmt.Fprintf(a.io.err, "metrics on http://%s/metrics\n", addr)
			}

			scanner := bufio.NewScanner(a.io.in)
			for {
				fmt.Fprint(a.io.err, "portal> ")
				if !scanner.Scan() {
					fmt.Fprintln(a.io.err)
					return scanner.Err()
				}
				fields := strings.Fields(scanner.Text())
				if len(fields) == 0 {
					continue
				}
				if fields[0] == "exit" || fields[0] == "quit" {
					return nil
				}
				if err := cmd.Context().Err(); err != nil {
					return err
				}

				line := &cobra.Command{Use: "portal", SilenceUsage: true, SilenceErrors: true}
				line.AddCommand(a.commands()...)
				line.SetArgs(fields)
				line.SetOut(a.io.out)
				line.SetErr(a.io.err)
				if err := line.ExecuteContext(cmd.Context()); err != nil {
					fmt.Fprintf(a.io.err, "error: %v\n", err)
				}
			}
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics of the session on this address")
	return cmd
}

// serveMetrics exposes the engine counters at /metrics until stop is called.
func serveMetrics(env *sessionEnv, addr string) (bound string, stop func(), err error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, fmt.Errorf("listen for metrics: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", prometheus.NewPrometheusExporter(env.engine).Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			env.log.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	return ln.Addr().String(), func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
