// Command ledgerstub serves an in-memory ledger for trying ledgerprobe
// locally. It emulates either server implementation of the ledger API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/torosent/ledgerprobe/internal/ledger"
	"github.com/torosent/ledgerprobe/internal/ledgertest"
)

func main() {
	if err := newCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var (
		port            int
		api             string
		accepts         string
		healthStatus    int
		lookupFailEvery int
		latency         time.Duration
	)
	cmd := &cobra.Command{
		Use:           "ledgerstub",
		Short:         "Serve a fake ledger service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flavor, err := ledger.ParseFlavor(api)
			if err != nil {
				return err
			}
			var enc ledger.EmailEncoding
			if accepts != "none" {
				if enc, err = ledger.ParseEmailEncoding(accepts); err != nil {
					return err
				}
			}
			l, err := ledgertest.New(ledgertest.Options{
				Flavor:          flavor,
				Accepts:         enc,
				HealthStatus:    healthStatus,
				LookupFailEvery: lookupFailEvery,
				Latency:         latency,
			})
			if err != nil {
				return err
			}
			return serve(cmd.Context(), port, middleware.Logger(l))
		},
	}
	flags := cmd.Flags()
	flags.IntVar(&port, "port", 8080, "Listening port")
	flags.StringVar(&api, "api", string(ledger.FlavorCurrent), "API flavor: current or legacy")
	flags.StringVar(&accepts, "accepts", "envelope", "Email encoding accepted by create-account: envelope, plain or none")
	flags.IntVar(&healthStatus, "health-status", http.StatusOK, "Status returned by /health")
	flags.IntVar(&lookupFailEvery, "lookup-fail-every", 0, "Fail every Nth by-id lookup with 500 (0 disables)")
	flags.DurationVar(&latency, "latency", 0, "Delay added to every request")
	return cmd
}

func serve(ctx context.Context, port int, handler http.Handler) error {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              net.JoinHostPort("", strconv.Itoa(port)),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("ledgerstub listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info().Msg("ledgerstub stopped")
	return nil
}
