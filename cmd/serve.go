package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bnema/arbor-gateway/internal/adapters/metrics"
	"github.com/bnema/arbor-gateway/internal/adapters/udpingest"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(app *app) *cobra.Command {
	var listen, metricsListen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Receive relay batches over UDP and expose metrics",
		RunE: withApp(app, func(cmd *cobra.Command, _ []string) error {
			if listen == "" {
				listen = app.cfg.Ingest.Listen
			}
			if metricsListen == "" {
				metricsListen = app.cfg.Metrics.Listen
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, app, listen, metricsListen)
		}),
	}

	cmd.Flags().StringVar(&listen, "listen", "", "UDP address for relay batches (default ingest.listen)")
	cmd.Flags().StringVar(&metricsListen, "metrics-listen", "", "HTTP address for /metrics (default metrics.listen)")
	return cmd
}

func serve(ctx context.Context, app *app, listen, metricsListen string) error {
	svc, err := app.ingestService(ctx)
	if err != nil {
		return err
	}
	logger := app.logger.Named("serve")

	listener, err := udpingest.Listen(listen, app.cfg.Ingest.RelayMap(), func(ctx context.Context, relay string, batch []byte) error {
		report, err := svc.Ingest(ctx, relay, batch)
		logger.Info("batch ingested",
			zap.String("relay", relay),
			zap.Int("decoded", report.Decoded),
			zap.Int("dropped", report.Dropped),
			zap.Int("alerts", report.Alerts),
		)
		return err
	}, logger)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(app.registry))
	httpListener, err := net.Listen("tcp", metricsListen)
	if err != nil {
		return errors.Join(fmt.Errorf("listen metrics %s: %w", metricsListen, err), listener.Close())
	}
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 2)
	go func() {
		if err := server.Serve(httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("serve metrics: %w", err)
		}
	}()

	serveCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		errCh <- listener.Serve(serveCtx)
	}()

	logger.Info("gateway listening",
		zap.Stringer("ingest", listener.Addr()),
		zap.Stringer("metrics", httpListener.Addr()),
	)

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}
	cancel()

	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	if err := server.Shutdown(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("shutdown metrics: %w", err))
	}
	logger.Info("gateway stopped")
	return runErr
}
