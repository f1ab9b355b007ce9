package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Amerone/dabase-tool/internal/api"
	"github.com/Amerone/dabase-tool/internal/dialect"
	"github.com/Amerone/dabase-tool/internal/metrics"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				a.settings.Server.Port = port
			}
			if err := a.settings.Validate(); err != nil {
				return err
			}
			terminator, err := dialect.ParseTriggerTerminator(a.settings.Export.TriggerTerminator)
			if err != nil {
				return err
			}
			st, err := a.store()
			if err != nil {
				return err
			}

			if a.settings.Log.Level != "debug" {
				gin.SetMode(gin.ReleaseMode)
			}
			srv := api.New(a.dm8(),
				api.WithLogger(a.log),
				api.WithMetrics(metrics.New()),
				api.WithStore(st),
				api.WithExportDir(a.settings.Export.Dir),
				api.WithBatchSize(a.settings.Export.BatchSize),
				api.WithTriggerTerminator(terminator),
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.listen(ctx, srv.Handler())
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "Listen port (default: server.port or SERVER_PORT)")
	return cmd
}

func (a *app) listen(ctx context.Context, handler http.Handler) error {
	httpServer := &http.Server{
		Addr:              a.settings.Server.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("server listening", zap.String("addr", httpServer.Addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
