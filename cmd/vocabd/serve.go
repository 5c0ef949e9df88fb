package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/phrazzld/vocab-trainer/internal/config"
	"github.com/phrazzld/vocab-trainer/internal/platform/logger"
	"github.com/phrazzld/vocab-trainer/internal/redact"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local API and background jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}

			log, err := logger.Setup(cfg.Server)
			if err != nil {
				return fmt.Errorf("failed to set up logging: %w", err)
			}
			watchLogLevel(log)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := newApplication(ctx, cfg, log, nil)
			if err != nil {
				return err
			}
			return app.serve(ctx)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (overrides server.port)")
	return cmd
}

// watchLogLevel applies log level changes from the config file without a
// restart.
func watchLogLevel(log *slog.Logger) {
	watching, err := config.Watch(func(cfg *config.Config, err error) {
		if err != nil {
			log.Warn("ignoring invalid config change", redact.ErrAttr(err))
			return
		}
		if err := logger.SetLevel(cfg.Server.LogLevel); err != nil {
			log.Warn("failed to change log level", redact.ErrAttr(err))
			return
		}
		log.Info("log level changed", slog.String("level", cfg.Server.LogLevel))
	})
	if err != nil {
		log.Warn("config file not watched", redact.ErrAttr(err))
		return
	}
	if watching {
		log.Debug("watching config file for changes")
	}
}

// serve loads the state, starts the jobs and runs the HTTP server until ctx
// is cancelled.
func (app *application) serve(ctx context.Context) error {
	defer func() {
		if err := app.close(); err != nil {
			app.logger.Warn("failed to close store", redact.ErrAttr(err))
		}
	}()

	lis, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(app.config.Server.Port)))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", app.config.Server.Port, err)
	}
	return app.serveOn(ctx, lis)
}

// serveOn is serve on an existing listener.
func (app *application) serveOn(ctx context.Context, lis net.Listener) error {
	app.initialize(ctx)
	app.jobs.Start(ctx)

	server := &http.Server{
		Handler:           app.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		app.logger.Info("Starting server", slog.String("addr", lis.Addr().String()))
		if err := server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		app.logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	err := g.Wait()
	app.jobs.Stop()
	if perr := app.persist(context.Background()); perr != nil {
		app.logger.Warn("failed to persist state on shutdown", redact.ErrAttr(perr))
	}
	app.logger.Info("Server shutdown completed")
	return err
}
