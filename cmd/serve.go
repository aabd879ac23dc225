package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/career-mapper/internal/choropleth"
	"github.com/sells-group/career-mapper/internal/dataset"
	"github.com/sells-group/career-mapper/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the map and its API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initApp(cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		session, err := env.newSession(ctx, cfg)
		if err != nil {
			return err
		}
		selectDefault(ctx, session, env.Catalog)

		srv, err := server.New(server.Config{
			Session:        session,
			Catalog:        env.Catalog,
			Cache:          env.Client,
			Geometry:       env.Geometry,
			MapsAPIKey:     cfg.Server.MapsAPIKey,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			LoadContext:    ctx,
		})
		if err != nil {
			return err
		}

		return startServer(ctx, srv.Handler(), resolvePort(servePort, cfg.Server.Port))
	},
}

// selectDefault starts loading the first catalog entry once boundaries exist.
func selectDefault(ctx context.Context, session *choropleth.Session, catalog *dataset.Catalog) {
	stat, ok := catalog.Default()
	if !ok {
		return
	}
	_, done := session.Select(ctx, stat)
	go func() {
		if res := <-done; res.Err != nil {
			zap.L().Warn("initial statistic load failed", zap.String("statistic", stat.ID), zap.Error(res.Err))
		}
	}()
}

// resolvePort prefers the flag over the configured port.
func resolvePort(flagPort, cfgPort int) int {
	if flagPort != 0 {
		return flagPort
	}
	return cfgPort
}

// startServer serves handler until ctx is cancelled, then shuts down gracefully.
func startServer(ctx context.Context, handler http.Handler, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return eris.Wrap(err, "server listen")
		}
		return nil
	case <-ctx.Done():
	}

	zap.L().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "server shutdown")
	}
	return nil
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
