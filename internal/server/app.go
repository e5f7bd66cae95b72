// Package server wires the HTTP API together with its PostgreSQL storage
// and runs it with graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"shoplist/internal/logging"
	"shoplist/internal/server/config"
	"shoplist/internal/server/httpapi"
	"shoplist/internal/server/repositories"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config *config.Config
	log    logging.Logger
	db     *sql.DB
	server *http.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logging.Setup(cfg.LogLevel)

	db, err := repositories.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	api := httpapi.New(log,
		repositories.NewPostgresUserRepository(db),
		repositories.NewPostgresListRepository(db),
		repositories.NewPostgresItemRepository(db),
		[]byte(cfg.SecretKey), cfg.TokenValidityDuration)

	srv := &http.Server{
		Addr:    cfg.EndpointAddr,
		Handler: api.Routes(),
	}

	return &App{config: cfg, log: log, db: db, server: srv}, nil
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (app *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		app.log.Info(ctx, "starting server", "addr", app.config.EndpointAddr)
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.log.Info(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	return app.db.Close()
}
