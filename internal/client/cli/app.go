// Package cli is the interactive shell of the shopping-list client. It owns
// the composition root: config, local store, remote client, sync engine and
// façade services are constructed here and shut down together.
package cli

import (
	"bufio"
	"context"
	"os"

	"shoplist/internal/client/config"
	"shoplist/internal/client/importer"
	"shoplist/internal/client/netwatch"
	"shoplist/internal/client/remote"
	"shoplist/internal/client/services"
	"shoplist/internal/client/store"
	syncer "shoplist/internal/client/sync"
	"shoplist/internal/logging"
)

// App wires the client together and drives the REPL.
type App struct {
	config *config.Config
	log    logging.Logger

	store    *store.Store
	client   *remote.HTTPClient
	auth     services.AuthService
	lists    services.ListService
	items    services.ItemService
	engine   *syncer.Engine
	watcher  *netwatch.Watcher
	importer *importer.Importer

	reader *bufio.Reader
}

// NewApp builds the full dependency graph from cfg. The local store is
// initialized eagerly so a broken database surfaces at startup, not on the
// first command.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logging.Setup(cfg.LogLevel)

	st := store.Open(cfg.DatabaseDSN, log)
	if err := st.Init(ctx); err != nil {
		return nil, err
	}

	client := remote.NewHTTPClient(cfg.ServerAddr)
	auth := services.NewAuthService(client, st)
	if err := auth.Restore(ctx); err != nil {
		log.Warn(ctx, "failed to restore session", "error", err)
	}

	engine := syncer.New(st, client, auth, log, syncer.Config{Interval: cfg.SyncInterval})
	watcher := netwatch.New(client, log, cfg.OnlineCheckInterval, engine.SetOnline)

	lists := services.NewListService(client, st, engine, auth, log)
	items := services.NewItemService(client, st, engine, log)

	return &App{
		config:   cfg,
		log:      log,
		store:    st,
		client:   client,
		auth:     auth,
		lists:    lists,
		items:    items,
		engine:   engine,
		watcher:  watcher,
		importer: importer.New(lists, items),
		reader:   bufio.NewReader(os.Stdin),
	}, nil
}

// Run starts the background loops and hands control to the REPL. It returns
// when the user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	go a.engine.Run(ctx)
	go a.watcher.Run(ctx)

	a.Root(ctx)
}

// Close releases the remote client and the local store.
func (a *App) Close(ctx context.Context) {
	if err := a.auth.Close(ctx); err != nil {
		a.log.Warn(ctx, "failed to close client", "error", err)
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn(ctx, "failed to close store", "error", err)
	}
}
