// Package server wires configuration, storage, the transfer journal and the
// client registry into a running file server, and handles graceful shutdown.
package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/minsend/internal/cryptox"
	"github.com/dmitrijs2005/minsend/internal/logging"
	"github.com/dmitrijs2005/minsend/internal/server/config"
	"github.com/dmitrijs2005/minsend/internal/server/journal"
	"github.com/dmitrijs2005/minsend/internal/server/registry"
	"github.com/dmitrijs2005/minsend/internal/server/session"
	"github.com/dmitrijs2005/minsend/internal/server/storage"
	"github.com/dmitrijs2005/minsend/internal/server/tcp"
)

var (
	logOutput   io.Writer = os.Stdout
	newS3Store            = storage.NewS3Store
	openJournal           = journal.Open
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	kd       cryptox.KeyDerivation
	store    storage.Store
	journal  journal.Repository
	registry *registry.Registry
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	kd, err := cryptox.ParseKeyDerivation(c.KeyDerivation)
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	logger := logging.NewJSONLogger(logOutput, slog.LevelInfo)

	store, err := newStore(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	j, err := openJournal(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("journal init error: %w", err)
	}

	return &App{
		config:   c,
		logger:   logger,
		kd:       kd,
		store:    store,
		journal:  j,
		registry: registry.New(c.PinLength),
	}, nil
}

func newStore(ctx context.Context, c *config.Config) (storage.Store, error) {
	if c.StorageBackend == config.StorageS3 {
		return newS3Store(ctx, storage.S3Options{
			Region:   c.S3Region,
			User:     c.S3RootUser,
			Password: c.S3RootPassword,
			Bucket:   c.S3Bucket,
			Endpoint: c.S3BaseEndpoint,
		})
	}
	return storage.NewLocalStore(c.DataRoot)
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

// Run serves until ctx is cancelled or a shutdown signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.StorageBackend, "key_derivation", string(app.kd))

	app.initSignalHandler(ctx, cancelFunc)

	h := session.NewHandler(app.registry, app.store, app.journal, app.kd, app.logger)
	srv := tcp.NewServer(app.config.ListenAddr, h, app.logger)

	err := srv.Run(ctx)

	if cerr := app.journal.Close(); cerr != nil {
		app.logger.Error(ctx, "journal close", "error", cerr)
	}

	if err != nil {
		app.logger.Error(ctx, err.Error())
		return err
	}

	app.logger.Info(ctx, "App stopped")
	return nil
}
