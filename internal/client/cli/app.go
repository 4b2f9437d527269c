package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/minsend/internal/client/client"
	"github.com/dmitrijs2005/minsend/internal/client/config"
	"github.com/dmitrijs2005/minsend/internal/client/history"
	"github.com/dmitrijs2005/minsend/internal/common"
	"github.com/dmitrijs2005/minsend/internal/cryptox"
	"github.com/dmitrijs2005/minsend/internal/filex"
	"github.com/dmitrijs2005/minsend/internal/transmit"
)

// dial is a test seam for client.Dial.
var dial = client.Dial

type App struct {
	config    *config.Config
	client    *client.Client
	history   *history.History
	downloads string

	mu       sync.Mutex
	username string

	leaving atomic.Bool
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	kd, err := cryptox.ParseKeyDerivation(c.KeyDerivation)
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	downloads, err := filex.EnsureDir(c.DownloadDir)
	if err != nil {
		return nil, fmt.Errorf("download dir error: %w", err)
	}

	h, err := history.Open(ctx, c.HistoryPath)
	if err != nil {
		return nil, fmt.Errorf("error initializing history: %w", err)
	}

	a := &App{config: c, history: h, downloads: downloads}

	cl, err := dial(ctx, c.ServerAddr, kd, a.onDelivery)
	if err != nil {
		h.Close()
		return nil, fmt.Errorf("connect error: %w", err)
	}
	a.client = cl

	return a, nil
}

// Run starts the REPL on stdin and blocks until it ends.
func (a *App) Run(ctx context.Context) {
	defer a.close()

	printlnFn("Connected to", a.config.ServerAddr)
	if err := a.refreshIdentity(ctx); err != nil {
		log.Printf("identity lookup failed: %v", err)
	}

	go a.watchConnection(ctx)

	runREPL(ctx, a, a.status, bufio.NewScanner(os.Stdin))
}

func (a *App) close() {
	a.leaving.Store(true)
	_ = a.client.Close()
	if err := a.history.Close(); err != nil {
		log.Printf("history close error: %v", err)
	}
}

// watchConnection reports a connection dropped by the server while the REPL
// is waiting for input.
func (a *App) watchConnection(ctx context.Context) {
	select {
	case <-a.client.Done():
		if !a.leaving.Load() {
			printlnFn("Disconnected from server.")
		}
	case <-ctx.Done():
	}
}

func (a *App) status() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.username
}

func (a *App) setUsername(name string) {
	a.mu.Lock()
	a.username = name
	a.mu.Unlock()
}

func (a *App) refreshIdentity(ctx context.Context) error {
	info, err := a.client.UserInfo(ctx)
	if err != nil {
		return err
	}
	a.setUsername(info.Username)
	return nil
}

// onDelivery runs on the client's read goroutine.
func (a *App) onDelivery(d client.Delivery) {
	switch d.Kind {
	case transmit.KindText:
		printlnFn(fmt.Sprintf("[%s] %s", d.From, d.Text))
	case transmit.KindFile:
		path, err := a.saveDelivery(d)
		if err != nil {
			printlnFn(fmt.Sprintf("[%s] could not save %q: %v", d.From, d.Name, err))
			return
		}
		printlnFn(fmt.Sprintf("[%s] received %s (%d bytes), saved to %s", d.From, d.Name, len(d.Data), path))
		a.record(context.Background(), "receive", d.Name, int64(len(d.Data)))
	}
}

func (a *App) saveDelivery(d client.Delivery) (string, error) {
	if !filex.ValidName(d.Name) {
		return "", client.ErrInvalidName
	}
	path := filepath.Join(a.downloads, d.Name)
	if err := os.WriteFile(path, d.Data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}

func (a *App) record(ctx context.Context, action, name string, size int64) {
	if err := a.history.Record(ctx, a.config.ServerAddr, action, name, size); err != nil {
		log.Printf("history error: %v", err)
	}
}

// connectionLost reports whether err means the server can no longer be
// reached through this client.
func connectionLost(err error) bool {
	return errors.Is(err, client.ErrClosed) || errors.Is(err, common.ErrTransport)
}
