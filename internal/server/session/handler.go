// Package session runs the per-connection protocol: handshake, client
// registration, then a sequential command loop until logout, EOF or a
// transport failure.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/dmitrijs2005/minsend/internal/common"
	"github.com/dmitrijs2005/minsend/internal/cryptox"
	"github.com/dmitrijs2005/minsend/internal/logging"
	"github.com/dmitrijs2005/minsend/internal/securechan"
	"github.com/dmitrijs2005/minsend/internal/server/journal"
	"github.com/dmitrijs2005/minsend/internal/server/registry"
	"github.com/dmitrijs2005/minsend/internal/server/storage"
)

// DefaultHistoryLimit applies to history requests without a limit header.
const DefaultHistoryLimit = 20

type Handler struct {
	registry *registry.Registry
	store    storage.Store
	journal  journal.Repository
	kd       cryptox.KeyDerivation
	logger   logging.Logger
}

func NewHandler(r *registry.Registry, s storage.Store, j journal.Repository, kd cryptox.KeyDerivation, l logging.Logger) *Handler {
	return &Handler{
		registry: r,
		store:    s,
		journal:  j,
		kd:       kd,
		logger:   l.With("module", "session"),
	}
}

// ServeConn owns nc and closes it before returning.
func (h *Handler) ServeConn(ctx context.Context, nc net.Conn) {
	defer nc.Close()

	log := h.logger.With("remote", nc.RemoteAddr().String())

	conn, err := securechan.Handshake(nc, h.kd)
	if err != nil {
		log.Warn(ctx, "handshake failed", "error", err)
		return
	}

	p := &peer{conn: conn}
	client, err := h.registry.Connect(p)
	if err != nil {
		log.Error(ctx, "register client", "error", err)
		return
	}
	defer h.registry.Unregister(p)

	s := &session{
		Handler: h,
		conn:    conn,
		client:  client,
		log:     log.With("identity", client.Identity().ID),
	}

	s.log.Info(ctx, "Connected")

	if err := s.reply(common.TagOK, common.MsgWelcome); err != nil {
		s.log.Warn(ctx, "send welcome", "error", err)
		return
	}

	if err := s.run(ctx); err != nil {
		s.log.Warn(ctx, "Session aborted", "error", err)
		return
	}

	s.log.Info(ctx, "Disconnected")
}

type session struct {
	*Handler
	conn   *securechan.Conn
	client *registry.Client
	log    logging.Logger

	signInFailures int
}

// run processes frames until logout or end of stream. Only transport
// failures are returned; protocol errors are answered in-band.
func (s *session) run(ctx context.Context) error {
	for {
		frame, err := s.conn.ReadFrame()
		if err != nil {
			if closedByPeer(err) {
				return nil
			}
			return fmt.Errorf("%w: %w", common.ErrTransport, err)
		}

		text := string(frame)

		var done bool
		if isMSTP(text) {
			done, err = s.handleMessage(ctx, text)
		} else {
			done, err = s.handleCommand(ctx, text)
		}

		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

func closedByPeer(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, net.ErrClosed)
}

// reply sends "<tag>@<msg>". A failure here is a transport failure.
func (s *session) reply(tag, msg string) error {
	if err := s.conn.WriteFrame([]byte(common.Reply(tag, msg))); err != nil {
		return fmt.Errorf("%w: %w", common.ErrTransport, err)
	}
	return nil
}
