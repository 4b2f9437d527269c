// Package tcp accepts stream connections and hands each one to its own
// goroutine.
package tcp

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/dmitrijs2005/minsend/internal/logging"
)

// ConnHandler serves one connection and closes it when done.
type ConnHandler interface {
	ServeConn(ctx context.Context, c net.Conn)
}

type Server struct {
	address string
	handler ConnHandler
	logger  logging.Logger

	mu    sync.Mutex
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup
}

func NewServer(address string, h ConnHandler, l logging.Logger) *Server {
	return &Server{
		address: address,
		handler: h,
		logger:  l.With("module", "tcp_server"),
		conns:   make(map[net.Conn]struct{}),
	}
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts on ln until ctx is done or ln is closed. Other accept
// errors are logged and retried with a backoff. Cancelling ctx closes the
// listener and every live connection, then waits for all handlers to return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	stop := make(chan struct{})
	defer close(stop)

	go func() {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "Stopping server...")
			ln.Close()
			s.closeAll()
		case <-stop:
		}
	}()

	s.logger.Info(ctx, "Starting server", "address", ln.Addr().String())

	var (
		err   error
		delay time.Duration
	)
	for {
		var c net.Conn
		c, err = ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}

			delay = nextAcceptDelay(delay)
			s.logger.Error(ctx, "Accept error", "error", err, "retry_in", delay.String())
			select {
			case <-time.After(delay):
			case <-ctx.Done():
			}
			continue
		}
		delay = 0

		s.track(c)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(c)
			s.handler.ServeConn(ctx, c)
		}()
	}

	ln.Close()
	s.closeAll()
	s.wg.Wait()

	if ctx.Err() != nil {
		return nil
	}
	return err
}

// nextAcceptDelay backs off between failed accepts, from 5ms up to 1s.
func nextAcceptDelay(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	return min(2*d, time.Second)
}

func (s *Server) track(c net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[c] = struct{}{}
}

func (s *Server) untrack(c net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, c)
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.conns {
		c.Close()
	}
}

// Len returns the number of connections being served.
func (s *Server) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}
