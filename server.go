package framing

import (
	"context"
	"errors"
	"net"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Handler is called for every message decoded from a connection, in order.
// Returning an error closes the connection.
type Handler[M any] func(ctx context.Context, conn *Conn[M], msg M) error

// ServerConfig holds configuration for a Server.
type ServerConfig struct {
	// Conn configures every accepted connection.
	Conn ConnConfig

	// Logger receives server and connection events. Nil disables logging.
	Logger *zerolog.Logger
}

// ServerStats contains statistics about a Server.
type ServerStats struct {
	Accepted uint64 // Connections accepted
	Failed   uint64 // Connections ended by a framing, read or handler error
	Active   int64  // Connections being served
}

// Server decodes the streams of accepted connections, one Processor and one
// goroutine per connection.
type Server[M any] struct {
	// OnOpen and OnClose, when set before Serve, are called from the
	// connection goroutine around the decoding of each connection.
	OnOpen  func(conn *Conn[M])
	OnClose func(conn *Conn[M])

	newRule func() Rule[M]
	handler Handler[M]
	config  ServerConfig
	logger  zerolog.Logger

	accepted atomic.Uint64
	failed   atomic.Uint64
	active   atomic.Int64
}

// NewServer creates a server. newRule is called once per connection.
func NewServer[M any](newRule func() Rule[M], handler Handler[M], config ServerConfig) (*Server[M], error) {
	if newRule == nil {
		return nil, ErrNilRule
	}
	if handler == nil {
		return nil, errors.New("framing: nil handler")
	}
	if err := config.Conn.Processor.Validate(); err != nil {
		return nil, err
	}

	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = *config.Logger
	}
	if config.Conn.Logger == nil {
		config.Conn.Logger = &logger
	}

	return &Server[M]{
		newRule: newRule,
		handler: handler,
		config:  config,
		logger:  logger,
	}, nil
}

// Serve accepts connections on ln until ctx is done or Accept fails.
//
// When ctx is done, the listener is closed, the connections are interrupted
// and Serve returns nil once every connection goroutine has returned. An
// Accept failure is returned as a ConnectionError after the same shutdown.
// Serve closes ln.
func (s *Server[M]) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		return ln.Close()
	})

	s.logger.Info().Stringer("addr", ln.Addr()).Msg("listening")

	var acceptErr error
	for {
		nc, err := ln.Accept()
		if err != nil {
			if gctx.Err() == nil {
				acceptErr = &ConnectionError{Op: "accept", Err: err}
				s.logger.Error().Err(err).Msg("accept failed")
			}
			break
		}

		s.accepted.Add(1)
		g.Go(func() error {
			s.serveConn(gctx, nc)
			return nil
		})
	}

	cancel()
	_ = g.Wait()
	s.logger.Info().Msg("server stopped")
	return acceptErr
}

func (s *Server[M]) serveConn(ctx context.Context, nc net.Conn) {
	s.active.Add(1)
	defer s.active.Add(-1)

	conn, err := NewConn(nc, s.newRule(), s.config.Conn)
	if err != nil {
		_ = nc.Close()
		s.failed.Add(1)
		s.logger.Error().Err(err).Msg("connection setup failed")
		return
	}
	defer conn.Close()

	if s.OnOpen != nil {
		s.OnOpen(conn)
	}
	if s.OnClose != nil {
		defer s.OnClose(conn)
	}

	err = conn.Serve(ctx, func(ctx context.Context, msg M) error {
		return s.handler(ctx, conn, msg)
	})
	if err != nil && ctx.Err() == nil {
		s.failed.Add(1)
		s.logger.Info().Err(err).Stringer("remote", nc.RemoteAddr()).Msg("connection ended")
	}
}

// Stats returns a snapshot of server statistics.
func (s *Server[M]) Stats() ServerStats {
	return ServerStats{
		Accepted: s.accepted.Load(),
		Failed:   s.failed.Load(),
		Active:   s.active.Load(),
	}
}
