// Package server implements the TCP listener that hands each accepted
// connection to its own session goroutine.
package server

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/rs/zerolog"

	"github.com/openshelf/openshelf/internal/library"
	"github.com/openshelf/openshelf/internal/metrics"
	"github.com/openshelf/openshelf/internal/session"
)

// Server accepts client connections and runs one session per connection.
type Server struct {
	addr    string
	manager *library.Manager
	logger  zerolog.Logger

	mu       sync.Mutex
	listener net.Listener
	closed   bool
	sessions sync.WaitGroup
}

// New creates a server bound to addr once Start is called.
func New(addr string, manager *library.Manager, logger zerolog.Logger) *Server {
	return &Server{
		addr:    addr,
		manager: manager,
		logger:  logger.With().Str("component", "server").Logger(),
	}
}

// Start listens and accepts connections until Stop is called. It blocks
// until the listener is closed.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		listener.Close()
		return nil
	}
	s.listener = listener
	s.mu.Unlock()

	s.logger.Info().Str("addr", s.addr).Msg("server listening")

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Error().Err(err).Msg("accept failed")
			continue
		}

		s.sessions.Add(1)
		go s.handle(conn)
	}
}

// Addr returns the bound listener address, or nil before Start has bound it.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) handle(conn net.Conn) {
	defer s.sessions.Done()
	defer conn.Close()

	metrics.SessionsTotal.Inc()
	metrics.SessionsActive.Inc()
	defer metrics.SessionsActive.Dec()

	sess := session.New(conn, s.manager, s.logger)
	sess.Run()
}

// Stop closes the listener to unblock Accept and waits for in-flight
// sessions to run to completion. Open sessions are not cancelled.
func (s *Server) Stop() {
	s.mu.Lock()
	s.closed = true
	if s.listener != nil {
		s.listener.Close()
	}
	s.mu.Unlock()

	s.logger.Info().Msg("waiting for active sessions to finish")
	s.sessions.Wait()
	s.logger.Info().Msg("server stopped")
}
