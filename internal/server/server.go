// Package server owns the HTTP listener of the service.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	maxHeaderBytes    = 1 << 20 // 1 MB
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 60 * time.Second
)

// Server wraps an *http.Server. Websocket connections are long-lived, so
// no write timeout is set; per-message deadlines live in the hub.
type Server struct {
	mu         sync.Mutex
	httpServer *http.Server
	addr       net.Addr
	ready      chan struct{}
}

func New() *Server {
	return &Server{ready: make(chan struct{})}
}

// Addr returns "8080" or ":8080" as a listen address.
func Addr(port string) string {
	if port == "" || strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}

// Run serves handler on port until Shutdown. It returns nil after a
// graceful shutdown.
func (s *Server) Run(port string, handler http.Handler) error {
	ln, err := net.Listen("tcp", Addr(port))
	if err != nil {
		return err
	}
	return s.Serve(ln, handler)
}

func (s *Server) Serve(ln net.Listener, handler http.Handler) error {
	s.mu.Lock()
	s.httpServer = &http.Server{
		Handler:           handler,
		MaxHeaderBytes:    maxHeaderBytes,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}
	s.addr = ln.Addr()
	srv := s.httpServer
	s.mu.Unlock()
	close(s.ready)

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Ready is closed once the listener is bound.
func (s *Server) Ready() <-chan struct{} { return s.ready }

// ListenAddr is the bound address, valid after Ready.
func (s *Server) ListenAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
