package httphandler

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"
)

const timeoutBody = "configuration service timed out"

// Server serves the configuration API. Every request is bounded by the
// request timeout, preset generation over a large catalog being the slowest.
type Server struct {
	srv *http.Server
}

func NewServer(addr string, handler http.Handler, requestTimeout time.Duration) Server {
	return Server{&http.Server{
		Addr:              addr,
		Handler:           http.TimeoutHandler(handler, requestTimeout, timeoutBody),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       30 * time.Second,
	}}
}

// Run listens on the server address and calls stopFn once serving ends.
func (s Server) Run(stopFn context.CancelFunc) {
	const op = "Server.Run"
	log := slog.With("op", op)

	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		log.Error("failed to listen", "addr", s.srv.Addr, "err", err)
		stopFn()
		return
	}
	s.Serve(ln, stopFn)
}

func (s Server) Serve(ln net.Listener, stopFn context.CancelFunc) {
	const op = "Server.Serve"
	log := slog.With("op", op)

	defer stopFn()
	log.Info("serving", "addr", ln.Addr().String())
	if err := s.srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		log.Error("server stopped unexpectedly", "err", err)
	}
}

// Close waits for in-flight requests until ctx is done, then drops the
// remaining connections.
func (s Server) Close(ctx context.Context) {
	const op = "Server.Close"
	log := slog.With("op", op)

	log.Info("closing http server...")
	if err := s.srv.Shutdown(ctx); err != nil {
		log.Warn("graceful shutdown failed", "err", err)
		if err := s.srv.Close(); err != nil {
			log.Error("failed to close", "err", err)
		}
	}
	log.Info("http server is closed")
}
