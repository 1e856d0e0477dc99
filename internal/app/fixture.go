package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/kokoroe/kokoroe-sdk-go/internal/config"
	"github.com/kokoroe/kokoroe-sdk-go/internal/fixture"
	"github.com/kokoroe/kokoroe-sdk-go/internal/logger"
)

const shutdownTimeout = 5 * time.Second

// FixtureServer serves the echo fixture until its context is cancelled.
type FixtureServer struct {
	addr string
	srv  *http.Server
	log  logger.Logger
}

// NewFixtureServer builds the fixture runtime listening on cfg.FixtureAddr.
func NewFixtureServer(cfg *config.Config, log logger.Logger) (*FixtureServer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	return &FixtureServer{
		addr: cfg.FixtureAddr,
		srv: &http.Server{
			Handler:           fixture.NewHandler(log),
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}, nil
}

// Run listens on the configured address and serves until ctx is done.
func (f *FixtureServer) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", f.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", f.addr, err)
	}
	return f.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (f *FixtureServer) Serve(ctx context.Context, ln net.Listener) error {
	if f == nil || f.srv == nil {
		return fmt.Errorf("fixture server is not initialized")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- f.srv.Serve(ln)
	}()
	f.log.InfoObj("fixture server listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("fixture serve: %w", err)
	case <-ctx.Done():
		f.log.InfoObj("fixture server exiting", "reason", ctx.Err())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := f.srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("fixture shutdown: %w", err)
		}
		return nil
	}
}
