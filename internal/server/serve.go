package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Martingim-10/retirex/internal/config"
	"github.com/Martingim-10/retirex/pkg/constants"
	"go.uber.org/zap"
)

// NewHTTPServer builds the listener configuration around handler.
func NewHTTPServer(conf config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              conf.Address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// Serve runs srv on ln until ctx is cancelled, then shuts it down within
// shutdownTimeout. It returns nil after a clean shutdown.
func Serve(ctx context.Context, srv *http.Server, ln net.Listener, shutdownTimeout time.Duration, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if shutdownTimeout <= 0 {
		shutdownTimeout = constants.DefaultShutdownTimeoutSeconds * time.Second
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening",
			zap.String("op", "server.Serve"),
			zap.String("address", ln.Addr().String()),
		)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err, ok := <-serverErr:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutting down http server", zap.String("op", "server.Serve"))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	logger.Info("http server stopped", zap.String("op", "server.Serve"))
	return nil
}

// ListenAndServe listens on the configured address and calls Serve.
func ListenAndServe(ctx context.Context, conf config.ServerConfig, handler http.Handler, logger *zap.Logger) error {
	ln, err := net.Listen("tcp", conf.Address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", conf.Address, err)
	}
	return Serve(ctx, NewHTTPServer(conf, handler), ln, conf.ShutdownTimeout, logger)
}
