package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// ShutdownFunc releases one resource during shutdown.
type ShutdownFunc func(context.Context) error

// GracefulShutdown blocks until SIGINT or SIGTERM, then drains the HTTP
// server and runs the shutdown funcs in order, all under one deadline.
// In-flight propagation runs finish with the requests that started them; the
// sync status machine covers anything the deadline cuts off, so shutdown
// never waits on downstream services directly.
func GracefulShutdown(logger *Logger, server *http.Server, timeout time.Duration, shutdownFuncs ...ShutdownFunc) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	signal.Stop(sigChan)

	logger.WithField("signal", sig.String()).Info("Shutting down")
	return drain(logger, server, timeout, shutdownFuncs)
}

// drain stops the server and releases resources in registration order, so
// the OTel flush runs after the handlers that feed it have returned.
func drain(logger *Logger, server *http.Server, timeout time.Duration, shutdownFuncs []ShutdownFunc) error {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if server != nil {
		if err := server.Shutdown(ctx); err != nil {
			logger.WithError(err).Error("HTTP server shutdown failed")
			errs = append(errs, fmt.Errorf("http server: %w", err))
		}
	}

	for i, fn := range shutdownFuncs {
		if err := fn(ctx); err != nil {
			logger.WithError(err).WithField("step", i).Error("Shutdown step failed")
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	logger.Info("Shutdown complete")
	return nil
}
