// Package signals cancels long-running commands on SIGINT, SIGTERM or SIGHUP.
package signals

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/endorses/pcapview/internal/pkg/constants"
	"github.com/endorses/pcapview/internal/pkg/logger"
)

var shutdownSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP}

// SetupHandler cancels ctx through cancel when a shutdown signal arrives.
// The returned cleanup stops signal delivery; call it once the work is done.
func SetupHandler(ctx context.Context, cancel context.CancelFunc) (cleanup func()) {
	sigCh := make(chan os.Signal, constants.SignalChannelBuffer)
	signal.Notify(sigCh, shutdownSignals...)

	done := make(chan struct{})
	go func() {
		defer close(done)
		select {
		case sig, ok := <-sigCh:
			if ok {
				logger.Info("Received signal, cancelling", "signal", sig.String())
				cancel()
			}
		case <-ctx.Done():
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(sigCh)
		<-done
	}
}

// WithShutdown returns a copy of parent that is cancelled on a shutdown
// signal, and the function releasing it.
func WithShutdown(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	cleanup := SetupHandler(ctx, cancel)
	return ctx, func() {
		cleanup()
		cancel()
	}
}
