package signal

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// WaitForShutdown blocks until SIGINT or SIGTERM, then runs shutdownFunc
// with a bounded grace period.
func WaitForShutdown(log *zap.Logger, shutdownFunc func() error) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	sig := <-sigChan
	log.Info("received shutdown signal", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- shutdownFunc()
	}()

	select {
	case err := <-done:
		if err != nil {
			log.Error("graceful shutdown failed", zap.Error(err))
			return
		}
		log.Info("graceful shutdown completed")
	case <-ctx.Done():
		log.Error("graceful shutdown timed out", zap.Error(ctx.Err()))
	}
}
