package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// httpServer is the part of *http.Server that serve drives.
type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// eventHub is the websocket hub lifecycle.
type eventHub interface {
	Run(ctx context.Context)
	Shutdown()
}

// backgroundWorker drains its queue and returns once ctx is cancelled.
type backgroundWorker interface {
	Run(ctx context.Context)
}

// serve runs srv, hub and worker until ctx is cancelled or srv fails. The
// worker is stopped only after srv.Shutdown has returned, so activity
// enqueued by in-flight requests is still recorded.
func serve(
	ctx context.Context,
	log *logrus.Logger,
	srv httpServer,
	hub eventHub,
	worker backgroundWorker,
	shutdownTimeout time.Duration,
) error {
	g, gctx := errgroup.WithContext(ctx)

	workerCtx, stopWorker := context.WithCancel(context.WithoutCancel(ctx))
	defer stopWorker()

	g.Go(func() error {
		worker.Run(workerCtx)
		return nil
	})

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		defer stopWorker()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		hub.Shutdown()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down http server: %w", err)
		}

		return nil
	})

	return g.Wait()
}
