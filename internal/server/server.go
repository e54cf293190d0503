// Package server runs the long-lived processes: the HTTP API, the gRPC
// health endpoint and, optionally, in-process queue workers. All of them
// stop together when ctx is cancelled.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/shashiranjanraj/stockroom/config"
	"github.com/shashiranjanraj/stockroom/pkg/app"
	"github.com/shashiranjanraj/stockroom/pkg/database"
	"github.com/shashiranjanraj/stockroom/pkg/grpc"
	"github.com/shashiranjanraj/stockroom/pkg/logger"
)

// ShutdownTimeout bounds how long in-flight requests may take to finish.
var ShutdownTimeout = 15 * time.Second

// Options controls Run.
type Options struct {
	HTTPAddr string
	GRPCAddr string

	// Workers is the number of in-process queue slots; 0 runs none.
	Workers int
}

// DefaultOptions reads APP_PORT, GRPC_PORT and QUEUE_WORKERS.
func DefaultOptions() Options {
	return Options{
		HTTPAddr: ":" + config.AppPort(),
		GRPCAddr: ":" + config.GRPCPort(),
		Workers:  config.QueueWorkers(),
	}
}

// Run serves handler until ctx is cancelled, then drains HTTP requests,
// gRPC calls and running jobs before returning.
func Run(ctx context.Context, a *app.Application, handler http.Handler, opts Options) error {
	lis, err := net.Listen("tcp", opts.HTTPAddr)
	if err != nil {
		return fmt.Errorf("server: listen on %s: %w", opts.HTTPAddr, err)
	}
	return Serve(ctx, a, handler, lis, opts)
}

// Serve is Run on an existing listener.
func Serve(ctx context.Context, a *app.Application, handler http.Handler, lis net.Listener, opts Options) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	var grpcSrv *grpc.Server
	if opts.GRPCAddr != "" {
		var err error
		grpcSrv, err = grpc.Start(opts.GRPCAddr, func(ctx context.Context) error {
			return database.Ping(ctx, a.DB)
		})
		if err != nil {
			return err
		}
	}

	workerCtx, stopWorkers := context.WithCancel(context.WithoutCancel(ctx))
	defer stopWorkers()
	var workers sync.WaitGroup
	if opts.Workers > 0 && a.Queue != nil {
		workers.Add(1)
		go func() {
			defer workers.Done()
			if err := a.Queue.Run(workerCtx, opts.Workers); err != nil {
				logger.Error("queue workers stopped", "error", err)
			}
		}()
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", lis.Addr().String())
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serveErr:
		runErr = fmt.Errorf("server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown", "error", err)
	}
	grpcSrv.Stop()

	stopWorkers()
	workers.Wait()

	logger.Info("server stopped")
	return runErr
}
