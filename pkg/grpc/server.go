// Package grpc runs the side-port gRPC server. It serves the standard
// grpc.health.v1.Health service, whose status follows a readiness check
// (the database ping), plus reflection for grpcurl.
//
//	srv, err := grpc.Start(":"+config.GRPCPort(), func(ctx context.Context) error {
//	    return database.Ping(ctx, db)
//	})
//	defer srv.Stop()
package grpc

import (
	"context"
	"fmt"
	"net"
	"runtime/debug"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"github.com/shashiranjanraj/stockroom/pkg/metrics"
)

var (
	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stockroom",
		Subsystem: "grpc",
		Name:      "handled_total",
		Help:      "gRPC calls completed, by method and code.",
	}, []string{"method", "code"})

	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "stockroom",
		Subsystem: "grpc",
		Name:      "handling_seconds",
		Help:      "gRPC latency in seconds.",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"method"})
)

func init() {
	metrics.MustRegister(requestsTotal, requestDuration)
}

// Checker reports whether the service can do useful work.
type Checker func(ctx context.Context) error

// CheckInterval is how often the health status is refreshed.
var CheckInterval = 10 * time.Second

func recoveryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("grpc: panic recovered",
				"method", info.FullMethod,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			err = status.Errorf(codes.Internal, "internal server error")
		}
	}()
	return handler(ctx, req)
}

func observeInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	code := status.Code(err)

	requestsTotal.WithLabelValues(info.FullMethod, code.String()).Inc()
	requestDuration.WithLabelValues(info.FullMethod).Observe(time.Since(start).Seconds())
	logger.Debug("grpc: request",
		"method", info.FullMethod,
		"duration_ms", time.Since(start).Milliseconds(),
		"code", code.String(),
	)
	return resp, err
}

// Server is a running gRPC server.
type Server struct {
	srv    *grpc.Server
	lis    net.Listener
	health *health.Server
	check  Checker

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Start listens on addr and serves in the background. A nil check always
// reports SERVING.
func Start(addr string, check Checker) (*Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("grpc: listen on %s: %w", addr, err)
	}

	s := &Server{
		srv: grpc.NewServer(
			grpc.ChainUnaryInterceptor(recoveryInterceptor, observeInterceptor),
			grpc.MaxRecvMsgSize(4<<20),
			grpc.MaxSendMsgSize(4<<20),
		),
		lis:    lis,
		health: health.NewServer(),
		check:  check,
		stop:   make(chan struct{}),
	}
	grpc_health_v1.RegisterHealthServer(s.srv, s.health)
	reflection.Register(s.srv)

	s.refresh()

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		if err := s.srv.Serve(lis); err != nil {
			logger.Error("grpc: serve error", "error", err)
		}
	}()
	go func() {
		defer s.wg.Done()
		s.watch()
	}()

	logger.Info("gRPC server listening", "addr", lis.Addr().String())
	return s, nil
}

// Addr is the bound address.
func (s *Server) Addr() net.Addr { return s.lis.Addr() }

// Stop marks the service NOT_SERVING and waits for in-flight RPCs.
func (s *Server) Stop() {
	if s == nil {
		return
	}
	s.stopOnce.Do(func() {
		close(s.stop)
		s.health.Shutdown()
		s.srv.GracefulStop()
		s.wg.Wait()
	})
}

func (s *Server) watch() {
	t := time.NewTicker(CheckInterval)
	defer t.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-t.C:
			s.refresh()
		}
	}
}

func (s *Server) refresh() {
	st := grpc_health_v1.HealthCheckResponse_SERVING
	if s.check != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := s.check(ctx)
		cancel()
		if err != nil {
			logger.Warn("grpc: health check failed", "error", err)
			st = grpc_health_v1.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus("", st)
}
