package grpc

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
)

func healthClient(t *testing.T, s *Server) grpc_health_v1.HealthClient {
	t.Helper()
	conn, err := grpc.NewClient(s.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return grpc_health_v1.NewHealthClient(conn)
}

func TestHealthFollowsChecker(t *testing.T) {
	prev := CheckInterval
	CheckInterval = 20 * time.Millisecond
	t.Cleanup(func() { CheckInterval = prev })

	var down atomic.Bool
	s, err := Start("127.0.0.1:0", func(context.Context) error {
		if down.Load() {
			return errors.New("db unreachable")
		}
		return nil
	})
	require.NoError(t, err)
	t.Cleanup(s.Stop)

	client := healthClient(t, s)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := client.Check(ctx, &grpc_health_v1.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.Status)

	down.Store(true)
	require.Eventually(t, func() bool {
		resp, err := client.Check(ctx, &grpc_health_v1.HealthCheckRequest{})
		return err == nil && resp.Status == grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}, 2*time.Second, 20*time.Millisecond)
}

func TestStopIsIdempotent(t *testing.T) {
	s, err := Start("127.0.0.1:0", nil)
	require.NoError(t, err)
	s.Stop()
	s.Stop()
}
