package server_test

import (
	"context"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/stockroom/internal/server"
	"github.com/shashiranjanraj/stockroom/pkg/app"
	"github.com/shashiranjanraj/stockroom/pkg/database/dbtest"
	"github.com/shashiranjanraj/stockroom/pkg/queue"
)

type pingJob struct{}

func (pingJob) Kind() string { return "test.ping" }

func TestServe_RunsWorkersAndShutsDown(t *testing.T) {
	db := dbtest.Open(t)
	m := queue.NewManager(queue.NewMemoryDriver(4), queue.Options{DB: db})
	var ran atomic.Bool
	queue.Handle(m, func(context.Context, pingJob) error {
		ran.Store(true)
		return nil
	})
	a := &app.Application{DB: db, Queue: m}

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	go func() {
		done <- server.Serve(ctx, a, handler, lis, server.Options{GRPCAddr: "127.0.0.1:0", Workers: 1})
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + lis.Addr().String())
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusNoContent
	}, 2*time.Second, 20*time.Millisecond)

	_, err = m.Enqueue(context.Background(), pingJob{})
	require.NoError(t, err)
	require.Eventually(t, ran.Load, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
