package cache_test

import (
	"context"
	"net"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/stockroom/pkg/cache"
)

func TestOpen_UnreachableServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	rdb, err := cache.Open(context.Background(), &redis.Options{Addr: addr, MaxRetries: -1})
	assert.Nil(t, rdb)
	assert.ErrorContains(t, err, "cache: redis ping "+addr)
}
