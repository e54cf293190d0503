package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shashiranjanraj/stockroom/pkg/logger"
)

var (
	// ErrQueueFull is returned by MemoryDriver.Push when the buffer is full
	// and ctx ends before room appears.
	ErrQueueFull = errors.New("queue: memory buffer full")

	// ErrDriverClosed is returned once a driver has been closed.
	ErrDriverClosed = errors.New("queue: driver closed")
)

// MemoryDriver is an in-process, channel-backed driver. Jobs do not
// survive a restart.
type MemoryDriver struct {
	ch        chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewMemoryDriver creates a driver buffering up to size jobs (default 1000).
func NewMemoryDriver(size int) *MemoryDriver {
	if size <= 0 {
		size = 1000
	}
	return &MemoryDriver{ch: make(chan []byte, size), done: make(chan struct{})}
}

// Push blocks while the buffer is full.
func (d *MemoryDriver) Push(ctx context.Context, payload []byte) error {
	select {
	case <-d.done:
		return ErrDriverClosed
	default:
	}
	select {
	case d.ch <- payload:
		return nil
	case <-d.done:
		return ErrDriverClosed
	case <-ctx.Done():
		return errors.Join(ErrQueueFull, ctx.Err())
	}
}

// PushDelayed pushes payload once delay has passed. A delayed job still
// waiting for room when the driver closes is dropped.
func (d *MemoryDriver) PushDelayed(_ context.Context, payload []byte, delay time.Duration) error {
	time.AfterFunc(delay, func() {
		select {
		case d.ch <- payload:
		case <-d.done:
			logger.Warn("queue: delayed job dropped, memory driver closed", "bytes", len(payload))
		}
	})
	return nil
}

// Pop waits for a payload until ctx is done or the driver closes.
func (d *MemoryDriver) Pop(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-d.done:
		return nil, ErrDriverClosed
	case payload := <-d.ch:
		return payload, nil
	}
}

// Ack is a no-op; a popped payload only lives in the worker.
func (d *MemoryDriver) Ack(context.Context, []byte) error { return nil }

// Close stops the driver and releases pending delayed pushes. It is safe to
// call more than once.
func (d *MemoryDriver) Close() error {
	d.closeOnce.Do(func() { close(d.done) })
	return nil
}

// Len reports how many payloads are ready.
func (d *MemoryDriver) Len() int { return len(d.ch) }
