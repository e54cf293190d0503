package queue_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/stockroom/pkg/database"
	"github.com/shashiranjanraj/stockroom/pkg/queue"
)

type echoJob struct {
	Val string `json:"val"`
}

func (echoJob) Kind() string { return "test.echo" }

type failJob struct{}

func (failJob) Kind() string { return "test.fail" }

type panicJob struct{}

func (panicJob) Kind() string { return "test.panic" }

func startWorkers(t *testing.T, m *queue.Manager, slots int) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = m.Run(ctx, slots)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func newManager(opts queue.Options) (*queue.Manager, *queue.MemoryDriver) {
	if opts.Backoff == 0 {
		opts.Backoff = 10 * time.Millisecond
	}
	d := queue.NewMemoryDriver(16)
	return queue.NewManager(d, opts), d
}

func TestEnqueue_DoesNotRunHandlerInline(t *testing.T) {
	m, d := newManager(queue.Options{})
	var ran atomic.Bool
	queue.Handle(m, func(ctx context.Context, j echoJob) error {
		ran.Store(true)
		return nil
	})

	id, err := m.Enqueue(context.Background(), echoJob{Val: "hi"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, 1, d.Len())
	assert.False(t, ran.Load())
}

func TestRun_DeliversTypedPayload(t *testing.T) {
	m, _ := newManager(queue.Options{})
	got := make(chan string, 1)
	queue.Handle(m, func(ctx context.Context, j echoJob) error {
		got <- j.Val
		return nil
	})
	startWorkers(t, m, 2)

	_, err := m.Enqueue(context.Background(), echoJob{Val: "hello"})
	require.NoError(t, err)

	select {
	case v := <-got:
		assert.Equal(t, "hello", v)
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed")
	}
}

func TestRun_RetriesThenArchives(t *testing.T) {
	m, _ := newManager(queue.Options{MaxAttempts: 3})
	var attempts atomic.Int32
	queue.Handle(m, func(ctx context.Context, j failJob) error {
		attempts.Add(1)
		return errors.New("always fails")
	})
	startWorkers(t, m, 1)

	_, err := m.Enqueue(context.Background(), failJob{})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		failed, _ := m.FailedJobs(context.Background(), 0)
		return len(failed) == 1
	}, 3*time.Second, 10*time.Millisecond)

	assert.EqualValues(t, 3, attempts.Load())
	failed, err := m.FailedJobs(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "test.fail", failed[0].Kind)
	assert.Equal(t, 3, failed[0].Attempts)
	assert.Contains(t, failed[0].Error, "always fails")
}

func TestRun_PanicCountsAsFailure(t *testing.T) {
	m, _ := newManager(queue.Options{MaxAttempts: 1})
	queue.Handle(m, func(ctx context.Context, j panicJob) error {
		panic("boom")
	})
	startWorkers(t, m, 1)

	_, err := m.Enqueue(context.Background(), panicJob{})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		failed, _ := m.FailedJobs(context.Background(), 0)
		return len(failed) == 1 && failed[0].Kind == "test.panic"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRun_UnknownKindIsArchived(t *testing.T) {
	d := queue.NewMemoryDriver(4)
	m := queue.NewManager(d, queue.Options{})
	startWorkers(t, m, 1)

	raw, _ := json.Marshal(queue.Envelope{ID: "x", Kind: "nobody.handles", Payload: json.RawMessage(`{}`)})
	require.NoError(t, d.Push(context.Background(), raw))

	require.Eventually(t, func() bool {
		failed, _ := m.FailedJobs(context.Background(), 0)
		return len(failed) == 1
	}, 2*time.Second, 10*time.Millisecond)

	failed, _ := m.FailedJobs(context.Background(), 0)
	assert.Contains(t, failed[0].Error, queue.ErrUnknownKind.Error())
}

func TestRun_BoundsConcurrency(t *testing.T) {
	m, _ := newManager(queue.Options{})
	var running, peak atomic.Int32
	release := make(chan struct{})
	queue.Handle(m, func(ctx context.Context, j echoJob) error {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		<-release
		running.Add(-1)
		return nil
	})
	startWorkers(t, m, 2)

	for i := 0; i < 5; i++ {
		_, err := m.Enqueue(context.Background(), echoJob{})
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool { return running.Load() == 2 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 2, peak.Load())
	close(release)
}

func TestRetry_ReenqueuesArchivedJob(t *testing.T) {
	db, err := database.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, db.AutoMigrate(&queue.FailedJobRecord{}))

	m, d := newManager(queue.Options{MaxAttempts: 1, DB: db})
	var fail atomic.Bool
	fail.Store(true)
	done := make(chan string, 1)
	queue.Handle(m, func(ctx context.Context, j echoJob) error {
		if fail.Load() {
			return errors.New("downstream down")
		}
		done <- j.Val
		return nil
	})
	startWorkers(t, m, 1)

	_, err = m.Enqueue(context.Background(), echoJob{Val: "again"})
	require.NoError(t, err)

	var rec queue.FailedJobRecord
	require.Eventually(t, func() bool {
		failed, _ := m.FailedJobs(context.Background(), 10)
		if len(failed) != 1 {
			return false
		}
		rec = failed[0]
		return true
	}, 2*time.Second, 10*time.Millisecond)

	fail.Store(false)
	newID, err := m.Retry(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.NotEqual(t, rec.JobID, newID)

	select {
	case v := <-done:
		assert.Equal(t, "again", v)
	case <-time.After(2 * time.Second):
		t.Fatal("retried job was not processed")
	}

	failed, err := m.FailedJobs(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, failed)
	assert.Zero(t, d.Len())

	_, err = m.Retry(context.Background(), rec.ID)
	assert.ErrorIs(t, err, queue.ErrFailedJobNotFound)
}

// flakyDriver fails Push while refuse is set.
type flakyDriver struct {
	*queue.MemoryDriver
	refuse atomic.Bool
}

func (d *flakyDriver) Push(ctx context.Context, payload []byte) error {
	if d.refuse.Load() {
		return errors.New("broker unavailable")
	}
	return d.MemoryDriver.Push(ctx, payload)
}

func TestRetry_KeepsRecordWhenPushFails(t *testing.T) {
	for _, stored := range []bool{false, true} {
		t.Run(map[bool]string{false: "memory", true: "db"}[stored], func(t *testing.T) {
			opts := queue.Options{MaxAttempts: 1, Backoff: 10 * time.Millisecond}
			if stored {
				db, err := database.Open("sqlite", "file:"+strings.ReplaceAll(t.Name(), "/", "_")+"?mode=memory&cache=shared")
				require.NoError(t, err)
				t.Cleanup(func() { _ = database.Close(db) })
				require.NoError(t, db.AutoMigrate(&queue.FailedJobRecord{}))
				opts.DB = db
			}
			d := &flakyDriver{MemoryDriver: queue.NewMemoryDriver(8)}
			m := queue.NewManager(d, opts)
			queue.Handle(m, func(context.Context, failJob) error { return errors.New("nope") })
			startWorkers(t, m, 1)

			_, err := m.Enqueue(context.Background(), failJob{})
			require.NoError(t, err)

			var rec queue.FailedJobRecord
			require.Eventually(t, func() bool {
				failed, _ := m.FailedJobs(context.Background(), 10)
				if len(failed) != 1 {
					return false
				}
				rec = failed[0]
				return true
			}, 2*time.Second, 10*time.Millisecond)

			d.refuse.Store(true)
			_, err = m.Retry(context.Background(), rec.ID)
			require.Error(t, err)

			failed, err := m.FailedJobs(context.Background(), 10)
			require.NoError(t, err)
			require.Len(t, failed, 1)
			assert.Equal(t, rec.ID, failed[0].ID)

			d.refuse.Store(false)
			_, err = m.Retry(context.Background(), rec.ID)
			require.NoError(t, err)
		})
	}
}

func TestHandle_DuplicateKindPanics(t *testing.T) {
	m, _ := newManager(queue.Options{})
	queue.Handle(m, func(ctx context.Context, j echoJob) error { return nil })
	assert.Panics(t, func() {
		queue.Handle(m, func(ctx context.Context, j echoJob) error { return nil })
	})
}
