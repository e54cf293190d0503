// Package queue is the background job system.
//
// Jobs are typed values that name their own kind. Handlers are registered
// per kind with the dependencies they need already bound, so nothing
// inside a worker reaches for globals:
//
//	type WelcomeJob struct{ UserID uint `json:"user_id"` }
//	func (WelcomeJob) Kind() string { return "welcome" }
//
//	m := queue.NewManager(queue.NewMemoryDriver(100), queue.Options{})
//	queue.Handle(m, func(ctx context.Context, j WelcomeJob) error {
//	    return mailer.Send(ctx, ...)
//	})
//
//	id, err := m.Enqueue(ctx, WelcomeJob{UserID: 1})
//	go m.Run(ctx, 5)
//
// Delivery is at-least-once. A failing handler is retried with linear
// backoff until MaxAttempts, then archived as a FailedJobRecord.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"github.com/shashiranjanraj/stockroom/pkg/metrics"
	"github.com/shashiranjanraj/stockroom/pkg/workerpool"
)

// Job is a unit of work. Kind must be constant for a type and callable on
// its zero value.
type Job interface {
	Kind() string
}

// Envelope is the wire format pushed to a Driver.
type Envelope struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	Payload    json.RawMessage `json:"payload"`
	Attempts   int             `json:"attempts"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// Driver is the storage backend for pending jobs.
type Driver interface {
	// Push makes payload available to Pop immediately.
	Push(ctx context.Context, payload []byte) error
	// PushDelayed makes payload available after delay.
	PushDelayed(ctx context.Context, payload []byte, delay time.Duration) error
	// Pop returns the next payload, or (nil, nil) when none arrived before
	// the driver's poll timeout. A popped payload stays claimed until Ack.
	Pop(ctx context.Context) ([]byte, error)
	// Ack releases a popped payload once the Manager is done with it:
	// handled, re-enqueued for retry or archived.
	Ack(ctx context.Context, payload []byte) error
}

// ErrUnknownKind marks an envelope whose kind has no registered handler.
var ErrUnknownKind = errors.New("queue: no handler registered for kind")

type handlerFunc func(ctx context.Context, payload json.RawMessage) error

// Options tunes a Manager. Zero values pick the defaults.
type Options struct {
	MaxAttempts int           // default 3
	Backoff     time.Duration // delay unit; attempt n waits n×Backoff (default 1s)
	DB          *gorm.DB      // archive for failed jobs; nil keeps them in memory
}

// Manager dispatches jobs to a Driver and runs registered handlers.
type Manager struct {
	driver      Driver
	db          *gorm.DB
	maxAttempts int
	backoff     time.Duration

	mu        sync.RWMutex
	handlers  map[string]handlerFunc
	failed    []FailedJobRecord
	failedSeq uint
}

// NewManager creates a Manager over driver.
func NewManager(driver Driver, opts Options) *Manager {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}
	return &Manager{
		driver:      driver,
		db:          opts.DB,
		maxAttempts: opts.MaxAttempts,
		backoff:     opts.Backoff,
		handlers:    map[string]handlerFunc{},
	}
}

// Handle registers fn for jobs of type T. T must be a value type.
func Handle[T Job](m *Manager, fn func(ctx context.Context, job T) error) {
	var zero T
	kind := zero.Kind()

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.handlers[kind]; dup {
		panic(fmt.Sprintf("queue: handler for %q registered twice", kind))
	}
	m.handlers[kind] = func(ctx context.Context, payload json.RawMessage) error {
		var job T
		if err := json.Unmarshal(payload, &job); err != nil {
			return fmt.Errorf("queue: decode %s payload: %w", kind, err)
		}
		return fn(ctx, job)
	}
}

// Kinds lists the registered job kinds.
func (m *Manager) Kinds() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.handlers))
	for k := range m.handlers {
		out = append(out, k)
	}
	return out
}

// ------------------- Dispatch -------------------

// Enqueue pushes job and returns its id without waiting for it to run.
func (m *Manager) Enqueue(ctx context.Context, job Job) (string, error) {
	kind := job.Kind()

	payload, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("queue: marshal %s: %w", kind, err)
	}

	env := Envelope{
		ID:         uuid.NewString(),
		Kind:       kind,
		Payload:    payload,
		EnqueuedAt: time.Now().UTC(),
	}
	if err := m.push(ctx, env, 0); err != nil {
		return "", err
	}

	metrics.QueueJobsEnqueued.WithLabelValues(kind).Inc()
	logger.WithCtx(ctx).Debug("queue: job enqueued", "job_id", env.ID, "kind", kind)
	return env.ID, nil
}

func (m *Manager) push(ctx context.Context, env Envelope, delay time.Duration) error {
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("queue: marshal envelope: %w", err)
	}
	if delay > 0 {
		err = m.driver.PushDelayed(ctx, raw, delay)
	} else {
		err = m.driver.Push(ctx, raw)
	}
	if err != nil {
		return fmt.Errorf("queue: push %s: %w", env.Kind, err)
	}
	return nil
}

// ------------------- Worker -------------------

// Run processes jobs with up to slots concurrent handlers until ctx is
// cancelled. A job is popped only by an idle slot. Jobs already running
// when ctx ends are allowed to finish before Run returns.
func (m *Manager) Run(ctx context.Context, slots int) error {
	pool := workerpool.New(slots,
		workerpool.WithQueueSize(0),
		workerpool.WithPanicHandler(func(r any) {
			logger.Error("queue: worker panic", "panic", r)
		}),
	)
	defer pool.Shutdown()

	logger.Info("queue: workers started", "slots", pool.Size())

	for ctx.Err() == nil {
		err := pool.SubmitCtx(ctx, func() {
			metrics.QueueBusyWorkers.Set(float64(pool.Busy()))
			m.poll(ctx)
		})
		if err != nil {
			break
		}
	}

	logger.Info("queue: workers stopping")
	return nil
}

// poll pops at most one envelope and processes it.
func (m *Manager) poll(ctx context.Context) {
	raw, err := m.driver.Pop(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		if !errors.Is(err, ErrDriverClosed) {
			logger.Warn("queue: pop failed", "error", err)
		}
		select {
		case <-ctx.Done():
		case <-time.After(500 * time.Millisecond):
		}
		return
	}
	if raw == nil {
		return
	}

	// In-flight jobs are not cut short by shutdown.
	jobCtx := context.WithoutCancel(ctx)
	m.process(jobCtx, raw)
	if err := m.driver.Ack(jobCtx, raw); err != nil {
		logger.Warn("queue: ack failed", "error", err)
	}
}

func (m *Manager) process(ctx context.Context, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logger.Error("queue: bad envelope", "error", err)
		m.archive(ctx, Envelope{Kind: "unknown", Payload: json.RawMessage(raw)}, fmt.Errorf("decode envelope: %w", err))
		return
	}

	m.mu.RLock()
	handler, ok := m.handlers[env.Kind]
	m.mu.RUnlock()

	log := logger.L.With("job_id", env.ID, "kind", env.Kind, "attempt", env.Attempts+1)
	if !ok {
		log.Error("queue: unregistered job kind")
		m.archive(ctx, env, fmt.Errorf("%w: %s", ErrUnknownKind, env.Kind))
		return
	}

	jobCtx := logger.InjectLogger(ctx, log)
	start := time.Now()
	err := safeCall(jobCtx, handler, env.Payload)
	if err == nil {
		metrics.RecordQueueJob(env.Kind, "success", start)
		log.Info("queue: job processed", "duration", time.Since(start).String())
		return
	}

	env.Attempts++
	if env.Attempts >= m.maxAttempts {
		metrics.RecordQueueJob(env.Kind, "failed", start)
		log.Error("queue: job exhausted retries", "attempts", env.Attempts, "error", err)
		m.archive(ctx, env, err)
		return
	}

	metrics.RecordQueueJob(env.Kind, "retry", start)
	delay := time.Duration(env.Attempts) * m.backoff
	log.Warn("queue: job failed, retrying", "retry_in", delay.String(), "error", err)
	if perr := m.push(ctx, env, delay); perr != nil {
		log.Error("queue: re-enqueue failed", "error", perr)
		m.archive(ctx, env, errors.Join(err, perr))
	}
}

func safeCall(ctx context.Context, h handlerFunc, payload json.RawMessage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("queue: handler panic: %v", r)
		}
	}()
	return h(ctx, payload)
}
