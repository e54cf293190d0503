package queue

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"github.com/shashiranjanraj/stockroom/pkg/metrics"
)

// FailedJobRecord is a job that exhausted its attempts or could not be
// dispatched.
type FailedJobRecord struct {
	ID       uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	JobID    string    `gorm:"size:36;index" json:"job_id"`
	Kind     string    `gorm:"size:100;not null;index" json:"kind"`
	Payload  string    `gorm:"type:text;not null" json:"payload"`
	Error    string    `gorm:"type:text" json:"error"`
	Attempts int       `gorm:"not null;default:0" json:"attempts"`
	FailedAt time.Time `gorm:"not null" json:"failed_at"`
}

func (FailedJobRecord) TableName() string { return "failed_jobs" }

// ErrFailedJobNotFound is returned by Retry for an unknown record id.
var ErrFailedJobNotFound = errors.New("queue: failed job not found")

// archive stores env as failed. The database is preferred; without one, or
// when the insert fails, the record is kept in memory.
func (m *Manager) archive(ctx context.Context, env Envelope, cause error) {
	rec := FailedJobRecord{
		JobID:    env.ID,
		Kind:     env.Kind,
		Payload:  string(env.Payload),
		Error:    cause.Error(),
		Attempts: env.Attempts,
		FailedAt: time.Now().UTC(),
	}

	if m.db != nil {
		err := m.db.WithContext(ctx).Create(&rec).Error
		if err == nil {
			return
		}
		logger.Error("queue: persist failed job", "job_id", env.ID, "error", err)
	}

	m.mu.Lock()
	m.failedSeq++
	rec.ID = m.failedSeq
	m.failed = append(m.failed, rec)
	m.mu.Unlock()
}

// FailedJobs returns up to limit archived jobs, newest first. limit <= 0
// returns all of them.
func (m *Manager) FailedJobs(ctx context.Context, limit int) ([]FailedJobRecord, error) {
	if m.db != nil {
		var out []FailedJobRecord
		q := m.db.WithContext(ctx).Order("id DESC")
		if limit > 0 {
			q = q.Limit(limit)
		}
		if err := q.Find(&out).Error; err != nil {
			return nil, fmt.Errorf("queue: list failed jobs: %w", err)
		}
		return out, nil
	}

	m.mu.RLock()
	out := make([]FailedJobRecord, len(m.failed))
	copy(out, m.failed)
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Retry re-enqueues an archived job with its attempts reset and removes the
// record. The record is kept when the push fails. It returns the id of the
// new job.
func (m *Manager) Retry(ctx context.Context, id uint) (string, error) {
	var env Envelope
	requeue := func(rec FailedJobRecord) error {
		env = Envelope{
			ID:         uuid.NewString(),
			Kind:       rec.Kind,
			Payload:    []byte(rec.Payload),
			EnqueuedAt: time.Now().UTC(),
		}
		return m.push(ctx, env, 0)
	}

	var err error
	if m.db != nil {
		err = m.retryStored(ctx, id, requeue)
	} else {
		err = m.retryInMemory(id, requeue)
	}
	if err != nil {
		return "", err
	}

	metrics.QueueJobsEnqueued.WithLabelValues(env.Kind).Inc()
	logger.WithCtx(ctx).Info("queue: failed job retried", "failed_id", id, "job_id", env.ID, "kind", env.Kind)
	return env.ID, nil
}

// retryStored deletes the record and pushes it in one transaction, so a
// failed push rolls the delete back and two concurrent retries cannot both
// claim it.
func (m *Manager) retryStored(ctx context.Context, id uint, requeue func(FailedJobRecord) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec FailedJobRecord
		res := tx.Limit(1).Find(&rec, id)
		if res.Error != nil {
			return fmt.Errorf("queue: load failed job: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrFailedJobNotFound
		}
		del := tx.Delete(&FailedJobRecord{}, id)
		if del.Error != nil {
			return fmt.Errorf("queue: delete failed job: %w", del.Error)
		}
		if del.RowsAffected == 0 {
			return ErrFailedJobNotFound
		}
		return requeue(rec)
	})
}

func (m *Manager) retryInMemory(id uint, requeue func(FailedJobRecord) error) error {
	m.mu.Lock()
	var rec FailedJobRecord
	found := false
	for i, r := range m.failed {
		if r.ID == id {
			rec, found = r, true
			m.failed = append(m.failed[:i], m.failed[i+1:]...)
			break
		}
	}
	m.mu.Unlock()
	if !found {
		return ErrFailedJobNotFound
	}

	if err := requeue(rec); err != nil {
		m.mu.Lock()
		m.failed = append(m.failed, rec)
		m.mu.Unlock()
		return err
	}
	return nil
}
