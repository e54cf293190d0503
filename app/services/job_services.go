package services

import (
	"context"
	"fmt"

	"github.com/shashiranjanraj/stockroom/app/jobs"
	"github.com/shashiranjanraj/stockroom/pkg/queue"
)

// Enqueuer is the part of the queue the request path needs.
type Enqueuer interface {
	Enqueue(ctx context.Context, job queue.Job) (string, error)
}

// JobService hands work to the background workers and returns at once.
type JobService struct {
	queue Enqueuer
}

func NewJobService(q Enqueuer) *JobService {
	return &JobService{queue: q}
}

// ImportCSV queues text for ingestion on behalf of owner.
func (s *JobService) ImportCSV(ctx context.Context, owner jobs.Owner, text string) (string, error) {
	id, err := s.queue.Enqueue(ctx, jobs.IngestCsvJob{Text: text, Owner: owner})
	if err != nil {
		return "", fmt.Errorf("services: queue csv import: %w", err)
	}
	return id, nil
}

// RequestReport queues an inventory report for owner.
func (s *JobService) RequestReport(ctx context.Context, owner jobs.Owner) (string, error) {
	id, err := s.queue.Enqueue(ctx, jobs.GenerateReportJob{Owner: owner})
	if err != nil {
		return "", fmt.Errorf("services: queue report: %w", err)
	}
	return id, nil
}
