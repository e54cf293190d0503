package controllers

import (
	"context"
	"errors"

	"github.com/shashiranjanraj/stockroom/pkg/ctx"
	"github.com/shashiranjanraj/stockroom/pkg/queue"
)

// FailedJobs is the operator side of the queue.
type FailedJobs interface {
	FailedJobs(ctx context.Context, limit int) ([]queue.FailedJobRecord, error)
	Retry(ctx context.Context, id uint) (string, error)
}

type FailedJobController struct {
	queue FailedJobs
}

func NewFailedJobController(q FailedJobs) *FailedJobController {
	return &FailedJobController{queue: q}
}

func (f *FailedJobController) Index(c *ctx.Context) {
	records, err := f.queue.FailedJobs(c.Context(), c.QueryInt("limit", 50))
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(records)
}

func (f *FailedJobController) Retry(c *ctx.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	jobID, err := f.queue.Retry(c.Context(), id)
	if errors.Is(err, queue.ErrFailedJobNotFound) {
		c.NotFound()
		return
	}
	if err != nil {
		fail(c, err)
		return
	}
	c.Accepted("Job queued for retry.", map[string]string{"job_id": jobID})
}
