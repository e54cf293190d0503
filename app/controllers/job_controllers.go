package controllers

import (
	"errors"
	"net/http"

	"github.com/shashiranjanraj/stockroom/app/repositories"
	"github.com/shashiranjanraj/stockroom/app/services"
	"github.com/shashiranjanraj/stockroom/config"
	"github.com/shashiranjanraj/stockroom/pkg/ctx"
)

// JobController accepts work for the background workers. Both endpoints
// answer 202 before the job runs.
type JobController struct {
	users *repositories.UserRepository
	jobs  *services.JobService
}

func NewJobController(store *repositories.Store, jobs *services.JobService) *JobController {
	return &JobController{users: store.Users, jobs: jobs}
}

// UploadCSV validates the multipart "file" field and queues the import.
func (j *JobController) UploadCSV(c *ctx.Context) {
	owner, ok := owner(c, j.users)
	if !ok {
		return
	}

	c.R.Body = http.MaxBytesReader(c.W, c.R.Body, config.UploadMaxBytes())
	file, header, err := c.R.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, http.ErrMissingFile):
			c.Error(http.StatusBadRequest, "No file uploaded")
		case errors.As(err, &maxErr):
			c.Error(http.StatusBadRequest, "File is too large")
		default:
			c.Error(http.StatusBadRequest, "Invalid upload: "+err.Error())
		}
		return
	}
	defer file.Close()

	text, err := services.ReadCSVUpload(header.Filename, file)
	if err != nil {
		fail(c, err)
		return
	}

	id, err := j.jobs.ImportCSV(c.Context(), owner, text)
	if err != nil {
		fail(c, err)
		return
	}
	c.Accepted("CSV upload is being processed. You will receive an email with the results.",
		map[string]string{"job_id": id})
}

// GenerateReport queues the inventory report for the caller.
func (j *JobController) GenerateReport(c *ctx.Context) {
	owner, ok := owner(c, j.users)
	if !ok {
		return
	}

	id, err := j.jobs.RequestReport(c.Context(), owner)
	if err != nil {
		fail(c, err)
		return
	}
	c.Accepted("Report generation started. You will receive an email with the report.",
		map[string]string{"job_id": id})
}
