// Package jobs holds the background work the API hands off to the queue:
// CSV product ingestion and the e-mailed inventory report.
//
//	jobs.Register(manager, jobs.Deps{Store: store, Notifier: mail.New()})
//	id, err := manager.Enqueue(ctx, jobs.IngestCsvJob{Text: text, Owner: owner})
package jobs

import (
	"context"

	"github.com/shashiranjanraj/stockroom/app/repositories"
	"github.com/shashiranjanraj/stockroom/pkg/mail"
	"github.com/shashiranjanraj/stockroom/pkg/queue"
	"github.com/shashiranjanraj/stockroom/pkg/storage"
)

// Kinds of job this package registers.
const (
	KindIngestCSV      = "ingest_csv"
	KindGenerateReport = "generate_report"
)

// Owner identifies the user a job works for and where its e-mail goes.
type Owner struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
}

// IngestCsvJob imports the rows of an uploaded CSV file.
type IngestCsvJob struct {
	Text  string `json:"text"`
	Owner Owner  `json:"owner"`
}

func (IngestCsvJob) Kind() string { return KindIngestCSV }

// GenerateReportJob mails the owner a low-stock and supplier report.
type GenerateReportJob struct {
	Owner Owner `json:"owner"`
}

func (GenerateReportJob) Kind() string { return KindGenerateReport }

// Deps are the handles the workers run against.
type Deps struct {
	Store    *repositories.Store
	Notifier mail.Notifier

	// Disk receives a copy of every report. Nil disables archiving.
	Disk storage.Disk

	// LowStockThreshold defaults to 10.
	LowStockThreshold int
}

// Register binds both workers to m.
func Register(m *queue.Manager, d Deps) {
	ingester := NewIngester(d.Store, d.Notifier)
	reporter := NewReporter(d.Store, d.Notifier, d.Disk, d.LowStockThreshold)

	queue.Handle(m, func(ctx context.Context, j IngestCsvJob) error {
		_, err := ingester.Ingest(ctx, j.Text, j.Owner)
		return err
	})
	queue.Handle(m, func(ctx context.Context, j GenerateReportJob) error {
		return reporter.Generate(ctx, j.Owner)
	})
}
