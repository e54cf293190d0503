package jobs

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/app/repositories"
	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"github.com/shashiranjanraj/stockroom/pkg/mail"
	"github.com/shashiranjanraj/stockroom/pkg/metrics"
	"github.com/shashiranjanraj/stockroom/pkg/storage"
)

const (
	reportSubject            = "Inventory Report"
	DefaultLowStockThreshold = 10
)

//go:embed templates/report.html
var templateFS embed.FS

var reportTmpl = template.Must(template.ParseFS(templateFS, "templates/report.html"))

// ReportData is what the report template renders.
type ReportData struct {
	GeneratedAt time.Time
	Threshold   int
	LowStock    []models.Inventory
	Suppliers   []models.SupplierPerformance
}

// Reporter builds and mails the inventory report.
type Reporter struct {
	store     *repositories.Store
	notifier  mail.Notifier
	disk      storage.Disk
	threshold int
	now       func() time.Time
}

func NewReporter(store *repositories.Store, notifier mail.Notifier, disk storage.Disk, threshold int) *Reporter {
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	return &Reporter{
		store:     store,
		notifier:  notifier,
		disk:      disk,
		threshold: threshold,
		now:       time.Now,
	}
}

// Generate queries, renders and sends the report for owner. A failed
// archive copy is logged and otherwise ignored.
func (r *Reporter) Generate(ctx context.Context, owner Owner) error {
	html, err := r.Render(ctx, owner.ID)
	if err != nil {
		return err
	}

	if err := r.notifier.Send(ctx, owner.Email, reportSubject, html, true); err != nil {
		return fmt.Errorf("jobs: report: notify %s: %w", owner.Email, err)
	}
	metrics.ReportsSent.Inc()

	r.archive(ctx, owner.ID, html)
	return nil
}

// Render returns the report HTML for userID.
func (r *Reporter) Render(ctx context.Context, userID uint) (string, error) {
	low, err := r.store.Reports.LowStock(ctx, userID, r.threshold)
	if err != nil {
		return "", fmt.Errorf("jobs: report: %w", err)
	}
	suppliers, err := r.store.Reports.SupplierPerformance(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("jobs: report: %w", err)
	}

	var buf bytes.Buffer
	err = reportTmpl.Execute(&buf, ReportData{
		GeneratedAt: r.now().UTC(),
		Threshold:   r.threshold,
		LowStock:    low,
		Suppliers:   suppliers,
	})
	if err != nil {
		return "", fmt.Errorf("jobs: report: render: %w", err)
	}
	return buf.String(), nil
}

func (r *Reporter) archive(ctx context.Context, userID uint, html string) {
	if r.disk == nil {
		return
	}
	path := ArchivePath(userID, r.now())
	if err := r.disk.Put(ctx, path, []byte(html), "text/html; charset=utf-8"); err != nil {
		logger.WithCtx(ctx).Warn("report archive failed", "path", path, "error", err)
	}
}

// ArchivePath is where the report generated at t for userID is stored.
func ArchivePath(userID uint, t time.Time) string {
	return fmt.Sprintf("reports/%d/%s.html", userID, t.UTC().Format("20060102T150405Z"))
}
