package jobs

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/app/repositories"
	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"github.com/shashiranjanraj/stockroom/pkg/mail"
	"github.com/shashiranjanraj/stockroom/pkg/metrics"
)

// RequiredColumns must all appear in an upload's header row.
var RequiredColumns = []string{"name", "description", "price", "supplier"}

const ingestSubject = "CSV Processing Complete"

// IngestResult summarises one file.
type IngestResult struct {
	SuccessCount int
	Errors       []string
}

// Ingester turns CSV rows into products, creating suppliers on the way.
type Ingester struct {
	store    *repositories.Store
	notifier mail.Notifier
}

func NewIngester(store *repositories.Store, notifier mail.Notifier) *Ingester {
	return &Ingester{store: store, notifier: notifier}
}

// rowError is a per-row failure that ends up in the summary e-mail, tagged
// with the row number and the row's content.
type rowError struct{ msg string }

func (e rowError) Error() string { return e.msg }

// Ingest imports every data row of text for owner and e-mails the summary.
// Each row commits on its own; a bad row is recorded and skipped. The only
// error returned is a failed notification.
func (i *Ingester) Ingest(ctx context.Context, text string, owner Owner) (IngestResult, error) {
	log := logger.WithCtx(ctx).With("owner_id", owner.ID)
	var res IngestResult

	r := csv.NewReader(strings.NewReader(strings.TrimPrefix(text, "\ufeff")))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	switch {
	case errors.Is(err, io.EOF):
	case err != nil:
		res.Errors = append(res.Errors, fmt.Sprintf("malformed csv header: %v", err))
	default:
		cols := make(map[string]int, len(header))
		for idx, name := range header {
			if _, dup := cols[strings.TrimSpace(name)]; !dup {
				cols[strings.TrimSpace(name)] = idx
			}
		}
		i.rows(ctx, r, cols, owner, &res)
	}

	log.Info("csv ingest finished", "imported", res.SuccessCount, "errors", len(res.Errors))

	if err := i.notifier.Send(ctx, owner.Email, ingestSubject, summary(res), false); err != nil {
		return res, fmt.Errorf("jobs: ingest: notify %s: %w", owner.Email, err)
	}
	return res, nil
}

func (i *Ingester) rows(ctx context.Context, r *csv.Reader, cols map[string]int, owner Owner, res *IngestResult) {
	for n := 1; ; n++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", n, err))
				return
			}
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: malformed csv: %v", n, pe.Err))
			metrics.RecordIngestRow(false)
			continue
		}

		err = i.store.Transaction(ctx, func(tx *repositories.Store) error {
			return importRow(ctx, tx, cols, record, owner.ID)
		})
		metrics.RecordIngestRow(err == nil)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v (%s)", n, err, rowContent(record)))
			continue
		}
		res.SuccessCount++
	}
}

func importRow(ctx context.Context, tx *repositories.Store, cols map[string]int, record []string, ownerID uint) error {
	cells := make(map[string]string, len(RequiredColumns))
	for _, col := range RequiredColumns {
		idx, ok := cols[col]
		if !ok || idx >= len(record) {
			return rowError{"missing required fields"}
		}
		cells[col] = record[idx]
	}

	supplierName := strings.TrimSpace(cells["supplier"])
	if supplierName == "" {
		return rowError{"missing supplier"}
	}
	supplier, err := tx.Suppliers.FindOrCreate(ctx, ownerID, supplierName)
	if err != nil {
		return err
	}

	price, err := decimal.NewFromString(strings.TrimSpace(cells["price"]))
	if err != nil || price.IsNegative() {
		return rowError{fmt.Sprintf("invalid price '%s'", cells["price"])}
	}

	name := strings.TrimSpace(cells["name"])
	if name == "" {
		return rowError{"missing name"}
	}

	return tx.Products.Create(ctx, &models.Product{
		UserID:      ownerID,
		SupplierID:  supplier.ID,
		Name:        name,
		Description: strings.TrimSpace(cells["description"]),
		Price:       price,
	})
}

// rowContent renders record back as a CSV line for error messages.
func rowContent(record []string) string {
	var b strings.Builder
	w := csv.NewWriter(&b)
	_ = w.Write(record)
	w.Flush()
	return strings.TrimRight(b.String(), "\r\n")
}

func summary(res IngestResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Successfully processed %d records.\n", res.SuccessCount)
	if len(res.Errors) == 0 {
		b.WriteString("Errors: none\n")
		return b.String()
	}
	b.WriteString("Errors:\n")
	for _, e := range res.Errors {
		b.WriteString(e)
		b.WriteString("\n")
	}
	return b.String()
}
