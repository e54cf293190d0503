package jobs

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/app/repositories"
	"github.com/shashiranjanraj/stockroom/pkg/storage"
)

type brokenDisk struct{ storage.Disk }

func (brokenDisk) Put(context.Context, string, []byte, string) error {
	return errors.New("bucket unavailable")
}

func stock(t *testing.T, s *repositories.Store, owner Owner, supplier, product string, qty int) {
	t.Helper()
	ctx := context.Background()
	sup, err := s.Suppliers.FindOrCreate(ctx, owner.ID, supplier)
	require.NoError(t, err)
	p := &models.Product{UserID: owner.ID, SupplierID: sup.ID, Name: product, Price: decimal.NewFromInt(1)}
	require.NoError(t, s.Products.Create(ctx, p))
	require.NoError(t, s.Inventory.Create(ctx, &models.Inventory{UserID: owner.ID, ProductID: p.ID, Quantity: qty}))
}

func TestGenerate_EmptyInventorySendsOneEmail(t *testing.T) {
	store, rec, owner := setup(t)

	require.NoError(t, NewReporter(store, rec, nil, 0).Generate(context.Background(), owner))

	msgs := rec.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "Inventory Report", msgs[0].Subject)
	assert.True(t, msgs[0].IsHTML)
	assert.Equal(t, owner.Email, msgs[0].To)
	assert.Contains(t, msgs[0].Body, "no low stock items")
}

func TestGenerate_ListsLowStockAndSuppliers(t *testing.T) {
	store, rec, owner := setup(t)
	stock(t, store, owner, "Acme", "Bolt", 3)
	stock(t, store, owner, "Acme", "Nut", 50)
	stock(t, store, owner, "Tooly & Sons", "Drill", 9)
	_, err := store.Suppliers.FindOrCreate(context.Background(), owner.ID, "Idle")
	require.NoError(t, err)

	require.NoError(t, NewReporter(store, rec, nil, 10).Generate(context.Background(), owner))

	body := rec.Messages()[0].Body
	assert.Contains(t, body, "<td>Bolt</td><td>3</td>")
	assert.Contains(t, body, "<td>Drill</td><td>9</td>")
	assert.NotContains(t, body, "<td>Nut</td>")
	assert.Contains(t, body, "Tooly &amp; Sons")
	assert.Contains(t, body, "<td>Acme</td><td></td><td>2</td>")
	assert.Contains(t, body, "<td>Idle</td><td></td><td>0</td>")
	assert.NotContains(t, body, "no low stock items")
}

func TestGenerate_ArchivesCopy(t *testing.T) {
	store, rec, owner := setup(t)
	disk := storage.NewLocal(t.TempDir(), "")
	r := NewReporter(store, rec, disk, 0)
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	r.now = func() time.Time { return at }

	require.NoError(t, r.Generate(context.Background(), owner))

	path := ArchivePath(owner.ID, at)
	assert.Equal(t, "reports/"+strconv.FormatUint(uint64(owner.ID), 10)+"/20260304T050607Z.html", path)
	got, err := disk.Get(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, rec.Messages()[0].Body, string(got))
}

func TestGenerate_ArchiveFailureIsIgnored(t *testing.T) {
	store, rec, owner := setup(t)

	err := NewReporter(store, rec, brokenDisk{}, 0).Generate(context.Background(), owner)
	require.NoError(t, err)
	assert.Len(t, rec.Messages(), 1)
}

func TestGenerate_NotifierFailureFailsJob(t *testing.T) {
	store, rec, owner := setup(t)
	rec.Fail(errors.New("mailbox full"))

	err := NewReporter(store, rec, nil, 0).Generate(context.Background(), owner)
	assert.ErrorContains(t, err, "mailbox full")
}
