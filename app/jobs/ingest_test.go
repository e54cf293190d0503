package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/app/repositories"
	"github.com/shashiranjanraj/stockroom/pkg/database/dbtest"
	"github.com/shashiranjanraj/stockroom/pkg/mail/mailtest"
)

const header = "name,description,price,supplier\n"

func setup(t *testing.T) (*repositories.Store, *mailtest.Recorder, Owner) {
	t.Helper()
	store := repositories.NewStore(dbtest.Open(t))
	u := &models.User{Name: "U", Email: "u@example.com", Password: "x"}
	require.NoError(t, store.Users.Create(context.Background(), u))
	return store, &mailtest.Recorder{}, Owner{ID: u.ID, Email: u.Email}
}

func countProducts(t *testing.T, s *repositories.Store, userID uint, name string) int64 {
	t.Helper()
	n, err := s.Products.CountByName(context.Background(), userID, name)
	require.NoError(t, err)
	return n
}

func countSuppliers(t *testing.T, s *repositories.Store, userID uint, name string) int64 {
	t.Helper()
	n, err := s.Suppliers.Count(context.Background(), userID, name)
	require.NoError(t, err)
	return n
}

func TestIngest_WellFormedRows(t *testing.T) {
	store, rec, owner := setup(t)
	csv := header +
		"Bolt,M6 bolt,0.10,Acme\n" +
		"Nut,M6 nut,0.05,Acme\n" +
		"Drill,Cordless,89.00,Tooly\n"

	res, err := NewIngester(store, rec).Ingest(context.Background(), csv, owner)
	require.NoError(t, err)
	assert.Equal(t, 3, res.SuccessCount)
	assert.Empty(t, res.Errors)

	msgs := rec.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "u@example.com", msgs[0].To)
	assert.Equal(t, "CSV Processing Complete", msgs[0].Subject)
	assert.False(t, msgs[0].IsHTML)
	assert.Equal(t, "Successfully processed 3 records.\nErrors: none\n", msgs[0].Body)
}

func TestIngest_Scenario(t *testing.T) {
	store, rec, owner := setup(t)
	csv := "name,description,price,supplier\nWidget,A widget,9.99,Acme\n,Bad,abc,Acme"

	res, err := NewIngester(store, rec).Ingest(context.Background(), csv, owner)
	require.NoError(t, err)
	assert.Equal(t, 1, res.SuccessCount)
	assert.Equal(t, []string{"row 2: invalid price 'abc' (,Bad,abc,Acme)"}, res.Errors)
	assert.EqualValues(t, 1, countSuppliers(t, store, owner.ID, "Acme"))
	assert.EqualValues(t, 1, countProducts(t, store, owner.ID, "Widget"))

	last, ok := rec.Last()
	require.True(t, ok)
	assert.Contains(t, last.Body, "Successfully processed 1 records.")
	assert.Contains(t, last.Body, "row 2: invalid price 'abc' (,Bad,abc,Acme)\n")
}

func TestIngest_ShortRowIsSkipped(t *testing.T) {
	store, rec, owner := setup(t)
	csv := header +
		"Bolt,M6 bolt\n" +
		"Nut,M6 nut,0.05,Acme\n"

	res, err := NewIngester(store, rec).Ingest(context.Background(), csv, owner)
	require.NoError(t, err)
	assert.Equal(t, 1, res.SuccessCount)
	assert.Equal(t, []string{"row 1: missing required fields (Bolt,M6 bolt)"}, res.Errors)
	assert.Zero(t, countProducts(t, store, owner.ID, "Bolt"))
}

func TestIngest_BadPriceDoesNotStopLaterRows(t *testing.T) {
	store, rec, owner := setup(t)
	csv := header +
		"Bolt,M6 bolt,cheap,Acme\n" +
		"Washer,Flat,-1,Acme\n" +
		"Nut,M6 nut,0.05,Acme\n"

	res, err := NewIngester(store, rec).Ingest(context.Background(), csv, owner)
	require.NoError(t, err)
	assert.Equal(t, 1, res.SuccessCount)
	assert.Equal(t, []string{
		"row 1: invalid price 'cheap' (Bolt,M6 bolt,cheap,Acme)",
		"row 2: invalid price '-1' (Washer,Flat,-1,Acme)",
	}, res.Errors)
	assert.Zero(t, countProducts(t, store, owner.ID, "Bolt"))
	assert.EqualValues(t, 1, countProducts(t, store, owner.ID, "Nut"))
}

func TestIngest_EmptyCells(t *testing.T) {
	store, rec, owner := setup(t)
	csv := header +
		"Bolt,M6 bolt,1.00,\n" +
		" ,nameless,1.00,Acme\n"

	res, err := NewIngester(store, rec).Ingest(context.Background(), csv, owner)
	require.NoError(t, err)
	assert.Zero(t, res.SuccessCount)
	assert.Equal(t, []string{
		"row 1: missing supplier (Bolt,M6 bolt,1.00,)",
		`row 2: missing name (" ",nameless,1.00,Acme)`,
	}, res.Errors)
}

func TestIngest_MalformedLineContinues(t *testing.T) {
	store, rec, owner := setup(t)
	csv := header +
		"Bo\"lt,M6 bolt,1.00,Acme\n" +
		"Nut,M6 nut,0.05,Acme\n"

	res, err := NewIngester(store, rec).Ingest(context.Background(), csv, owner)
	require.NoError(t, err)
	assert.Equal(t, 1, res.SuccessCount)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "row 1: malformed csv:")
}

func TestIngest_BOMAndPaddedHeader(t *testing.T) {
	store, rec, owner := setup(t)
	csv := "\ufeff name , description,price ,supplier\nBolt,M6,1.00,Acme\n"

	res, err := NewIngester(store, rec).Ingest(context.Background(), csv, owner)
	require.NoError(t, err)
	assert.Equal(t, 1, res.SuccessCount)
	assert.Empty(t, res.Errors)
}

func TestIngest_ReimportReusesSupplier(t *testing.T) {
	store, rec, owner := setup(t)
	ing := NewIngester(store, rec)

	_, err := ing.Ingest(context.Background(), header+"Bolt,M6,1.00,Acme\n", owner)
	require.NoError(t, err)
	_, err = ing.Ingest(context.Background(), header+"Nut,M6,0.50,Acme\n", owner)
	require.NoError(t, err)

	assert.EqualValues(t, 1, countSuppliers(t, store, owner.ID, "Acme"))
	assert.Len(t, rec.Messages(), 2)
}

func TestIngest_NoRowsStillNotifies(t *testing.T) {
	store, rec, owner := setup(t)

	res, err := NewIngester(store, rec).Ingest(context.Background(), header, owner)
	require.NoError(t, err)
	assert.Zero(t, res.SuccessCount)
	require.Len(t, rec.Messages(), 1)
	assert.Contains(t, rec.Messages()[0].Body, "Successfully processed 0 records.")
}

func TestIngest_NotifierFailureIsJobError(t *testing.T) {
	store, rec, owner := setup(t)
	down := errors.New("smtp: connection refused")
	rec.Fail(down)

	res, err := NewIngester(store, rec).Ingest(context.Background(), header+"Bolt,M6,1.00,Acme\n", owner)
	assert.ErrorIs(t, err, down)
	assert.Equal(t, 1, res.SuccessCount)
	assert.EqualValues(t, 1, countProducts(t, store, owner.ID, "Bolt"))
}
