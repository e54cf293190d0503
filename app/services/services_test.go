package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/stockroom/app/jobs"
	"github.com/shashiranjanraj/stockroom/app/repositories"
	"github.com/shashiranjanraj/stockroom/app/services"
	"github.com/shashiranjanraj/stockroom/pkg/auth"
	"github.com/shashiranjanraj/stockroom/pkg/database/dbtest"
	"github.com/shashiranjanraj/stockroom/pkg/queue"
)

func TestAuthService_RegisterAndLogin(t *testing.T) {
	store := repositories.NewStore(dbtest.Open(t))
	tokens := auth.NewManager("test-secret", 0)
	svc := services.NewAuthService(store, tokens)
	ctx := context.Background()

	u, err := svc.Register(ctx, services.RegisterInput{Name: "Ana", Email: " Ana@Example.com ", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.NotEqual(t, "secret123", u.Password)

	_, err = svc.Register(ctx, services.RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, services.ErrEmailTaken)

	token, who, err := svc.Login(ctx, services.LoginInput{Email: "ANA@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, who.ID)
	claims, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)

	_, _, err = svc.Login(ctx, services.LoginInput{Email: "ana@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, services.LoginInput{Email: "nobody@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
}

func TestReadCSVUpload(t *testing.T) {
	cases := []struct {
		name     string
		filename string
		body     string
		wantErr  string
	}{
		{"valid", "items.csv", "name,description,price,supplier\nBolt,M6,1,Acme\n", ""},
		{"upper-case extension", "ITEMS.CSV", "name,description,price,supplier\n", ""},
		{"bom and padding", "items.csv", "\ufeffname, description ,price,supplier\n", ""},
		{"wrong extension", "items.txt", "name,description,price,supplier\n", "File must be a CSV"},
		{"not utf-8", "items.csv", "name,description,price,supplier\n\xff\xfe,x,1,y\n", "File must be UTF-8 encoded"},
		{"empty", "items.csv", "", "CSV file is empty"},
		{"missing column", "items.csv", "name,price,supplier\n", "CSV must contain the following columns: name, description, price, supplier"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			text, err := services.ReadCSVUpload(tc.filename, strings.NewReader(tc.body))
			if tc.wantErr == "" {
				require.NoError(t, err)
				assert.True(t, strings.HasPrefix(text, "name"))
				return
			}
			var ue *services.UploadError
			require.ErrorAs(t, err, &ue)
			assert.Equal(t, tc.wantErr, ue.Message)
		})
	}
}

type fakeQueue struct {
	jobs []queue.Job
	err  error
}

func (f *fakeQueue) Enqueue(_ context.Context, j queue.Job) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.jobs = append(f.jobs, j)
	return "job-1", nil
}

func TestJobService(t *testing.T) {
	q := &fakeQueue{}
	svc := services.NewJobService(q)
	owner := jobs.Owner{ID: 4, Email: "o@example.com"}

	id, err := svc.ImportCSV(context.Background(), owner, "name\n")
	require.NoError(t, err)
	assert.Equal(t, "job-1", id)
	_, err = svc.RequestReport(context.Background(), owner)
	require.NoError(t, err)

	assert.Equal(t, []queue.Job{
		jobs.IngestCsvJob{Text: "name\n", Owner: owner},
		jobs.GenerateReportJob{Owner: owner},
	}, q.jobs)

	q.err = errors.New("queue full")
	_, err = svc.RequestReport(context.Background(), owner)
	assert.ErrorContains(t, err, "queue full")
}
