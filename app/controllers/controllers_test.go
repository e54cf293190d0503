package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/stockroom/app/jobs"
	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/app/repositories"
	"github.com/shashiranjanraj/stockroom/app/routes"
	"github.com/shashiranjanraj/stockroom/pkg/auth"
	"github.com/shashiranjanraj/stockroom/pkg/database/dbtest"
	"github.com/shashiranjanraj/stockroom/pkg/queue"
	"github.com/shashiranjanraj/stockroom/pkg/router"
)

type fakeQueue struct {
	jobs   []queue.Job
	failed []queue.FailedJobRecord
}

func (f *fakeQueue) Enqueue(_ context.Context, j queue.Job) (string, error) {
	f.jobs = append(f.jobs, j)
	return fmt.Sprintf("job-%d", len(f.jobs)), nil
}

func (f *fakeQueue) FailedJobs(context.Context, int) ([]queue.FailedJobRecord, error) {
	return f.failed, nil
}

func (f *fakeQueue) Retry(_ context.Context, id uint) (string, error) {
	for i, rec := range f.failed {
		if rec.ID == id {
			f.failed = append(f.failed[:i], f.failed[i+1:]...)
			return "retried", nil
		}
	}
	return "", queue.ErrFailedJobNotFound
}

type env struct {
	h      http.Handler
	store  *repositories.Store
	tokens *auth.Manager
	queue  *fakeQueue
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		store:  repositories.NewStore(dbtest.Open(t)),
		tokens: auth.NewManager("test-secret", 0),
		queue:  &fakeQueue{},
	}
	r := router.New()
	routes.RegisterAPI(r, routes.Deps{Store: e.store, Tokens: e.tokens, Queue: e.queue})
	e.h = r.Handler()
	return e
}

// user creates an account directly and returns its id and a token.
func (e *env) user(t *testing.T, email, role string) (uint, string) {
	t.Helper()
	u := &models.User{Name: "T", Email: email, Password: "x", Role: role}
	require.NoError(t, e.store.Users.Create(context.Background(), u))
	token, err := e.tokens.Issue(u.ID, role)
	require.NoError(t, err)
	return u.ID, token
}

type envelope struct {
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

func (e *env) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return e.send(t, req, token)
}

func (e *env) send(t *testing.T, req *http.Request, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func decodeData(t *testing.T, raw json.RawMessage, dest any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, dest))
}

func TestRegisterAndLogin(t *testing.T) {
	e := newEnv(t)

	rec, _ := e.do(t, http.MethodPost, "/api/register", "", map[string]string{
		"name": "Ana", "email": "ana@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret123")

	rec, body := e.do(t, http.MethodPost, "/api/register", "", map[string]string{
		"name": "Ana", "email": "ana@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body.Errors, "email")

	rec, body = e.do(t, http.MethodPost, "/api/register", "", map[string]string{"email": "x@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body.Errors, "name")
	assert.Contains(t, body.Errors, "password")

	rec, body = e.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"email": "ana@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var login struct {
		Token string `json:"token"`
	}
	decodeData(t, body.Data, &login)
	require.NotEmpty(t, login.Token)

	rec, _ = e.do(t, http.MethodGet, "/api/profile", login.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = e.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"email": "ana@example.com", "password": "nope-nope",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = e.do(t, http.MethodGet, "/api/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSuppliers_CRUDAndIsolation(t *testing.T) {
	e := newEnv(t)
	_, alice := e.user(t, "alice@example.com", models.RoleUser)
	_, bob := e.user(t, "bob@example.com", models.RoleUser)

	rec, body := e.do(t, http.MethodPost, "/api/suppliers", alice, map[string]string{"name": "Acme", "contact_info": "acme@example.com"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var sup models.Supplier
	decodeData(t, body.Data, &sup)
	path := fmt.Sprintf("/api/suppliers/%d", sup.ID)

	rec, _ = e.do(t, http.MethodPost, "/api/suppliers", alice, map[string]string{"name": "Acme"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = e.do(t, http.MethodPost, "/api/suppliers", alice, map[string]string{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body.Errors, "name")

	rec, _ = e.do(t, http.MethodPost, "/api/suppliers", alice, `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = e.do(t, http.MethodGet, path, bob, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = e.do(t, http.MethodPut, path, bob, map[string]string{"name": "Stolen"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = e.do(t, http.MethodDelete, path, bob, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = e.do(t, http.MethodPut, path, alice, map[string]string{"name": "Acme Ltd"})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, body.Data, &sup)
	assert.Equal(t, "Acme Ltd", sup.Name)

	rec, _ = e.do(t, http.MethodDelete, path, alice, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec, _ = e.do(t, http.MethodGet, path, alice, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSuppliers_Pagination(t *testing.T) {
	e := newEnv(t)
	_, token := e.user(t, "p@example.com", models.RoleUser)
	for i := 0; i < 12; i++ {
		rec, _ := e.do(t, http.MethodPost, "/api/suppliers", token, map[string]string{"name": fmt.Sprintf("S%02d", i)})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec, body := e.do(t, http.MethodGet, "/api/suppliers?page=3&page_size=5", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Items      []models.Supplier `json:"items"`
		Pagination struct {
			Page       int   `json:"page"`
			PageSize   int   `json:"page_size"`
			Total      int64 `json:"total"`
			TotalPages int   `json:"total_pages"`
		} `json:"pagination"`
	}
	decodeData(t, body.Data, &page)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 3, page.Pagination.Page)
	assert.EqualValues(t, 12, page.Pagination.Total)
	assert.Equal(t, 3, page.Pagination.TotalPages)

	_, body = e.do(t, http.MethodGet, "/api/suppliers?page_size=1000", token, nil)
	decodeData(t, body.Data, &page)
	assert.Equal(t, 100, page.Pagination.PageSize)
	assert.Len(t, page.Items, 12)

	_, body = e.do(t, http.MethodGet, "/api/suppliers?name=s1", token, nil)
	decodeData(t, body.Data, &page)
	assert.Len(t, page.Items, 2)
}

func TestProductsAndInventory_Validation(t *testing.T) {
	e := newEnv(t)
	_, alice := e.user(t, "alice@example.com", models.RoleUser)
	_, bob := e.user(t, "bob@example.com", models.RoleUser)

	_, body := e.do(t, http.MethodPost, "/api/suppliers", alice, map[string]string{"name": "Acme"})
	var sup models.Supplier
	decodeData(t, body.Data, &sup)

	rec, body := e.do(t, http.MethodPost, "/api/products", alice, map[string]any{
		"name": "Bolt", "price": "-1", "supplier_id": sup.ID,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body.Errors, "price")

	rec, body = e.do(t, http.MethodPost, "/api/products", bob, map[string]any{
		"name": "Bolt", "price": "1.50", "supplier_id": sup.ID,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body.Errors, "supplier_id")

	rec, body = e.do(t, http.MethodPost, "/api/products", alice, map[string]any{
		"name": "Bolt", "price": "0", "supplier_id": sup.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var product models.Product
	decodeData(t, body.Data, &product)

	rec, body = e.do(t, http.MethodPost, "/api/inventory", alice, map[string]any{
		"product_id": product.ID, "quantity": -5,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body.Errors, "quantity")

	rec, _ = e.do(t, http.MethodPost, "/api/inventory", alice, map[string]any{
		"product_id": product.ID, "quantity": 0,
	})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = e.do(t, http.MethodPost, "/api/inventory", bob, map[string]any{
		"product_id": product.ID, "quantity": 3,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = e.do(t, http.MethodGet, "/api/products?price=abc", alice, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = e.do(t, http.MethodGet, "/api/inventory?quantity=0", alice, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func upload(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("note", "no file"))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload-csv", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadCSV(t *testing.T) {
	e := newEnv(t)
	id, token := e.user(t, "u@example.com", models.RoleUser)
	valid := "name,description,price,supplier\nWidget,A widget,9.99,Acme\n"

	cases := []struct {
		name     string
		filename string
		content  string
		status   int
	}{
		{"no file", "", "", http.StatusBadRequest},
		{"wrong extension", "items.txt", valid, http.StatusBadRequest},
		{"not utf-8", "items.csv", "name,description,price,supplier\n\xff,x,1,y\n", http.StatusBadRequest},
		{"missing column", "items.csv", "name,price,supplier\nWidget,1,Acme\n", http.StatusBadRequest},
		{"valid", "items.csv", valid, http.StatusAccepted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, _ := e.send(t, upload(t, tc.filename, tc.content), token)
			assert.Equal(t, tc.status, rec.Code)
		})
	}

	require.Len(t, e.queue.jobs, 1)
	assert.Equal(t, jobs.IngestCsvJob{Text: valid, Owner: jobs.Owner{ID: id, Email: "u@example.com"}}, e.queue.jobs[0])
}

func TestGenerateReport(t *testing.T) {
	e := newEnv(t)
	id, token := e.user(t, "u@example.com", models.RoleUser)

	rec, body := e.do(t, http.MethodPost, "/api/generate-report", token, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	var data map[string]string
	decodeData(t, body.Data, &data)
	assert.Equal(t, "job-1", data["job_id"])
	assert.Equal(t, []queue.Job{jobs.GenerateReportJob{Owner: jobs.Owner{ID: id, Email: "u@example.com"}}}, e.queue.jobs)
}

func TestFailedJobs_AdminOnly(t *testing.T) {
	e := newEnv(t)
	_, user := e.user(t, "u@example.com", models.RoleUser)
	_, admin := e.user(t, "admin@example.com", models.RoleAdmin)
	e.queue.failed = []queue.FailedJobRecord{{ID: 7, JobID: "j", Kind: jobs.KindGenerateReport, Attempts: 3}}

	rec, _ := e.do(t, http.MethodGet, "/api/admin/failed-jobs", user, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, body := e.do(t, http.MethodGet, "/api/admin/failed-jobs", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var records []queue.FailedJobRecord
	decodeData(t, body.Data, &records)
	require.Len(t, records, 1)
	assert.Equal(t, jobs.KindGenerateReport, records[0].Kind)

	rec, _ = e.do(t, http.MethodPost, "/api/admin/failed-jobs/7/retry", admin, nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	rec, _ = e.do(t, http.MethodPost, "/api/admin/failed-jobs/7/retry", admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
