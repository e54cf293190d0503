package ctx_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "github.com/shashiranjanraj/stockroom/pkg/ctx"
	"github.com/shashiranjanraj/stockroom/pkg/middleware"
	"github.com/shashiranjanraj/stockroom/pkg/orm"
)

func serve(h appctx.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	appctx.Wrap(h)(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestParamUint(t *testing.T) {
	r := chi.NewRouter()
	var got uint
	var ok bool
	r.Get("/items/{id}", appctx.Wrap(func(c *appctx.Context) {
		got, ok = c.ParamUint("id")
	}))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/42", nil))
	assert.True(t, ok)
	assert.EqualValues(t, 42, got)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/abc", nil))
	assert.False(t, ok)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/0", nil))
	assert.False(t, ok)
}

func TestPage(t *testing.T) {
	var p orm.Page
	serve(func(c *appctx.Context) { p = c.Page() },
		httptest.NewRequest(http.MethodGet, "/?page=3&page_size=500", nil))
	assert.Equal(t, 3, p.Number)
	assert.Equal(t, orm.MaxPageSize, p.Size)

	serve(func(c *appctx.Context) { p = c.Page() },
		httptest.NewRequest(http.MethodGet, "/?page=x", nil))
	assert.Equal(t, 1, p.Number)
	assert.Equal(t, orm.DefaultPageSize, p.Size)
}

func TestUserID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(middleware.WithUser(context.Background(), 9, "user"))

	var id uint
	var ok bool
	serve(func(c *appctx.Context) { id, ok = c.UserID() }, req)
	assert.True(t, ok)
	assert.EqualValues(t, 9, id)
}

type input struct {
	Name string `json:"name" validate:"required"`
}

func TestBindJSON(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		ok     bool
		status int
	}{
		{"valid", `{"name":"bolt"}`, true, 0},
		{"empty", ``, false, http.StatusBadRequest},
		{"malformed", `{"name":`, false, http.StatusBadRequest},
		{"invalid", `{}`, false, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var ok bool
			rec := serve(func(c *appctx.Context) {
				var in input
				ok = c.BindJSON(&in)
			}, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body)))

			assert.Equal(t, tc.ok, ok)
			if !tc.ok {
				assert.Equal(t, tc.status, rec.Code)
			}
		})
	}

	rec := serve(func(c *appctx.Context) { c.BindJSON(&input{}) },
		httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)))
	body := decode(t, rec)
	assert.Equal(t, map[string]any{"name": "The name field is required."}, body["errors"])
}

func TestEnvelopeHelpers(t *testing.T) {
	rec := serve(func(c *appctx.Context) { c.Accepted("queued", map[string]string{"job_id": "j1"}) },
		httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "queued", body["message"])

	rec = serve(func(c *appctx.Context) { c.InternalError(errors.New("db down")) },
		httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db down")
}
