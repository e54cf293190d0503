// Package ctx gives handlers a single request value with helpers for
// params, binding and the JSON envelope.
//
//	func (c *ProductController) Show(x *ctx.Context) {
//	    id, ok := x.ParamUint("id")
//	    if !ok {
//	        x.NotFound()
//	        return
//	    }
//	    ...
//	    x.Success(product)
//	}
//
//	r.Get("/products/{id}", "products.show", ctx.Wrap(c.Show))
package ctx

import (
	"context"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/stockroom/pkg/bind"
	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"github.com/shashiranjanraj/stockroom/pkg/middleware"
	"github.com/shashiranjanraj/stockroom/pkg/orm"
	"github.com/shashiranjanraj/stockroom/pkg/response"
)

// HandlerFunc is a context-aware handler.
type HandlerFunc func(c *Context)

// Wrap adapts h to http.HandlerFunc.
func Wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := acquire(w, r)
		defer release(c)
		h(c)
	}
}

type Context struct {
	W http.ResponseWriter
	R *http.Request
}

var pool = sync.Pool{
	New: func() any { return &Context{} },
}

func acquire(w http.ResponseWriter, r *http.Request) *Context {
	c := pool.Get().(*Context)
	c.W = w
	c.R = r
	return c
}

func release(c *Context) {
	c.W = nil
	c.R = nil
	pool.Put(c)
}

// Param returns a URL path parameter.
func (c *Context) Param(key string) string {
	return chi.URLParam(c.R, key)
}

// ParamUint parses a positive integer path parameter such as {id}.
func (c *Context) ParamUint(key string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(key), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// Query returns a query-string value, or "" if absent.
func (c *Context) Query(key string) string {
	return c.R.URL.Query().Get(key)
}

// QueryInt returns an integer query value, or def when it is missing or
// not a number.
func (c *Context) QueryInt(key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return n
}

// Page reads ?page and ?page_size.
func (c *Context) Page() orm.Page {
	return orm.NewPage(c.QueryInt("page", 1), c.QueryInt("page_size", orm.DefaultPageSize))
}

func (c *Context) Context() context.Context { return c.R.Context() }

// UserID is the authenticated user. Handlers behind middleware.Auth can
// rely on ok being true.
func (c *Context) UserID() (uint, bool) {
	return middleware.UserIDFromCtx(c.R)
}

// BindJSON decodes and validates the body into dest. On failure it writes
// the 400 response and returns false.
func (c *Context) BindJSON(dest any) bool {
	errs, err := bind.JSON(c.R, dest)
	if err != nil {
		c.Error(http.StatusBadRequest, err.Error())
		return false
	}
	if len(errs) > 0 {
		c.ValidationError(errs)
		return false
	}
	return true
}

func (c *Context) Success(data any) { response.Success(c.W, data) }
func (c *Context) Created(data any) { response.Created(c.W, data) }
func (c *Context) NoContent()       { response.NoContent(c.W) }

func (c *Context) Accepted(message string, data any) {
	response.Accepted(c.W, message, data)
}

func (c *Context) Paginated(items any, p orm.Pagination) {
	response.Paginated(c.W, items, p)
}

func (c *Context) Error(code int, message string) { response.Error(c.W, code, message) }

func (c *Context) ValidationError(errs map[string]string) {
	response.ValidationError(c.W, errs)
}

func (c *Context) Unauthorized() { response.Unauthorized(c.W) }
func (c *Context) Forbidden()    { response.Forbidden(c.W) }
func (c *Context) NotFound()     { response.NotFound(c.W) }

// InternalError logs err with the request logger and sends a bare 500.
func (c *Context) InternalError(err error) {
	logger.WithCtx(c.Context()).Error("request failed", "error", err)
	response.InternalError(c.W)
}
