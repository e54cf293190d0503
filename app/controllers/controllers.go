// Package controllers holds the HTTP handlers. Every handler runs behind
// middleware.Auth except register and login, and reads the caller from the
// request context.
package controllers

import (
	"errors"
	"net/http"

	"github.com/shashiranjanraj/stockroom/app/jobs"
	"github.com/shashiranjanraj/stockroom/app/repositories"
	"github.com/shashiranjanraj/stockroom/app/services"
	"github.com/shashiranjanraj/stockroom/pkg/ctx"
)

// fail maps a service or repository error onto a response.
func fail(c *ctx.Context, err error) {
	var upload *services.UploadError
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		c.NotFound()
	case errors.Is(err, repositories.ErrForeignOwner):
		c.Error(http.StatusBadRequest, err.Error())
	case errors.Is(err, repositories.ErrDuplicate):
		c.Error(http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrEmailTaken):
		c.ValidationError(map[string]string{"email": err.Error()})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.Error(http.StatusUnauthorized, err.Error())
	case errors.As(err, &upload):
		c.Error(http.StatusBadRequest, upload.Message)
	default:
		c.InternalError(err)
	}
}

// userID returns the caller, writing a 401 when there is none.
func userID(c *ctx.Context) (uint, bool) {
	id, ok := c.UserID()
	if !ok {
		c.Unauthorized()
	}
	return id, ok
}

// owner resolves the caller into the identity jobs run for.
func owner(c *ctx.Context, users *repositories.UserRepository) (jobs.Owner, bool) {
	id, ok := userID(c)
	if !ok {
		return jobs.Owner{}, false
	}
	u, err := users.FindByID(c.Context(), id)
	if errors.Is(err, repositories.ErrNotFound) {
		c.Unauthorized()
		return jobs.Owner{}, false
	}
	if err != nil {
		c.InternalError(err)
		return jobs.Owner{}, false
	}
	return jobs.Owner{ID: u.ID, Email: u.Email}, true
}

func idParam(c *ctx.Context) (uint, bool) {
	id, ok := c.ParamUint("id")
	if !ok {
		c.NotFound()
	}
	return id, ok
}
