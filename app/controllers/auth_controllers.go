package controllers

import (
	"github.com/shashiranjanraj/stockroom/app/services"
	"github.com/shashiranjanraj/stockroom/pkg/ctx"
)

type AuthController struct {
	service *services.AuthService
}

func NewAuthController(service *services.AuthService) *AuthController {
	return &AuthController{service: service}
}

func (a *AuthController) Register(c *ctx.Context) {
	var in services.RegisterInput
	if !c.BindJSON(&in) {
		return
	}

	user, err := a.service.Register(c.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created(user)
}

func (a *AuthController) Login(c *ctx.Context) {
	var in services.LoginInput
	if !c.BindJSON(&in) {
		return
	}

	token, user, err := a.service.Login(c.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(map[string]any{"token": token, "user": user})
}

func (a *AuthController) Profile(c *ctx.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	user, err := a.service.Profile(c.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(user)
}
