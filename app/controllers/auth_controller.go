// Package controllers holds the HTTP handlers. Controllers stay thin:
// decode and validate the payload, call the service, write the envelope.
package controllers

import (
	"net/http"

	"github.com/poppys-produce/backend/app/services"
	"github.com/poppys-produce/backend/pkg/bind"
	"github.com/poppys-produce/backend/pkg/response"
)

type AuthController struct {
	auth *services.AuthService
}

func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	errs, err := bind.JSON(r, &in)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	result, err := c.auth.Register(r.Context(), in)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, result)
}

func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var in services.LoginInput
	errs, err := bind.JSON(r, &in)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	result, err := c.auth.Login(r.Context(), in)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, result)
}
