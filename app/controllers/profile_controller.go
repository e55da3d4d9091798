package controllers

import (
	"net/http"

	"github.com/poppys-produce/backend/app/services"
	"github.com/poppys-produce/backend/pkg/bind"
	"github.com/poppys-produce/backend/pkg/middleware"
	"github.com/poppys-produce/backend/pkg/response"
)

type ProfileController struct {
	accounts *services.AccountService
}

func NewProfileController(accounts *services.AccountService) *ProfileController {
	return &ProfileController{accounts: accounts}
}

// Show ensures the profile exists and returns it.
func (c *ProfileController) Show(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.IdentityFromCtx(r.Context())
	user, err := c.accounts.EnsureProfile(r.Context(), caller)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, user)
}

type updateUsernameInput struct {
	Username string `json:"username" validate:"required"`
}

func (c *ProfileController) UpdateUsername(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.IdentityFromCtx(r.Context())

	var in updateUsernameInput
	errs, err := bind.JSON(r, &in)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	if err := c.accounts.UpdateUsername(r.Context(), caller, in.Username); err != nil {
		response.FromError(w, err)
		return
	}
	response.Message(w, "Username updated.")
}

type registerPushTokenInput struct {
	Token string `json:"token" validate:"required"`
}

func (c *ProfileController) RegisterPushToken(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.IdentityFromCtx(r.Context())

	var in registerPushTokenInput
	errs, err := bind.JSON(r, &in)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	if err := c.accounts.RegisterPushToken(r.Context(), caller, in.Token); err != nil {
		response.FromError(w, err)
		return
	}
	response.Message(w, "Push token registered.")
}
