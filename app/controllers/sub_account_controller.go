package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/poppys-produce/backend/app/services"
	"github.com/poppys-produce/backend/pkg/bind"
	"github.com/poppys-produce/backend/pkg/middleware"
	"github.com/poppys-produce/backend/pkg/response"
)

type SubAccountController struct {
	accounts *services.AccountService
}

func NewSubAccountController(accounts *services.AccountService) *SubAccountController {
	return &SubAccountController{accounts: accounts}
}

func (c *SubAccountController) List(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.IdentityFromCtx(r.Context())

	subs, err := c.accounts.ListSubAccounts(r.Context(), caller)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, subs)
}

type createSubAccountInput struct {
	AccountName string `json:"accountName" validate:"required"`
}

func (c *SubAccountController) Create(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.IdentityFromCtx(r.Context())

	var in createSubAccountInput
	errs, err := bind.JSON(r, &in)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	sub, err := c.accounts.CreateSubAccount(r.Context(), caller, in.AccountName)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, map[string]interface{}{
		"subAccount": sub,
		"message":    services.SubAccountCreatedMessage(sub.Name),
	})
}

type updateSubAccountInput struct {
	RestrictedProductIDs []string `json:"restrictedProductIds"`
	TruckNumber          string   `json:"truckNumber"`
}

func (c *SubAccountController) Update(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.IdentityFromCtx(r.Context())

	var in updateSubAccountInput
	errs, err := bind.JSON(r, &in)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	err = c.accounts.UpdateSubAccountDetails(r.Context(), caller,
		chi.URLParam(r, "id"), in.RestrictedProductIDs, in.TruckNumber)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Message(w, "Sub-account updated successfully.")
}
