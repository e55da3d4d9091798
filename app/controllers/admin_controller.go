package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/poppys-produce/backend/app/models"
	"github.com/poppys-produce/backend/app/services"
	"github.com/poppys-produce/backend/pkg/bind"
	"github.com/poppys-produce/backend/pkg/response"
)

type AdminController struct {
	admin *services.AdminService
}

func NewAdminController(admin *services.AdminService) *AdminController {
	return &AdminController{admin: admin}
}

func (c *AdminController) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := c.admin.ListAllUsers(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, map[string]interface{}{"users": users})
}

type setTruckNumberInput struct {
	TruckNumber string `json:"truckNumber"`
}

func (c *AdminController) SetTruckNumber(w http.ResponseWriter, r *http.Request) {
	var in setTruckNumberInput
	errs, err := bind.JSON(r, &in)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	if err := c.admin.SetUserTruckNumber(r.Context(), chi.URLParam(r, "id"), in.TruckNumber); err != nil {
		response.FromError(w, err)
		return
	}
	response.Message(w, "Truck number updated.")
}

type setRoleInput struct {
	Email  string `json:"email" validate:"required,email"`
	Role   string `json:"role" validate:"required,in=admin,superuser"`
	Status bool   `json:"status"`
}

// SetRole flips the admin or super-user flag on the target account.
func (c *AdminController) SetRole(w http.ResponseWriter, r *http.Request) {
	var in setRoleInput
	errs, err := bind.JSON(r, &in)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	var msg string
	if in.Role == "admin" {
		msg, err = c.admin.SetAdminRole(r.Context(), in.Email)
	} else {
		msg, err = c.admin.SetSuperUserRole(r.Context(), in.Email, in.Status)
	}
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Message(w, msg)
}

type batchDeleteInput struct {
	DeleteUntil time.Time `json:"deleteUntilTimestamp"`
}

func (c *AdminController) BatchDeleteOrders(w http.ResponseWriter, r *http.Request) {
	var in batchDeleteInput
	errs, err := bind.JSON(r, &in)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	msg, err := c.admin.BatchDeleteOrdersByDate(r.Context(), in.DeleteUntil)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Message(w, msg)
}

func (c *AdminController) ResendOrderEmail(w http.ResponseWriter, r *http.Request) {
	if err := c.admin.ResendOrderEmail(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.FromError(w, err)
		return
	}
	response.Message(w, "Email resent successfully.")
}

func (c *AdminController) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := c.admin.GetSettings(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, settings)
}

func (c *AdminController) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var in models.GlobalSettings
	errs, err := bind.JSON(r, &in)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	if err := c.admin.UpdateSettings(r.Context(), in); err != nil {
		response.FromError(w, err)
		return
	}
	response.Message(w, "Settings updated.")
}
