package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/poppys-produce/backend/app/services"
	"github.com/poppys-produce/backend/pkg/middleware"
	"github.com/poppys-produce/backend/pkg/response"
)

type TruckController struct {
	trucks *services.TruckService
}

func NewTruckController(trucks *services.TruckService) *TruckController {
	return &TruckController{trucks: trucks}
}

func (c *TruckController) List(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.IdentityFromCtx(r.Context())

	loads, err := c.trucks.Aggregate(r.Context(), caller)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, loads)
}

func (c *TruckController) PickList(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.IdentityFromCtx(r.Context())

	entries, err := c.trucks.PickList(r.Context(), caller, chi.URLParam(r, "truck"))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, entries)
}
