package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/poppys-produce/backend/app/services"
	"github.com/poppys-produce/backend/pkg/bind"
	"github.com/poppys-produce/backend/pkg/middleware"
	"github.com/poppys-produce/backend/pkg/response"
)

type OrderController struct {
	orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{orders: orders}
}

func (c *OrderController) Create(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.IdentityFromCtx(r.Context())

	var in services.CreateOrderInput
	errs, err := bind.JSON(r, &in)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	result, err := c.orders.Create(r.Context(), caller, in)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, result)
}

func (c *OrderController) List(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.IdentityFromCtx(r.Context())

	orders, err := c.orders.ListMine(r.Context(), caller)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, orders)
}

func (c *OrderController) Update(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.IdentityFromCtx(r.Context())

	var in services.UpdateOrderInput
	errs, err := bind.JSON(r, &in)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	order, err := c.orders.Edit(r.Context(), caller, chi.URLParam(r, "id"), in)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, order)
}

func (c *OrderController) Delete(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.IdentityFromCtx(r.Context())

	if err := c.orders.Delete(r.Context(), caller, chi.URLParam(r, "id")); err != nil {
		response.FromError(w, err)
		return
	}
	response.Message(w, "Order deleted.")
}

func (c *OrderController) BatchSubmit(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.IdentityFromCtx(r.Context())

	result, err := c.orders.SubmitBatch(r.Context(), caller)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, result)
}

func (c *OrderController) EmailToUser(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.IdentityFromCtx(r.Context())

	if err := c.orders.EmailOrderToUser(r.Context(), caller, chi.URLParam(r, "id")); err != nil {
		response.FromError(w, err)
		return
	}
	response.Message(w, "Email sent successfully.")
}
