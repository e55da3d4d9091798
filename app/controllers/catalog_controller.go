package controllers

import (
	"net/http"

	"github.com/poppys-produce/backend/app/services"
	"github.com/poppys-produce/backend/pkg/middleware"
	"github.com/poppys-produce/backend/pkg/response"
)

type CatalogController struct {
	catalog *services.CatalogService
}

func NewCatalogController(catalog *services.CatalogService) *CatalogController {
	return &CatalogController{catalog: catalog}
}

// Products lists the catalog, cut down to a sub-account's allow-list when
// ?subAccount= is present.
func (c *CatalogController) Products(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.IdentityFromCtx(r.Context())

	products, err := c.catalog.ListProducts(r.Context(), caller, r.URL.Query().Get("subAccount"))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, products)
}

// Home returns the sale banner payload.
func (c *CatalogController) Home(w http.ResponseWriter, r *http.Request) {
	payload, err := c.catalog.Home(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, payload)
}
