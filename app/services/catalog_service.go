package services

import (
	"context"

	"github.com/poppys-produce/backend/app/models"
	"github.com/poppys-produce/backend/pkg/apperr"
	"github.com/poppys-produce/backend/pkg/collection"
	"github.com/poppys-produce/backend/pkg/middleware"
)

// CatalogService serves the product list and the home screen payload.
type CatalogService struct {
	products ProductStore
	subs     SubAccountStore
	settings SettingsStore
}

func NewCatalogService(products ProductStore, subs SubAccountStore, settings SettingsStore) *CatalogService {
	return &CatalogService{products: products, subs: subs, settings: settings}
}

// ListProducts returns the catalog. When subAccountName is given the caller
// must own that sub-account and the list is cut down to its allow-list; an
// empty allow-list means the full catalog.
func (s *CatalogService) ListProducts(ctx context.Context, caller middleware.Identity, subAccountName string) ([]models.Product, error) {
	products, err := s.products.All(ctx)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []models.Product{}
	}
	if subAccountName == "" {
		return products, nil
	}

	subs, err := s.subs.FindByParent(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	sub, ok := collection.First(subs, func(sa models.SubAccount) bool { return sa.Name == subAccountName })
	if !ok {
		return nil, apperr.PermissionDenied("You do not own this sub-account.")
	}

	allowed := collection.Filter(products, func(p models.Product) bool {
		return sub.AllowsProduct(p.ID.Hex())
	})
	if allowed == nil {
		allowed = []models.Product{}
	}
	return allowed, nil
}

// HomePayload is the home screen bootstrap: the sale banner plus featured
// items from global settings.
type HomePayload struct {
	SaleMessage       string                `json:"saleMessage,omitempty"`
	FeaturedSaleItems []models.FeaturedItem `json:"featuredSaleItems"`
}

// Home returns the current sale banner content.
func (s *CatalogService) Home(ctx context.Context) (HomePayload, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return HomePayload{}, err
	}
	return HomePayload{
		SaleMessage:       settings.SaleMessage,
		FeaturedSaleItems: settings.FeaturedSaleItems,
	}, nil
}
