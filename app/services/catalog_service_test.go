package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/poppys-produce/backend/app/models"
	"github.com/poppys-produce/backend/app/services"
	"github.com/poppys-produce/backend/pkg/apperr"
)

func TestListProducts_SubAccountAllowList(t *testing.T) {
	user := models.User{ID: primitive.NewObjectID(), Email: "reseller@example.com"}
	p1 := models.Product{ID: primitive.NewObjectID(), Name: "Bananas"}
	p2 := models.Product{ID: primitive.NewObjectID(), Name: "Kale"}
	products := &fakeProductStore{products: []models.Product{p1, p2}}

	subs := newFakeSubAccountStore(
		models.SubAccount{
			Name: "Corner Deli", ParentID: user.ID.Hex(),
			RestrictedProductIDs: []string{p1.ID.Hex()},
		},
		models.SubAccount{Name: "Open Cafe", ParentID: user.ID.Hex()},
	)
	svc := services.NewCatalogService(products, subs, newFakeSettingsStore())

	// No filter → full catalog.
	all, err := svc.ListProducts(context.Background(), identityOf(user), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// Restricted sub-account only sees its allow-list.
	filtered, err := svc.ListProducts(context.Background(), identityOf(user), "Corner Deli")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "Bananas", filtered[0].Name)

	// Empty allow-list means everything.
	open, err := svc.ListProducts(context.Background(), identityOf(user), "Open Cafe")
	require.NoError(t, err)
	assert.Len(t, open, 2)

	// A sub-account the caller does not own is off limits.
	_, err = svc.ListProducts(context.Background(), identityOf(user), "Someone Elses Shop")
	assert.True(t, apperr.Is(err, apperr.KindPermissionDenied))
}

func TestHome_ReflectsSettings(t *testing.T) {
	settings := newFakeSettingsStore()
	settings.settings.SaleMessage = "Mango season!"
	settings.settings.FeaturedSaleItems = []models.FeaturedItem{{ID: "p7", Name: "Mangoes"}}

	svc := services.NewCatalogService(&fakeProductStore{}, newFakeSubAccountStore(), settings)

	home, err := svc.Home(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Mango season!", home.SaleMessage)
	require.Len(t, home.FeaturedSaleItems, 1)
	assert.Equal(t, "Mangoes", home.FeaturedSaleItems[0].Name)
}
