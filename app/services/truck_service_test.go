package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/poppys-produce/backend/app/models"
	"github.com/poppys-produce/backend/app/services"
)

func truckFixture(t *testing.T) (*services.TruckService, models.User) {
	t.Helper()
	reseller := models.User{ID: primitive.NewObjectID(), Email: "reseller@example.com", IsSuperUser: true}
	parent := reseller.ID.Hex()

	subs := newFakeSubAccountStore(
		models.SubAccount{Name: "Corner Deli", ParentID: parent, TruckNumber: "1"},
		models.SubAccount{Name: "Main St Grocer", ParentID: parent, TruckNumber: "1"},
		models.SubAccount{Name: "New Cafe", ParentID: parent}, // no truck yet
	)
	orders := newFakeOrderStore(
		models.Order{
			UserID: parent, UserEmail: reseller.Email, Status: models.StatusPending,
			SubAccountName: "Corner Deli",
			Items:          []models.OrderItem{{ID: "p1", Name: "Bananas", Quantity: 4}},
		},
		models.Order{
			UserID: parent, UserEmail: reseller.Email, Status: models.StatusPending,
			SubAccountName: "Corner Deli",
			Items:          []models.OrderItem{{ID: "p2", Name: "Kale", Quantity: 2}},
		},
		models.Order{
			UserID: parent, UserEmail: reseller.Email, Status: models.StatusPending,
			SubAccountName: "Main St Grocer",
			Items:          []models.OrderItem{{ID: "p1", Name: "Bananas", Quantity: 10}},
		},
		models.Order{
			UserID: parent, UserEmail: reseller.Email, Status: models.StatusPending,
			SubAccountName: "New Cafe",
			Items:          []models.OrderItem{{ID: "p3", Name: "Limes", Quantity: 1}},
		},
		// Unsubmitted orders never appear on a truck.
		models.Order{
			UserID: parent, UserEmail: reseller.Email, Status: models.StatusUnsubmitted,
			SubAccountName: "Corner Deli",
			Items:          []models.OrderItem{{ID: "p1", Name: "Bananas", Quantity: 99}},
		},
	)
	return services.NewTruckService(orders, subs), reseller
}

func TestAggregate_GroupsPendingOrdersByTruck(t *testing.T) {
	svc, reseller := truckFixture(t)

	loads, err := svc.Aggregate(context.Background(), identityOf(reseller))
	require.NoError(t, err)
	require.Len(t, loads, 2)

	// Lexicographic by truck number; Unassigned sorts after "1".
	assert.Equal(t, "1", loads[0].TruckNumber)
	assert.Equal(t, services.UnassignedTruck, loads[1].TruckNumber)

	assert.Len(t, loads[0].Orders, 3)
	assert.Equal(t, 16, loads[0].TotalItems)
	assert.Len(t, loads[1].Orders, 1)
	assert.Equal(t, 1, loads[1].TotalItems)
}

func TestAggregate_NoSubAccounts(t *testing.T) {
	user := models.User{ID: primitive.NewObjectID(), Email: "reseller@example.com"}
	svc := services.NewTruckService(newFakeOrderStore(), newFakeSubAccountStore())

	loads, err := svc.Aggregate(context.Background(), identityOf(user))
	require.NoError(t, err)
	assert.Empty(t, loads)
}

func TestPickList_CombinesItemsPerCustomer(t *testing.T) {
	svc, reseller := truckFixture(t)

	entries, err := svc.PickList(context.Background(), identityOf(reseller), "1")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Sorted by customer name.
	assert.Equal(t, "Corner Deli", entries[0].Customer)
	assert.Len(t, entries[0].Items, 2, "two orders concatenate into one item list")
	assert.Equal(t, 6, entries[0].TotalItems)

	assert.Equal(t, "Main St Grocer", entries[1].Customer)
	assert.Equal(t, 10, entries[1].TotalItems)
}

func TestPickList_UnknownTruckIsEmpty(t *testing.T) {
	svc, reseller := truckFixture(t)

	entries, err := svc.PickList(context.Background(), identityOf(reseller), "9")
	require.NoError(t, err)
	assert.Empty(t, entries)
}
