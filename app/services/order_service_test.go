package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/poppys-produce/backend/app/models"
	"github.com/poppys-produce/backend/app/services"
	"github.com/poppys-produce/backend/pkg/apperr"
)

func cart(lines ...models.OrderItem) []models.OrderItem {
	if len(lines) == 0 {
		return []models.OrderItem{{ID: "p1", Name: "Bananas", Quantity: 3}}
	}
	return lines
}

// daytime keeps tests on the safe side of the 21:00 cutoff.
func daytime() time.Time {
	return time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
}

func TestCreate_RegularUserGetsPendingOrder(t *testing.T) {
	captureMail(t)
	user := models.User{ID: primitive.NewObjectID(), Email: "shop@example.com"}
	users := newFakeUserStore(user)
	orders := newFakeOrderStore()

	var enqueued []string
	svc := services.NewOrderService(orders, users, newFakeSubAccountStore(), newFakeSettingsStore()).
		WithClock(daytime).
		WithInvoiceEnqueue(func(id string) { enqueued = append(enqueued, id) })

	res, err := svc.Create(context.Background(), identityOf(user), services.CreateOrderInput{Items: cart()})
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, res.Order.Status)
	assert.Len(t, res.Order.PublicOrderID, 6)
	assert.False(t, res.Order.IsAfterHours)
	assert.Empty(t, res.Advisory)
	require.Len(t, enqueued, 1, "a pending order must queue its invoice email")

	stored, ok := orders.get(enqueued[0])
	require.True(t, ok)
	assert.Equal(t, "shop@example.com", stored.UserEmail)
}

func TestCreate_BatchSubmitterGetsUnsubmittedOrder(t *testing.T) {
	user := models.User{ID: primitive.NewObjectID(), Email: "reseller@example.com", CanBatchSubmitOrders: true}
	users := newFakeUserStore(user)
	orders := newFakeOrderStore()

	var enqueued []string
	svc := services.NewOrderService(orders, users, newFakeSubAccountStore(), newFakeSettingsStore()).
		WithClock(daytime).
		WithInvoiceEnqueue(func(id string) { enqueued = append(enqueued, id) })

	res, err := svc.Create(context.Background(), identityOf(user), services.CreateOrderInput{Items: cart()})
	require.NoError(t, err)

	assert.Equal(t, models.StatusUnsubmitted, res.Order.Status)
	assert.Empty(t, enqueued, "unsubmitted orders must not email anything yet")
}

func TestCreate_EmptyCartRejected(t *testing.T) {
	user := models.User{ID: primitive.NewObjectID(), Email: "shop@example.com"}
	svc := services.NewOrderService(newFakeOrderStore(), newFakeUserStore(user), newFakeSubAccountStore(), newFakeSettingsStore())

	_, err := svc.Create(context.Background(), identityOf(user), services.CreateOrderInput{})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInvalidArgument))
	assert.Equal(t, "Your cart is empty.", apperr.MessageOf(err))
}

func TestCreate_ZeroQuantityRejected(t *testing.T) {
	user := models.User{ID: primitive.NewObjectID(), Email: "shop@example.com"}
	svc := services.NewOrderService(newFakeOrderStore(), newFakeUserStore(user), newFakeSubAccountStore(), newFakeSettingsStore())

	_, err := svc.Create(context.Background(), identityOf(user), services.CreateOrderInput{
		Items: []models.OrderItem{{ID: "p1", Name: "Kale", Quantity: 0}},
	})
	assert.True(t, apperr.Is(err, apperr.KindInvalidArgument))
}

func TestCreate_AfterHoursFlagAndAdvisory(t *testing.T) {
	captureMail(t)
	user := models.User{ID: primitive.NewObjectID(), Email: "shop@example.com"}
	svc := services.NewOrderService(newFakeOrderStore(), newFakeUserStore(user), newFakeSubAccountStore(), newFakeSettingsStore()).
		WithClock(func() time.Time { return time.Date(2026, 3, 10, 22, 15, 0, 0, time.UTC) })

	res, err := svc.Create(context.Background(), identityOf(user), services.CreateOrderInput{Items: cart()})
	require.NoError(t, err)

	assert.True(t, res.Order.IsAfterHours)
	assert.Contains(t, res.Advisory, "21:00 cutoff")
	// Advisory only; the order still went through as a normal Pending order.
	assert.Equal(t, models.StatusPending, res.Order.Status)
}

func TestCreate_AfterHoursDisabledBySettings(t *testing.T) {
	captureMail(t)
	user := models.User{ID: primitive.NewObjectID(), Email: "shop@example.com"}
	settings := newFakeSettingsStore()
	settings.settings.IsAfterHoursEnabled = false

	svc := services.NewOrderService(newFakeOrderStore(), newFakeUserStore(user), newFakeSubAccountStore(), settings).
		WithClock(func() time.Time { return time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC) })

	res, err := svc.Create(context.Background(), identityOf(user), services.CreateOrderInput{Items: cart()})
	require.NoError(t, err)
	assert.False(t, res.Order.IsAfterHours)
	assert.Empty(t, res.Advisory)
}

func TestCreate_SubAccountMustBeOwned(t *testing.T) {
	user := models.User{ID: primitive.NewObjectID(), Email: "reseller@example.com", CanBatchSubmitOrders: true}
	svc := services.NewOrderService(newFakeOrderStore(), newFakeUserStore(user), newFakeSubAccountStore(), newFakeSettingsStore())

	_, err := svc.Create(context.Background(), identityOf(user), services.CreateOrderInput{
		Items:          cart(),
		SubAccountName: "Corner Deli",
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindPermissionDenied))
	assert.Equal(t, "You do not own this sub-account.", apperr.MessageOf(err))
}

func TestCreate_RestrictedProductBlocked(t *testing.T) {
	user := models.User{ID: primitive.NewObjectID(), Email: "reseller@example.com", CanBatchSubmitOrders: true}
	subs := newFakeSubAccountStore(models.SubAccount{
		Name:                 "Corner Deli",
		ParentID:             user.ID.Hex(),
		RestrictedProductIDs: []string{"p1"},
	})
	svc := services.NewOrderService(newFakeOrderStore(), newFakeUserStore(user), subs, newFakeSettingsStore()).
		WithClock(daytime)

	// p1 is allowed, p2 is not on the allow-list.
	_, err := svc.Create(context.Background(), identityOf(user), services.CreateOrderInput{
		Items: []models.OrderItem{
			{ID: "p1", Name: "Bananas", Quantity: 1},
			{ID: "p2", Name: "Kale", Quantity: 2},
		},
		SubAccountName: "Corner Deli",
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindPermissionDenied))
	assert.Contains(t, apperr.MessageOf(err), "Kale")

	// All-allowed cart passes.
	_, err = svc.Create(context.Background(), identityOf(user), services.CreateOrderInput{
		Items:          []models.OrderItem{{ID: "p1", Name: "Bananas", Quantity: 1}},
		SubAccountName: "Corner Deli",
	})
	assert.NoError(t, err)
}

func TestCreate_SettingsFailureFallsBackToDefaults(t *testing.T) {
	captureMail(t)
	user := models.User{ID: primitive.NewObjectID(), Email: "shop@example.com"}
	settings := newFakeSettingsStore()
	settings.getErr = context.DeadlineExceeded

	svc := services.NewOrderService(newFakeOrderStore(), newFakeUserStore(user), newFakeSubAccountStore(), settings).
		WithClock(daytime)

	res, err := svc.Create(context.Background(), identityOf(user), services.CreateOrderInput{Items: cart()})
	require.NoError(t, err, "intake must not fail because the settings read did")
	assert.Equal(t, models.StatusPending, res.Order.Status)
}

func TestEdit_OnlyOwnerAndOnlyUnsubmitted(t *testing.T) {
	owner := models.User{ID: primitive.NewObjectID(), Email: "reseller@example.com", CanBatchSubmitOrders: true}
	stranger := models.User{ID: primitive.NewObjectID(), Email: "other@example.com", CanBatchSubmitOrders: true}
	users := newFakeUserStore(owner, stranger)

	unsubmitted := models.Order{
		ID: primitive.NewObjectID(), UserID: owner.ID.Hex(),
		Status: models.StatusUnsubmitted, Items: cart(),
	}
	pending := models.Order{
		ID: primitive.NewObjectID(), UserID: owner.ID.Hex(),
		Status: models.StatusPending, Items: cart(),
	}
	orders := newFakeOrderStore(unsubmitted, pending)
	svc := services.NewOrderService(orders, users, newFakeSubAccountStore(), newFakeSettingsStore())

	newItems := []models.OrderItem{{ID: "p9", Name: "Limes", Quantity: 7}}

	// Not the owner.
	_, err := svc.Edit(context.Background(), identityOf(stranger), unsubmitted.ID.Hex(),
		services.UpdateOrderInput{Items: newItems})
	assert.Equal(t, "You do not own this order.", apperr.MessageOf(err))

	// Pending orders are already with operations.
	_, err = svc.Edit(context.Background(), identityOf(owner), pending.ID.Hex(),
		services.UpdateOrderInput{Items: newItems})
	assert.True(t, apperr.Is(err, apperr.KindFailedPrecondition))

	// The real edit.
	got, err := svc.Edit(context.Background(), identityOf(owner), unsubmitted.ID.Hex(),
		services.UpdateOrderInput{Items: newItems, Notes: "leave at the dock"})
	require.NoError(t, err)
	assert.Equal(t, newItems, got.Items)
	assert.Equal(t, "leave at the dock", got.Notes)

	stored, _ := orders.get(unsubmitted.ID.Hex())
	assert.Equal(t, newItems, stored.Items)
}

func TestEdit_RequiresBatchSubmitAccount(t *testing.T) {
	user := models.User{ID: primitive.NewObjectID(), Email: "shop@example.com"}
	order := models.Order{
		ID: primitive.NewObjectID(), UserID: user.ID.Hex(),
		Status: models.StatusUnsubmitted, Items: cart(),
	}
	svc := services.NewOrderService(newFakeOrderStore(order), newFakeUserStore(user), newFakeSubAccountStore(), newFakeSettingsStore())

	_, err := svc.Edit(context.Background(), identityOf(user), order.ID.Hex(),
		services.UpdateOrderInput{Items: cart()})
	assert.Equal(t, "Permission denied. Please log out and back in.", apperr.MessageOf(err))
}

func TestDelete_OwnershipEnforced(t *testing.T) {
	owner := models.User{ID: primitive.NewObjectID(), Email: "a@example.com"}
	stranger := models.User{ID: primitive.NewObjectID(), Email: "b@example.com"}
	order := models.Order{ID: primitive.NewObjectID(), UserID: owner.ID.Hex(), Items: cart()}
	orders := newFakeOrderStore(order)
	svc := services.NewOrderService(orders, newFakeUserStore(owner, stranger), newFakeSubAccountStore(), newFakeSettingsStore())

	err := svc.Delete(context.Background(), identityOf(stranger), order.ID.Hex())
	assert.True(t, apperr.Is(err, apperr.KindPermissionDenied))

	require.NoError(t, svc.Delete(context.Background(), identityOf(owner), order.ID.Hex()))
	_, ok := orders.get(order.ID.Hex())
	assert.False(t, ok)
}

func TestSubmitBatch_NothingToSubmitIsSuccess(t *testing.T) {
	user := models.User{ID: primitive.NewObjectID(), Email: "reseller@example.com", IsSuperUser: true, CanBatchSubmitOrders: true}
	svc := services.NewOrderService(newFakeOrderStore(), newFakeUserStore(user), newFakeSubAccountStore(), newFakeSettingsStore())

	res, err := svc.SubmitBatch(context.Background(), identityOf(user))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Submitted)
	assert.Equal(t, "No unsubmitted orders to submit.", res.Message)
}

func TestSubmitBatch_RequiresSuperUser(t *testing.T) {
	user := models.User{ID: primitive.NewObjectID(), Email: "shop@example.com"}
	svc := services.NewOrderService(newFakeOrderStore(), newFakeUserStore(user), newFakeSubAccountStore(), newFakeSettingsStore())

	_, err := svc.SubmitBatch(context.Background(), identityOf(user))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindPermissionDenied))
}

func TestSubmitBatch_MailFailureLeavesOrdersUntouched(t *testing.T) {
	failMail(t)
	user := models.User{ID: primitive.NewObjectID(), Email: "reseller@example.com", IsSuperUser: true, CanBatchSubmitOrders: true}
	order := models.Order{
		ID: primitive.NewObjectID(), UserID: user.ID.Hex(),
		PublicOrderID: "111111", Status: models.StatusUnsubmitted, Items: cart(),
	}
	orders := newFakeOrderStore(order)
	svc := services.NewOrderService(orders, newFakeUserStore(user), newFakeSubAccountStore(), newFakeSettingsStore())

	_, err := svc.SubmitBatch(context.Background(), identityOf(user))
	require.Error(t, err)
	assert.Equal(t, "Failed to submit batch order.", apperr.MessageOf(err))

	stored, _ := orders.get(order.ID.Hex())
	assert.Equal(t, models.StatusUnsubmitted, stored.Status, "nothing may flip when the email failed")
}

func TestSubmitBatch_SendsInvoiceThenMarksPending(t *testing.T) {
	useMemDisk()
	sent := captureMail(t)

	user := models.User{
		ID: primitive.NewObjectID(), Email: "reseller@example.com", Username: "Ravi",
		IsSuperUser: true, CanBatchSubmitOrders: true,
	}
	o1 := models.Order{
		ID: primitive.NewObjectID(), UserID: user.ID.Hex(), PublicOrderID: "111111",
		Status: models.StatusUnsubmitted, Items: cart(), CreatedAt: daytime(),
	}
	o2 := models.Order{
		ID: primitive.NewObjectID(), UserID: user.ID.Hex(), PublicOrderID: "222222",
		Status: models.StatusUnsubmitted, Items: cart(), CreatedAt: daytime().Add(time.Hour),
	}
	orders := newFakeOrderStore(o1, o2)
	svc := services.NewOrderService(orders, newFakeUserStore(user), newFakeSubAccountStore(), newFakeSettingsStore()).
		WithClock(daytime)

	res, err := svc.SubmitBatch(context.Background(), identityOf(user))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Submitted)
	assert.Equal(t, "2 orders have been submitted.", res.Message)

	require.Len(t, *sent, 1)
	msg := (*sent)[0]
	assert.Equal(t, "[BATCH SUBMISSION] 2 Orders from reseller@example.com", msg.Subject)
	assert.Contains(t, msg.Body, "Order #111111")
	assert.Contains(t, msg.Body, "Order #222222")

	for _, id := range []string{o1.ID.Hex(), o2.ID.Hex()} {
		stored, _ := orders.get(id)
		assert.Equal(t, models.StatusPending, stored.Status)
	}
}

func TestEmailOrderToUser_GatedOnAccountFlag(t *testing.T) {
	sent := captureMail(t)
	user := models.User{ID: primitive.NewObjectID(), Email: "shop@example.com", Username: "Pat"}
	order := models.Order{
		ID: primitive.NewObjectID(), UserID: user.ID.Hex(), PublicOrderID: "424242",
		Status: models.StatusPending, Items: cart(), CreatedAt: daytime(),
	}
	users := newFakeUserStore(user)
	svc := services.NewOrderService(newFakeOrderStore(order), users, newFakeSubAccountStore(), newFakeSettingsStore())

	err := svc.EmailOrderToUser(context.Background(), identityOf(user), order.ID.Hex())
	require.Error(t, err)
	assert.Equal(t, "This feature is not enabled.", apperr.MessageOf(err))
	assert.Empty(t, *sent)

	require.NoError(t, users.mutate(user.ID.Hex(), func(u *models.User) { u.EnableManualEmailTrigger = true }))

	require.NoError(t, svc.EmailOrderToUser(context.Background(), identityOf(user), order.ID.Hex()))
	require.Len(t, *sent, 1)
	assert.Equal(t, []string{"shop@example.com"}, (*sent)[0].To)
	assert.Equal(t, "Your Order Invoice: #424242", (*sent)[0].Subject)
}
