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
	"github.com/poppys-produce/backend/config"
	"github.com/poppys-produce/backend/pkg/apperr"
)

type fakeGenerator struct {
	lastPrompt string
	reply      string
	err        error
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.lastPrompt = prompt
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func withAPIKey(t *testing.T) {
	t.Helper()
	config.Set("GEMINI_API_KEY", "test-key")
	t.Cleanup(func() { config.Set("GEMINI_API_KEY", "") })
}

func TestAsk_RequiresPrompt(t *testing.T) {
	withAPIKey(t)
	user := models.User{ID: primitive.NewObjectID(), Email: "shop@example.com"}
	svc := services.NewAssistantService(newFakeOrderStore(), &fakeGenerator{})

	_, err := svc.Ask(context.Background(), identityOf(user), services.AskInput{Prompt: "  "})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInvalidArgument))
	assert.Equal(t, "The function must be called with a 'prompt'.", apperr.MessageOf(err))
}

func TestAsk_RequiresAPIKey(t *testing.T) {
	config.Set("GEMINI_API_KEY", "")
	user := models.User{ID: primitive.NewObjectID(), Email: "shop@example.com"}
	svc := services.NewAssistantService(newFakeOrderStore(), &fakeGenerator{})

	_, err := svc.Ask(context.Background(), identityOf(user), services.AskInput{Prompt: "how are sales?"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindFailedPrecondition))
	assert.Equal(t, "The function is missing an API key.", apperr.MessageOf(err))
}

func TestAsk_OrderContextIncludesDetails(t *testing.T) {
	withAPIKey(t)
	user := models.User{ID: primitive.NewObjectID(), Email: "shop@example.com"}
	order := models.Order{
		ID: primitive.NewObjectID(), UserID: user.ID.Hex(), PublicOrderID: "583920",
		Status:    models.StatusPending,
		CreatedAt: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		Items: []models.OrderItem{
			{ID: "p1", Name: "Bananas", Quantity: 3},
			{ID: "p2", Name: "Kale", Quantity: 2},
		},
	}
	gen := &fakeGenerator{reply: "Looks like a normal order."}
	svc := services.NewAssistantService(newFakeOrderStore(order), gen)

	answer, err := svc.Ask(context.Background(), identityOf(user), services.AskInput{
		Prompt:  "what's in this order?",
		Context: &services.AskContext{Type: "order", ID: order.ID.Hex()},
	})
	require.NoError(t, err)
	assert.Equal(t, "Looks like a normal order.", answer)

	assert.Contains(t, gen.lastPrompt, "Poppy's Produce")
	assert.Contains(t, gen.lastPrompt, "The user is asking about Order #583920.")
	assert.Contains(t, gen.lastPrompt, "- Date: 3/10/2026")
	assert.Contains(t, gen.lastPrompt, "- Items: 3x Bananas, 2x Kale")
	assert.Contains(t, gen.lastPrompt, "- Notes: None")
	assert.Contains(t, gen.lastPrompt, `"what's in this order?"`)
}

func TestAsk_ForeignOrderContextDenied(t *testing.T) {
	withAPIKey(t)
	user := models.User{ID: primitive.NewObjectID(), Email: "shop@example.com"}
	other := models.User{ID: primitive.NewObjectID(), Email: "other@example.com"}
	order := models.Order{
		ID: primitive.NewObjectID(), UserID: other.ID.Hex(), PublicOrderID: "111111",
		Items: []models.OrderItem{{ID: "p1", Name: "Bananas", Quantity: 1}},
	}
	gen := &fakeGenerator{}
	svc := services.NewAssistantService(newFakeOrderStore(order), gen)

	_, err := svc.Ask(context.Background(), identityOf(user), services.AskInput{
		Prompt:  "summarize this",
		Context: &services.AskContext{Type: "order", ID: order.ID.Hex()},
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindPermissionDenied))
	assert.Empty(t, gen.lastPrompt, "nothing may reach the model on a denied request")
}

func TestAsk_MissingOrderFallsBackToNoData(t *testing.T) {
	withAPIKey(t)
	user := models.User{ID: primitive.NewObjectID(), Email: "shop@example.com"}
	gen := &fakeGenerator{reply: "I could not find that order."}
	svc := services.NewAssistantService(newFakeOrderStore(), gen)

	_, err := svc.Ask(context.Background(), identityOf(user), services.AskInput{
		Prompt:  "summarize this",
		Context: &services.AskContext{Type: "order", ID: primitive.NewObjectID().Hex()},
	})
	require.NoError(t, err)
	assert.Contains(t, gen.lastPrompt, "No relevant data found.")
}

func TestAsk_ThirtyDaySummary(t *testing.T) {
	withAPIKey(t)
	user := models.User{ID: primitive.NewObjectID(), Email: "shop@example.com"}
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	orders := newFakeOrderStore(
		models.Order{UserID: user.ID.Hex(), UserEmail: user.Email, SubAccountName: "Corner Deli", CreatedAt: now.AddDate(0, 0, -3)},
		models.Order{UserID: user.ID.Hex(), UserEmail: user.Email, SubAccountName: "Corner Deli", CreatedAt: now.AddDate(0, 0, -10)},
		models.Order{UserID: user.ID.Hex(), UserEmail: user.Email, CreatedAt: now.AddDate(0, 0, -1)},
		// Too old for the window.
		models.Order{UserID: user.ID.Hex(), UserEmail: user.Email, CreatedAt: now.AddDate(0, 0, -45)},
	)
	gen := &fakeGenerator{reply: "Summary ready."}
	svc := services.NewAssistantService(orders, gen).
		WithClock(func() time.Time { return now })

	_, err := svc.Ask(context.Background(), identityOf(user), services.AskInput{Prompt: "how did we do?"})
	require.NoError(t, err)
	assert.Contains(t, gen.lastPrompt, "- Total Orders: 3")
	assert.Contains(t, gen.lastPrompt, "- Customers Served: 2")
}

func TestAsk_NoRecentOrders(t *testing.T) {
	withAPIKey(t)
	user := models.User{ID: primitive.NewObjectID(), Email: "shop@example.com"}
	gen := &fakeGenerator{reply: "Nothing to report."}
	svc := services.NewAssistantService(newFakeOrderStore(), gen)

	_, err := svc.Ask(context.Background(), identityOf(user), services.AskInput{Prompt: "how did we do?"})
	require.NoError(t, err)
	assert.Contains(t, gen.lastPrompt, "No relevant data found.")
}
