package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/poppys-produce/backend/app/models"
	"github.com/poppys-produce/backend/config"
	"github.com/poppys-produce/backend/pkg/apperr"
	"github.com/poppys-produce/backend/pkg/collection"
	"github.com/poppys-produce/backend/pkg/genai"
	"github.com/poppys-produce/backend/pkg/middleware"
)

const assistantPreamble = "You are an AI assistant for a produce company called Poppy's Produce. " +
	"Analyze the following data context and answer the user's question. " +
	"Be friendly and provide clear, concise reports."

// AssistantService answers natural-language questions about the caller's
// orders by handing a grounded prompt to Gemini.
type AssistantService struct {
	orders OrderStore
	gen    genai.Generator
	now    func() time.Time
}

func NewAssistantService(orders OrderStore, gen genai.Generator) *AssistantService {
	return &AssistantService{orders: orders, gen: gen, now: time.Now}
}

// WithClock replaces the wall clock used for the 30-day summary window.
func (s *AssistantService) WithClock(now func() time.Time) *AssistantService {
	s.now = now
	return s
}

// AskContext optionally points the assistant at one specific order.
type AskContext struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// AskInput is the assistant request payload.
type AskInput struct {
	Prompt  string      `json:"prompt"`
	Context *AskContext `json:"context,omitempty"`
}

// Ask builds the data context, forwards the prompt and returns the answer.
func (s *AssistantService) Ask(ctx context.Context, caller middleware.Identity, in AskInput) (string, error) {
	if strings.TrimSpace(in.Prompt) == "" {
		return "", apperr.InvalidArgument("The function must be called with a 'prompt'.")
	}
	if config.GeminiAPIKey() == "" {
		return "", apperr.FailedPrecondition("The function is missing an API key.")
	}

	dataContext, err := s.buildDataContext(ctx, caller, in.Context)
	if err != nil {
		return "", err
	}

	fullPrompt := fmt.Sprintf("%s\n\nDATA CONTEXT:\n%s\n\nUSER'S QUESTION:\n%q",
		assistantPreamble, dataContext, in.Prompt)

	return s.gen.Generate(ctx, fullPrompt)
}

func (s *AssistantService) buildDataContext(ctx context.Context, caller middleware.Identity, askCtx *AskContext) (string, error) {
	if askCtx != nil && askCtx.Type == "order" && askCtx.ID != "" {
		order, err := s.orders.FindByID(ctx, askCtx.ID)
		if apperr.Is(err, apperr.KindNotFound) {
			return "No relevant data found.", nil
		}
		if err != nil {
			return "", err
		}
		if order.UserID != caller.UserID {
			return "", apperr.PermissionDenied("You do not own this order.")
		}
		return orderContext(order), nil
	}

	since := s.now().AddDate(0, 0, -30)
	orders, err := s.orders.FindByUserCreatedAfter(ctx, caller.UserID, since)
	if err != nil {
		return "", err
	}
	if len(orders) == 0 {
		return "No relevant data found.", nil
	}

	customers := collection.Unique(collection.Map(orders, func(o models.Order) string {
		if o.SubAccountName != "" {
			return o.SubAccountName
		}
		return o.UserEmail
	}))
	return fmt.Sprintf("Here is a summary of the user's sales data for the last 30 days:\n"+
		"- Total Orders: %d\n"+
		"- Customers Served: %d", len(orders), len(customers)), nil
}

func orderContext(order models.Order) string {
	itemList := strings.Join(collection.Map(order.Items, func(it models.OrderItem) string {
		return fmt.Sprintf("%dx %s", it.Quantity, it.Name)
	}), ", ")
	notes := order.Notes
	if notes == "" {
		notes = "None"
	}
	return fmt.Sprintf("The user is asking about Order #%s.\n"+
		"Order Details:\n"+
		"- Date: %s\n"+
		"- Status: %s\n"+
		"- Item Count: %d\n"+
		"- Items: %s\n"+
		"- Notes: %s",
		order.PublicOrderID, order.CreatedAt.Format("1/2/2006"),
		order.Status, len(order.Items), itemList, notes)
}
