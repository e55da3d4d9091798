package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/poppys-produce/backend/app/models"
	"github.com/poppys-produce/backend/config"
	"github.com/poppys-produce/backend/pkg/apperr"
	"github.com/poppys-produce/backend/pkg/collection"
	"github.com/poppys-produce/backend/pkg/logger"
	"github.com/poppys-produce/backend/pkg/mail"
	"github.com/poppys-produce/backend/pkg/metrics"
	"github.com/poppys-produce/backend/pkg/middleware"
	"github.com/poppys-produce/backend/pkg/storage"
	"github.com/poppys-produce/backend/pkg/ws"
)

// OrderService implements order intake: create, edit, delete, history,
// batch submission and the manual invoice email.
type OrderService struct {
	orders   OrderStore
	users    UserStore
	subs     SubAccountStore
	settings SettingsStore

	events         *ws.Hub
	now            func() time.Time
	enqueueInvoice func(orderID string)
}

func NewOrderService(orders OrderStore, users UserStore, subs SubAccountStore, settings SettingsStore) *OrderService {
	return &OrderService{
		orders:   orders,
		users:    users,
		subs:     subs,
		settings: settings,
		now:      time.Now,
	}
}

// WithEvents attaches the hub that feeds the admin dashboard.
func (s *OrderService) WithEvents(hub *ws.Hub) *OrderService {
	s.events = hub
	return s
}

// WithClock replaces the wall clock. Tests pin it to exercise the
// after-hours boundary.
func (s *OrderService) WithClock(now func() time.Time) *OrderService {
	s.now = now
	return s
}

// WithInvoiceEnqueue sets the hook that queues the invoice email for a
// Pending order. Wired to the job queue at boot; nil means no email.
func (s *OrderService) WithInvoiceEnqueue(fn func(orderID string)) *OrderService {
	s.enqueueInvoice = fn
	return s
}

// CreateOrderInput is the order intake payload.
type CreateOrderInput struct {
	Items          []models.OrderItem `json:"items" validate:"required"`
	Notes          string             `json:"notes"`
	SubAccountName string             `json:"subAccountName"`
}

// CreateOrderResult is the created order plus an optional advisory shown to
// the customer (after-hours intake is accepted, never blocked).
type CreateOrderResult struct {
	Order    models.Order `json:"order"`
	Advisory string       `json:"advisory,omitempty"`
}

// Create validates and persists a new order for the caller.
func (s *OrderService) Create(ctx context.Context, caller middleware.Identity, in CreateOrderInput) (CreateOrderResult, error) {
	if len(in.Items) == 0 {
		return CreateOrderResult{}, apperr.InvalidArgument("Your cart is empty.")
	}
	for _, item := range in.Items {
		if item.Quantity < 1 {
			return CreateOrderResult{}, apperr.InvalidArgument(fmt.Sprintf("Invalid quantity for %q.", item.Name))
		}
	}

	user, err := s.users.FindByID(ctx, caller.UserID)
	if err != nil {
		return CreateOrderResult{}, err
	}

	if in.SubAccountName != "" {
		if err := s.checkSubAccountCart(ctx, caller.UserID, in.SubAccountName, in.Items); err != nil {
			return CreateOrderResult{}, err
		}
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		// Settings only drive the non-blocking after-hours flag; intake
		// must not fail because the settings read did.
		logger.WithCtx(ctx).Warn("orders: settings read failed, using defaults", "error", err)
		settings = models.DefaultSettings()
	}

	now := s.now()
	isAfterHours := settings.IsAfterHoursEnabled && now.Hour() >= settings.AfterHoursCutoff

	status := models.StatusPending
	if user.CanBatchSubmitOrders {
		status = models.StatusUnsubmitted
	}

	order := models.Order{
		PublicOrderID:  models.NewPublicOrderID(),
		UserID:         caller.UserID,
		UserEmail:      user.Email,
		Items:          in.Items,
		Status:         status,
		CreatedAt:      now.UTC(),
		Notes:          in.Notes,
		SubAccountName: in.SubAccountName,
		IsAfterHours:   isAfterHours,
	}

	id, err := s.orders.Insert(ctx, &order)
	if err != nil {
		return CreateOrderResult{}, apperr.Internal("Failed to place order.", err)
	}
	metrics.OrdersCreated.WithLabelValues(status).Inc()

	if status == models.StatusPending && s.enqueueInvoice != nil {
		s.enqueueInvoice(id)
	}
	s.broadcast("order.created", order)

	result := CreateOrderResult{Order: order}
	if isAfterHours {
		result.Advisory = fmt.Sprintf(
			"This order was placed after the %d:00 cutoff and will be processed with the next intake.",
			settings.AfterHoursCutoff)
	}
	return result, nil
}

// checkSubAccountCart verifies the caller owns the named sub-account and
// that every cart item is on its allow-list.
func (s *OrderService) checkSubAccountCart(ctx context.Context, callerID, name string, items []models.OrderItem) error {
	subs, err := s.subs.FindByParent(ctx, callerID)
	if err != nil {
		return err
	}
	sub, ok := collection.First(subs, func(sa models.SubAccount) bool { return sa.Name == name })
	if !ok {
		return apperr.PermissionDenied("You do not own this sub-account.")
	}
	for _, item := range items {
		if !sub.AllowsProduct(item.ID) {
			return apperr.PermissionDenied(fmt.Sprintf("%q is not available for this customer.", item.Name))
		}
	}
	return nil
}

// ListMine returns the caller's order history, newest first.
func (s *OrderService) ListMine(ctx context.Context, caller middleware.Identity) ([]models.Order, error) {
	return s.orders.ListByUser(ctx, caller.UserID)
}

// UpdateOrderInput replaces the cart and notes of an unsubmitted order.
type UpdateOrderInput struct {
	Items []models.OrderItem `json:"items" validate:"required"`
	Notes string             `json:"notes"`
}

// Edit rewrites the items and notes of one of the caller's unsubmitted
// orders. Only batch-submit accounts hold orders in that state.
func (s *OrderService) Edit(ctx context.Context, caller middleware.Identity, orderID string, in UpdateOrderInput) (models.Order, error) {
	if len(in.Items) == 0 {
		return models.Order{}, apperr.InvalidArgument("Your cart is empty.")
	}
	for _, item := range in.Items {
		if item.Quantity < 1 {
			return models.Order{}, apperr.InvalidArgument(fmt.Sprintf("Invalid quantity for %q.", item.Name))
		}
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return models.Order{}, err
	}
	if order.UserID != caller.UserID {
		return models.Order{}, apperr.PermissionDenied("You do not own this order.")
	}

	user, err := s.users.FindByID(ctx, caller.UserID)
	if err != nil {
		return models.Order{}, err
	}
	if !user.CanBatchSubmitOrders {
		return models.Order{}, apperr.PermissionDenied("Permission denied. Please log out and back in.")
	}
	if order.Status != models.StatusUnsubmitted {
		return models.Order{}, apperr.FailedPrecondition("Only unsubmitted orders can be edited.")
	}

	if err := s.orders.ReplaceItems(ctx, orderID, in.Items, in.Notes); err != nil {
		return models.Order{}, err
	}

	order.Items = in.Items
	order.Notes = in.Notes
	s.broadcast("order.updated", order)
	return order, nil
}

// Delete removes one of the caller's own orders from history.
func (s *OrderService) Delete(ctx context.Context, caller middleware.Identity, orderID string) error {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.UserID != caller.UserID {
		return apperr.PermissionDenied("You do not own this order.")
	}
	if err := s.orders.Delete(ctx, orderID); err != nil {
		return err
	}
	s.broadcast("order.deleted", order)
	return nil
}

// BatchSubmitResult reports the outcome of a batch submission.
type BatchSubmitResult struct {
	Submitted int    `json:"submitted"`
	Message   string `json:"message"`
}

// SubmitBatch sends the consolidated invoice for all of the caller's
// unsubmitted orders and flips them to Pending. The email goes out first;
// if it fails nothing is flipped and the caller can retry.
func (s *OrderService) SubmitBatch(ctx context.Context, caller middleware.Identity) (BatchSubmitResult, error) {
	if !caller.SuperUser {
		return BatchSubmitResult{}, apperr.PermissionDenied("Permission denied. Please log out and back in.")
	}

	user, err := s.users.FindByID(ctx, caller.UserID)
	if err != nil {
		return BatchSubmitResult{}, err
	}

	unsubmitted, err := s.orders.FindByUserAndStatus(ctx, caller.UserID, models.StatusUnsubmitted)
	if err != nil {
		return BatchSubmitResult{}, err
	}
	if len(unsubmitted) == 0 {
		return BatchSubmitResult{Submitted: 0, Message: "No unsubmitted orders to submit."}, nil
	}

	html, err := RenderBatchInvoice(user.Email, user.Username, unsubmitted)
	if err != nil {
		return BatchSubmitResult{}, apperr.Internal("Failed to submit batch order.", err)
	}

	subject := fmt.Sprintf("[BATCH SUBMISSION] %d Orders from %s", len(unsubmitted), user.Email)
	if err := mail.To(config.OrdersRecipient()).Subject(subject).Body(html).Send(); err != nil {
		metrics.InvoicesSent.WithLabelValues("failed").Inc()
		return BatchSubmitResult{}, apperr.Internal("Failed to submit batch order.", err)
	}
	metrics.InvoicesSent.WithLabelValues("success").Inc()

	ids := collection.Map(unsubmitted, func(o models.Order) string { return o.ID.Hex() })
	if err := s.orders.MarkSubmitted(ctx, ids); err != nil {
		return BatchSubmitResult{}, apperr.Internal("Failed to submit batch order.", err)
	}
	metrics.OrdersBatchSubmitted.Add(float64(len(unsubmitted)))

	archivePath := fmt.Sprintf("invoices/batch-%s-%d.html", caller.UserID, s.now().Unix())
	if err := storage.Put(archivePath, []byte(html)); err != nil {
		logger.WithCtx(ctx).Warn("orders: batch invoice archive failed", "error", err)
	}

	for i := range unsubmitted {
		unsubmitted[i].Status = models.StatusPending
		s.broadcast("order.submitted", unsubmitted[i])
	}

	n := len(unsubmitted)
	return BatchSubmitResult{
		Submitted: n,
		Message:   fmt.Sprintf("%d orders have been submitted.", n),
	}, nil
}

// EmailOrderToUser sends the caller their own invoice. Gated on the
// per-account enableManualEmailTrigger flag.
func (s *OrderService) EmailOrderToUser(ctx context.Context, caller middleware.Identity, orderID string) error {
	user, err := s.users.FindByID(ctx, caller.UserID)
	if err != nil {
		return err
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.UserID != caller.UserID {
		return apperr.PermissionDenied("You do not own this order.")
	}
	if !user.EnableManualEmailTrigger {
		return apperr.PermissionDenied("This feature is not enabled.")
	}

	html, err := RenderInvoice(order, user.Username)
	if err != nil {
		return apperr.Internal("Failed to send email.", err)
	}
	subject := fmt.Sprintf("Your Order Invoice: #%s", order.PublicOrderID)
	if err := mail.To(user.Email).Subject(subject).Body(html).Send(); err != nil {
		metrics.InvoicesSent.WithLabelValues("failed").Inc()
		return apperr.Internal("Failed to send email.", err)
	}
	metrics.InvoicesSent.WithLabelValues("success").Inc()
	return nil
}

type orderEvent struct {
	Event         string `json:"event"`
	OrderID       string `json:"orderId"`
	PublicOrderID string `json:"publicOrderId"`
	UserEmail     string `json:"userEmail"`
	Status        string `json:"status"`
	TotalItems    int    `json:"totalItems"`
}

func (s *OrderService) broadcast(event string, order models.Order) {
	if s.events == nil {
		return
	}
	payload, err := json.Marshal(orderEvent{
		Event:         event,
		OrderID:       order.ID.Hex(),
		PublicOrderID: order.PublicOrderID,
		UserEmail:     order.UserEmail,
		Status:        order.Status,
		TotalItems:    order.TotalItems(),
	})
	if err != nil {
		return
	}
	select {
	case s.events.Broadcast <- payload:
	default:
		// Dashboard feed is best-effort; never block intake on it.
	}
}
