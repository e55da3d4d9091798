// Package jobs defines the background jobs processed by pkg/queue.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/poppys-produce/backend/app/repositories"
	"github.com/poppys-produce/backend/app/services"
	"github.com/poppys-produce/backend/config"
	"github.com/poppys-produce/backend/pkg/apperr"
	"github.com/poppys-produce/backend/pkg/logger"
	"github.com/poppys-produce/backend/pkg/mail"
	"github.com/poppys-produce/backend/pkg/metrics"
	"github.com/poppys-produce/backend/pkg/queue"
	"github.com/poppys-produce/backend/pkg/storage"
)

// InvoiceEmailJob sends the single-order invoice to the operations inbox.
// Dispatched whenever an order is created as Pending; runs off the request
// path so a slow SMTP server never delays intake.
type InvoiceEmailJob struct {
	OrderID string `json:"orderId"`
}

// Register wires every job type into the queue's deserialization registry.
// Call once at boot, before StartWorkers.
func Register() {
	queue.Register("jobs.InvoiceEmailJob", func() queue.Job { return &InvoiceEmailJob{} })
}

// Dispatch queues the invoice email for an order.
func Dispatch(orderID string) {
	if err := queue.Dispatch(InvoiceEmailJob{OrderID: orderID}); err != nil {
		logger.Error("jobs: invoice dispatch failed", "orderId", orderID, "error", err)
	}
}

// Handle renders and sends the invoice, then archives the HTML.
func (j InvoiceEmailJob) Handle() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	orders := repositories.NewOrderRepository()
	order, err := orders.FindByID(ctx, j.OrderID)
	if apperr.Is(err, apperr.KindNotFound) {
		// Deleted before the worker got to it; nothing to invoice.
		logger.Warn("jobs: invoice order gone", "orderId", j.OrderID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("jobs: invoice load order: %w", err)
	}

	username := ""
	if user, err := repositories.NewUserRepository().FindByID(ctx, order.UserID); err == nil {
		username = user.Username
	} else {
		logger.Warn("jobs: invoice username lookup failed", "orderId", j.OrderID, "error", err)
	}

	recipient := config.OrdersRecipient()
	if recipient == "" {
		logger.Warn("jobs: ORDERS_RECIPIENT not configured, skipping invoice", "orderId", j.OrderID)
		return nil
	}

	html, err := services.RenderInvoice(order, username)
	if err != nil {
		return fmt.Errorf("jobs: invoice render: %w", err)
	}

	subject := fmt.Sprintf("New Order! #%s from %s", order.PublicOrderID, order.UserEmail)
	if err := mail.To(recipient).Subject(subject).Body(html).Send(); err != nil {
		metrics.InvoicesSent.WithLabelValues("failed").Inc()
		return fmt.Errorf("jobs: invoice send: %w", err)
	}
	metrics.InvoicesSent.WithLabelValues("success").Inc()

	if err := storage.Put(fmt.Sprintf("invoices/%s.html", j.OrderID), []byte(html)); err != nil {
		logger.Warn("jobs: invoice archive failed", "orderId", j.OrderID, "error", err)
	}
	return nil
}
