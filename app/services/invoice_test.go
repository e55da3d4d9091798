package services_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poppys-produce/backend/app/models"
	"github.com/poppys-produce/backend/app/services"
)

func invoiceOrder() models.Order {
	return models.Order{
		PublicOrderID: "583920",
		UserEmail:     "shop@example.com",
		CreatedAt:     time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
		Items: []models.OrderItem{
			{ID: "p1", Name: "Bananas", Quantity: 3},
			{ID: "p2", Name: "Dragon Fruit", Quantity: 1, IsSpecial: true},
		},
	}
}

func TestRenderInvoice_Layout(t *testing.T) {
	order := invoiceOrder()
	order.Notes = "Leave at the loading dock"
	order.SubAccountName = "Corner Deli"

	html, err := services.RenderInvoice(order, "Pat")
	require.NoError(t, err)

	assert.Contains(t, html, "<h2>Order #583920</h2>")
	assert.Contains(t, html, "3/10/2026")
	assert.Contains(t, html, "shop@example.com (Pat)")
	assert.Contains(t, html, "<strong>Sub-Account:</strong> Corner Deli")
	assert.Contains(t, html, "Leave at the loading dock")

	// Special items carry the highlight row and the red label the packers
	// scan for.
	assert.Contains(t, html, `background-color: #ffebe6`)
	assert.Contains(t, html, `<strong style="color: #D9261A;">(Special)</strong>`)
	assert.NotContains(t, html, "AFTER HOURS")
}

func TestRenderInvoice_AfterHoursBanner(t *testing.T) {
	order := invoiceOrder()
	order.IsAfterHours = true

	html, err := services.RenderInvoice(order, "")
	require.NoError(t, err)

	assert.Contains(t, html, "*** AFTER HOURS ORDER ***")
	assert.Contains(t, html, "#FF3030")
	// No username → billed-to is the bare email.
	assert.Contains(t, html, "<strong>Billed To:</strong> shop@example.com</p>")
}

func TestRenderInvoice_OmitsEmptySections(t *testing.T) {
	html, err := services.RenderInvoice(invoiceOrder(), "")
	require.NoError(t, err)

	assert.NotContains(t, html, "Sub-Account")
	assert.NotContains(t, html, "<h3>Notes:</h3>")
}

func TestRenderBatchInvoice_OneBlockPerOrder(t *testing.T) {
	o1 := invoiceOrder()
	o2 := invoiceOrder()
	o2.PublicOrderID = "771100"
	o2.Notes = "second drop"

	html, err := services.RenderBatchInvoice("reseller@example.com", "Ravi", []models.Order{o1, o2})
	require.NoError(t, err)

	assert.Contains(t, html, "<h1>Batch Order Submission</h1>")
	assert.Contains(t, html, "reseller@example.com (Ravi)")
	assert.Contains(t, html, "<strong>Total Orders Submitted:</strong> 2")
	assert.Contains(t, html, "Order #583920")
	assert.Contains(t, html, "Order #771100")
	assert.Contains(t, html, "second drop")
	// The batch variant shades the notes box.
	assert.Contains(t, html, "#fafafa")
	assert.Equal(t, 2, countOccurrences(html, `class="order-separator"`))
}

func countOccurrences(s, sub string) int {
	count := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			count++
		}
	}
	return count
}
