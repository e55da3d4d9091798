package services

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/poppys-produce/backend/app/models"
	"github.com/poppys-produce/backend/pkg/collection"
)

// The invoice markup is what the operations inbox has always received; the
// colors and layout are load-bearing (the after-hours banner and special-item
// highlight are how the packers triage).
const invoiceStyle = `body{font-family:sans-serif;padding:20px} h1,h2{color:#007AFF} table{width:100%;border-collapse:collapse;margin-bottom:20px;} th,td{border:1px solid #ddd;padding:8px;text-align:left} th{background-color:#f2f2f2} .notes-section{margin-top:20px;padding:10px;border:1px solid #eee;border-radius:5px;} .order-separator{border-bottom: 2px dashed #ccc; padding-bottom: 20px; margin-bottom: 20px;}`

const batchStyle = `body{font-family:sans-serif;padding:20px} h1,h2{color:#007AFF} table{width:100%;border-collapse:collapse;margin-bottom:20px;} th,td{border:1px solid #ddd;padding:8px;text-align:left} th{background-color:#f2f2f2} .notes-section{margin-top:10px;padding:10px;border:1px solid #eee;border-radius:5px; background-color: #fafafa;} .order-separator{border-bottom: 2px dashed #ccc; padding-bottom: 20px; margin-bottom: 20px;}`

const itemRows = `{{define "items"}}{{range .}}<tr{{if .IsSpecial}} style="background-color: #ffebe6;"{{end}}><td>{{.Name}}{{if .IsSpecial}} <strong style="color: #D9261A;">(Special)</strong>{{end}}</td><td>{{.Quantity}}</td></tr>{{end}}{{end}}`

var invoiceTmpl = template.Must(template.New("invoice").Parse(itemRows +
	`<html><head><style>` + invoiceStyle + `</style></head>` +
	`<body><h1>Invoice</h1>` +
	`{{if .IsAfterHours}}<h3 style="color: #FF3030; border: 2px solid #FF3030; padding: 10px; border-radius: 5px;">*** AFTER HOURS ORDER ***</h3>{{end}}` +
	`<h2>Order #{{.PublicOrderID}}</h2>` +
	`<p><strong>Date:</strong> {{.Date}}</p>` +
	`<p><strong>Billed To:</strong> {{.BilledTo}}</p>` +
	`{{if .SubAccountName}}<p><strong>Sub-Account:</strong> {{.SubAccountName}}</p>{{end}}` +
	`<hr/>` +
	`<table><thead><tr><th>Item</th><th>Quantity</th></tr></thead><tbody>{{template "items" .Items}}</tbody></table>` +
	`{{if .Notes}}<div class="notes-section"><h3>Notes:</h3><p>{{.Notes}}</p></div>{{end}}` +
	`</body></html>`))

var batchInvoiceTmpl = template.Must(template.New("batch").Parse(itemRows +
	`<html><head><style>` + batchStyle + `</style></head>` +
	`<body><h1>Batch Order Submission</h1>` +
	`<p><strong>Billed To:</strong> {{.BilledTo}}</p>` +
	`<p><strong>Total Orders Submitted:</strong> {{.Total}}</p>` +
	`<hr/>` +
	`{{range .Orders}}<div class="order-separator">` +
	`<h2>Order #{{.PublicOrderID}}</h2>` +
	`<p><strong>Date:</strong> {{.Date}}</p>` +
	`<table><thead><tr><th>Item</th><th>Quantity</th></tr></thead><tbody>{{template "items" .Items}}</tbody></table>` +
	`{{if .Notes}}<div class="notes-section"><h3>Notes:</h3><p>{{.Notes}}</p></div>{{end}}` +
	`</div>{{end}}` +
	`</body></html>`))

type invoiceData struct {
	IsAfterHours   bool
	PublicOrderID  string
	Date           string
	BilledTo       string
	SubAccountName string
	Items          []models.OrderItem
	Notes          string
}

type batchOrderData struct {
	PublicOrderID string
	Date          string
	Items         []models.OrderItem
	Notes         string
}

type batchInvoiceData struct {
	BilledTo string
	Total    int
	Orders   []batchOrderData
}

func billedTo(email, username string) string {
	if username != "" {
		return fmt.Sprintf("%s (%s)", email, username)
	}
	return email
}

// RenderInvoice produces the single-order invoice HTML.
func RenderInvoice(order models.Order, username string) (string, error) {
	var buf bytes.Buffer
	err := invoiceTmpl.Execute(&buf, invoiceData{
		IsAfterHours:   order.IsAfterHours,
		PublicOrderID:  order.PublicOrderID,
		Date:           order.CreatedAt.Format("1/2/2006"),
		BilledTo:       billedTo(order.UserEmail, username),
		SubAccountName: order.SubAccountName,
		Items:          order.Items,
		Notes:          order.Notes,
	})
	if err != nil {
		return "", fmt.Errorf("invoice: render: %w", err)
	}
	return buf.String(), nil
}

// RenderBatchInvoice produces the consolidated invoice for a batch submit,
// one separator block per order.
func RenderBatchInvoice(email, username string, orders []models.Order) (string, error) {
	var buf bytes.Buffer
	err := batchInvoiceTmpl.Execute(&buf, batchInvoiceData{
		BilledTo: billedTo(email, username),
		Total:    len(orders),
		Orders: collection.Map(orders, func(o models.Order) batchOrderData {
			return batchOrderData{
				PublicOrderID: o.PublicOrderID,
				Date:          o.CreatedAt.Format("1/2/2006"),
				Items:         o.Items,
				Notes:         o.Notes,
			}
		}),
	})
	if err != nil {
		return "", fmt.Errorf("invoice: render batch: %w", err)
	}
	return buf.String(), nil
}
