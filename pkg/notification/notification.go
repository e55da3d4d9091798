// Package notification provides a multi-channel notification system.
//
// Define a Notification:
//
//	type IntakeClosingNotification struct { Minutes int; Tokens []string }
//	func (n *IntakeClosingNotification) Via() []string { return []string{"push"} }
//	func (n *IntakeClosingNotification) ToPush() notification.PushData { ... }
//
// Send:
//
//	notification.Send("", &IntakeClosingNotification{...})
package notification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/poppys-produce/backend/config"
	"github.com/poppys-produce/backend/pkg/logger"
	"github.com/poppys-produce/backend/pkg/mail"
)

// MailData carries the data needed to send an email notification.
type MailData struct {
	To      string // overrides the notifiable address if set
	Subject string
	Body    string // HTML
	Text    string // plain-text fallback
}

// PushData carries an Expo push message for one or more device tokens.
type PushData struct {
	Tokens []string
	Title  string
	Body   string
	Data   map[string]string
}

// WebhookData carries an arbitrary JSON payload to POST to a URL.
type WebhookData struct {
	URL     string
	Payload interface{}
	Headers map[string]string
}

// Notification is the interface every notification must satisfy.
type Notification interface {
	// Via returns the list of channel names: "mail", "push", "webhook".
	Via() []string
}

// Mailable can be implemented to support the mail channel.
type Mailable interface {
	ToMail() MailData
}

// Pushable can be implemented to support the Expo push channel.
type Pushable interface {
	ToPush() PushData
}

// Webhookable can be implemented to support the webhook channel.
type Webhookable interface {
	ToWebhook() WebhookData
}

// Send dispatches the notification through all channels returned by Via().
// address is typically an email address used for the mail channel.
func Send(address string, n Notification) []error {
	var errs []error
	for _, channel := range n.Via() {
		if err := dispatch(address, channel, n); err != nil {
			logger.Error("notification: channel failed",
				"channel", channel, "error", err)
			errs = append(errs, err)
		}
	}
	return errs
}

// SendAsync dispatches the notification in a background goroutine.
func SendAsync(address string, n Notification) {
	go func() {
		if errs := Send(address, n); len(errs) > 0 {
			for _, e := range errs {
				logger.Error("notification: async error", "error", e)
			}
		}
	}()
}

func dispatch(address, channel string, n Notification) error {
	switch channel {
	case "mail":
		m, ok := n.(Mailable)
		if !ok {
			return fmt.Errorf("notification: %T does not implement Mailable", n)
		}
		return sendMail(address, m.ToMail())

	case "push":
		p, ok := n.(Pushable)
		if !ok {
			return fmt.Errorf("notification: %T does not implement Pushable", n)
		}
		return SendPush(p.ToPush())

	case "webhook":
		wh, ok := n.(Webhookable)
		if !ok {
			return fmt.Errorf("notification: %T does not implement Webhookable", n)
		}
		return sendWebhook(wh.ToWebhook())

	default:
		return fmt.Errorf("notification: unknown channel %q", channel)
	}
}

func sendMail(address string, d MailData) error {
	to := d.To
	if to == "" {
		to = address
	}

	body := d.Body
	if body == "" {
		body = d.Text
	}

	return mail.To(to).Subject(d.Subject).Body(body).Send()
}

// expoMessage is one entry in the Expo push API request body.
type expoMessage struct {
	To    string            `json:"to"`
	Title string            `json:"title,omitempty"`
	Body  string            `json:"body,omitempty"`
	Data  map[string]string `json:"data,omitempty"`
	Sound string            `json:"sound,omitempty"`
}

// SendPush delivers a push message to all tokens through the Expo push
// service. Tokens are batched into a single request; Expo accepts up to 100
// messages per call, which is well above our customer count.
func SendPush(d PushData) error {
	if len(d.Tokens) == 0 {
		return nil
	}

	msgs := make([]expoMessage, 0, len(d.Tokens))
	for _, t := range d.Tokens {
		msgs = append(msgs, expoMessage{
			To:    t,
			Title: d.Title,
			Body:  d.Body,
			Data:  d.Data,
			Sound: "default",
		})
	}

	raw, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("notification: push marshal: %w", err)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Post(config.ExpoPushURL(), "application/json", bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("notification: push post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification: push returned HTTP %d", resp.StatusCode)
	}
	return nil
}

func sendWebhook(d WebhookData) error {
	if d.URL == "" {
		return fmt.Errorf("notification: webhook URL is empty")
	}

	raw, err := json.Marshal(d.Payload)
	if err != nil {
		return fmt.Errorf("notification: webhook marshal: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, d.URL, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("notification: webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range d.Headers {
		req.Header.Set(k, v)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("notification: webhook send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification: webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}
