// Package notify turns domain events into customer email.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/toyloft/backend-toyloft/internal/common"
	"github.com/toyloft/backend-toyloft/internal/db"
	"github.com/toyloft/backend-toyloft/internal/events"
)

// EmailNotifier sends an order confirmation when checkout completes.
// Events it does not recognise pass through untouched.
type EmailNotifier struct {
	Sender common.EmailSender
	Logger zerolog.Logger
}

type orderCreatedPayload struct {
	OrderID  string `json:"order_id"`
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Total    int64  `json:"total"`
	Currency string `json:"currency"`
}

// Notify implements events.Notifier.
func (n *EmailNotifier) Notify(_ context.Context, event db.DomainEvent) error {
	if n == nil || n.Sender == nil {
		return nil
	}
	if event.Topic != events.TopicOrderCreated {
		return nil
	}
	var payload orderCreatedPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("notify: decode order.created payload: %w", err)
	}
	if strings.TrimSpace(payload.Email) == "" {
		n.Logger.Warn().Str("order_id", payload.OrderID).Msg("order confirmation skipped, no email")
		return nil
	}
	subject := fmt.Sprintf("Order confirmation %s", payload.OrderID)
	body := fmt.Sprintf(
		"<p>Thanks for your order!</p><p>Order <strong>%s</strong> has been paid. "+
			"Total: %s.</p>",
		payload.OrderID, formatAmount(payload.Total, payload.Currency))
	if err := n.Sender.Send(payload.Email, subject, body); err != nil {
		return fmt.Errorf("notify: send order confirmation: %w", err)
	}
	n.Logger.Info().Str("order_id", payload.OrderID).Msg("order confirmation sent")
	return nil
}

// formatAmount renders a minor-unit amount, e.g. 4200 GBP -> "£42.00".
func formatAmount(minor int64, currency string) string {
	major := minor / 100
	cents := minor % 100
	if cents < 0 {
		cents = -cents
	}
	switch strings.ToUpper(currency) {
	case "GBP":
		return fmt.Sprintf("£%d.%02d", major, cents)
	case "EUR":
		return fmt.Sprintf("€%d.%02d", major, cents)
	case "USD":
		return fmt.Sprintf("$%d.%02d", major, cents)
	default:
		return fmt.Sprintf("%d.%02d %s", major, cents, currency)
	}
}
