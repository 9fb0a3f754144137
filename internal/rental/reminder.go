package rental

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/toyloft/backend-toyloft/internal/common"
	"github.com/toyloft/backend-toyloft/internal/db"
	"github.com/toyloft/backend-toyloft/internal/obs"
)

// TaskTypeDueReminder is the asynq task type for rental due-date reminders.
const TaskTypeDueReminder = "rental:due_reminder"

// DueReminderPayload selects how many days ahead the scan looks.
type DueReminderPayload struct {
	WindowDays int `json:"window_days"`
}

// NewDueReminderTask builds the nightly reminder task.
func NewDueReminderTask(windowDays int) (*asynq.Task, error) {
	if windowDays < 1 {
		windowDays = 1
	}
	payload, err := json.Marshal(DueReminderPayload{WindowDays: windowDays})
	if err != nil {
		return nil, fmt.Errorf("marshal reminder payload: %w", err)
	}
	return asynq.NewTask(TaskTypeDueReminder, payload), nil
}

// ReminderStore is the query surface the reminder worker depends on.
type ReminderStore interface {
	ListRentalsEndingBetween(ctx context.Context, arg db.ListRentalsEndingBetweenParams) ([]db.ListActiveRentalsRow, error)
}

// Reminder emails customers whose rentals are due back soon.
type Reminder struct {
	Store  ReminderStore
	Email  common.EmailSender
	Logger zerolog.Logger
	Now    func() time.Time
}

// ProcessTask implements asynq.Handler. A failed send leaves the task
// retryable without blocking the remaining recipients.
func (p *Reminder) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload DueReminderPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("unmarshal reminder payload: %w", err)
		}
	}
	if payload.WindowDays < 1 {
		payload.WindowDays = 1
	}

	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	from := now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, 1)
	to := from.AddDate(0, 0, payload.WindowDays-1)

	rows, err := p.Store.ListRentalsEndingBetween(ctx, db.ListRentalsEndingBetweenParams{
		From: pgtype.Date{Time: from, Valid: true},
		To:   pgtype.Date{Time: to, Valid: true},
	})
	if err != nil {
		return fmt.Errorf("list rentals ending between: %w", err)
	}

	var sendErrs []error
	for _, row := range rows {
		due := row.EndDate.Time.Format(dateLayout)
		subject := fmt.Sprintf("Reminder: %s is due back on %s", row.ToyName, due)
		body := fmt.Sprintf(
			"<p>Hi %s,</p><p>Your rental of <strong>%s</strong> is due back on %s. "+
				"Please return it on time so the next family can enjoy it.</p>",
			row.UserName, row.ToyName, due)
		if err := p.Email.Send(row.UserEmail, subject, body); err != nil {
			p.countReminder("error")
			p.Logger.Error().Err(err).
				Str("rental_id", uuidString(row.ID)).
				Str("email", row.UserEmail).
				Msg("rental reminder send failed")
			sendErrs = append(sendErrs, err)
			continue
		}
		p.countReminder("sent")
	}
	p.Logger.Info().
		Int("due", len(rows)).
		Int("failed", len(sendErrs)).
		Str("from", from.Format(dateLayout)).
		Str("to", to.Format(dateLayout)).
		Msg("rental reminder scan complete")
	return errors.Join(sendErrs...)
}

func (p *Reminder) countReminder(result string) {
	if obs.RentalReminderTotal != nil {
		obs.RentalReminderTotal.WithLabelValues(result).Inc()
	}
}
