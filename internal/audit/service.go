// Package audit persists an immutable trail of toy deletion attempts.
package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/toyloft/backend-toyloft/internal/db"
)

// Outcome statuses recorded against deletion attempts.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// unattributedAdminID stands in when the acting admin cannot be resolved;
// failure rows are still written so the attempt is never lost.
var unattributedAdminID = pgtype.UUID{Valid: true}

// Store defines the persistence operations the recorder needs.
type Store interface {
	InsertToyDeletionLog(ctx context.Context, arg db.InsertToyDeletionLogParams) (db.ToyDeletionLog, error)
	ListToyDeletionLogs(ctx context.Context, arg db.ListToyDeletionLogsParams) ([]db.ToyDeletionLog, error)
}

// Recorder writes deletion log entries.
type Recorder struct {
	Store Store
}

// Entry is the public representation of a deletion log row.
type Entry struct {
	ID           string    `json:"id"`
	ToyID        string    `json:"toy_id"`
	ToyName      string    `json:"toy_name"`
	AdminID      string    `json:"admin_id"`
	Status       string    `json:"status"`
	ErrorMessage *string   `json:"error_message,omitempty"`
	DeletedAt    time.Time `json:"deleted_at"`
}

// RecordSuccess writes a success row for a completed deletion.
func (r Recorder) RecordSuccess(ctx context.Context, toyID pgtype.UUID, toyName, adminID string) error {
	_, err := r.Store.InsertToyDeletionLog(ctx, db.InsertToyDeletionLogParams{
		ToyID:   toyID,
		ToyName: toyName,
		AdminID: adminUUID(adminID),
		Status:  StatusSuccess,
	})
	if err != nil {
		return fmt.Errorf("audit: record deletion success: %w", err)
	}
	return nil
}

// RecordFailure writes a failed row carrying the reason the deletion was refused.
func (r Recorder) RecordFailure(ctx context.Context, toyID pgtype.UUID, toyName, adminID, reason string) error {
	_, err := r.Store.InsertToyDeletionLog(ctx, db.InsertToyDeletionLogParams{
		ToyID:        toyID,
		ToyName:      toyName,
		AdminID:      adminUUID(adminID),
		Status:       StatusFailed,
		ErrorMessage: pgtype.Text{String: reason, Valid: reason != ""},
	})
	if err != nil {
		return fmt.Errorf("audit: record deletion failure: %w", err)
	}
	return nil
}

// List returns recent deletion log entries, newest first.
func (r Recorder) List(ctx context.Context, limit, offset int32) ([]Entry, error) {
	rows, err := r.Store.ListToyDeletionLogs(ctx, db.ListToyDeletionLogsParams{Limit: limit, Offset: offset})
	if err != nil {
		return nil, fmt.Errorf("audit: list deletion logs: %w", err)
	}
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entry := Entry{
			ID:        uuidString(row.ID),
			ToyID:     uuidString(row.ToyID),
			ToyName:   row.ToyName,
			AdminID:   uuidString(row.AdminID),
			Status:    row.Status,
			DeletedAt: row.DeletedAt.Time,
		}
		if row.ErrorMessage.Valid {
			msg := row.ErrorMessage.String
			entry.ErrorMessage = &msg
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func adminUUID(adminID string) pgtype.UUID {
	parsed, err := uuid.Parse(strings.TrimSpace(adminID))
	if err != nil {
		return unattributedAdminID
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}
}

func uuidString(id pgtype.UUID) string {
	if !id.Valid {
		return ""
	}
	return uuid.UUID(id.Bytes).String()
}
