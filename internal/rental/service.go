// Package rental tracks outstanding toy rentals and the admin return flow.
package rental

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/toyloft/backend-toyloft/internal/common"
	"github.com/toyloft/backend-toyloft/internal/db"
	"github.com/toyloft/backend-toyloft/internal/events"
	"github.com/toyloft/backend-toyloft/internal/obs"
)

// Store is the query surface the rental service depends on.
type Store interface {
	ListRentalsByUser(ctx context.Context, userID pgtype.UUID) ([]db.ListRentalsByUserRow, error)
	ListActiveRentals(ctx context.Context, arg db.ListActiveRentalsParams) ([]db.ListActiveRentalsRow, error)
	GetRentalByID(ctx context.Context, id pgtype.UUID) (db.Rental, error)
	MarkRentalReturned(ctx context.Context, arg db.MarkRentalReturnedParams) (db.Rental, error)
	IncrementRentalStock(ctx context.Context, arg db.DecrementStockParams) error
}

// EventEmitter publishes domain events after state changes.
type EventEmitter interface {
	Emit(ctx context.Context, topic string, aggregateID pgtype.UUID, payload any) (db.DomainEvent, error)
}

// Service exposes customer rental history and the admin return workflow.
type Service struct {
	store  Store
	bus    EventEmitter
	logger zerolog.Logger
	now    func() time.Time
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store  Store
	Bus    EventEmitter
	Logger zerolog.Logger
	Now    func() time.Time
}

// Rental is the customer-facing view of a rental row.
type Rental struct {
	ID         string    `json:"id"`
	OrderID    string    `json:"order_id"`
	ToyID      string    `json:"toy_id"`
	ToyName    string    `json:"toy_name,omitempty"`
	Quantity   int32     `json:"quantity"`
	StartDate  string    `json:"start_date"`
	EndDate    string    `json:"end_date"`
	Returned   bool      `json:"returned"`
	ReturnDate *string   `json:"return_date,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ActiveRental adds renter identity for the admin overview.
type ActiveRental struct {
	Rental
	UserID    string `json:"user_id"`
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("rental: store is required")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{store: cfg.Store, bus: cfg.Bus, logger: cfg.Logger, now: now}, nil
}

// ListForUser returns the rental history of one customer, newest first.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]Rental, error) {
	uid, err := parseUUID(userID)
	if err != nil {
		return nil, common.ValidationError("invalid user id")
	}
	rows, err := s.store.ListRentalsByUser(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("list rentals: %w", err)
	}
	rentals := make([]Rental, 0, len(rows))
	for _, row := range rows {
		r := convertRental(row.Rental)
		r.ToyName = row.ToyName
		rentals = append(rentals, r)
	}
	return rentals, nil
}

// ListActive returns unreturned rentals across all customers, soonest
// due first.
func (s *Service) ListActive(ctx context.Context, page, limit int) ([]ActiveRental, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}
	rows, err := s.store.ListActiveRentals(ctx, db.ListActiveRentalsParams{
		Limit:  int32(limit),
		Offset: int32((page - 1) * limit),
	})
	if err != nil {
		return nil, fmt.Errorf("list active rentals: %w", err)
	}
	rentals := make([]ActiveRental, 0, len(rows))
	for _, row := range rows {
		r := convertRental(row.Rental)
		r.ToyName = row.ToyName
		rentals = append(rentals, ActiveRental{
			Rental:    r,
			UserID:    uuidString(row.UserID),
			UserName:  row.UserName,
			UserEmail: row.UserEmail,
		})
	}
	return rentals, nil
}

// MarkReturned closes out a rental, restocks the toy, and emits a
// rental.returned event. Returning twice is a conflict.
func (s *Service) MarkReturned(ctx context.Context, rentalID string) (Rental, error) {
	id, err := parseUUID(rentalID)
	if err != nil {
		return Rental{}, common.ValidationError("invalid rental id")
	}

	current, err := s.store.GetRentalByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Rental{}, common.NotFoundError("rental not found")
		}
		return Rental{}, fmt.Errorf("get rental: %w", err)
	}
	if current.Returned {
		return Rental{}, common.NewAppError("RENTAL_ALREADY_RETURNED",
			"rental has already been returned", http.StatusConflict, nil)
	}

	returned, err := s.store.MarkRentalReturned(ctx, db.MarkRentalReturnedParams{
		ID:         id,
		ReturnDate: pgtype.Date{Time: s.now().UTC(), Valid: true},
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Rental{}, common.NewAppError("RENTAL_ALREADY_RETURNED",
				"rental has already been returned", http.StatusConflict, nil)
		}
		return Rental{}, fmt.Errorf("mark rental returned: %w", err)
	}

	quantity := returned.Quantity
	if quantity < 1 {
		quantity = 1
	}
	if err := s.store.IncrementRentalStock(ctx, db.DecrementStockParams{
		ID:       returned.ToyID,
		Quantity: quantity,
	}); err != nil {
		s.logger.Error().Err(err).Str("rental_id", rentalID).Msg("rental restock failed")
	}

	if obs.RentalReturnTotal != nil {
		obs.RentalReturnTotal.Inc()
	}
	if s.bus != nil {
		if _, err := s.bus.Emit(ctx, events.TopicRentalReturned, returned.ID, map[string]any{
			"rental_id": uuidString(returned.ID),
			"toy_id":    uuidString(returned.ToyID),
			"user_id":   uuidString(returned.UserID),
		}); err != nil {
			s.logger.Warn().Err(err).Msg("rental.returned event emit failed")
		}
	}
	return convertRental(returned), nil
}

func convertRental(row db.Rental) Rental {
	r := Rental{
		ID:        uuidString(row.ID),
		OrderID:   uuidString(row.OrderID),
		ToyID:     uuidString(row.ToyID),
		Quantity:  row.Quantity,
		Returned:  row.Returned,
		CreatedAt: row.CreatedAt.Time,
	}
	if row.StartDate.Valid {
		r.StartDate = row.StartDate.Time.Format(dateLayout)
	}
	if row.EndDate.Valid {
		r.EndDate = row.EndDate.Time.Format(dateLayout)
	}
	if row.ReturnDate.Valid {
		v := row.ReturnDate.Time.Format(dateLayout)
		r.ReturnDate = &v
	}
	return r
}

const dateLayout = "2006-01-02"

func parseUUID(value string) (pgtype.UUID, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return pgtype.UUID{}, err
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}, nil
}

func uuidString(id pgtype.UUID) string {
	if !id.Valid {
		return ""
	}
	return uuid.UUID(id.Bytes).String()
}
