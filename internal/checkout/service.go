// Package checkout turns a cart into a paid order inside a single
// database transaction: order, item snapshots, stock decrements, rental
// rows, and the cart wipe all commit or roll back together.
package checkout

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
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/toyloft/backend-toyloft/internal/common"
	"github.com/toyloft/backend-toyloft/internal/db"
	"github.com/toyloft/backend-toyloft/internal/events"
	"github.com/toyloft/backend-toyloft/internal/obs"
	"github.com/toyloft/backend-toyloft/internal/pricing"
)

// Input carries the billing details submitted at checkout.
type Input struct {
	BillingName    string `json:"billing_name" validate:"required,min=1,max=200"`
	BillingEmail   string `json:"billing_email" validate:"required,email"`
	BillingPhone   string `json:"billing_phone" validate:"max=30"`
	BillingAddress string `json:"billing_address" validate:"required,max=500"`
}

// ItemResult is an order line in the checkout response.
type ItemResult struct {
	ToyID           string  `json:"toy_id"`
	ToyName         string  `json:"toy_name"`
	Quantity        int32   `json:"quantity"`
	Price           int64   `json:"price"`
	IsRental        bool    `json:"is_rental"`
	RentalStartDate *string `json:"rental_start_date,omitempty"`
	RentalEndDate   *string `json:"rental_end_date,omitempty"`
}

// Output is the checkout response payload.
type Output struct {
	OrderID         string          `json:"order_id"`
	Status          string          `json:"status"`
	PaymentIntentID string          `json:"payment_intent_id"`
	Summary         pricing.Summary `json:"summary"`
	Items           []ItemResult    `json:"items"`
}

// EventEmitter publishes domain events after a successful commit.
type EventEmitter interface {
	Emit(ctx context.Context, topic string, aggregateID pgtype.UUID, payload any) (db.DomainEvent, error)
}

// Store is the query surface checkout writes through. Every call made
// during Create runs against the same transaction.
type Store interface {
	ListCartItemsByUser(ctx context.Context, userID pgtype.UUID) ([]db.ListCartItemsByUserRow, error)
	CreateOrder(ctx context.Context, arg db.CreateOrderParams) (db.Order, error)
	CreateOrderItem(ctx context.Context, arg db.CreateOrderItemParams) (db.OrderItem, error)
	DecrementStock(ctx context.Context, arg db.DecrementStockParams) (int32, error)
	DecrementRentalStock(ctx context.Context, arg db.DecrementStockParams) (int32, error)
	CreateRental(ctx context.Context, arg db.CreateRentalParams) (db.Rental, error)
	ClearCart(ctx context.Context, userID pgtype.UUID) error
}

// TxRunner executes fn against a Store bound to a single transaction.
// A nil error from fn commits; anything else rolls back.
type TxRunner func(ctx context.Context, fn func(Store) error) error

// NewPgxRunner wraps the pool in a TxRunner backed by pgx transactions.
func NewPgxRunner(q *db.Queries, pool *pgxpool.Pool) TxRunner {
	return func(ctx context.Context, fn func(Store) error) error {
		tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
		if err != nil {
			return err
		}
		defer func() {
			_ = tx.Rollback(ctx)
		}()
		if err := fn(q.WithTx(tx)); err != nil {
			return err
		}
		return tx.Commit(ctx)
	}
}

// Service orchestrates checkout.
type Service struct {
	Runner TxRunner
	Engine pricing.Engine
	Events EventEmitter
	Logger zerolog.Logger
	Now    func() time.Time
}

// plan is the precomputed work derived from the cart before any writes.
type plan struct {
	lines   []pricing.Line
	items   []db.CreateOrderItemParams
	summary pricing.Summary
}

// Create executes the checkout flow for the given user.
func (s *Service) Create(ctx context.Context, userID string, in Input) (Output, error) {
	if s == nil || s.Runner == nil {
		return Output{}, errors.New("checkout service not configured")
	}
	uid, err := parseUUID(userID)
	if err != nil {
		return Output{}, common.UnauthorizedError("unauthorized")
	}
	if err := validateInput(in); err != nil {
		return Output{}, err
	}

	var (
		checkoutPlan plan
		order        db.Order
		results      []ItemResult
	)
	err = s.Runner(ctx, func(store Store) error {
		rows, err := store.ListCartItemsByUser(ctx, uid)
		if err != nil {
			return fmt.Errorf("list cart items: %w", err)
		}
		if len(rows) == 0 {
			return common.NewAppError("CART_EMPTY", "cart is empty", http.StatusBadRequest, nil)
		}

		checkoutPlan = buildPlan(s.Engine, rows)

		intentID := paymentIntentID(s.now())
		order, err = store.CreateOrder(ctx, db.CreateOrderParams{
			UserID:          uid,
			TotalAmount:     checkoutPlan.summary.Total,
			Status:          "paid",
			BillingName:     strings.TrimSpace(in.BillingName),
			BillingEmail:    strings.TrimSpace(strings.ToLower(in.BillingEmail)),
			BillingPhone:    optionalText(in.BillingPhone),
			BillingAddress:  strings.TrimSpace(in.BillingAddress),
			PaymentIntentID: intentID,
		})
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		results = make([]ItemResult, 0, len(rows))
		for i, row := range rows {
			itemParams := checkoutPlan.items[i]
			itemParams.OrderID = order.ID
			item, err := store.CreateOrderItem(ctx, itemParams)
			if err != nil {
				return fmt.Errorf("create order item: %w", err)
			}

			decrement := db.DecrementStockParams{ID: row.ToyID, Quantity: row.Quantity}
			if row.IsRental {
				if _, err := store.DecrementRentalStock(ctx, decrement); err != nil {
					return fmt.Errorf("decrement rental stock: %w", err)
				}
				if _, err := store.CreateRental(ctx, db.CreateRentalParams{
					OrderID:   order.ID,
					ToyID:     row.ToyID,
					UserID:    uid,
					Quantity:  row.Quantity,
					StartDate: row.RentalStartDate,
					EndDate:   row.RentalEndDate,
				}); err != nil {
					return fmt.Errorf("create rental: %w", err)
				}
			} else {
				if _, err := store.DecrementStock(ctx, decrement); err != nil {
					return fmt.Errorf("decrement stock: %w", err)
				}
			}
			results = append(results, convertItem(item))
		}

		if err := store.ClearCart(ctx, uid); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		return nil
	})
	if err != nil {
		var appErr *common.AppError
		if errors.As(err, &appErr) && appErr.Code == "CART_EMPTY" {
			s.count("empty_cart")
		} else {
			s.count("error")
		}
		return Output{}, err
	}

	s.count("success")
	if obs.CheckoutAmount != nil {
		obs.CheckoutAmount.Observe(float64(checkoutPlan.summary.Total))
	}
	if s.Events != nil {
		if _, err := s.Events.Emit(ctx, events.TopicOrderCreated, order.ID, map[string]any{
			"order_id": uuidString(order.ID),
			"user_id":  userID,
			"email":    order.BillingEmail,
			"total":    checkoutPlan.summary.Total,
			"currency": checkoutPlan.summary.Currency,
		}); err != nil {
			s.Logger.Warn().Err(err).Msg("order.created event emit failed")
		}
	}

	return Output{
		OrderID:         uuidString(order.ID),
		Status:          order.Status,
		PaymentIntentID: order.PaymentIntentID,
		Summary:         checkoutPlan.summary,
		Items:           results,
	}, nil
}

// buildPlan derives order item snapshots and priced lines from cart rows.
// Rental lines snapshot the per-day rate; purchases snapshot the sale price.
func buildPlan(engine pricing.Engine, rows []db.ListCartItemsByUserRow) plan {
	p := plan{
		lines: make([]pricing.Line, 0, len(rows)),
		items: make([]db.CreateOrderItemParams, 0, len(rows)),
	}
	for _, row := range rows {
		unitPrice := row.ToyPrice
		if row.IsRental {
			unitPrice = row.ToyRentalPrice
		}
		p.lines = append(p.lines, pricing.Line{
			UnitPrice:       unitPrice,
			Quantity:        row.Quantity,
			IsRental:        row.IsRental,
			RentalStartDate: dateTime(row.RentalStartDate),
			RentalEndDate:   dateTime(row.RentalEndDate),
		})
		p.items = append(p.items, db.CreateOrderItemParams{
			ToyID:           row.ToyID,
			ToyName:         row.ToyName,
			Quantity:        row.Quantity,
			Price:           unitPrice,
			IsRental:        row.IsRental,
			RentalStartDate: row.RentalStartDate,
			RentalEndDate:   row.RentalEndDate,
		})
	}
	p.summary = engine.Compute(p.lines)
	return p
}

func paymentIntentID(now time.Time) string {
	return fmt.Sprintf("simulated_%d", now.UnixMilli())
}

func validateInput(in Input) error {
	if strings.TrimSpace(in.BillingName) == "" {
		return common.ValidationError("billing_name is required")
	}
	if strings.TrimSpace(in.BillingEmail) == "" || !strings.Contains(in.BillingEmail, "@") {
		return common.ValidationError("billing_email must be a valid email address")
	}
	if strings.TrimSpace(in.BillingAddress) == "" {
		return common.ValidationError("billing_address is required")
	}
	return nil
}

func (s *Service) count(result string) {
	if obs.CheckoutTotal != nil {
		obs.CheckoutTotal.WithLabelValues(result).Inc()
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func convertItem(item db.OrderItem) ItemResult {
	result := ItemResult{
		ToyID:    uuidString(item.ToyID),
		ToyName:  item.ToyName,
		Quantity: item.Quantity,
		Price:    item.Price,
		IsRental: item.IsRental,
	}
	if item.RentalStartDate.Valid {
		v := item.RentalStartDate.Time.Format("2006-01-02")
		result.RentalStartDate = &v
	}
	if item.RentalEndDate.Valid {
		v := item.RentalEndDate.Time.Format("2006-01-02")
		result.RentalEndDate = &v
	}
	return result
}

func dateTime(d pgtype.Date) time.Time {
	if !d.Valid {
		return time.Time{}
	}
	return d.Time
}

func optionalText(value string) pgtype.Text {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: trimmed, Valid: true}
}

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
