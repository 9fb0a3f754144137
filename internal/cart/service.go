// Package cart maintains the per-user shopping cart: one line per toy and
// mode (purchase or rental), merged on repeat adds.
package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/toyloft/backend-toyloft/internal/common"
	"github.com/toyloft/backend-toyloft/internal/db"
	"github.com/toyloft/backend-toyloft/internal/pricing"
)

const dateLayout = "2006-01-02"

// Store is the query surface the cart service depends on.
type Store interface {
	GetToyByID(ctx context.Context, id pgtype.UUID) (db.Toy, error)
	GetCartItem(ctx context.Context, arg db.GetCartItemParams) (db.CartItem, error)
	InsertCartItem(ctx context.Context, arg db.InsertCartItemParams) (db.CartItem, error)
	UpdateCartItem(ctx context.Context, arg db.UpdateCartItemParams) (db.CartItem, error)
	ListCartItemsByUser(ctx context.Context, userID pgtype.UUID) ([]db.ListCartItemsByUserRow, error)
	GetCartItemByID(ctx context.Context, arg db.GetCartItemByIDParams) (db.CartItem, error)
	DeleteCartItem(ctx context.Context, arg db.GetCartItemByIDParams) (int64, error)
	ClearCart(ctx context.Context, userID pgtype.UUID) error
}

// Service implements cart operations on top of a Store.
type Service struct {
	store  Store
	engine pricing.Engine
}

// NewService constructs a cart Service.
func NewService(store Store, engine pricing.Engine) (*Service, error) {
	if store == nil {
		return nil, errors.New("cart: store is required")
	}
	return &Service{store: store, engine: engine}, nil
}

// AddInput describes a request to add a toy to the cart.
type AddInput struct {
	ToyID           string `json:"toy_id"`
	Quantity        int32  `json:"quantity"`
	IsRental        bool   `json:"is_rental"`
	RentalStartDate string `json:"rental_start_date,omitempty"`
	RentalEndDate   string `json:"rental_end_date,omitempty"`
}

// Line is a cart entry joined with its toy.
type Line struct {
	ID              string  `json:"id"`
	ToyID           string  `json:"toy_id"`
	ToyName         string  `json:"toy_name"`
	Quantity        int32   `json:"quantity"`
	IsRental        bool    `json:"is_rental"`
	RentalStartDate *string `json:"rental_start_date,omitempty"`
	RentalEndDate   *string `json:"rental_end_date,omitempty"`
	UnitPrice       int64   `json:"unit_price"`
	LineTotal       int64   `json:"line_total"`
	ImageURL        *string `json:"image_url,omitempty"`
}

// View is the full cart payload returned to clients.
type View struct {
	Items   []Line          `json:"items"`
	Summary pricing.Summary `json:"summary"`
}

// Add inserts a new cart line or merges into an existing one. A repeat add
// of the same toy and mode increments the quantity; for rentals the most
// recent dates win.
func (s *Service) Add(ctx context.Context, userID string, input AddInput) (View, error) {
	uid, err := parseUUID(userID)
	if err != nil {
		return View{}, common.UnauthorizedError("unauthorized")
	}
	toyID, err := parseUUID(input.ToyID)
	if err != nil {
		return View{}, common.ValidationError("invalid toy id")
	}
	if input.Quantity < 1 {
		return View{}, common.ValidationError("quantity must be at least 1")
	}

	toy, err := s.store.GetToyByID(ctx, toyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return View{}, common.NotFoundError("toy not found")
		}
		return View{}, fmt.Errorf("get toy: %w", err)
	}

	var start, end pgtype.Date
	if input.IsRental {
		if toy.SaleOnly {
			return View{}, common.ValidationError("toy is not available for rental")
		}
		start, end, err = parseRentalDates(input.RentalStartDate, input.RentalEndDate)
		if err != nil {
			return View{}, err
		}
	} else if toy.RentalOnly {
		return View{}, common.ValidationError("toy is only available for rental")
	}

	existing, err := s.store.GetCartItem(ctx, db.GetCartItemParams{
		UserID:   uid,
		ToyID:    toyID,
		IsRental: input.IsRental,
	})
	switch {
	case err == nil:
		update := db.UpdateCartItemParams{
			ID:              existing.ID,
			Quantity:        existing.Quantity + input.Quantity,
			RentalStartDate: existing.RentalStartDate,
			RentalEndDate:   existing.RentalEndDate,
		}
		if input.IsRental {
			update.RentalStartDate = start
			update.RentalEndDate = end
		}
		if _, err := s.store.UpdateCartItem(ctx, update); err != nil {
			return View{}, fmt.Errorf("merge cart item: %w", err)
		}
	case errors.Is(err, pgx.ErrNoRows):
		if _, err := s.store.InsertCartItem(ctx, db.InsertCartItemParams{
			UserID:          uid,
			ToyID:           toyID,
			Quantity:        input.Quantity,
			IsRental:        input.IsRental,
			RentalStartDate: start,
			RentalEndDate:   end,
		}); err != nil {
			return View{}, fmt.Errorf("insert cart item: %w", err)
		}
	default:
		return View{}, fmt.Errorf("lookup cart item: %w", err)
	}

	return s.Get(ctx, userID)
}

// UpdateQuantity sets a line's quantity. Values below one leave the cart
// untouched rather than failing.
func (s *Service) UpdateQuantity(ctx context.Context, userID, itemID string, quantity int32) (View, error) {
	uid, err := parseUUID(userID)
	if err != nil {
		return View{}, common.UnauthorizedError("unauthorized")
	}
	id, err := parseUUID(itemID)
	if err != nil {
		return View{}, common.ValidationError("invalid cart item id")
	}
	if quantity < 1 {
		return s.Get(ctx, userID)
	}

	item, err := s.store.GetCartItemByID(ctx, db.GetCartItemByIDParams{ID: id, UserID: uid})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return View{}, common.NotFoundError("cart item not found")
		}
		return View{}, fmt.Errorf("get cart item: %w", err)
	}

	if _, err := s.store.UpdateCartItem(ctx, db.UpdateCartItemParams{
		ID:              item.ID,
		Quantity:        quantity,
		RentalStartDate: item.RentalStartDate,
		RentalEndDate:   item.RentalEndDate,
	}); err != nil {
		return View{}, fmt.Errorf("update cart item: %w", err)
	}
	return s.Get(ctx, userID)
}

// UpdateRentalDates overwrites a rental line's date range. The quantity is
// left as-is and the new range replaces whatever was stored before.
func (s *Service) UpdateRentalDates(ctx context.Context, userID, itemID, start, end string) (View, error) {
	uid, err := parseUUID(userID)
	if err != nil {
		return View{}, common.UnauthorizedError("unauthorized")
	}
	id, err := parseUUID(itemID)
	if err != nil {
		return View{}, common.ValidationError("invalid cart item id")
	}
	startDate, endDate, err := parseRentalDates(start, end)
	if err != nil {
		return View{}, err
	}

	item, err := s.store.GetCartItemByID(ctx, db.GetCartItemByIDParams{ID: id, UserID: uid})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return View{}, common.NotFoundError("cart item not found")
		}
		return View{}, fmt.Errorf("get cart item: %w", err)
	}
	if !item.IsRental {
		return View{}, common.ValidationError("cart item is not a rental")
	}

	if _, err := s.store.UpdateCartItem(ctx, db.UpdateCartItemParams{
		ID:              item.ID,
		Quantity:        item.Quantity,
		RentalStartDate: startDate,
		RentalEndDate:   endDate,
	}); err != nil {
		return View{}, fmt.Errorf("update cart item: %w", err)
	}
	return s.Get(ctx, userID)
}

// Remove deletes a single cart line.
func (s *Service) Remove(ctx context.Context, userID, itemID string) (View, error) {
	uid, err := parseUUID(userID)
	if err != nil {
		return View{}, common.UnauthorizedError("unauthorized")
	}
	id, err := parseUUID(itemID)
	if err != nil {
		return View{}, common.ValidationError("invalid cart item id")
	}
	affected, err := s.store.DeleteCartItem(ctx, db.GetCartItemByIDParams{ID: id, UserID: uid})
	if err != nil {
		return View{}, fmt.Errorf("delete cart item: %w", err)
	}
	if affected == 0 {
		return View{}, common.NotFoundError("cart item not found")
	}
	return s.Get(ctx, userID)
}

// Clear empties the user's cart.
func (s *Service) Clear(ctx context.Context, userID string) error {
	uid, err := parseUUID(userID)
	if err != nil {
		return common.UnauthorizedError("unauthorized")
	}
	if err := s.store.ClearCart(ctx, uid); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// Get assembles the cart view with priced lines and totals.
func (s *Service) Get(ctx context.Context, userID string) (View, error) {
	uid, err := parseUUID(userID)
	if err != nil {
		return View{}, common.UnauthorizedError("unauthorized")
	}
	rows, err := s.store.ListCartItemsByUser(ctx, uid)
	if err != nil {
		return View{}, fmt.Errorf("list cart items: %w", err)
	}

	items := make([]Line, 0, len(rows))
	lines := make([]pricing.Line, 0, len(rows))
	for _, row := range rows {
		unitPrice := row.ToyPrice
		if row.IsRental {
			unitPrice = row.ToyRentalPrice
		}
		priced := pricing.Line{
			UnitPrice:       unitPrice,
			Quantity:        row.Quantity,
			IsRental:        row.IsRental,
			RentalStartDate: dateTime(row.RentalStartDate),
			RentalEndDate:   dateTime(row.RentalEndDate),
		}
		lines = append(lines, priced)

		line := Line{
			ID:        uuidString(row.ID),
			ToyID:     uuidString(row.ToyID),
			ToyName:   row.ToyName,
			Quantity:  row.Quantity,
			IsRental:  row.IsRental,
			UnitPrice: unitPrice,
			LineTotal: s.engine.LineTotal(priced),
		}
		if row.RentalStartDate.Valid {
			v := row.RentalStartDate.Time.Format(dateLayout)
			line.RentalStartDate = &v
		}
		if row.RentalEndDate.Valid {
			v := row.RentalEndDate.Time.Format(dateLayout)
			line.RentalEndDate = &v
		}
		if row.ToyImageURL.Valid {
			v := row.ToyImageURL.String
			line.ImageURL = &v
		}
		items = append(items, line)
	}

	return View{Items: items, Summary: s.engine.Compute(lines)}, nil
}

func parseRentalDates(startRaw, endRaw string) (pgtype.Date, pgtype.Date, error) {
	if strings.TrimSpace(startRaw) == "" || strings.TrimSpace(endRaw) == "" {
		return pgtype.Date{}, pgtype.Date{}, common.ValidationError("rental lines require both start and end dates")
	}
	start, err := time.Parse(dateLayout, strings.TrimSpace(startRaw))
	if err != nil {
		return pgtype.Date{}, pgtype.Date{}, common.ValidationError("rental_start_date must be YYYY-MM-DD")
	}
	end, err := time.Parse(dateLayout, strings.TrimSpace(endRaw))
	if err != nil {
		return pgtype.Date{}, pgtype.Date{}, common.ValidationError("rental_end_date must be YYYY-MM-DD")
	}
	return pgtype.Date{Time: start, Valid: true}, pgtype.Date{Time: end, Valid: true}, nil
}

func dateTime(d pgtype.Date) time.Time {
	if !d.Valid {
		return time.Time{}
	}
	return d.Time
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
