// Package wishlist lets customers bookmark toys they want to come back to.
package wishlist

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
)

// Store is the query surface the wishlist service depends on.
type Store interface {
	GetToyByID(ctx context.Context, id pgtype.UUID) (db.Toy, error)
	AddWishlistItem(ctx context.Context, arg db.WishlistKeyParams) (int64, error)
	RemoveWishlistItem(ctx context.Context, arg db.WishlistKeyParams) (int64, error)
	HasWishlistItem(ctx context.Context, arg db.WishlistKeyParams) (bool, error)
	ListWishlistByUser(ctx context.Context, userID pgtype.UUID) ([]db.ListWishlistByUserRow, error)
}

// Service implements per-user wishlist operations.
type Service struct {
	store Store
}

// Item is a wishlist entry joined with live toy data.
type Item struct {
	ToyID       string    `json:"toy_id"`
	ToyName     string    `json:"toy_name"`
	Price       int64     `json:"price"`
	RentalPrice int64     `json:"rental_price"`
	Stock       int32     `json:"stock"`
	RentalStock int32     `json:"rental_stock"`
	ImageURL    *string   `json:"image_url,omitempty"`
	AddedAt     time.Time `json:"added_at"`
}

// NewService constructs a Service instance.
func NewService(store Store) (*Service, error) {
	if store == nil {
		return nil, errors.New("wishlist: store is required")
	}
	return &Service{store: store}, nil
}

// List returns the user's wishlist, newest additions first.
func (s *Service) List(ctx context.Context, userID string) ([]Item, error) {
	uid, err := parseUUID(userID)
	if err != nil {
		return nil, common.ValidationError("invalid user id")
	}
	rows, err := s.store.ListWishlistByUser(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}
	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		item := Item{
			ToyID:       uuidString(row.ToyID),
			ToyName:     row.ToyName,
			Price:       row.ToyPrice,
			RentalPrice: row.ToyRentalPrice,
			Stock:       row.ToyStock,
			RentalStock: row.ToyRentalStock,
			AddedAt:     row.CreatedAt.Time,
		}
		if row.ToyImageURL.Valid {
			v := row.ToyImageURL.String
			item.ImageURL = &v
		}
		items = append(items, item)
	}
	return items, nil
}

// Add bookmarks a toy. Adding the same toy twice is a no-op.
func (s *Service) Add(ctx context.Context, userID, toyID string) (bool, error) {
	key, err := s.key(ctx, userID, toyID)
	if err != nil {
		return false, err
	}
	affected, err := s.store.AddWishlistItem(ctx, key)
	if err != nil {
		return false, fmt.Errorf("add wishlist item: %w", err)
	}
	return affected > 0, nil
}

// Remove drops a bookmark. Removing an absent toy is a no-op.
func (s *Service) Remove(ctx context.Context, userID, toyID string) (bool, error) {
	uid, err := parseUUID(userID)
	if err != nil {
		return false, common.ValidationError("invalid user id")
	}
	tid, err := parseUUID(toyID)
	if err != nil {
		return false, common.ValidationError("invalid toy id")
	}
	affected, err := s.store.RemoveWishlistItem(ctx, db.WishlistKeyParams{UserID: uid, ToyID: tid})
	if err != nil {
		return false, fmt.Errorf("remove wishlist item: %w", err)
	}
	return affected > 0, nil
}

// Toggle flips a toy's wishlist membership and reports the new state.
func (s *Service) Toggle(ctx context.Context, userID, toyID string) (bool, error) {
	key, err := s.key(ctx, userID, toyID)
	if err != nil {
		return false, err
	}
	present, err := s.store.HasWishlistItem(ctx, key)
	if err != nil {
		return false, fmt.Errorf("check wishlist item: %w", err)
	}
	if present {
		if _, err := s.store.RemoveWishlistItem(ctx, key); err != nil {
			return false, fmt.Errorf("remove wishlist item: %w", err)
		}
		return false, nil
	}
	if _, err := s.store.AddWishlistItem(ctx, key); err != nil {
		return false, fmt.Errorf("add wishlist item: %w", err)
	}
	return true, nil
}

// Contains reports whether the toy is on the user's wishlist.
func (s *Service) Contains(ctx context.Context, userID, toyID string) (bool, error) {
	uid, err := parseUUID(userID)
	if err != nil {
		return false, common.ValidationError("invalid user id")
	}
	tid, err := parseUUID(toyID)
	if err != nil {
		return false, common.ValidationError("invalid toy id")
	}
	present, err := s.store.HasWishlistItem(ctx, db.WishlistKeyParams{UserID: uid, ToyID: tid})
	if err != nil {
		return false, fmt.Errorf("check wishlist item: %w", err)
	}
	return present, nil
}

// key validates both ids and confirms the toy still exists.
func (s *Service) key(ctx context.Context, userID, toyID string) (db.WishlistKeyParams, error) {
	uid, err := parseUUID(userID)
	if err != nil {
		return db.WishlistKeyParams{}, common.ValidationError("invalid user id")
	}
	tid, err := parseUUID(toyID)
	if err != nil {
		return db.WishlistKeyParams{}, common.ValidationError("invalid toy id")
	}
	if _, err := s.store.GetToyByID(ctx, tid); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return db.WishlistKeyParams{}, common.NotFoundError("toy not found")
		}
		return db.WishlistKeyParams{}, fmt.Errorf("get toy: %w", err)
	}
	return db.WishlistKeyParams{UserID: uid, ToyID: tid}, nil
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
