package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const addWishlistItem = `
INSERT INTO wishlists (user_id, toy_id)
VALUES ($1, $2)
ON CONFLICT (user_id, toy_id) DO NOTHING`

type WishlistKeyParams struct {
	UserID pgtype.UUID
	ToyID  pgtype.UUID
}

func (q *Queries) AddWishlistItem(ctx context.Context, arg WishlistKeyParams) (int64, error) {
	tag, err := q.db.Exec(ctx, addWishlistItem, arg.UserID, arg.ToyID)
	return tag.RowsAffected(), err
}

const removeWishlistItem = `
DELETE FROM wishlists WHERE user_id = $1 AND toy_id = $2`

func (q *Queries) RemoveWishlistItem(ctx context.Context, arg WishlistKeyParams) (int64, error) {
	tag, err := q.db.Exec(ctx, removeWishlistItem, arg.UserID, arg.ToyID)
	return tag.RowsAffected(), err
}

const hasWishlistItem = `
SELECT EXISTS (SELECT 1 FROM wishlists WHERE user_id = $1 AND toy_id = $2)`

func (q *Queries) HasWishlistItem(ctx context.Context, arg WishlistKeyParams) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, hasWishlistItem, arg.UserID, arg.ToyID).Scan(&exists)
	return exists, err
}

const listWishlistByUser = `
SELECT w.id, w.user_id, w.toy_id, w.created_at,
	t.name, t.price, t.rental_price, t.stock, t.rental_stock, t.image_url
FROM wishlists w
JOIN toys t ON t.id = w.toy_id
WHERE w.user_id = $1
ORDER BY w.created_at DESC`

type ListWishlistByUserRow struct {
	WishlistItem
	ToyName        string
	ToyPrice       int64
	ToyRentalPrice int64
	ToyStock       int32
	ToyRentalStock int32
	ToyImageURL    pgtype.Text
}

func (q *Queries) ListWishlistByUser(ctx context.Context, userID pgtype.UUID) ([]ListWishlistByUserRow, error) {
	rows, err := q.db.Query(ctx, listWishlistByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListWishlistByUserRow
	for rows.Next() {
		var r ListWishlistByUserRow
		if err := rows.Scan(&r.ID, &r.UserID, &r.ToyID, &r.CreatedAt,
			&r.ToyName, &r.ToyPrice, &r.ToyRentalPrice, &r.ToyStock, &r.ToyRentalStock, &r.ToyImageURL); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}
