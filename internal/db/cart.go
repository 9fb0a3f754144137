package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const cartItemColumns = `id, user_id, toy_id, quantity, is_rental, rental_start_date, rental_end_date, created_at, updated_at`

func scanCartItem(row interface{ Scan(dest ...any) error }) (CartItem, error) {
	var it CartItem
	err := row.Scan(&it.ID, &it.UserID, &it.ToyID, &it.Quantity, &it.IsRental,
		&it.RentalStartDate, &it.RentalEndDate, &it.CreatedAt, &it.UpdatedAt)
	return it, err
}

const getCartItemForUpdate = `
SELECT ` + cartItemColumns + `
FROM cart_items
WHERE user_id = $1 AND toy_id = $2 AND is_rental = $3`

type GetCartItemParams struct {
	UserID   pgtype.UUID
	ToyID    pgtype.UUID
	IsRental bool
}

func (q *Queries) GetCartItem(ctx context.Context, arg GetCartItemParams) (CartItem, error) {
	return scanCartItem(q.db.QueryRow(ctx, getCartItemForUpdate, arg.UserID, arg.ToyID, arg.IsRental))
}

const insertCartItem = `
INSERT INTO cart_items (user_id, toy_id, quantity, is_rental, rental_start_date, rental_end_date)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + cartItemColumns

type InsertCartItemParams struct {
	UserID          pgtype.UUID
	ToyID           pgtype.UUID
	Quantity        int32
	IsRental        bool
	RentalStartDate pgtype.Date
	RentalEndDate   pgtype.Date
}

func (q *Queries) InsertCartItem(ctx context.Context, arg InsertCartItemParams) (CartItem, error) {
	row := q.db.QueryRow(ctx, insertCartItem,
		arg.UserID, arg.ToyID, arg.Quantity, arg.IsRental, arg.RentalStartDate, arg.RentalEndDate)
	return scanCartItem(row)
}

const updateCartItem = `
UPDATE cart_items SET
	quantity = $2,
	rental_start_date = $3,
	rental_end_date = $4,
	updated_at = now()
WHERE id = $1
RETURNING ` + cartItemColumns

type UpdateCartItemParams struct {
	ID              pgtype.UUID
	Quantity        int32
	RentalStartDate pgtype.Date
	RentalEndDate   pgtype.Date
}

func (q *Queries) UpdateCartItem(ctx context.Context, arg UpdateCartItemParams) (CartItem, error) {
	row := q.db.QueryRow(ctx, updateCartItem, arg.ID, arg.Quantity, arg.RentalStartDate, arg.RentalEndDate)
	return scanCartItem(row)
}

const listCartItemsByUser = `
SELECT ci.id, ci.user_id, ci.toy_id, ci.quantity, ci.is_rental,
	ci.rental_start_date, ci.rental_end_date, ci.created_at, ci.updated_at,
	t.name, t.price, t.rental_price, t.stock, t.rental_stock, t.image_url
FROM cart_items ci
JOIN toys t ON t.id = ci.toy_id
WHERE ci.user_id = $1
ORDER BY ci.created_at`

type ListCartItemsByUserRow struct {
	CartItem
	ToyName        string
	ToyPrice       int64
	ToyRentalPrice int64
	ToyStock       int32
	ToyRentalStock int32
	ToyImageURL    pgtype.Text
}

func (q *Queries) ListCartItemsByUser(ctx context.Context, userID pgtype.UUID) ([]ListCartItemsByUserRow, error) {
	rows, err := q.db.Query(ctx, listCartItemsByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListCartItemsByUserRow
	for rows.Next() {
		var r ListCartItemsByUserRow
		if err := rows.Scan(
			&r.ID, &r.UserID, &r.ToyID, &r.Quantity, &r.IsRental,
			&r.RentalStartDate, &r.RentalEndDate, &r.CreatedAt, &r.UpdatedAt,
			&r.ToyName, &r.ToyPrice, &r.ToyRentalPrice, &r.ToyStock, &r.ToyRentalStock, &r.ToyImageURL,
		); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const getCartItemByID = `
SELECT ` + cartItemColumns + `
FROM cart_items
WHERE id = $1 AND user_id = $2`

type GetCartItemByIDParams struct {
	ID     pgtype.UUID
	UserID pgtype.UUID
}

func (q *Queries) GetCartItemByID(ctx context.Context, arg GetCartItemByIDParams) (CartItem, error) {
	return scanCartItem(q.db.QueryRow(ctx, getCartItemByID, arg.ID, arg.UserID))
}

const deleteCartItem = `
DELETE FROM cart_items WHERE id = $1 AND user_id = $2`

func (q *Queries) DeleteCartItem(ctx context.Context, arg GetCartItemByIDParams) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteCartItem, arg.ID, arg.UserID)
	return tag.RowsAffected(), err
}

const clearCart = `
DELETE FROM cart_items WHERE user_id = $1`

func (q *Queries) ClearCart(ctx context.Context, userID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, clearCart, userID)
	return err
}
