package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, user_id, total_amount, status, billing_name, billing_email, billing_phone, billing_address, payment_intent_id, created_at`

func scanOrder(row interface{ Scan(dest ...any) error }) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.UserID, &o.TotalAmount, &o.Status, &o.BillingName,
		&o.BillingEmail, &o.BillingPhone, &o.BillingAddress, &o.PaymentIntentID, &o.CreatedAt)
	return o, err
}

const createOrder = `
INSERT INTO orders (user_id, total_amount, status, billing_name, billing_email, billing_phone, billing_address, payment_intent_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + orderColumns

type CreateOrderParams struct {
	UserID          pgtype.UUID
	TotalAmount     int64
	Status          string
	BillingName     string
	BillingEmail    string
	BillingPhone    pgtype.Text
	BillingAddress  string
	PaymentIntentID string
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.UserID, arg.TotalAmount, arg.Status, arg.BillingName, arg.BillingEmail,
		arg.BillingPhone, arg.BillingAddress, arg.PaymentIntentID)
	return scanOrder(row)
}

const createOrderItem = `
INSERT INTO order_items (order_id, toy_id, toy_name, quantity, price, is_rental, rental_start_date, rental_end_date)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, order_id, toy_id, toy_name, quantity, price, is_rental, rental_start_date, rental_end_date
`

type CreateOrderItemParams struct {
	OrderID         pgtype.UUID
	ToyID           pgtype.UUID
	ToyName         string
	Quantity        int32
	Price           int64
	IsRental        bool
	RentalStartDate pgtype.Date
	RentalEndDate   pgtype.Date
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, createOrderItem,
		arg.OrderID, arg.ToyID, arg.ToyName, arg.Quantity, arg.Price,
		arg.IsRental, arg.RentalStartDate, arg.RentalEndDate)
	var it OrderItem
	err := row.Scan(&it.ID, &it.OrderID, &it.ToyID, &it.ToyName, &it.Quantity,
		&it.Price, &it.IsRental, &it.RentalStartDate, &it.RentalEndDate)
	return it, err
}

const listOrdersByUser = `
SELECT ` + orderColumns + `
FROM orders
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

type ListOrdersByUserParams struct {
	UserID pgtype.UUID
	Limit  int32
	Offset int32
}

func (q *Queries) ListOrdersByUser(ctx context.Context, arg ListOrdersByUserParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrdersByUser, arg.UserID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, o)
	}
	return items, rows.Err()
}

const getOrderByID = `
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1`

func (q *Queries) GetOrderByID(ctx context.Context, id pgtype.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderByID, id))
}

const getOrderByIDForUser = `
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1 AND user_id = $2`

type GetOrderByIDForUserParams struct {
	ID     pgtype.UUID
	UserID pgtype.UUID
}

func (q *Queries) GetOrderByIDForUser(ctx context.Context, arg GetOrderByIDForUserParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderByIDForUser, arg.ID, arg.UserID))
}

const countOrdersByUser = `
SELECT count(*) FROM orders WHERE user_id = $1`

func (q *Queries) CountOrdersByUser(ctx context.Context, userID pgtype.UUID) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countOrdersByUser, userID).Scan(&n)
	return n, err
}

const listOrderItems = `
SELECT id, order_id, toy_id, toy_name, quantity, price, is_rental, rental_start_date, rental_end_date
FROM order_items
WHERE order_id = $1
ORDER BY toy_name`

func (q *Queries) ListOrderItems(ctx context.Context, orderID pgtype.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItems, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ToyID, &it.ToyName, &it.Quantity,
			&it.Price, &it.IsRental, &it.RentalStartDate, &it.RentalEndDate); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
