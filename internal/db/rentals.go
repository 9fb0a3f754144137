package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const rentalColumns = `id, order_id, toy_id, user_id, quantity, start_date, end_date, returned, return_date, created_at`

func scanRental(row interface{ Scan(dest ...any) error }) (Rental, error) {
	var r Rental
	err := row.Scan(&r.ID, &r.OrderID, &r.ToyID, &r.UserID, &r.Quantity, &r.StartDate,
		&r.EndDate, &r.Returned, &r.ReturnDate, &r.CreatedAt)
	return r, err
}

const createRental = `
INSERT INTO rentals (order_id, toy_id, user_id, quantity, start_date, end_date, returned)
VALUES ($1, $2, $3, $4, $5, $6, false)
RETURNING ` + rentalColumns

type CreateRentalParams struct {
	OrderID   pgtype.UUID
	ToyID     pgtype.UUID
	UserID    pgtype.UUID
	Quantity  int32
	StartDate pgtype.Date
	EndDate   pgtype.Date
}

func (q *Queries) CreateRental(ctx context.Context, arg CreateRentalParams) (Rental, error) {
	row := q.db.QueryRow(ctx, createRental, arg.OrderID, arg.ToyID, arg.UserID, arg.Quantity, arg.StartDate, arg.EndDate)
	return scanRental(row)
}

const listRentalsByUser = `
SELECT r.id, r.order_id, r.toy_id, r.user_id, r.quantity, r.start_date, r.end_date, r.returned, r.return_date, r.created_at,
	t.name
FROM rentals r
JOIN toys t ON t.id = r.toy_id
WHERE r.user_id = $1
ORDER BY r.created_at DESC`

type ListRentalsByUserRow struct {
	Rental
	ToyName string
}

func (q *Queries) ListRentalsByUser(ctx context.Context, userID pgtype.UUID) ([]ListRentalsByUserRow, error) {
	rows, err := q.db.Query(ctx, listRentalsByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListRentalsByUserRow
	for rows.Next() {
		var r ListRentalsByUserRow
		if err := rows.Scan(&r.ID, &r.OrderID, &r.ToyID, &r.UserID, &r.Quantity, &r.StartDate,
			&r.EndDate, &r.Returned, &r.ReturnDate, &r.CreatedAt, &r.ToyName); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const listActiveRentals = `
SELECT r.id, r.order_id, r.toy_id, r.user_id, r.quantity, r.start_date, r.end_date, r.returned, r.return_date, r.created_at,
	t.name, u.name, u.email
FROM rentals r
JOIN toys t ON t.id = r.toy_id
JOIN users u ON u.id = r.user_id
WHERE r.returned = false
ORDER BY r.end_date
LIMIT $1 OFFSET $2`

type ListActiveRentalsRow struct {
	Rental
	ToyName   string
	UserName  string
	UserEmail string
}

type ListActiveRentalsParams struct {
	Limit  int32
	Offset int32
}

func (q *Queries) ListActiveRentals(ctx context.Context, arg ListActiveRentalsParams) ([]ListActiveRentalsRow, error) {
	rows, err := q.db.Query(ctx, listActiveRentals, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListActiveRentalsRow
	for rows.Next() {
		var r ListActiveRentalsRow
		if err := rows.Scan(&r.ID, &r.OrderID, &r.ToyID, &r.UserID, &r.Quantity, &r.StartDate,
			&r.EndDate, &r.Returned, &r.ReturnDate, &r.CreatedAt,
			&r.ToyName, &r.UserName, &r.UserEmail); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const getRentalByID = `
SELECT ` + rentalColumns + ` FROM rentals WHERE id = $1`

func (q *Queries) GetRentalByID(ctx context.Context, id pgtype.UUID) (Rental, error) {
	return scanRental(q.db.QueryRow(ctx, getRentalByID, id))
}

const markRentalReturned = `
UPDATE rentals SET returned = true, return_date = $2
WHERE id = $1 AND returned = false
RETURNING ` + rentalColumns

type MarkRentalReturnedParams struct {
	ID         pgtype.UUID
	ReturnDate pgtype.Date
}

func (q *Queries) MarkRentalReturned(ctx context.Context, arg MarkRentalReturnedParams) (Rental, error) {
	return scanRental(q.db.QueryRow(ctx, markRentalReturned, arg.ID, arg.ReturnDate))
}

const listRentalsEndingBetween = `
SELECT r.id, r.order_id, r.toy_id, r.user_id, r.quantity, r.start_date, r.end_date, r.returned, r.return_date, r.created_at,
	t.name, u.name, u.email
FROM rentals r
JOIN toys t ON t.id = r.toy_id
JOIN users u ON u.id = r.user_id
WHERE r.returned = false AND r.end_date >= $1 AND r.end_date <= $2
ORDER BY r.end_date`

type ListRentalsEndingBetweenParams struct {
	From pgtype.Date
	To   pgtype.Date
}

func (q *Queries) ListRentalsEndingBetween(ctx context.Context, arg ListRentalsEndingBetweenParams) ([]ListActiveRentalsRow, error) {
	rows, err := q.db.Query(ctx, listRentalsEndingBetween, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListActiveRentalsRow
	for rows.Next() {
		var r ListActiveRentalsRow
		if err := rows.Scan(&r.ID, &r.OrderID, &r.ToyID, &r.UserID, &r.Quantity, &r.StartDate,
			&r.EndDate, &r.Returned, &r.ReturnDate, &r.CreatedAt,
			&r.ToyName, &r.UserName, &r.UserEmail); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}
