package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const toyColumns = `id, name, description, category, price, rental_price, stock, rental_stock, rental_only, sale_only, image_url, created_at, updated_at`

func scanToy(row interface{ Scan(dest ...any) error }) (Toy, error) {
	var t Toy
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.Category, &t.Price, &t.RentalPrice,
		&t.Stock, &t.RentalStock, &t.RentalOnly, &t.SaleOnly, &t.ImageURL, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

const createToy = `
INSERT INTO toys (name, description, category, price, rental_price, stock, rental_stock, rental_only, sale_only, image_url)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + toyColumns

type CreateToyParams struct {
	Name        string
	Description pgtype.Text
	Category    pgtype.Text
	Price       int64
	RentalPrice int64
	Stock       int32
	RentalStock int32
	RentalOnly  bool
	SaleOnly    bool
	ImageURL    pgtype.Text
}

func (q *Queries) CreateToy(ctx context.Context, arg CreateToyParams) (Toy, error) {
	row := q.db.QueryRow(ctx, createToy,
		arg.Name, arg.Description, arg.Category, arg.Price, arg.RentalPrice,
		arg.Stock, arg.RentalStock, arg.RentalOnly, arg.SaleOnly, arg.ImageURL)
	return scanToy(row)
}

const updateToy = `
UPDATE toys SET
	name = $2,
	description = $3,
	category = $4,
	price = $5,
	rental_price = $6,
	stock = $7,
	rental_stock = $8,
	rental_only = $9,
	sale_only = $10,
	image_url = $11,
	updated_at = now()
WHERE id = $1
RETURNING ` + toyColumns

type UpdateToyParams struct {
	ID          pgtype.UUID
	Name        string
	Description pgtype.Text
	Category    pgtype.Text
	Price       int64
	RentalPrice int64
	Stock       int32
	RentalStock int32
	RentalOnly  bool
	SaleOnly    bool
	ImageURL    pgtype.Text
}

func (q *Queries) UpdateToy(ctx context.Context, arg UpdateToyParams) (Toy, error) {
	row := q.db.QueryRow(ctx, updateToy,
		arg.ID, arg.Name, arg.Description, arg.Category, arg.Price, arg.RentalPrice,
		arg.Stock, arg.RentalStock, arg.RentalOnly, arg.SaleOnly, arg.ImageURL)
	return scanToy(row)
}

const getToyByID = `
SELECT ` + toyColumns + ` FROM toys WHERE id = $1`

func (q *Queries) GetToyByID(ctx context.Context, id pgtype.UUID) (Toy, error) {
	return scanToy(q.db.QueryRow(ctx, getToyByID, id))
}

const toyListFilter = `
	($1::text IS NULL OR category = $1)
	AND ($2::text IS NULL OR name ILIKE '%' || $2 || '%')
	AND ($3::text IS NULL
		OR ($3 = 'rental' AND NOT sale_only)
		OR ($3 = 'sale' AND NOT rental_only))`

const listToys = `
SELECT ` + toyColumns + `
FROM toys
WHERE` + toyListFilter + `
ORDER BY created_at DESC
LIMIT $4 OFFSET $5`

type ListToysParams struct {
	Category pgtype.Text
	Search   pgtype.Text
	Mode     pgtype.Text
	Limit    int32
	Offset   int32
}

func (q *Queries) ListToys(ctx context.Context, arg ListToysParams) ([]Toy, error) {
	rows, err := q.db.Query(ctx, listToys, arg.Category, arg.Search, arg.Mode, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Toy
	for rows.Next() {
		t, err := scanToy(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

const countToys = `
SELECT count(*) FROM toys WHERE` + toyListFilter

type CountToysParams struct {
	Category pgtype.Text
	Search   pgtype.Text
	Mode     pgtype.Text
}

func (q *Queries) CountToys(ctx context.Context, arg CountToysParams) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countToys, arg.Category, arg.Search, arg.Mode).Scan(&n)
	return n, err
}

// DecrementStock clamps at zero rather than failing when the requested
// quantity exceeds what is on hand.
const decrementStock = `
UPDATE toys SET stock = GREATEST(stock - $2, 0), updated_at = now()
WHERE id = $1
RETURNING stock`

type DecrementStockParams struct {
	ID       pgtype.UUID
	Quantity int32
}

func (q *Queries) DecrementStock(ctx context.Context, arg DecrementStockParams) (int32, error) {
	var remaining int32
	err := q.db.QueryRow(ctx, decrementStock, arg.ID, arg.Quantity).Scan(&remaining)
	return remaining, err
}

const decrementRentalStock = `
UPDATE toys SET rental_stock = GREATEST(rental_stock - $2, 0), updated_at = now()
WHERE id = $1
RETURNING rental_stock`

func (q *Queries) DecrementRentalStock(ctx context.Context, arg DecrementStockParams) (int32, error) {
	var remaining int32
	err := q.db.QueryRow(ctx, decrementRentalStock, arg.ID, arg.Quantity).Scan(&remaining)
	return remaining, err
}

const incrementRentalStock = `
UPDATE toys SET rental_stock = rental_stock + $2, updated_at = now()
WHERE id = $1`

func (q *Queries) IncrementRentalStock(ctx context.Context, arg DecrementStockParams) error {
	_, err := q.db.Exec(ctx, incrementRentalStock, arg.ID, arg.Quantity)
	return err
}

const countActiveRentalsByToy = `
SELECT count(*) FROM rentals WHERE toy_id = $1 AND returned = false`

func (q *Queries) CountActiveRentalsByToy(ctx context.Context, toyID pgtype.UUID) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countActiveRentalsByToy, toyID).Scan(&n)
	return n, err
}

const deleteToy = `
DELETE FROM toys WHERE id = $1`

func (q *Queries) DeleteToy(ctx context.Context, id pgtype.UUID) error {
	_, err := q.db.Exec(ctx, deleteToy, id)
	return err
}
