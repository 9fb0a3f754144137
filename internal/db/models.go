package db

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	ID           pgtype.UUID
	Name         string
	Email        string
	PasswordHash string
	Roles        []string
	CreatedAt    pgtype.Timestamptz
	UpdatedAt    pgtype.Timestamptz
}

type Session struct {
	ID        pgtype.UUID
	UserID    pgtype.UUID
	TokenHash string
	UserAgent pgtype.Text
	IP        pgtype.Text
	ExpiresAt pgtype.Timestamptz
	RevokedAt pgtype.Timestamptz
	CreatedAt pgtype.Timestamptz
}

type Toy struct {
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
	CreatedAt   pgtype.Timestamptz
	UpdatedAt   pgtype.Timestamptz
}

type CartItem struct {
	ID              pgtype.UUID
	UserID          pgtype.UUID
	ToyID           pgtype.UUID
	Quantity        int32
	IsRental        bool
	RentalStartDate pgtype.Date
	RentalEndDate   pgtype.Date
	CreatedAt       pgtype.Timestamptz
	UpdatedAt       pgtype.Timestamptz
}

type Order struct {
	ID              pgtype.UUID
	UserID          pgtype.UUID
	TotalAmount     int64
	Status          string
	BillingName     string
	BillingEmail    string
	BillingPhone    pgtype.Text
	BillingAddress  string
	PaymentIntentID string
	CreatedAt       pgtype.Timestamptz
}

type OrderItem struct {
	ID              pgtype.UUID
	OrderID         pgtype.UUID
	ToyID           pgtype.UUID
	ToyName         string
	Quantity        int32
	Price           int64
	IsRental        bool
	RentalStartDate pgtype.Date
	RentalEndDate   pgtype.Date
}

type Rental struct {
	ID         pgtype.UUID
	OrderID    pgtype.UUID
	ToyID      pgtype.UUID
	UserID     pgtype.UUID
	Quantity   int32
	StartDate  pgtype.Date
	EndDate    pgtype.Date
	Returned   bool
	ReturnDate pgtype.Date
	CreatedAt  pgtype.Timestamptz
}

type WishlistItem struct {
	ID        pgtype.UUID
	UserID    pgtype.UUID
	ToyID     pgtype.UUID
	CreatedAt pgtype.Timestamptz
}

type ToyDeletionLog struct {
	ID           pgtype.UUID
	ToyID        pgtype.UUID
	ToyName      string
	AdminID      pgtype.UUID
	Status       string
	ErrorMessage pgtype.Text
	DeletedAt    pgtype.Timestamptz
}

type DomainEvent struct {
	ID          pgtype.UUID
	Topic       string
	AggregateID pgtype.UUID
	Payload     []byte
	OccurredAt  pgtype.Timestamptz
}

type BlogPost struct {
	ID        pgtype.UUID
	Slug      string
	Title     string
	Body      string
	Published bool
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

type GalleryImage struct {
	ID        pgtype.UUID
	URL       string
	Caption   pgtype.Text
	Position  int32
	CreatedAt pgtype.Timestamptz
}
