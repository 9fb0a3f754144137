package checkout

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/toyloft/backend-toyloft/internal/common"
	"github.com/toyloft/backend-toyloft/internal/db"
	"github.com/toyloft/backend-toyloft/internal/pricing"
)

type fakeStore struct {
	cart        []db.ListCartItemsByUserRow
	orders      []db.Order
	orderItems  []db.OrderItem
	rentals     []db.Rental
	stock       map[string]int32
	rentalStock map[string]int32
	cartCleared bool
}

func newCheckoutStore() *fakeStore {
	return &fakeStore{
		stock:       make(map[string]int32),
		rentalStock: make(map[string]int32),
	}
}

// passthroughRunner hands the fake store straight to fn; there is no
// transaction to commit or roll back.
func passthroughRunner(store *fakeStore) TxRunner {
	return func(_ context.Context, fn func(Store) error) error {
		return fn(store)
	}
}

func (f *fakeStore) ListCartItemsByUser(_ context.Context, _ pgtype.UUID) ([]db.ListCartItemsByUserRow, error) {
	if f.cartCleared {
		return nil, nil
	}
	return f.cart, nil
}

func (f *fakeStore) CreateOrder(_ context.Context, arg db.CreateOrderParams) (db.Order, error) {
	order := db.Order{
		ID:              pgtype.UUID{Bytes: uuid.New(), Valid: true},
		UserID:          arg.UserID,
		TotalAmount:     arg.TotalAmount,
		Status:          arg.Status,
		BillingName:     arg.BillingName,
		BillingEmail:    arg.BillingEmail,
		BillingPhone:    arg.BillingPhone,
		BillingAddress:  arg.BillingAddress,
		PaymentIntentID: arg.PaymentIntentID,
	}
	f.orders = append(f.orders, order)
	return order, nil
}

func (f *fakeStore) CreateOrderItem(_ context.Context, arg db.CreateOrderItemParams) (db.OrderItem, error) {
	item := db.OrderItem{
		ID:              pgtype.UUID{Bytes: uuid.New(), Valid: true},
		OrderID:         arg.OrderID,
		ToyID:           arg.ToyID,
		ToyName:         arg.ToyName,
		Quantity:        arg.Quantity,
		Price:           arg.Price,
		IsRental:        arg.IsRental,
		RentalStartDate: arg.RentalStartDate,
		RentalEndDate:   arg.RentalEndDate,
	}
	f.orderItems = append(f.orderItems, item)
	return item, nil
}

func (f *fakeStore) DecrementStock(_ context.Context, arg db.DecrementStockParams) (int32, error) {
	key := uuid.UUID(arg.ID.Bytes).String()
	remaining := f.stock[key] - arg.Quantity
	if remaining < 0 {
		remaining = 0
	}
	f.stock[key] = remaining
	return remaining, nil
}

func (f *fakeStore) DecrementRentalStock(_ context.Context, arg db.DecrementStockParams) (int32, error) {
	key := uuid.UUID(arg.ID.Bytes).String()
	remaining := f.rentalStock[key] - arg.Quantity
	if remaining < 0 {
		remaining = 0
	}
	f.rentalStock[key] = remaining
	return remaining, nil
}

func (f *fakeStore) CreateRental(_ context.Context, arg db.CreateRentalParams) (db.Rental, error) {
	rental := db.Rental{
		ID:        pgtype.UUID{Bytes: uuid.New(), Valid: true},
		OrderID:   arg.OrderID,
		ToyID:     arg.ToyID,
		UserID:    arg.UserID,
		Quantity:  arg.Quantity,
		StartDate: arg.StartDate,
		EndDate:   arg.EndDate,
		Returned:  false,
	}
	f.rentals = append(f.rentals, rental)
	return rental, nil
}

func (f *fakeStore) ClearCart(_ context.Context, _ pgtype.UUID) error {
	f.cartCleared = true
	f.cart = nil
	return nil
}

func newTestService(store *fakeStore) *Service {
	return &Service{
		Runner: passthroughRunner(store),
		Engine: pricing.NewEngine(2000, "GBP"),
		Logger: zerolog.Nop(),
	}
}

func billing() Input {
	return Input{
		BillingName:    "Ada Lovelace",
		BillingEmail:   "ada@example.com",
		BillingAddress: "1 High Street, London",
	}
}

func pgDate(y int, m time.Month, d int) pgtype.Date {
	return pgtype.Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}
}

func cartRow(name string, price, rentalPrice int64, qty int32, rental bool, start, end pgtype.Date) db.ListCartItemsByUserRow {
	return db.ListCartItemsByUserRow{
		CartItem: db.CartItem{
			ID:              pgtype.UUID{Bytes: uuid.New(), Valid: true},
			ToyID:           pgtype.UUID{Bytes: uuid.New(), Valid: true},
			Quantity:        qty,
			IsRental:        rental,
			RentalStartDate: start,
			RentalEndDate:   end,
		},
		ToyName:        name,
		ToyPrice:       price,
		ToyRentalPrice: rentalPrice,
	}
}

func TestBuildPlanSnapshotsPrices(t *testing.T) {
	engine := pricing.NewEngine(2000, "GBP")
	rows := []db.ListCartItemsByUserRow{
		cartRow("Wooden Train", 1500, 0, 1, false, pgtype.Date{}, pgtype.Date{}),
		cartRow("Rocking Horse", 0, 500, 2, true,
			pgDate(2025, time.June, 10), pgDate(2025, time.June, 12)),
	}

	p := buildPlan(engine, rows)

	if len(p.items) != 2 {
		t.Fatalf("expected two snapshots, got %d", len(p.items))
	}
	if p.items[0].Price != 1500 || p.items[0].IsRental {
		t.Fatalf("purchase snapshot wrong: %+v", p.items[0])
	}
	if p.items[1].Price != 500 || !p.items[1].IsRental {
		t.Fatalf("rental snapshot must carry the per-day rate: %+v", p.items[1])
	}
	if p.items[1].ToyName != "Rocking Horse" {
		t.Fatalf("toy name not snapshotted: %q", p.items[1].ToyName)
	}
	if p.summary.Subtotal != 3500 || p.summary.VAT != 700 || p.summary.Total != 4200 {
		t.Fatalf("unexpected summary: %+v", p.summary)
	}
}

func TestBuildPlanSameDayRentalChargesOneDay(t *testing.T) {
	engine := pricing.NewEngine(2000, "GBP")
	day := pgDate(2025, time.June, 10)
	rows := []db.ListCartItemsByUserRow{
		cartRow("Rocking Horse", 0, 500, 1, true, day, day),
	}

	p := buildPlan(engine, rows)
	if p.summary.Subtotal != 500 {
		t.Fatalf("subtotal: got %d, want 500", p.summary.Subtotal)
	}
}

func TestPaymentIntentIDFormat(t *testing.T) {
	now := time.UnixMilli(1718000000000)
	got := paymentIntentID(now)
	if got != "simulated_1718000000000" {
		t.Fatalf("unexpected intent id: %s", got)
	}
	if !strings.HasPrefix(got, "simulated_") {
		t.Fatalf("intent id must carry the simulated_ prefix: %s", got)
	}
}

func TestValidateInputRequiresBillingFields(t *testing.T) {
	cases := []struct {
		name string
		in   Input
	}{
		{"missing name", Input{BillingEmail: "a@b.com", BillingAddress: "1 High St"}},
		{"missing email", Input{BillingName: "Ada", BillingAddress: "1 High St"}},
		{"bad email", Input{BillingName: "Ada", BillingEmail: "nope", BillingAddress: "1 High St"}},
		{"missing address", Input{BillingName: "Ada", BillingEmail: "a@b.com"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateInput(tc.in)
			var appErr *common.AppError
			if !errors.As(err, &appErr) || appErr.Code != "VALIDATION_ERROR" {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateWritesRentalRowsAndClearsCart(t *testing.T) {
	store := newCheckoutStore()
	userID := uuid.New()
	rental := cartRow("Rocking Horse", 0, 500, 2, true,
		pgDate(2025, time.June, 10), pgDate(2025, time.June, 12))
	purchase := cartRow("Wooden Train", 1500, 0, 1, false, pgtype.Date{}, pgtype.Date{})
	store.cart = []db.ListCartItemsByUserRow{rental, purchase}
	store.rentalStock[uuid.UUID(rental.ToyID.Bytes).String()] = 5
	store.stock[uuid.UUID(purchase.ToyID.Bytes).String()] = 3
	svc := newTestService(store)

	out, err := svc.Create(context.Background(), userID.String(), billing())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if out.Status != "paid" {
		t.Fatalf("status: got %q, want paid", out.Status)
	}
	if len(out.Items) != 2 {
		t.Fatalf("expected two order lines, got %d", len(out.Items))
	}

	if len(store.rentals) != 1 {
		t.Fatalf("expected one rental row, got %d", len(store.rentals))
	}
	row := store.rentals[0]
	if row.Returned {
		t.Fatal("new rental must start unreturned")
	}
	if row.Quantity != 2 {
		t.Fatalf("rental quantity: got %d, want 2", row.Quantity)
	}
	if row.OrderID != store.orders[0].ID {
		t.Fatal("rental not linked to the created order")
	}
	if !row.StartDate.Valid || !row.StartDate.Time.Equal(time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("rental start date not carried over: %+v", row.StartDate)
	}

	if got := store.rentalStock[uuid.UUID(rental.ToyID.Bytes).String()]; got != 3 {
		t.Fatalf("rental stock: got %d, want 3", got)
	}
	if got := store.stock[uuid.UUID(purchase.ToyID.Bytes).String()]; got != 2 {
		t.Fatalf("stock: got %d, want 2", got)
	}

	if !store.cartCleared {
		t.Fatal("cart was not cleared")
	}
	view, err := store.ListCartItemsByUser(context.Background(), pgtype.UUID{Bytes: userID, Valid: true})
	if err != nil || len(view) != 0 {
		t.Fatalf("cart not empty after checkout: %v items, err %v", len(view), err)
	}
}

func TestCreateEmptyCartRejected(t *testing.T) {
	svc := newTestService(newCheckoutStore())
	_, err := svc.Create(context.Background(), uuid.NewString(), billing())
	var appErr *common.AppError
	if !errors.As(err, &appErr) || appErr.Code != "CART_EMPTY" {
		t.Fatalf("expected CART_EMPTY, got %v", err)
	}
}

func TestCreateRolledBackOnWriteFailure(t *testing.T) {
	store := newCheckoutStore()
	store.cart = []db.ListCartItemsByUserRow{
		cartRow("Wooden Train", 1500, 0, 1, false, pgtype.Date{}, pgtype.Date{}),
	}
	boom := errors.New("insert failed")
	svc := &Service{
		Runner: func(_ context.Context, fn func(Store) error) error {
			if err := fn(failingItemStore{store, boom}); err != nil {
				return err
			}
			return nil
		},
		Engine: pricing.NewEngine(2000, "GBP"),
		Logger: zerolog.Nop(),
	}

	_, err := svc.Create(context.Background(), uuid.NewString(), billing())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

type failingItemStore struct {
	*fakeStore
	err error
}

func (f failingItemStore) CreateOrderItem(context.Context, db.CreateOrderItemParams) (db.OrderItem, error) {
	return db.OrderItem{}, f.err
}

func TestValidateInputAcceptsCompleteBilling(t *testing.T) {
	err := validateInput(Input{
		BillingName:    "Ada Lovelace",
		BillingEmail:   "ada@example.com",
		BillingPhone:   "07000000000",
		BillingAddress: "1 High Street, London",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
