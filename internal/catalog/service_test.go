package catalog

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/toyloft/backend-toyloft/internal/audit"
	"github.com/toyloft/backend-toyloft/internal/common"
	"github.com/toyloft/backend-toyloft/internal/db"
)

type fakeStore struct {
	toys          map[string]db.Toy
	activeRentals map[string]int64
	deleted       []string
	listCalls     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		toys:          make(map[string]db.Toy),
		activeRentals: make(map[string]int64),
	}
}

func (f *fakeStore) addToy(name string, activeRentals int64) db.Toy {
	toy := db.Toy{
		ID:        pgtype.UUID{Bytes: uuid.New(), Valid: true},
		Name:      name,
		Price:     1500,
		Stock:     3,
		CreatedAt: pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}
	f.toys[uuidString(toy.ID)] = toy
	f.activeRentals[uuidString(toy.ID)] = activeRentals
	return toy
}

func (f *fakeStore) matches(toy db.Toy, category, search, mode pgtype.Text) bool {
	if category.Valid && (!toy.Category.Valid || toy.Category.String != category.String) {
		return false
	}
	if search.Valid && !strings.Contains(strings.ToLower(toy.Name), strings.ToLower(search.String)) {
		return false
	}
	switch {
	case mode.Valid && mode.String == "rental" && toy.SaleOnly:
		return false
	case mode.Valid && mode.String == "sale" && toy.RentalOnly:
		return false
	}
	return true
}

func (f *fakeStore) ListToys(_ context.Context, arg db.ListToysParams) ([]db.Toy, error) {
	f.listCalls++
	out := make([]db.Toy, 0, len(f.toys))
	for _, toy := range f.toys {
		if f.matches(toy, arg.Category, arg.Search, arg.Mode) {
			out = append(out, toy)
		}
	}
	return out, nil
}

func (f *fakeStore) CountToys(_ context.Context, arg db.CountToysParams) (int64, error) {
	var n int64
	for _, toy := range f.toys {
		if f.matches(toy, arg.Category, arg.Search, arg.Mode) {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) GetToyByID(_ context.Context, id pgtype.UUID) (db.Toy, error) {
	toy, ok := f.toys[uuidString(id)]
	if !ok {
		return db.Toy{}, pgx.ErrNoRows
	}
	return toy, nil
}

func (f *fakeStore) CreateToy(_ context.Context, arg db.CreateToyParams) (db.Toy, error) {
	toy := db.Toy{
		ID:          pgtype.UUID{Bytes: uuid.New(), Valid: true},
		Name:        arg.Name,
		Description: arg.Description,
		Category:    arg.Category,
		Price:       arg.Price,
		RentalPrice: arg.RentalPrice,
		Stock:       arg.Stock,
		RentalStock: arg.RentalStock,
		RentalOnly:  arg.RentalOnly,
		SaleOnly:    arg.SaleOnly,
		ImageURL:    arg.ImageURL,
		CreatedAt:   pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}
	f.toys[uuidString(toy.ID)] = toy
	return toy, nil
}

func (f *fakeStore) UpdateToy(_ context.Context, arg db.UpdateToyParams) (db.Toy, error) {
	toy, ok := f.toys[uuidString(arg.ID)]
	if !ok {
		return db.Toy{}, pgx.ErrNoRows
	}
	toy.Name = arg.Name
	toy.Price = arg.Price
	toy.Stock = arg.Stock
	f.toys[uuidString(arg.ID)] = toy
	return toy, nil
}

func (f *fakeStore) DeleteToy(_ context.Context, id pgtype.UUID) error {
	key := uuidString(id)
	if _, ok := f.toys[key]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.toys, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeStore) CountActiveRentalsByToy(_ context.Context, toyID pgtype.UUID) (int64, error) {
	return f.activeRentals[uuidString(toyID)], nil
}

type auditLogStore struct {
	rows []db.InsertToyDeletionLogParams
}

func (a *auditLogStore) InsertToyDeletionLog(_ context.Context, arg db.InsertToyDeletionLogParams) (db.ToyDeletionLog, error) {
	a.rows = append(a.rows, arg)
	return db.ToyDeletionLog{}, nil
}

func (a *auditLogStore) ListToyDeletionLogs(context.Context, db.ListToyDeletionLogsParams) ([]db.ToyDeletionLog, error) {
	return nil, nil
}

type emitRecorder struct {
	topics []string
}

func (e *emitRecorder) Emit(_ context.Context, topic string, _ pgtype.UUID, _ any) (db.DomainEvent, error) {
	e.topics = append(e.topics, topic)
	return db.DomainEvent{}, nil
}

func newTestCatalog(t *testing.T, store Store, logs *auditLogStore, bus EventEmitter) *Service {
	t.Helper()
	svc, err := NewService(ServiceConfig{
		Store:  store,
		Audit:  audit.Recorder{Store: logs},
		Bus:    bus,
		Logger: zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestParseListParamsRejectsBadPage(t *testing.T) {
	svc := newTestCatalog(t, newFakeStore(), &auditLogStore{}, nil)
	if _, err := svc.ParseListParams(url.Values{"page": []string{"zero"}}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestParseListParamsClampsLimit(t *testing.T) {
	svc := newTestCatalog(t, newFakeStore(), &auditLogStore{}, nil)
	params, err := svc.ParseListParams(url.Values{"limit": []string{"5000"}})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if params.Limit != 100 {
		t.Fatalf("limit: got %d, want 100", params.Limit)
	}
}

func TestParseListParamsReadsSearchAndMode(t *testing.T) {
	svc := newTestCatalog(t, newFakeStore(), &auditLogStore{}, nil)
	params, err := svc.ParseListParams(url.Values{
		"search": []string{" train "},
		"mode":   []string{"rental"},
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if params.Search != "train" {
		t.Fatalf("search: got %q, want %q", params.Search, "train")
	}
	if params.Mode != "rental" {
		t.Fatalf("mode: got %q, want %q", params.Mode, "rental")
	}
}

func TestParseListParamsRejectsUnknownMode(t *testing.T) {
	svc := newTestCatalog(t, newFakeStore(), &auditLogStore{}, nil)
	_, err := svc.ParseListParams(url.Values{"mode": []string{"loan"}})
	var appErr *common.AppError
	if !errors.As(err, &appErr) || appErr.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListFiltersBySearchAndMode(t *testing.T) {
	store := newFakeStore()
	store.addToy("Wooden Train", 0)
	saleOnly := store.addToy("Train Track Set", 0)
	saleOnly.SaleOnly = true
	store.toys[uuidString(saleOnly.ID)] = saleOnly
	store.addToy("Rocking Horse", 0)
	svc := newTestCatalog(t, store, &auditLogStore{}, nil)

	result, err := svc.List(context.Background(), ListParams{
		Search: "train", Mode: "rental", Page: 1, Limit: 20,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if result.Total != 1 || len(result.Items) != 1 {
		t.Fatalf("expected one match, got total=%d items=%d", result.Total, len(result.Items))
	}
	if result.Items[0].Name != "Wooden Train" {
		t.Fatalf("wrong toy matched: %q", result.Items[0].Name)
	}
}

func TestCreateRejectsNonPositivePriceForEnabledMode(t *testing.T) {
	svc := newTestCatalog(t, newFakeStore(), &auditLogStore{}, nil)
	ctx := context.Background()
	var appErr *common.AppError

	_, err := svc.Create(ctx, ToyInput{Name: "Spinning Top", RentalPrice: 500})
	if !errors.As(err, &appErr) || appErr.Code != "VALIDATION_ERROR" {
		t.Fatalf("zero price with sale enabled: expected validation error, got %v", err)
	}
	_, err = svc.Create(ctx, ToyInput{Name: "Spinning Top", Price: 900})
	if !errors.As(err, &appErr) || appErr.Code != "VALIDATION_ERROR" {
		t.Fatalf("zero rental price with rental enabled: expected validation error, got %v", err)
	}
	if _, err := svc.Create(ctx, ToyInput{Name: "Spinning Top", RentalOnly: true, RentalPrice: 500}); err != nil {
		t.Fatalf("rental-only toy with zero price should be accepted: %v", err)
	}
	if _, err := svc.Create(ctx, ToyInput{Name: "Kite", SaleOnly: true, Price: 900}); err != nil {
		t.Fatalf("sale-only toy with zero rental price should be accepted: %v", err)
	}
}

func TestCreateRejectsConflictingModeFlags(t *testing.T) {
	svc := newTestCatalog(t, newFakeStore(), &auditLogStore{}, nil)
	_, err := svc.Create(context.Background(), ToyInput{
		Name:       "Spinning Top",
		RentalOnly: true,
		SaleOnly:   true,
	})
	var appErr *common.AppError
	if !errors.As(err, &appErr) || appErr.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeleteRefusedWhileRentalsOutstanding(t *testing.T) {
	store := newFakeStore()
	logs := &auditLogStore{}
	bus := &emitRecorder{}
	svc := newTestCatalog(t, store, logs, bus)
	toy := store.addToy("Wooden Train", 2)

	err := svc.Delete(context.Background(), uuidString(toy.ID), uuid.NewString())
	var appErr *common.AppError
	if !errors.As(err, &appErr) || appErr.Code != "TOY_HAS_ACTIVE_RENTALS" {
		t.Fatalf("expected TOY_HAS_ACTIVE_RENTALS, got %v", err)
	}
	if len(store.deleted) != 0 {
		t.Fatal("toy must not be deleted")
	}
	if len(logs.rows) != 1 || logs.rows[0].Status != audit.StatusFailed {
		t.Fatalf("expected one failed audit row, got %+v", logs.rows)
	}
	if len(bus.topics) != 0 {
		t.Fatal("no event should be emitted for a refused deletion")
	}
}

func TestDeleteSucceedsAndRecordsAudit(t *testing.T) {
	store := newFakeStore()
	logs := &auditLogStore{}
	bus := &emitRecorder{}
	svc := newTestCatalog(t, store, logs, bus)
	toy := store.addToy("Wooden Train", 0)
	admin := uuid.New()

	if err := svc.Delete(context.Background(), uuidString(toy.ID), admin.String()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(store.deleted) != 1 {
		t.Fatal("toy was not deleted")
	}
	if len(logs.rows) != 1 || logs.rows[0].Status != audit.StatusSuccess {
		t.Fatalf("expected one success audit row, got %+v", logs.rows)
	}
	if logs.rows[0].ToyName != "Wooden Train" {
		t.Fatalf("toy name not snapshotted: %q", logs.rows[0].ToyName)
	}
	if len(bus.topics) != 1 || bus.topics[0] != "toy.deleted" {
		t.Fatalf("expected toy.deleted event, got %v", bus.topics)
	}
}

func TestDeleteUnknownToyRecordsFailure(t *testing.T) {
	store := newFakeStore()
	logs := &auditLogStore{}
	svc := newTestCatalog(t, store, logs, nil)

	err := svc.Delete(context.Background(), uuid.NewString(), uuid.NewString())
	var appErr *common.AppError
	if !errors.As(err, &appErr) || appErr.Code != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
	if len(logs.rows) != 1 || logs.rows[0].Status != audit.StatusFailed {
		t.Fatalf("expected failed audit row, got %+v", logs.rows)
	}
}

func TestListUsesCache(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := newFakeStore()
	store.addToy("Wooden Train", 0)
	svc, err := NewService(ServiceConfig{
		Store:  store,
		Cache:  NewCache(client, time.Minute),
		Logger: zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	ctx := context.Background()
	params := ListParams{Page: 1, Limit: 20}
	if _, err := svc.List(ctx, params); err != nil {
		t.Fatalf("first list: %v", err)
	}
	if _, err := svc.List(ctx, params); err != nil {
		t.Fatalf("second list: %v", err)
	}
	if store.listCalls != 1 {
		t.Fatalf("expected one store hit, got %d", store.listCalls)
	}
}
