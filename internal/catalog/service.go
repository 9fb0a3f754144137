// Package catalog serves the public toy listing and the admin CRUD surface,
// including the guarded deletion flow with its audit trail.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/toyloft/backend-toyloft/internal/audit"
	"github.com/toyloft/backend-toyloft/internal/common"
	"github.com/toyloft/backend-toyloft/internal/db"
	"github.com/toyloft/backend-toyloft/internal/events"
	"github.com/toyloft/backend-toyloft/internal/obs"
)

// Store is the query surface the catalog service depends on.
type Store interface {
	ListToys(ctx context.Context, arg db.ListToysParams) ([]db.Toy, error)
	CountToys(ctx context.Context, arg db.CountToysParams) (int64, error)
	GetToyByID(ctx context.Context, id pgtype.UUID) (db.Toy, error)
	CreateToy(ctx context.Context, arg db.CreateToyParams) (db.Toy, error)
	UpdateToy(ctx context.Context, arg db.UpdateToyParams) (db.Toy, error)
	DeleteToy(ctx context.Context, id pgtype.UUID) error
	CountActiveRentalsByToy(ctx context.Context, toyID pgtype.UUID) (int64, error)
}

// EventEmitter publishes domain events after state changes.
type EventEmitter interface {
	Emit(ctx context.Context, topic string, aggregateID pgtype.UUID, payload any) (db.DomainEvent, error)
}

// Service orchestrates catalog queries, DTO assembly, and caching.
type Service struct {
	store        Store
	cache        *Cache
	audit        audit.Recorder
	bus          EventEmitter
	logger       zerolog.Logger
	defaultLimit int
	maxLimit     int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store        Store
	Cache        *Cache
	Audit        audit.Recorder
	Bus          EventEmitter
	Logger       zerolog.Logger
	DefaultLimit int
	MaxLimit     int
}

// Toy is the public representation of a catalog item.
type Toy struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Category    *string   `json:"category,omitempty"`
	Price       int64     `json:"price"`
	RentalPrice int64     `json:"rental_price"`
	Stock       int32     `json:"stock"`
	RentalStock int32     `json:"rental_stock"`
	RentalOnly  bool      `json:"rental_only"`
	SaleOnly    bool      `json:"sale_only"`
	ImageURL    *string   `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListParams captures filters for toy listing.
type ListParams struct {
	Category string
	Search   string
	Mode     string
	Page     int
	Limit    int
}

// ListResult contains list data and pagination metadata.
type ListResult struct {
	Items []Toy `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

// ToyInput is the admin payload for creating or updating a toy.
type ToyInput struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"max=4000"`
	Category    string `json:"category" validate:"max=100"`
	Price       int64  `json:"price" validate:"min=0"`
	RentalPrice int64  `json:"rental_price" validate:"min=0"`
	Stock       int32  `json:"stock" validate:"min=0"`
	RentalStock int32  `json:"rental_stock" validate:"min=0"`
	RentalOnly  bool   `json:"rental_only"`
	SaleOnly    bool   `json:"sale_only"`
	ImageURL    string `json:"image_url" validate:"omitempty,url"`
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("catalog: store is required")
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit < 1 {
		defaultLimit = 20
	}
	maxLimit := cfg.MaxLimit
	if maxLimit < 1 {
		maxLimit = 100
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	return &Service{
		store:        cfg.Store,
		cache:        cfg.Cache,
		audit:        cfg.Audit,
		bus:          cfg.Bus,
		logger:       cfg.Logger,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}, nil
}

// ParseListParams normalises raw query values into strongly typed filters.
func (s *Service) ParseListParams(values url.Values) (ListParams, error) {
	params := ListParams{Page: 1, Limit: s.defaultLimit}
	params.Category = strings.TrimSpace(values.Get("category"))
	params.Search = strings.TrimSpace(values.Get("search"))

	if v := strings.TrimSpace(values.Get("mode")); v != "" {
		if v != "rental" && v != "sale" {
			return params, common.ValidationError("mode must be rental or sale")
		}
		params.Mode = v
	}
	if v := strings.TrimSpace(values.Get("page")); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return params, common.ValidationError("page must be a positive integer")
		}
		params.Page = page
	}
	if v := strings.TrimSpace(values.Get("limit")); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			return params, common.ValidationError("limit must be a positive integer")
		}
		params.Limit = limit
	}
	if params.Limit > s.maxLimit {
		params.Limit = s.maxLimit
	}
	return params, nil
}

// List returns a filtered toy page, served from cache when possible.
func (s *Service) List(ctx context.Context, params ListParams) (ListResult, error) {
	key := s.listCacheKey(params)
	if s.cache != nil {
		var cached ListResult
		if ok, err := s.cache.GetJSON(ctx, key, &cached); err == nil && ok {
			return cached, nil
		}
	}

	filter := db.CountToysParams{
		Category: optionalText(params.Category),
		Search:   optionalText(params.Search),
		Mode:     optionalText(params.Mode),
	}
	total, err := s.store.CountToys(ctx, filter)
	if err != nil {
		return ListResult{}, fmt.Errorf("count toys: %w", err)
	}
	offset := int32((params.Page - 1) * params.Limit)
	if offset < 0 {
		offset = 0
	}
	rows, err := s.store.ListToys(ctx, db.ListToysParams{
		Category: filter.Category,
		Search:   filter.Search,
		Mode:     filter.Mode,
		Limit:    int32(params.Limit),
		Offset:   offset,
	})
	if err != nil {
		return ListResult{}, fmt.Errorf("list toys: %w", err)
	}

	items := make([]Toy, 0, len(rows))
	for _, row := range rows {
		items = append(items, convertToy(row))
	}
	result := ListResult{Items: items, Total: total, Page: params.Page, Limit: params.Limit}
	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, result); err != nil {
			s.logger.Warn().Err(err).Msg("catalog cache write failed")
		}
	}
	return result, nil
}

// Get returns a single toy by id.
func (s *Service) Get(ctx context.Context, toyID string) (Toy, error) {
	id, err := parseUUID(toyID)
	if err != nil {
		return Toy{}, common.ValidationError("invalid toy id")
	}
	row, err := s.store.GetToyByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Toy{}, common.NotFoundError("toy not found")
		}
		return Toy{}, fmt.Errorf("get toy: %w", err)
	}
	return convertToy(row), nil
}

// Create adds a toy to the catalog.
func (s *Service) Create(ctx context.Context, input ToyInput) (Toy, error) {
	if err := validateModeFlags(input); err != nil {
		return Toy{}, err
	}
	row, err := s.store.CreateToy(ctx, db.CreateToyParams{
		Name:        strings.TrimSpace(input.Name),
		Description: optionalText(input.Description),
		Category:    optionalText(input.Category),
		Price:       input.Price,
		RentalPrice: input.RentalPrice,
		Stock:       input.Stock,
		RentalStock: input.RentalStock,
		RentalOnly:  input.RentalOnly,
		SaleOnly:    input.SaleOnly,
		ImageURL:    optionalText(input.ImageURL),
	})
	if err != nil {
		return Toy{}, fmt.Errorf("create toy: %w", err)
	}
	s.invalidateListings(ctx)
	return convertToy(row), nil
}

// Update replaces a toy's attributes.
func (s *Service) Update(ctx context.Context, toyID string, input ToyInput) (Toy, error) {
	id, err := parseUUID(toyID)
	if err != nil {
		return Toy{}, common.ValidationError("invalid toy id")
	}
	if err := validateModeFlags(input); err != nil {
		return Toy{}, err
	}
	row, err := s.store.UpdateToy(ctx, db.UpdateToyParams{
		ID:          id,
		Name:        strings.TrimSpace(input.Name),
		Description: optionalText(input.Description),
		Category:    optionalText(input.Category),
		Price:       input.Price,
		RentalPrice: input.RentalPrice,
		Stock:       input.Stock,
		RentalStock: input.RentalStock,
		RentalOnly:  input.RentalOnly,
		SaleOnly:    input.SaleOnly,
		ImageURL:    optionalText(input.ImageURL),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Toy{}, common.NotFoundError("toy not found")
		}
		return Toy{}, fmt.Errorf("update toy: %w", err)
	}
	s.invalidateListings(ctx)
	return convertToy(row), nil
}

// Delete removes a toy unless it still has unreturned rentals. Every
// attempt, successful or refused, lands in the deletion audit trail.
func (s *Service) Delete(ctx context.Context, toyID, adminID string) error {
	id, err := parseUUID(toyID)
	if err != nil {
		return common.ValidationError("invalid toy id")
	}

	toy, err := s.store.GetToyByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.recordFailure(ctx, id, "", adminID, "toy not found")
			return common.NotFoundError("toy not found")
		}
		return fmt.Errorf("get toy: %w", err)
	}

	active, err := s.store.CountActiveRentalsByToy(ctx, id)
	if err != nil {
		return fmt.Errorf("count active rentals: %w", err)
	}
	if active > 0 {
		s.recordFailure(ctx, id, toy.Name, adminID,
			fmt.Sprintf("toy has %d unreturned rentals", active))
		s.countDeletion("refused")
		return common.NewAppError("TOY_HAS_ACTIVE_RENTALS",
			"toy cannot be deleted while rentals are outstanding", http.StatusConflict, nil)
	}

	if err := s.store.DeleteToy(ctx, id); err != nil {
		s.recordFailure(ctx, id, toy.Name, adminID, err.Error())
		s.countDeletion("error")
		return fmt.Errorf("delete toy: %w", err)
	}

	if err := s.audit.RecordSuccess(ctx, id, toy.Name, adminID); err != nil {
		s.logger.Error().Err(err).Str("toy_id", toyID).Msg("deletion audit write failed")
	}
	s.countDeletion("success")
	if s.bus != nil {
		if _, err := s.bus.Emit(ctx, events.TopicToyDeleted, id, map[string]any{
			"toy_id":   toyID,
			"toy_name": toy.Name,
			"admin_id": adminID,
		}); err != nil {
			s.logger.Warn().Err(err).Msg("toy.deleted event emit failed")
		}
	}
	s.invalidateListings(ctx)
	return nil
}

func (s *Service) recordFailure(ctx context.Context, id pgtype.UUID, name, adminID, reason string) {
	if err := s.audit.RecordFailure(ctx, id, name, adminID, reason); err != nil {
		s.logger.Error().Err(err).Msg("deletion audit write failed")
	}
}

func (s *Service) countDeletion(result string) {
	if obs.ToyDeletionTotal != nil {
		obs.ToyDeletionTotal.WithLabelValues(result).Inc()
	}
}

func (s *Service) invalidateListings(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidatePrefix(ctx, "catalog:list:"); err != nil {
		s.logger.Warn().Err(err).Msg("catalog cache invalidation failed")
	}
}

func (s *Service) listCacheKey(params ListParams) string {
	return fmt.Sprintf("catalog:list:%s:%s:%s:%d:%d",
		params.Category, params.Search, params.Mode, params.Page, params.Limit)
}

func validateModeFlags(input ToyInput) error {
	if input.RentalOnly && input.SaleOnly {
		return common.ValidationError("a toy cannot be both rental-only and sale-only")
	}
	if !input.RentalOnly && input.Price <= 0 {
		return common.ValidationError("price must be positive for purchasable toys")
	}
	if !input.SaleOnly && input.RentalPrice <= 0 {
		return common.ValidationError("rental_price must be positive for rentable toys")
	}
	return nil
}

func convertToy(row db.Toy) Toy {
	toy := Toy{
		ID:          uuidString(row.ID),
		Name:        row.Name,
		Price:       row.Price,
		RentalPrice: row.RentalPrice,
		Stock:       row.Stock,
		RentalStock: row.RentalStock,
		RentalOnly:  row.RentalOnly,
		SaleOnly:    row.SaleOnly,
		CreatedAt:   row.CreatedAt.Time,
	}
	if row.Description.Valid {
		v := row.Description.String
		toy.Description = &v
	}
	if row.Category.Valid {
		v := row.Category.String
		toy.Category = &v
	}
	if row.ImageURL.Valid {
		v := row.ImageURL.String
		toy.ImageURL = &v
	}
	return toy
}

func optionalText(value string) pgtype.Text {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: trimmed, Valid: true}
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
