// Package content serves the blog and photo gallery: public cached
// reads plus the admin CRUD behind them.
package content

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/toyloft/backend-toyloft/internal/catalog"
	"github.com/toyloft/backend-toyloft/internal/common"
	"github.com/toyloft/backend-toyloft/internal/db"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Store is the query surface the content service depends on.
type Store interface {
	CreateBlogPost(ctx context.Context, arg db.CreateBlogPostParams) (db.BlogPost, error)
	UpdateBlogPost(ctx context.Context, arg db.UpdateBlogPostParams) (db.BlogPost, error)
	DeleteBlogPost(ctx context.Context, id pgtype.UUID) error
	GetBlogPostBySlug(ctx context.Context, slug string) (db.BlogPost, error)
	ListPublishedBlogPosts(ctx context.Context, arg db.ListBlogPostsParams) ([]db.BlogPost, error)
	ListAllBlogPosts(ctx context.Context, arg db.ListBlogPostsParams) ([]db.BlogPost, error)
	CreateGalleryImage(ctx context.Context, arg db.CreateGalleryImageParams) (db.GalleryImage, error)
	DeleteGalleryImage(ctx context.Context, id pgtype.UUID) error
	ListGalleryImages(ctx context.Context) ([]db.GalleryImage, error)
}

// Service backs the public storefront content pages.
type Service struct {
	store  Store
	cache  *catalog.Cache
	logger zerolog.Logger
}

// Post is the public representation of a blog entry.
type Post struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PostInput is the admin payload for creating or updating a post.
type PostInput struct {
	Slug      string `json:"slug" validate:"required,min=1,max=200"`
	Title     string `json:"title" validate:"required,min=1,max=300"`
	Body      string `json:"body" validate:"required"`
	Published bool   `json:"published"`
}

// Image is a gallery entry. Bytes live in external object storage; only
// the URL is kept here.
type Image struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Caption   *string   `json:"caption,omitempty"`
	Position  int32     `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// ImageInput is the admin payload for adding a gallery image.
type ImageInput struct {
	URL      string `json:"url" validate:"required,url"`
	Caption  string `json:"caption" validate:"max=500"`
	Position int32  `json:"position" validate:"min=0"`
}

// NewService constructs a Service instance.
func NewService(store Store, cache *catalog.Cache, logger zerolog.Logger) (*Service, error) {
	if store == nil {
		return nil, errors.New("content: store is required")
	}
	return &Service{store: store, cache: cache, logger: logger}, nil
}

// ListPublished returns published posts for the public blog page.
func (s *Service) ListPublished(ctx context.Context, page, limit int) ([]Post, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 10
	}
	key := fmt.Sprintf("content:blog:list:%d:%d", page, limit)
	if s.cache != nil {
		var cached []Post
		if ok, err := s.cache.GetJSON(ctx, key, &cached); err == nil && ok {
			return cached, nil
		}
	}
	rows, err := s.store.ListPublishedBlogPosts(ctx, db.ListBlogPostsParams{
		Limit:  int32(limit),
		Offset: int32((page - 1) * limit),
	})
	if err != nil {
		return nil, fmt.Errorf("list published posts: %w", err)
	}
	posts := convertPosts(rows)
	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, posts); err != nil {
			s.logger.Warn().Err(err).Msg("blog cache write failed")
		}
	}
	return posts, nil
}

// GetBySlug returns one published post.
func (s *Service) GetBySlug(ctx context.Context, slug string) (Post, error) {
	slug = strings.TrimSpace(slug)
	if !slugPattern.MatchString(slug) {
		return Post{}, common.ValidationError("invalid slug")
	}
	key := "content:blog:post:" + slug
	if s.cache != nil {
		var cached Post
		if ok, err := s.cache.GetJSON(ctx, key, &cached); err == nil && ok {
			return cached, nil
		}
	}
	row, err := s.store.GetBlogPostBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Post{}, common.NotFoundError("post not found")
		}
		return Post{}, fmt.Errorf("get post: %w", err)
	}
	post := convertPost(row)
	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, post); err != nil {
			s.logger.Warn().Err(err).Msg("blog cache write failed")
		}
	}
	return post, nil
}

// ListAll returns every post, drafts included, for the admin screen.
func (s *Service) ListAll(ctx context.Context, page, limit int) ([]Post, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	rows, err := s.store.ListAllBlogPosts(ctx, db.ListBlogPostsParams{
		Limit:  int32(limit),
		Offset: int32((page - 1) * limit),
	})
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return convertPosts(rows), nil
}

// CreatePost adds a blog post.
func (s *Service) CreatePost(ctx context.Context, input PostInput) (Post, error) {
	if err := validateSlug(input.Slug); err != nil {
		return Post{}, err
	}
	row, err := s.store.CreateBlogPost(ctx, db.CreateBlogPostParams{
		Slug:      strings.TrimSpace(input.Slug),
		Title:     strings.TrimSpace(input.Title),
		Body:      input.Body,
		Published: input.Published,
	})
	if err != nil {
		return Post{}, fmt.Errorf("create post: %w", err)
	}
	s.invalidateBlog(ctx)
	return convertPost(row), nil
}

// UpdatePost replaces a post's attributes.
func (s *Service) UpdatePost(ctx context.Context, postID string, input PostInput) (Post, error) {
	id, err := parseUUID(postID)
	if err != nil {
		return Post{}, common.ValidationError("invalid post id")
	}
	if err := validateSlug(input.Slug); err != nil {
		return Post{}, err
	}
	row, err := s.store.UpdateBlogPost(ctx, db.UpdateBlogPostParams{
		ID:        id,
		Slug:      strings.TrimSpace(input.Slug),
		Title:     strings.TrimSpace(input.Title),
		Body:      input.Body,
		Published: input.Published,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Post{}, common.NotFoundError("post not found")
		}
		return Post{}, fmt.Errorf("update post: %w", err)
	}
	s.invalidateBlog(ctx)
	return convertPost(row), nil
}

// DeletePost removes a post.
func (s *Service) DeletePost(ctx context.Context, postID string) error {
	id, err := parseUUID(postID)
	if err != nil {
		return common.ValidationError("invalid post id")
	}
	if err := s.store.DeleteBlogPost(ctx, id); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	s.invalidateBlog(ctx)
	return nil
}

// Gallery returns all images ordered by position.
func (s *Service) Gallery(ctx context.Context) ([]Image, error) {
	const key = "content:gallery:all"
	if s.cache != nil {
		var cached []Image
		if ok, err := s.cache.GetJSON(ctx, key, &cached); err == nil && ok {
			return cached, nil
		}
	}
	rows, err := s.store.ListGalleryImages(ctx)
	if err != nil {
		return nil, fmt.Errorf("list gallery: %w", err)
	}
	images := make([]Image, 0, len(rows))
	for _, row := range rows {
		images = append(images, convertImage(row))
	}
	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, images); err != nil {
			s.logger.Warn().Err(err).Msg("gallery cache write failed")
		}
	}
	return images, nil
}

// AddImage registers an already-uploaded image URL in the gallery.
func (s *Service) AddImage(ctx context.Context, input ImageInput) (Image, error) {
	caption := pgtype.Text{}
	if trimmed := strings.TrimSpace(input.Caption); trimmed != "" {
		caption = pgtype.Text{String: trimmed, Valid: true}
	}
	row, err := s.store.CreateGalleryImage(ctx, db.CreateGalleryImageParams{
		URL:      strings.TrimSpace(input.URL),
		Caption:  caption,
		Position: input.Position,
	})
	if err != nil {
		return Image{}, fmt.Errorf("create gallery image: %w", err)
	}
	s.invalidateGallery(ctx)
	return convertImage(row), nil
}

// RemoveImage drops a gallery entry. The stored object is not touched.
func (s *Service) RemoveImage(ctx context.Context, imageID string) error {
	id, err := parseUUID(imageID)
	if err != nil {
		return common.ValidationError("invalid image id")
	}
	if err := s.store.DeleteGalleryImage(ctx, id); err != nil {
		return fmt.Errorf("delete gallery image: %w", err)
	}
	s.invalidateGallery(ctx)
	return nil
}

func (s *Service) invalidateBlog(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidatePrefix(ctx, "content:blog:"); err != nil {
		s.logger.Warn().Err(err).Msg("blog cache invalidation failed")
	}
}

func (s *Service) invalidateGallery(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidatePrefix(ctx, "content:gallery:"); err != nil {
		s.logger.Warn().Err(err).Msg("gallery cache invalidation failed")
	}
}

func validateSlug(slug string) error {
	if !slugPattern.MatchString(strings.TrimSpace(slug)) {
		return common.ValidationError("slug must be lowercase letters, digits, and hyphens")
	}
	return nil
}

func convertPosts(rows []db.BlogPost) []Post {
	posts := make([]Post, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, convertPost(row))
	}
	return posts
}

func convertPost(row db.BlogPost) Post {
	return Post{
		ID:        uuidString(row.ID),
		Slug:      row.Slug,
		Title:     row.Title,
		Body:      row.Body,
		Published: row.Published,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
}

func convertImage(row db.GalleryImage) Image {
	img := Image{
		ID:        uuidString(row.ID),
		URL:       row.URL,
		Position:  row.Position,
		CreatedAt: row.CreatedAt.Time,
	}
	if row.Caption.Valid {
		v := row.Caption.String
		img.Caption = &v
	}
	return img
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
