package content

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/toyloft/backend-toyloft/internal/catalog"
	"github.com/toyloft/backend-toyloft/internal/common"
	"github.com/toyloft/backend-toyloft/internal/db"
)

type fakeStore struct {
	posts        map[string]db.BlogPost
	images       map[string]db.GalleryImage
	galleryCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		posts:  make(map[string]db.BlogPost),
		images: make(map[string]db.GalleryImage),
	}
}

func (f *fakeStore) CreateBlogPost(_ context.Context, arg db.CreateBlogPostParams) (db.BlogPost, error) {
	post := db.BlogPost{
		ID:        pgtype.UUID{Bytes: uuid.New(), Valid: true},
		Slug:      arg.Slug,
		Title:     arg.Title,
		Body:      arg.Body,
		Published: arg.Published,
	}
	f.posts[arg.Slug] = post
	return post, nil
}

func (f *fakeStore) UpdateBlogPost(_ context.Context, arg db.UpdateBlogPostParams) (db.BlogPost, error) {
	for slug, post := range f.posts {
		if post.ID == arg.ID {
			delete(f.posts, slug)
			post.Slug = arg.Slug
			post.Title = arg.Title
			post.Body = arg.Body
			post.Published = arg.Published
			f.posts[arg.Slug] = post
			return post, nil
		}
	}
	return db.BlogPost{}, pgx.ErrNoRows
}

func (f *fakeStore) DeleteBlogPost(_ context.Context, id pgtype.UUID) error {
	for slug, post := range f.posts {
		if post.ID == id {
			delete(f.posts, slug)
		}
	}
	return nil
}

func (f *fakeStore) GetBlogPostBySlug(_ context.Context, slug string) (db.BlogPost, error) {
	post, ok := f.posts[slug]
	if !ok || !post.Published {
		return db.BlogPost{}, pgx.ErrNoRows
	}
	return post, nil
}

func (f *fakeStore) ListPublishedBlogPosts(_ context.Context, _ db.ListBlogPostsParams) ([]db.BlogPost, error) {
	var rows []db.BlogPost
	for _, post := range f.posts {
		if post.Published {
			rows = append(rows, post)
		}
	}
	return rows, nil
}

func (f *fakeStore) ListAllBlogPosts(_ context.Context, _ db.ListBlogPostsParams) ([]db.BlogPost, error) {
	var rows []db.BlogPost
	for _, post := range f.posts {
		rows = append(rows, post)
	}
	return rows, nil
}

func (f *fakeStore) CreateGalleryImage(_ context.Context, arg db.CreateGalleryImageParams) (db.GalleryImage, error) {
	img := db.GalleryImage{
		ID:       pgtype.UUID{Bytes: uuid.New(), Valid: true},
		URL:      arg.URL,
		Caption:  arg.Caption,
		Position: arg.Position,
	}
	f.images[uuid.UUID(img.ID.Bytes).String()] = img
	return img, nil
}

func (f *fakeStore) DeleteGalleryImage(_ context.Context, id pgtype.UUID) error {
	delete(f.images, uuid.UUID(id.Bytes).String())
	return nil
}

func (f *fakeStore) ListGalleryImages(_ context.Context) ([]db.GalleryImage, error) {
	f.galleryCalls++
	var rows []db.GalleryImage
	for _, img := range f.images {
		rows = append(rows, img)
	}
	return rows, nil
}

func TestGetBySlugHidesDrafts(t *testing.T) {
	store := newFakeStore()
	store.posts["summer-picks"] = db.BlogPost{
		ID:        pgtype.UUID{Bytes: uuid.New(), Valid: true},
		Slug:      "summer-picks",
		Title:     "Summer Picks",
		Published: false,
	}

	svc, err := NewService(store, nil, zerolog.Nop())
	require.NoError(t, err)

	_, err = svc.GetBySlug(context.Background(), "summer-picks")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestCreatePostRejectsBadSlug(t *testing.T) {
	svc, err := NewService(newFakeStore(), nil, zerolog.Nop())
	require.NoError(t, err)

	_, err = svc.CreatePost(context.Background(), PostInput{
		Slug:  "Not A Slug!",
		Title: "Title",
		Body:  "Body",
	})
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestPublishFlowRoundTrip(t *testing.T) {
	store := newFakeStore()
	svc, err := NewService(store, nil, zerolog.Nop())
	require.NoError(t, err)

	draft, err := svc.CreatePost(context.Background(), PostInput{
		Slug:  "opening-day",
		Title: "Opening Day",
		Body:  "We are open!",
	})
	require.NoError(t, err)
	require.False(t, draft.Published)

	published, err := svc.UpdatePost(context.Background(), draft.ID, PostInput{
		Slug:      "opening-day",
		Title:     "Opening Day",
		Body:      "We are open!",
		Published: true,
	})
	require.NoError(t, err)
	require.True(t, published.Published)

	got, err := svc.GetBySlug(context.Background(), "opening-day")
	require.NoError(t, err)
	require.Equal(t, "Opening Day", got.Title)
}

func TestGalleryUsesCache(t *testing.T) {
	store := newFakeStore()
	store.images["a"] = db.GalleryImage{
		ID:  pgtype.UUID{Bytes: uuid.New(), Valid: true},
		URL: "https://cdn.example.com/gallery/a.jpg",
	}

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc, err := NewService(store, catalog.NewCache(client, time.Minute), zerolog.Nop())
	require.NoError(t, err)

	for range 2 {
		images, err := svc.Gallery(context.Background())
		require.NoError(t, err)
		require.Len(t, images, 1)
	}
	require.Equal(t, 1, store.galleryCalls)
}

func TestAddImageInvalidatesGalleryCache(t *testing.T) {
	store := newFakeStore()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc, err := NewService(store, catalog.NewCache(client, time.Minute), zerolog.Nop())
	require.NoError(t, err)

	images, err := svc.Gallery(context.Background())
	require.NoError(t, err)
	require.Empty(t, images)

	_, err = svc.AddImage(context.Background(), ImageInput{URL: "https://cdn.example.com/gallery/b.jpg"})
	require.NoError(t, err)

	images, err = svc.Gallery(context.Background())
	require.NoError(t, err)
	require.Len(t, images, 1)
	require.Equal(t, 2, store.galleryCalls)
}
