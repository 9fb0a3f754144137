package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const blogColumns = `id, slug, title, body, published, created_at, updated_at`

func scanBlogPost(row interface{ Scan(dest ...any) error }) (BlogPost, error) {
	var p BlogPost
	err := row.Scan(&p.ID, &p.Slug, &p.Title, &p.Body, &p.Published, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

const createBlogPost = `
INSERT INTO blog_posts (slug, title, body, published)
VALUES ($1, $2, $3, $4)
RETURNING ` + blogColumns

type CreateBlogPostParams struct {
	Slug      string
	Title     string
	Body      string
	Published bool
}

func (q *Queries) CreateBlogPost(ctx context.Context, arg CreateBlogPostParams) (BlogPost, error) {
	return scanBlogPost(q.db.QueryRow(ctx, createBlogPost, arg.Slug, arg.Title, arg.Body, arg.Published))
}

const updateBlogPost = `
UPDATE blog_posts SET slug = $2, title = $3, body = $4, published = $5, updated_at = now()
WHERE id = $1
RETURNING ` + blogColumns

type UpdateBlogPostParams struct {
	ID        pgtype.UUID
	Slug      string
	Title     string
	Body      string
	Published bool
}

func (q *Queries) UpdateBlogPost(ctx context.Context, arg UpdateBlogPostParams) (BlogPost, error) {
	return scanBlogPost(q.db.QueryRow(ctx, updateBlogPost, arg.ID, arg.Slug, arg.Title, arg.Body, arg.Published))
}

const deleteBlogPost = `
DELETE FROM blog_posts WHERE id = $1`

func (q *Queries) DeleteBlogPost(ctx context.Context, id pgtype.UUID) error {
	_, err := q.db.Exec(ctx, deleteBlogPost, id)
	return err
}

const getBlogPostBySlug = `
SELECT ` + blogColumns + ` FROM blog_posts WHERE slug = $1 AND published = true`

func (q *Queries) GetBlogPostBySlug(ctx context.Context, slug string) (BlogPost, error) {
	return scanBlogPost(q.db.QueryRow(ctx, getBlogPostBySlug, slug))
}

const listPublishedBlogPosts = `
SELECT ` + blogColumns + `
FROM blog_posts
WHERE published = true
ORDER BY created_at DESC
LIMIT $1 OFFSET $2`

type ListBlogPostsParams struct {
	Limit  int32
	Offset int32
}

func (q *Queries) ListPublishedBlogPosts(ctx context.Context, arg ListBlogPostsParams) ([]BlogPost, error) {
	return q.listBlogPosts(ctx, listPublishedBlogPosts, arg)
}

const listAllBlogPosts = `
SELECT ` + blogColumns + `
FROM blog_posts
ORDER BY created_at DESC
LIMIT $1 OFFSET $2`

func (q *Queries) ListAllBlogPosts(ctx context.Context, arg ListBlogPostsParams) ([]BlogPost, error) {
	return q.listBlogPosts(ctx, listAllBlogPosts, arg)
}

func (q *Queries) listBlogPosts(ctx context.Context, query string, arg ListBlogPostsParams) ([]BlogPost, error) {
	rows, err := q.db.Query(ctx, query, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []BlogPost
	for rows.Next() {
		p, err := scanBlogPost(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

const createGalleryImage = `
INSERT INTO gallery_images (url, caption, position)
VALUES ($1, $2, $3)
RETURNING id, url, caption, position, created_at
`

type CreateGalleryImageParams struct {
	URL      string
	Caption  pgtype.Text
	Position int32
}

func (q *Queries) CreateGalleryImage(ctx context.Context, arg CreateGalleryImageParams) (GalleryImage, error) {
	row := q.db.QueryRow(ctx, createGalleryImage, arg.URL, arg.Caption, arg.Position)
	var g GalleryImage
	err := row.Scan(&g.ID, &g.URL, &g.Caption, &g.Position, &g.CreatedAt)
	return g, err
}

const deleteGalleryImage = `
DELETE FROM gallery_images WHERE id = $1`

func (q *Queries) DeleteGalleryImage(ctx context.Context, id pgtype.UUID) error {
	_, err := q.db.Exec(ctx, deleteGalleryImage, id)
	return err
}

const listGalleryImages = `
SELECT id, url, caption, position, created_at
FROM gallery_images
ORDER BY position, created_at`

func (q *Queries) ListGalleryImages(ctx context.Context) ([]GalleryImage, error) {
	rows, err := q.db.Query(ctx, listGalleryImages)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GalleryImage
	for rows.Next() {
		var g GalleryImage
		if err := rows.Scan(&g.ID, &g.URL, &g.Caption, &g.Position, &g.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, g)
	}
	return items, rows.Err()
}
