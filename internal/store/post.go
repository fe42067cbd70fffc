// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"inkpress/internal/models"
)

const (
	// DefaultPostLimit is the page size when the caller doesn't ask for one.
	DefaultPostLimit = 50
	// MaxPostLimit caps a single listing page.
	MaxPostLimit = 100
)

// postColumns lists the columns selected in post queries, prefixed with the
// "p" alias used throughout.
const postColumns = `p.id, p.title, p.slug, p.content, p.excerpt, p.cover_image,
	p.published, p.published_at, p.deleted_at, p.author_id, p.created_at, p.updated_at`

// PostStore handles post persistence, including tag and category links.
type PostStore struct {
	db *sql.DB
}

// NewPostStore creates a new PostStore with the given database connection.
func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db}
}

// scanPost scans a post row from the result set.
func scanPost(scanner interface{ Scan(...any) error }) (*models.Post, error) {
	var p models.Post
	err := scanner.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Content, &p.Excerpt, &p.CoverImage,
		&p.Published, &p.PublishedAt, &p.DeletedAt, &p.AuthorID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a post and links its tags and categories, creating any
// that don't exist yet. A post created as published gets published_at now.
func (s *PostStore) Create(ctx context.Context, d *models.PostDraft) (*models.Post, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var id uuid.UUID
	err = tx.QueryRowContext(ctx, `
		INSERT INTO posts (title, slug, content, excerpt, cover_image, published, published_at, author_id)
		VALUES ($1, $2, $3, $4, $5, $6, CASE WHEN $6 THEN NOW() END, $7)
		RETURNING id
	`, d.Title, d.Slug, d.Content, d.Excerpt, d.CoverImage, d.Published, d.AuthorID).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	if err := replaceLinks(ctx, tx, tagTaxonomy, id, d.Tags); err != nil {
		return nil, err
	}
	if err := replaceLinks(ctx, tx, categoryTaxonomy, id, d.Categories); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create post: %w", err)
	}
	return s.FindByID(ctx, id, true)
}

// Update replaces the editable fields of a live post and fully replaces
// its tag and category sets.
//
// published_at is stamped only when the post goes from unpublished
// (wasPublished false) to published, and only if it has never been set:
// the first publish date survives later unpublish/republish cycles. A nil
// wasPublished uses the stored published flag.
func (s *PostStore) Update(ctx context.Context, id uuid.UUID, d *models.PostDraft, wasPublished *bool) (*models.Post, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE posts SET
			title = $1, slug = $2, content = $3, excerpt = $4, cover_image = $5,
			published = $6,
			published_at = CASE
				WHEN $6 AND NOT COALESCE($7, published) THEN COALESCE(published_at, NOW())
				ELSE published_at
			END,
			updated_at = NOW()
		WHERE id = $8 AND deleted_at IS NULL
	`, d.Title, d.Slug, d.Content, d.Excerpt, d.CoverImage, d.Published, wasPublished, id)
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	if err := affected(res); err != nil {
		return nil, err
	}

	if err := replaceLinks(ctx, tx, tagTaxonomy, id, d.Tags); err != nil {
		return nil, err
	}
	if err := replaceLinks(ctx, tx, categoryTaxonomy, id, d.Categories); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update post: %w", err)
	}
	return s.FindByID(ctx, id, true)
}

// TogglePublish flips the published flag of a live post, but only if it
// still equals expected. The check and the write are one statement, so of
// two concurrent toggles from the same state exactly one wins and the other
// gets ErrConflict. Returns ErrNotFound for unknown or deleted posts.
func (s *PostStore) TogglePublish(ctx context.Context, id uuid.UUID, expected bool) (*models.Post, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE posts SET
			published = NOT $2,
			published_at = CASE WHEN NOT $2 THEN COALESCE(published_at, NOW()) ELSE published_at END,
			updated_at = NOW()
		WHERE id = $1 AND published = $2 AND deleted_at IS NULL
	`, id, expected)
	if err != nil {
		return nil, fmt.Errorf("toggle publish: %w", err)
	}

	if err := affected(res); errors.Is(err, ErrNotFound) {
		var live bool
		if err := s.db.QueryRowContext(ctx, `
			SELECT EXISTS (SELECT 1 FROM posts WHERE id = $1 AND deleted_at IS NULL)
		`, id).Scan(&live); err != nil {
			return nil, fmt.Errorf("toggle publish check: %w", err)
		}
		if live {
			return nil, ErrConflict
		}
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("toggle publish: %w", err)
	}

	return s.FindByID(ctx, id, true)
}

// SoftDelete marks a live post as deleted. Returns ErrNotFound if the post
// doesn't exist or is already deleted.
func (s *PostStore) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE posts SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return fmt.Errorf("soft delete post: %w", err)
	}
	return affected(res)
}

// FindByID retrieves a live post with its tags and categories. Drafts are
// only returned when includeDrafts is set. Returns nil if not found.
func (s *PostStore) FindByID(ctx context.Context, id uuid.UUID, includeDrafts bool) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts p WHERE p.id = $1 AND p.deleted_at IS NULL`
	if !includeDrafts {
		query += ` AND p.published`
	}

	p, err := scanPost(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by id: %w", err)
	}

	posts := []models.Post{*p}
	if err := attachTaxonomy(ctx, s.db, posts); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

// List returns live posts matching the filter, each with its tags and
// categories. Published listings are ordered by publish date, everything
// else by creation date, newest first.
func (s *PostStore) List(ctx context.Context, f models.PostFilter) ([]models.Post, error) {
	var (
		where = []string{"p.deleted_at IS NULL"}
		args  []any
	)

	switch f.Status {
	case models.PostStatusDraft:
		where = append(where, "NOT p.published")
	case models.PostStatusAll:
	default:
		where = append(where, "p.published")
	}

	if f.TagSlug != "" {
		args = append(args, f.TagSlug)
		where = append(where, slugFilter(tagTaxonomy, len(args)))
	}
	if f.CategorySlug != "" {
		args = append(args, f.CategorySlug)
		where = append(where, slugFilter(categoryTaxonomy, len(args)))
	}

	order := "p.created_at DESC"
	if f.Status == models.PostStatusPublished || f.Status == "" {
		order = "p.published_at DESC NULLS LAST, p.created_at DESC"
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultPostLimit
	}
	if limit > MaxPostLimit {
		limit = MaxPostLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	query := fmt.Sprintf(`
		SELECT %s FROM posts p
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		postColumns, strings.Join(where, " AND "), order, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	if err := attachTaxonomy(ctx, s.db, posts); err != nil {
		return nil, err
	}
	return posts, nil
}
