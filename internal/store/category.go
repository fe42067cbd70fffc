// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"inkpress/internal/models"
	"inkpress/internal/slug"
)

// taxonomy names one of the two name-keyed lookup tables attached to posts.
// Table and column names come from this fixed set only, never from input.
type taxonomy struct {
	table    string // "tags" or "categories"
	link     string // join table
	foreign  string // join table column pointing at table
	singular string // for error messages
}

var (
	tagTaxonomy      = taxonomy{table: "tags", link: "post_tags", foreign: "tag_id", singular: "tag"}
	categoryTaxonomy = taxonomy{table: "categories", link: "post_categories", foreign: "category_id", singular: "category"}
)

// TaxonomyStore lists tags and categories. Creation happens implicitly
// when posts reference them by name.
type TaxonomyStore struct {
	db *sql.DB
}

// NewTaxonomyStore returns a new TaxonomyStore.
func NewTaxonomyStore(db *sql.DB) *TaxonomyStore {
	return &TaxonomyStore{db: db}
}

// ListTags returns tags with their published post counts, most used first.
// limit <= 0 means no limit.
func (s *TaxonomyStore) ListTags(ctx context.Context, limit int) ([]models.Tag, error) {
	rows, err := s.listWithCounts(ctx, tagTaxonomy, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.Tag{}
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.CreatedAt, &t.PostCount); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

// ListCategories returns categories with their published post counts,
// most used first.
func (s *TaxonomyStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.listWithCounts(ctx, categoryTaxonomy, 0)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt, &c.PostCount); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (s *TaxonomyStore) listWithCounts(ctx context.Context, kind taxonomy, limit int) (*sql.Rows, error) {
	query := fmt.Sprintf(`
		SELECT x.id, x.name, x.slug, x.created_at,
		       COUNT(p.id) AS post_count
		FROM %[1]s x
		LEFT JOIN %[2]s l ON l.%[3]s = x.id
		LEFT JOIN posts p ON p.id = l.post_id AND p.published AND p.deleted_at IS NULL
		GROUP BY x.id
		ORDER BY post_count DESC, x.name`, kind.table, kind.link, kind.foreign)

	var args []any
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind.table, err)
	}
	return rows, nil
}

// uniqueNames cleans names and collapses duplicates, keeping first-seen
// order. Two spellings that differ only in surrounding whitespace are the
// same name.
func uniqueNames(names []string) []string {
	cleaned := CleanNames(names)
	seen := make(map[string]bool, len(cleaned))
	out := cleaned[:0]
	for _, n := range cleaned {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// resolveNames maps names to row ids, creating missing rows. Each name is
// one atomic upsert against the unique name constraint.
func resolveNames(ctx context.Context, q querier, kind taxonomy, names []string) ([]uuid.UUID, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (name, slug) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`, kind.table)

	ids := make([]uuid.UUID, 0, len(names))
	for _, name := range uniqueNames(names) {
		var id uuid.UUID
		if err := q.QueryRowContext(ctx, query, name, slug.Generate(name)).Scan(&id); err != nil {
			return nil, fmt.Errorf("upsert %s %q: %w", kind.singular, name, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// replaceLinks makes the post's links for kind exactly the given names:
// existing links are dropped, then the names are resolved and relinked.
func replaceLinks(ctx context.Context, q querier, kind taxonomy, postID uuid.UUID, names []string) error {
	del := fmt.Sprintf(`DELETE FROM %s WHERE post_id = $1`, kind.link)
	if _, err := q.ExecContext(ctx, del, postID); err != nil {
		return fmt.Errorf("clear %s links: %w", kind.singular, err)
	}

	ids, err := resolveNames(ctx, q, kind, names)
	if err != nil {
		return err
	}

	ins := fmt.Sprintf(`INSERT INTO %s (post_id, %s) VALUES ($1, $2) ON CONFLICT DO NOTHING`, kind.link, kind.foreign)
	for _, id := range ids {
		if _, err := q.ExecContext(ctx, ins, postID, id); err != nil {
			return fmt.Errorf("link %s: %w", kind.singular, err)
		}
	}
	return nil
}

// taxonomyRow is one (post, tag|category) pair from a batch lookup.
type taxonomyRow struct {
	postID  uuid.UUID
	id      uuid.UUID
	name    string
	slug    string
	created time.Time
}

// loadLinked fetches the kind entries linked to any of postIDs, ordered by
// name, in a single query.
func loadLinked(ctx context.Context, q querier, kind taxonomy, postIDs []uuid.UUID) ([]taxonomyRow, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT l.post_id, x.id, x.name, x.slug, x.created_at
		FROM %s l
		JOIN %s x ON x.id = l.%s
		WHERE l.post_id = ANY($1::uuid[])
		ORDER BY x.name`, kind.link, kind.table, kind.foreign)

	rows, err := q.QueryContext(ctx, query, uuidArray(postIDs))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", kind.table, err)
	}
	defer rows.Close()

	var out []taxonomyRow
	for rows.Next() {
		var r taxonomyRow
		if err := rows.Scan(&r.postID, &r.id, &r.name, &r.slug, &r.created); err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind.singular, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// attachTaxonomy fills Tags and Categories on every post in place.
func attachTaxonomy(ctx context.Context, q querier, posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}

	index := make(map[uuid.UUID]*models.Post, len(posts))
	ids := make([]uuid.UUID, len(posts))
	for i := range posts {
		posts[i].Tags = []models.Tag{}
		posts[i].Categories = []models.Category{}
		index[posts[i].ID] = &posts[i]
		ids[i] = posts[i].ID
	}

	tags, err := loadLinked(ctx, q, tagTaxonomy, ids)
	if err != nil {
		return err
	}
	for _, r := range tags {
		if p := index[r.postID]; p != nil {
			p.Tags = append(p.Tags, models.Tag{ID: r.id, Name: r.name, Slug: r.slug, CreatedAt: r.created})
		}
	}

	cats, err := loadLinked(ctx, q, categoryTaxonomy, ids)
	if err != nil {
		return err
	}
	for _, r := range cats {
		if p := index[r.postID]; p != nil {
			p.Categories = append(p.Categories, models.Category{ID: r.id, Name: r.name, Slug: r.slug, CreatedAt: r.created})
		}
	}
	return nil
}

// slugFilter builds an EXISTS clause restricting posts to those linked to
// kind with the given slug. arg is the placeholder index for the slug.
func slugFilter(kind taxonomy, arg int) string {
	return strings.TrimSpace(fmt.Sprintf(`
		EXISTS (SELECT 1 FROM %s l JOIN %s x ON x.id = l.%s
		        WHERE l.post_id = p.id AND x.slug = $%d)`, kind.link, kind.table, kind.foreign, arg))
}
