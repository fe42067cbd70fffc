package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"inkpress/internal/models"
)

// RecentComicsLimit is how many comics ListByAuthor returns.
const RecentComicsLimit = 20

// ComicStore persists finished comics. Rows are never updated.
type ComicStore struct {
	db *sql.DB
}

// NewComicStore creates a new ComicStore.
func NewComicStore(db *sql.DB) *ComicStore {
	return &ComicStore{db: db}
}

func scanComic(scanner interface{ Scan(...any) error }) (*models.Comic, error) {
	var (
		c      models.Comic
		frames []byte
	)
	if err := scanner.Scan(
		&c.ID, &c.Title, &c.Story, &frames, &c.Model, &c.Style, &c.Ratio, &c.AuthorID, &c.CreatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(frames, &c.Frames); err != nil {
		return nil, fmt.Errorf("decode frames: %w", err)
	}
	return &c, nil
}

// Create inserts a finished comic and returns it with its id and timestamp.
func (s *ComicStore) Create(ctx context.Context, c *models.Comic) (*models.Comic, error) {
	frames := c.Frames
	if frames == nil {
		frames = []models.ComicFrame{}
	}
	raw, err := json.Marshal(frames)
	if err != nil {
		return nil, fmt.Errorf("encode frames: %w", err)
	}

	out, err := scanComic(s.db.QueryRowContext(ctx, `
		INSERT INTO comics (title, story, frames, model, style, ratio, author_id)
		VALUES ($1, $2, $3::jsonb, $4, $5, $6, $7)
		RETURNING id, title, story, frames, model, style, ratio, author_id, created_at
	`, c.Title, c.Story, string(raw), c.Model, c.Style, c.Ratio, c.AuthorID))
	if err != nil {
		return nil, fmt.Errorf("create comic: %w", err)
	}
	return out, nil
}

// ListByAuthor returns the author's most recent comics, newest first.
func (s *ComicStore) ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]models.Comic, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, story, frames, model, style, ratio, author_id, created_at
		FROM comics
		WHERE author_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, authorID, RecentComicsLimit)
	if err != nil {
		return nil, fmt.Errorf("list comics: %w", err)
	}
	defer rows.Close()

	comics := []models.Comic{}
	for rows.Next() {
		c, err := scanComic(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comic: %w", err)
		}
		comics = append(comics, *c)
	}
	return comics, rows.Err()
}
