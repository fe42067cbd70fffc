package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"inkpress/internal/slug"
)

// defaultCategories are created on an empty development database so the
// editor has something to pick from.
var defaultCategories = []string{"Notes", "Tech", "AI"}

// Seed populates an empty development database. It only inserts
// categories, and only when there are none; users come from auth sync.
func Seed(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM categories").Scan(&count); err != nil {
		return fmt.Errorf("seed check categories: %w", err)
	}
	if count > 0 {
		slog.Debug("categories present, seed skipped", "count", count)
		return nil
	}

	for _, name := range defaultCategories {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO categories (name, slug) VALUES ($1, $2)
			ON CONFLICT (name) DO NOTHING
		`, name, slug.Generate(name))
		if err != nil {
			return fmt.Errorf("seed insert category %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}
	slog.Info("database seeded with default categories", "count", len(defaultCategories))
	return nil
}
