// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"inkpress/internal/models"
)

const aiGenerationColumns = `id, title, ai_tool, prompt, input_params, output, tags, deleted_at, created_at, updated_at`

// AIGenerationStore handles the AI showcase entries.
type AIGenerationStore struct {
	db *sql.DB
}

// NewAIGenerationStore creates a new AIGenerationStore.
func NewAIGenerationStore(db *sql.DB) *AIGenerationStore {
	return &AIGenerationStore{db: db}
}

// AIGenerationInput holds the writable fields of an entry.
type AIGenerationInput struct {
	Title       string
	AITool      string
	Prompt      string
	InputParams *string
	Output      string
	Tags        []string
}

func scanAIGeneration(scanner interface{ Scan(...any) error }) (*models.AIGeneration, error) {
	var g models.AIGeneration
	err := scanner.Scan(
		&g.ID, &g.Title, &g.AITool, &g.Prompt, &g.InputParams, &g.Output,
		pq.Array(&g.Tags), &g.DeletedAt, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if g.Tags == nil {
		g.Tags = []string{}
	}
	return &g, nil
}

// List returns live entries, newest first.
func (s *AIGenerationStore) List(ctx context.Context) ([]models.AIGeneration, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+aiGenerationColumns+`
		FROM ai_generations
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list ai generations: %w", err)
	}
	defer rows.Close()

	items := []models.AIGeneration{}
	for rows.Next() {
		g, err := scanAIGeneration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ai generation: %w", err)
		}
		items = append(items, *g)
	}
	return items, rows.Err()
}

// FindByID retrieves a live entry. Returns nil if not found.
func (s *AIGenerationStore) FindByID(ctx context.Context, id uuid.UUID) (*models.AIGeneration, error) {
	g, err := scanAIGeneration(s.db.QueryRowContext(ctx, `
		SELECT `+aiGenerationColumns+` FROM ai_generations
		WHERE id = $1 AND deleted_at IS NULL
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find ai generation by id: %w", err)
	}
	return g, nil
}

// Create inserts a new entry. Tags are trimmed and empty ones dropped.
func (s *AIGenerationStore) Create(ctx context.Context, in AIGenerationInput) (*models.AIGeneration, error) {
	g, err := scanAIGeneration(s.db.QueryRowContext(ctx, `
		INSERT INTO ai_generations (title, ai_tool, prompt, input_params, output, tags)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+aiGenerationColumns,
		in.Title, in.AITool, in.Prompt, in.InputParams, in.Output, pq.Array(CleanNames(in.Tags))))
	if err != nil {
		return nil, fmt.Errorf("create ai generation: %w", err)
	}
	return g, nil
}

// Update replaces all writable fields of a live entry. Returns ErrNotFound
// for unknown or deleted entries.
func (s *AIGenerationStore) Update(ctx context.Context, id uuid.UUID, in AIGenerationInput) (*models.AIGeneration, error) {
	g, err := scanAIGeneration(s.db.QueryRowContext(ctx, `
		UPDATE ai_generations SET
			title = $2, ai_tool = $3, prompt = $4, input_params = $5, output = $6, tags = $7,
			updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING `+aiGenerationColumns,
		id, in.Title, in.AITool, in.Prompt, in.InputParams, in.Output, pq.Array(CleanNames(in.Tags))))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update ai generation: %w", err)
	}
	return g, nil
}

// SoftDelete marks a live entry as deleted.
func (s *AIGenerationStore) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE ai_generations SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return fmt.Errorf("soft delete ai generation: %w", err)
	}
	return affected(res)
}
