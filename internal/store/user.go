// Package store provides database access methods for all inkpress
// entities. Each store struct wraps a *sql.DB and exposes typed query methods.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"inkpress/internal/models"
)

const userColumns = `id, auth_id, email, name, bio, avatar, can_publish, is_admin, created_at, updated_at`

// UserStore handles all user-related database operations.
type UserStore struct {
	db *sql.DB
}

// NewUserStore creates a new UserStore with the given database connection.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }, u *models.User) error {
	return scanner.Scan(
		&u.ID, &u.AuthID, &u.Email, &u.Name, &u.Bio, &u.Avatar,
		&u.CanPublish, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt,
	)
}

// NewUser is the data used to create the local mirror of a provider
// identity on first sync.
type NewUser struct {
	AuthID     string
	Email      string
	Name       string
	Avatar     *string
	CanPublish bool
	IsAdmin    bool
}

// Sync inserts the user or, if one with the same auth id exists, refreshes
// only its email. Name, avatar and permission flags of an existing user are
// never touched.
func (s *UserStore) Sync(ctx context.Context, nu NewUser) (*models.User, error) {
	u := &models.User{}
	err := scanUser(s.db.QueryRowContext(ctx, `
		INSERT INTO users (auth_id, email, name, avatar, can_publish, is_admin)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (auth_id) DO UPDATE SET email = EXCLUDED.email, updated_at = NOW()
		RETURNING `+userColumns,
		nu.AuthID, nu.Email, nu.Name, nu.Avatar, nu.CanPublish, nu.IsAdmin), u)
	if err != nil {
		return nil, fmt.Errorf("sync user: %w", err)
	}
	return u, nil
}

// FindByAuthID retrieves a user by the provider's identity id. Returns nil
// if not found.
func (s *UserStore) FindByAuthID(ctx context.Context, authID string) (*models.User, error) {
	u := &models.User{}
	err := scanUser(s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE auth_id = $1
	`, authID), u)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by auth id: %w", err)
	}
	return u, nil
}

// FindByID retrieves a user by their UUID. Returns nil if not found.
func (s *UserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u := &models.User{}
	err := scanUser(s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE id = $1
	`, id), u)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

// List returns all users newest first, with the number of live posts they
// authored and comics they generated.
func (s *UserStore) List(ctx context.Context) ([]models.UserSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.auth_id, u.email, u.name, u.bio, u.avatar, u.can_publish, u.is_admin,
		       u.created_at, u.updated_at,
		       (SELECT COUNT(*) FROM posts p WHERE p.author_id = u.id AND p.deleted_at IS NULL),
		       (SELECT COUNT(*) FROM comics c WHERE c.author_id = u.id)
		FROM users u
		ORDER BY u.created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []models.UserSummary{}
	for rows.Next() {
		var us models.UserSummary
		if err := rows.Scan(
			&us.ID, &us.AuthID, &us.Email, &us.Name, &us.Bio, &us.Avatar,
			&us.CanPublish, &us.IsAdmin, &us.CreatedAt, &us.UpdatedAt,
			&us.PostCount, &us.ComicCount,
		); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, us)
	}
	return users, rows.Err()
}

// UpdateFlags sets the permission flags that are non-nil in f. Returns
// ErrNotFound if the user doesn't exist.
func (s *UserStore) UpdateFlags(ctx context.Context, id uuid.UUID, f models.UserFlags) (*models.User, error) {
	u := &models.User{}
	err := scanUser(s.db.QueryRowContext(ctx, `
		UPDATE users SET
			can_publish = COALESCE($2, can_publish),
			is_admin = COALESCE($3, is_admin),
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns,
		id, f.CanPublish, f.IsAdmin), u)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update user flags: %w", err)
	}
	return u, nil
}

// UpdateProfile applies the non-nil fields of p to the user's profile.
// Returns ErrNotFound if the user doesn't exist.
func (s *UserStore) UpdateProfile(ctx context.Context, id uuid.UUID, p models.ProfilePatch) (*models.User, error) {
	u := &models.User{}
	err := scanUser(s.db.QueryRowContext(ctx, `
		UPDATE users SET
			name = COALESCE($2, name),
			bio = COALESCE($3, bio),
			avatar = COALESCE($4, avatar),
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns,
		id, p.Name, p.Bio, p.Avatar), u)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update user profile: %w", err)
	}
	return u, nil
}

// Delete removes a user by ID. Their posts keep existing without an
// author; their comics go with them. Returns ErrNotFound if nothing was
// deleted.
func (s *UserStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return affected(res)
}
