package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned by mutations whose target row does not exist
	// or has been soft-deleted. Lookups return (nil, nil) instead.
	ErrNotFound = errors.New("store: not found")

	// ErrConflict is returned when a conditional update loses a race: the
	// row exists but no longer matches the expected state.
	ErrConflict = errors.New("store: conflict")
)

// querier is satisfied by both *sql.DB and *sql.Tx so helpers can run
// inside or outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CleanNames trims every name and drops the ones left empty. Order and
// duplicates are preserved.
func CleanNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// uuidArray adapts a list of ids to a Postgres uuid[] parameter. The value
// is sent as a text array, so queries cast it with $n::uuid[].
func uuidArray(ids []uuid.UUID) any {
	s := make([]string, len(ids))
	for i, id := range ids {
		s[i] = id.String()
	}
	return pq.Array(s)
}

// affected reports ErrNotFound when an UPDATE/DELETE touched no rows.
func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
