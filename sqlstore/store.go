package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/viant/lookalike/embedding"
	"github.com/viant/lookalike/rank"
	"github.com/viant/lookalike/vector"
)

// Store is a SQLite-backed embedding table.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New creates a Store and ensures its schema exists.
func New(ctx context.Context, db *sql.DB) (*Store, error) {
	if err := EnsureSchema(ctx, db); err != nil {
		return nil, err
	}
	return &Store{db: db, now: time.Now}, nil
}

// Save replaces the whole table with the contents of store in one
// transaction.
func (s *Store) Save(ctx context.Context, store *embedding.Store) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM embeddings`); err != nil {
		return fmt.Errorf("sqlstore: clear: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO embeddings(id, dim, embedding, updated_at) VALUES(?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("sqlstore: prepare insert: %w", err)
	}
	defer stmt.Close()

	updated := s.now().UnixMilli()
	store.Range(func(id string, vec []float32) bool {
		var blob []byte
		if blob, err = vector.EncodeEmbedding(vec); err != nil {
			return false
		}
		if _, err = stmt.ExecContext(ctx, id, len(vec), blob, updated); err != nil {
			err = fmt.Errorf("sqlstore: insert %q: %w", id, err)
			return false
		}
		return true
	})
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: commit: %w", err)
	}
	return nil
}

// Upsert inserts or replaces one embedding. It fails with
// *vector.DimensionMismatchError when the table holds vectors of another
// dimension.
func (s *Store) Upsert(ctx context.Context, id string, vec []float32) error {
	if id == "" {
		return embedding.ErrInvalidID
	}
	if len(vec) == 0 {
		return embedding.ErrEmptyVector
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var dim int
	err = tx.QueryRowContext(ctx, `SELECT dim FROM embeddings WHERE id <> ? LIMIT 1`, id).Scan(&dim)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("sqlstore: read dim: %w", err)
	case dim != len(vec):
		return &vector.DimensionMismatchError{Expected: dim, Actual: len(vec)}
	}
	blob, err := vector.EncodeEmbedding(vec)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO embeddings(id, dim, embedding, updated_at) VALUES(?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET dim = excluded.dim, embedding = excluded.embedding, updated_at = excluded.updated_at`,
		id, len(vec), blob, s.now().UnixMilli()); err != nil {
		return fmt.Errorf("sqlstore: upsert %q: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: commit: %w", err)
	}
	return nil
}

// Remove deletes id and reports whether it existed.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, embedding.ErrInvalidID
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM embeddings WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("sqlstore: remove %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlstore: remove %q: %w", id, err)
	}
	return n > 0, nil
}

// Count returns the number of stored embeddings.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM embeddings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlstore: count: %w", err)
	}
	return n, nil
}

// Load reads every row into a new, unfrozen embedding store.
func (s *Store) Load(ctx context.Context) (*embedding.Store, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, dim, embedding FROM embeddings ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: load: %w", err)
	}
	defer rows.Close()

	store := embedding.NewStore()
	for rows.Next() {
		var (
			id   string
			dim  int
			blob []byte
		)
		if err := rows.Scan(&id, &dim, &blob); err != nil {
			return nil, fmt.Errorf("sqlstore: scan: %w", err)
		}
		vec, err := vector.DecodeEmbeddingDim(blob, dim)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: row %q: %w", id, err)
		}
		if err := store.Put(id, vec); err != nil {
			return nil, fmt.Errorf("sqlstore: row %q: %w", id, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: load: %w", err)
	}
	return store, nil
}

// Nearest ranks the stored embeddings against queryID inside SQLite with the
// same ordering, exclusion and policy rules as rank.Rank.
func (s *Store) Nearest(ctx context.Context, queryID string, k int, policy rank.Policy) (*rank.Result, error) {
	if k <= 0 {
		return nil, rank.ErrInvalidK
	}
	var query []byte
	err := s.db.QueryRowContext(ctx, `SELECT embedding FROM embeddings WHERE id = ?`, queryID).Scan(&query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &embedding.NotFoundError{ID: queryID}
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: query %q: %w", queryID, err)
	}
	total, err := s.Count(ctx)
	if err != nil {
		return nil, err
	}
	candidates := total - 1
	if k > candidates && candidates > 0 && policy == rank.Strict {
		return nil, &rank.InsufficientDataError{Requested: k, Available: candidates}
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, vec_l2(embedding, ?) AS d
		FROM embeddings WHERE id <> ?
		ORDER BY d, id LIMIT ?`, query, queryID, k)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: nearest: %w", err)
	}
	defer rows.Close()

	result := &rank.Result{QueryID: queryID, Neighbors: []rank.Neighbor{}, Candidates: candidates, Requested: k, Clamped: k > candidates}
	for rows.Next() {
		var n rank.Neighbor
		if err := rows.Scan(&n.ID, &n.Distance); err != nil {
			return nil, fmt.Errorf("sqlstore: scan: %w", err)
		}
		result.Neighbors = append(result.Neighbors, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: nearest: %w", err)
	}
	return result, nil
}
