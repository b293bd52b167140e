// ABOUTME: Embedded vector store on SQLite implementing the collection operations
// ABOUTME: Vectors are float32 BLOBs; search is a cosine scan over one collection
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/harper/multimodal-rag/internal/errs"
	"github.com/harper/multimodal-rag/internal/models"
	"github.com/harper/multimodal-rag/internal/storage/vecmath"
)

// Store is a single collection inside a SQLite database
type Store struct {
	db         *DB
	collection string
	dim        int
	ownsDB     bool
	logger     *log.Logger
}

// NewStore binds a collection in db. The store does not close db.
func NewStore(db *DB, collection string, dim int, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{db: db, collection: collection, dim: dim, logger: logger}
}

// OpenStore opens the database at path and binds a collection; Close closes the database
func OpenStore(ctx context.Context, path, collection string, dim int, logger *log.Logger) (*Store, error) {
	db, err := Open(ctx, path)
	if err != nil {
		return nil, err
	}
	s := NewStore(db, collection, dim, logger)
	s.ownsDB = true
	return s, nil
}

// dimension returns the stored dimension of the collection, or 0 when it does not exist
func (s *Store) dimension(ctx context.Context, q querier) (int, error) {
	var dim int
	err := q.QueryRowContext(ctx, `SELECT dimension FROM collections WHERE name = ?`, s.collection).Scan(&dim)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read collection %s: %w", s.collection, err)
	}
	return dim, nil
}

// querier is satisfied by *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// State reports whether the collection exists and matches the configured dimension
func (s *Store) State(ctx context.Context) (models.CollectionState, error) {
	dim, err := s.dimension(ctx, s.db.conn)
	if err != nil {
		return models.CollectionAbsent, err
	}
	switch {
	case dim == 0:
		return models.CollectionAbsent, nil
	case dim != s.dim:
		return models.CollectionIncompatible, nil
	default:
		return models.CollectionCompatible, nil
	}
}

// EnsureCollection creates the collection when it is absent
func (s *Store) EnsureCollection(ctx context.Context) error {
	_, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO collections (name, dimension) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`,
		s.collection, s.dim)
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", s.collection, err)
	}
	return nil
}

// Upsert writes chunk vectors in one transaction, replacing records with the same ID
func (s *Store) Upsert(ctx context.Context, chunks []models.Chunk, vectors [][]float32, forceRecreate bool) error {
	dim, err := vecmath.BatchDimension(len(chunks), vectors)
	if err != nil {
		return fmt.Errorf("failed to upsert into %s: %w", s.collection, err)
	}
	if dim == 0 {
		return nil
	}

	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	existing, err := s.dimension(ctx, tx)
	if err != nil {
		return err
	}

	switch {
	case existing == 0:
		if err := s.createCollection(ctx, tx, dim); err != nil {
			return err
		}
	case existing != dim && !forceRecreate:
		return &errs.DimensionMismatchError{Collection: s.collection, Existing: existing, Requested: dim}
	case existing != dim:
		s.logger.Warn("recreating collection with new dimension; all indexed data is deleted",
			"collection", s.collection, "existing", existing, "requested", dim)
		if err := s.dropCollection(ctx, tx); err != nil {
			return err
		}
		if err := s.createCollection(ctx, tx, dim); err != nil {
			return err
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (collection, id, content, payload, vector)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			content = excluded.content,
			payload = excluded.payload,
			vector = excluded.vector
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, chunk := range chunks {
		payload, err := json.Marshal(chunk.Metadata.ToPayload())
		if err != nil {
			return fmt.Errorf("failed to encode payload for %s: %w", chunk.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, s.collection, chunk.ID, chunk.Content, string(payload), vecmath.ToBlob(vectors[i])); err != nil {
			return fmt.Errorf("failed to insert record %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit upsert: %w", err)
	}
	return nil
}

func (s *Store) createCollection(ctx context.Context, q querier, dim int) error {
	if _, err := q.ExecContext(ctx, `INSERT INTO collections (name, dimension) VALUES (?, ?)`, s.collection, dim); err != nil {
		return fmt.Errorf("failed to create collection %s: %w", s.collection, err)
	}
	return nil
}

func (s *Store) dropCollection(ctx context.Context, q querier) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM records WHERE collection = ?`, s.collection); err != nil {
		return fmt.Errorf("failed to delete records of %s: %w", s.collection, err)
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, s.collection); err != nil {
		return fmt.Errorf("failed to delete collection %s: %w", s.collection, err)
	}
	return nil
}

// Search performs cosine similarity search; ties keep insertion order
func (s *Store) Search(ctx context.Context, vector []float32, k int) (models.RetrievalResult, error) {
	if k <= 0 {
		return models.RetrievalResult{}, nil
	}
	existing, err := s.dimension(ctx, s.db.conn)
	if err != nil {
		return nil, err
	}
	if existing == 0 {
		return models.RetrievalResult{}, nil
	}
	if len(vector) != existing {
		return nil, &errs.DimensionMismatchError{Collection: s.collection, Existing: existing, Requested: len(vector)}
	}

	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT id, content, payload, vector
		FROM records
		WHERE collection = ?
		ORDER BY seq ASC
	`, s.collection)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := models.RetrievalResult{}
	for rows.Next() {
		var (
			id, content, payload string
			blob                 []byte
		)
		if err := rows.Scan(&id, &content, &payload, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}

		var fields map[string]any
		if err := json.Unmarshal([]byte(payload), &fields); err != nil {
			return nil, fmt.Errorf("failed to decode payload for %s: %w", id, err)
		}
		chunk := models.Chunk{ID: id, Content: content, Metadata: models.MetadataFromPayload(fields)}
		results = append(results, models.ScoredChunk{Chunk: chunk, Score: vecmath.Cosine(vector, vecmath.FromBlob(blob))})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// DeleteCollection removes the collection and its records; absent collections are ignored
func (s *Store) DeleteCollection(ctx context.Context) error {
	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.dropCollection(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Count returns the number of records in the collection
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM records WHERE collection = ?`, s.collection).Scan(&n)
	return n, err
}

// Close closes the database when the store opened it
func (s *Store) Close() error {
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}
