// ABOUTME: Vector store on PostgreSQL with the pgvector extension
// ABOUTME: One table per collection with a vector(n) column and an HNSW cosine index
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pgvector/pgvector-go"

	"github.com/harper/multimodal-rag/internal/errs"
	"github.com/harper/multimodal-rag/internal/models"
	"github.com/harper/multimodal-rag/internal/storage/vecmath"
)

// Store is a single pgvector-backed collection
type Store struct {
	db         *sql.DB
	collection string
	table      string
	dim        int
	logger     *log.Logger
}

// Open connects to the database at dsn and makes sure the vector extension is installed
func Open(ctx context.Context, dsn, collection string, dim int, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.Default()
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errs.E("postgres connect", errs.ErrVectorStoreUnavailable, err)
	}
	if _, err := db.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable vector extension: %w", err)
	}

	return &Store{
		db:         db,
		collection: collection,
		table:      pgx.Identifier{collection}.Sanitize(),
		dim:        dim,
		logger:     logger,
	}, nil
}

// classify tags connection failures as vector store unavailability
func classify(op string, err error) error {
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) {
		return errs.E(op, errs.ErrVectorStoreUnavailable, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// dimension returns the embedding column size, or 0 when the table does not exist
func (s *Store) dimension(ctx context.Context, q querier) (int, error) {
	var dim int
	err := q.QueryRowContext(ctx, `
		SELECT a.atttypmod
		FROM pg_attribute a
		WHERE a.attrelid = to_regclass($1) AND a.attname = 'embedding' AND NOT a.attisdropped
	`, s.table).Scan(&dim)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, classify("read collection dimension", err)
	}
	return dim, nil
}

// State reports whether the collection exists and matches the configured dimension
func (s *Store) State(ctx context.Context) (models.CollectionState, error) {
	dim, err := s.dimension(ctx, s.db)
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

// EnsureCollection creates the collection table when it is absent
func (s *Store) EnsureCollection(ctx context.Context) error {
	dim, err := s.dimension(ctx, s.db)
	if err != nil {
		return err
	}
	if dim != 0 {
		return nil
	}
	return s.create(ctx, s.db, s.dim)
}

func (s *Store) create(ctx context.Context, q querier, dim int) error {
	index := pgx.Identifier{s.collection + "_embedding_idx"}.Sanitize()
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			seq BIGSERIAL PRIMARY KEY,
			id TEXT UNIQUE NOT NULL,
			content TEXT NOT NULL,
			payload JSONB NOT NULL DEFAULT '{}',
			embedding vector(%d) NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`, s.table, dim),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding vector_cosine_ops)`, index, s.table),
	}
	for _, stmt := range statements {
		if _, err := q.ExecContext(ctx, stmt); err != nil {
			return classify("create collection", err)
		}
	}
	s.logger.Info("created collection", "collection", s.collection, "dimension", dim)
	return nil
}

// Upsert writes chunk vectors in one transaction, replacing rows with the same ID
func (s *Store) Upsert(ctx context.Context, chunks []models.Chunk, vectors [][]float32, forceRecreate bool) error {
	dim, err := vecmath.BatchDimension(len(chunks), vectors)
	if err != nil {
		return fmt.Errorf("failed to upsert into %s: %w", s.collection, err)
	}
	if dim == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify("begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	existing, err := s.dimension(ctx, tx)
	if err != nil {
		return err
	}
	switch {
	case existing == 0:
		if err := s.create(ctx, tx, dim); err != nil {
			return err
		}
	case existing != dim && !forceRecreate:
		return &errs.DimensionMismatchError{Collection: s.collection, Existing: existing, Requested: dim}
	case existing != dim:
		s.logger.Warn("recreating collection with new dimension; all indexed data is deleted",
			"collection", s.collection, "existing", existing, "requested", dim)
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, s.table)); err != nil {
			return classify("drop collection", err)
		}
		if err := s.create(ctx, tx, dim); err != nil {
			return err
		}
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, content, payload, embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			payload = EXCLUDED.payload,
			embedding = EXCLUDED.embedding
	`, s.table))
	if err != nil {
		return classify("prepare insert", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, chunk := range chunks {
		payload, err := json.Marshal(chunk.Metadata.ToPayload())
		if err != nil {
			return fmt.Errorf("failed to encode payload for %s: %w", chunk.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.Content, string(payload), pgvector.NewVector(vectors[i])); err != nil {
			return classify("insert record", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return classify("commit upsert", err)
	}
	return nil
}

// Search returns the k nearest rows by cosine distance; ties keep insertion order
func (s *Store) Search(ctx context.Context, vector []float32, k int) (models.RetrievalResult, error) {
	if k <= 0 {
		return models.RetrievalResult{}, nil
	}
	existing, err := s.dimension(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if existing == 0 {
		return models.RetrievalResult{}, nil
	}
	if len(vector) != existing {
		return nil, &errs.DimensionMismatchError{Collection: s.collection, Existing: existing, Requested: len(vector)}
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, content, payload, 1 - (embedding <=> $1) AS score
		FROM %s
		ORDER BY embedding <=> $1, seq
		LIMIT $2
	`, s.table), pgvector.NewVector(vector), k)
	if err != nil {
		return nil, classify("query records", err)
	}
	defer func() { _ = rows.Close() }()

	results := models.RetrievalResult{}
	for rows.Next() {
		var (
			id, content string
			payload     []byte
			score       float64
		)
		if err := rows.Scan(&id, &content, &payload, &score); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		var fields map[string]any
		if err := json.Unmarshal(payload, &fields); err != nil {
			return nil, fmt.Errorf("failed to decode payload for %s: %w", id, err)
		}
		results = append(results, models.ScoredChunk{
			Chunk: models.Chunk{ID: id, Content: content, Metadata: models.MetadataFromPayload(fields)},
			Score: score,
		})
	}
	return results, rows.Err()
}

// DeleteCollection drops the collection table; absent tables are ignored
func (s *Store) DeleteCollection(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, s.table)); err != nil {
		return classify("drop collection", err)
	}
	return nil
}

// Close closes the connection pool
func (s *Store) Close() error {
	return s.db.Close()
}
