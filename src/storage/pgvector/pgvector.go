package pgvector

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgv "github.com/pgvector/pgvector-go"
	pgvectorpgx "github.com/pgvector/pgvector-go/pgx"

	"raglayer/src/core/collection"
)

const DefaultQueryLimit = 20

// Store implements collection.VectorStore on Postgres with the pgvector
// extension. Each collection maps to one table of chunk rows with an
// embedding column. Hybrid queries are not supported; callers merge
// keyword hits instead.
type Store struct {
	pool       *pgxpool.Pool
	dimensions int
}

// NewStore connects a pool with pgvector types registered on every
// connection. dimensions fixes the embedding column width for new tables.
func NewStore(ctx context.Context, connString string, dimensions int) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgvectorpgx.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	return &Store{pool: pool, dimensions: dimensions}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// Ping checks database reachability
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// tableName lowercases the canonical index name for Postgres
func tableName(index string) string {
	return strings.ToLower(index)
}

func (s *Store) EnsureIndex(ctx context.Context, index string) error {
	if _, err := s.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to ensure vector extension: %w", err)
	}

	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id bigserial PRIMARY KEY,
		document_id bigint NOT NULL,
		chunk_id bigint NOT NULL,
		chunk_order int NOT NULL,
		content text NOT NULL,
		summary text NOT NULL DEFAULT '',
		embedding vector(%d) NOT NULL
	)`, tableName(index), s.dimensions)
	if _, err := s.pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create table for %s: %w", index, err)
	}

	return nil
}

func (s *Store) DeleteIndex(ctx context.Context, index string) error {
	stmt := fmt.Sprintf("DROP TABLE IF EXISTS %s", tableName(index))
	if _, err := s.pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("failed to drop table for %s: %w", index, err)
	}
	return nil
}

func (s *Store) AddBatch(ctx context.Context, index string, objects []collection.VectorObject) error {
	if len(objects) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	stmt := fmt.Sprintf(`INSERT INTO %s (document_id, chunk_id, chunk_order, content, summary, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)`, tableName(index))
	for _, obj := range objects {
		batch.Queue(stmt, obj.DocumentID, obj.ChunkID, obj.Order, obj.Content, obj.Summary, pgv.NewVector(obj.Vector))
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range objects {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert vectors: %w", err)
		}
	}

	return nil
}

func (s *Store) RemoveDocument(ctx context.Context, index string, documentID int64) error {
	stmt := fmt.Sprintf("DELETE FROM %s WHERE document_id = $1", tableName(index))
	if _, err := s.pool.Exec(ctx, stmt, documentID); err != nil {
		return fmt.Errorf("failed to remove document %d: %w", documentID, err)
	}
	return nil
}

func (s *Store) Count(ctx context.Context, index string) (int, error) {
	var count int
	stmt := fmt.Sprintf("SELECT count(*) FROM %s", tableName(index))
	if err := s.pool.QueryRow(ctx, stmt).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", index, err)
	}
	return count, nil
}

// Query orders by cosine distance and reports 1-distance as the score so
// results rank the same way as certainty-scored backends.
func (s *Store) Query(ctx context.Context, index string, vector []float32, q collection.VectorQuery) ([]collection.VectorHit, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	var sb strings.Builder
	args := []interface{}{pgv.NewVector(vector)}
	fmt.Fprintf(&sb, `SELECT content, summary, document_id, chunk_id, chunk_order,
		1 - (embedding <=> $1) AS score FROM %s`, tableName(index))

	if len(q.DocumentIDs) > 0 {
		args = append(args, q.DocumentIDs)
		fmt.Fprintf(&sb, " WHERE document_id = ANY($%d)", len(args))
	}

	args = append(args, limit)
	fmt.Fprintf(&sb, " ORDER BY embedding <=> $1 LIMIT $%d", len(args))

	rows, err := s.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query vectors: %w", err)
	}
	defer rows.Close()

	var hits []collection.VectorHit
	for rows.Next() {
		var hit collection.VectorHit
		if err := rows.Scan(&hit.Content, &hit.Summary, &hit.DocumentID, &hit.ChunkID, &hit.Order, &hit.Score); err != nil {
			return nil, fmt.Errorf("failed to scan hit: %w", err)
		}
		if q.Certainty > 0 && hit.Score < q.Certainty {
			continue
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read hits: %w", err)
	}

	return hits, nil
}

// QueryHybrid is not available on pgvector
func (s *Store) QueryHybrid(ctx context.Context, index string, vector []float32, q collection.HybridQuery) ([]collection.VectorHit, error) {
	return nil, collection.ErrHybridUnsupported
}
