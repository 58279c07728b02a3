package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"jobscout/internal/database"
	"jobscout/internal/domain/embedding"
)

type EmbeddingRepository interface {
	FindByOwner(ctx context.Context, kind embedding.OwnerKind, ownerID uuid.UUID) (*embedding.Record, error)
	ListByKind(ctx context.Context, kind embedding.OwnerKind) ([]embedding.Record, error)
	// Upsert writes vector and hash together. It reports false when the stored
	// hash already equals rec.ContentHash and nothing was written.
	Upsert(ctx context.Context, rec embedding.Record, model string) (bool, error)
	DeleteByOwner(ctx context.Context, kind embedding.OwnerKind, ownerID uuid.UUID) (bool, error)
}

type PostgresEmbeddingRepository struct {
	db database.DB
}

func NewPostgresEmbeddingRepository(db database.DB) *PostgresEmbeddingRepository {
	return &PostgresEmbeddingRepository{db: db}
}

func (r *PostgresEmbeddingRepository) FindByOwner(ctx context.Context, kind embedding.OwnerKind, ownerID uuid.UUID) (*embedding.Record, error) {
	row := r.db.QueryRow(ctx,
		`SELECT owner_kind, owner_id, embedding, content_hash, updated_at
		 FROM entity_embeddings
		 WHERE owner_kind = $1 AND owner_id = $2`,
		string(kind), ownerID,
	)

	rec, err := scanEmbedding(row)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, persistenceErr("find embedding", err)
	}
	return rec, nil
}

func (r *PostgresEmbeddingRepository) ListByKind(ctx context.Context, kind embedding.OwnerKind) ([]embedding.Record, error) {
	rows, err := r.db.Query(ctx,
		`SELECT owner_kind, owner_id, embedding, content_hash, updated_at
		 FROM entity_embeddings
		 WHERE owner_kind = $1
		 ORDER BY owner_id ASC`,
		string(kind),
	)
	if err != nil {
		return nil, persistenceErr("list embeddings", err)
	}
	defer rows.Close()

	out := make([]embedding.Record, 0)
	for rows.Next() {
		rec, err := scanEmbedding(rows)
		if err != nil {
			return nil, persistenceErr("scan embedding", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceErr("list embeddings", err)
	}
	return out, nil
}

func (r *PostgresEmbeddingRepository) Upsert(ctx context.Context, rec embedding.Record, model string) (bool, error) {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}

	n, err := r.db.Exec(ctx,
		`INSERT INTO entity_embeddings (owner_kind, owner_id, embedding, dimension, content_hash, model, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (owner_kind, owner_id) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			dimension = EXCLUDED.dimension,
			content_hash = EXCLUDED.content_hash,
			model = EXCLUDED.model,
			updated_at = EXCLUDED.updated_at
		 WHERE entity_embeddings.content_hash IS DISTINCT FROM EXCLUDED.content_hash`,
		string(rec.OwnerKind),
		rec.OwnerID,
		pgvector.NewVector(rec.Vector),
		len(rec.Vector),
		rec.ContentHash,
		model,
		rec.UpdatedAt,
	)
	if err != nil {
		return false, persistenceErr("upsert embedding", err)
	}
	return n > 0, nil
}

func (r *PostgresEmbeddingRepository) DeleteByOwner(ctx context.Context, kind embedding.OwnerKind, ownerID uuid.UUID) (bool, error) {
	n, err := r.db.Exec(ctx,
		`DELETE FROM entity_embeddings WHERE owner_kind = $1 AND owner_id = $2`,
		string(kind), ownerID,
	)
	if err != nil {
		return false, persistenceErr("delete embedding", err)
	}
	return n > 0, nil
}

func scanEmbedding(row database.Row) (*embedding.Record, error) {
	var (
		kind string
		rec  embedding.Record
		vec  pgvector.Vector
	)
	if err := row.Scan(&kind, &rec.OwnerID, &vec, &rec.ContentHash, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	rec.OwnerKind = embedding.OwnerKind(kind)
	rec.Vector = vec.Slice()
	return &rec, nil
}
