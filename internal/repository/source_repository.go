package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"jobscout/internal/database"
)

// JobContent is the embeddable part of a job posting.
type JobContent struct {
	ID               uuid.UUID
	Title            string
	Company          string
	Location         string
	Description      string
	Requirements     []string
	Responsibilities []string
}

type ResumeContent struct {
	OwnerID  uuid.UUID
	RawText  string
	ParsedAt time.Time
}

type JobSourceRepository interface {
	FindJob(ctx context.Context, jobID uuid.UUID) (*JobContent, error)
	ListActiveJobIDs(ctx context.Context, limit, offset int) ([]uuid.UUID, error)
}

type ResumeSourceRepository interface {
	FindResume(ctx context.Context, ownerID uuid.UUID) (*ResumeContent, error)
	SaveResume(ctx context.Context, r ResumeContent) error
	DeleteResume(ctx context.Context, ownerID uuid.UUID) error
	ListResumeOwnerIDs(ctx context.Context, limit, offset int) ([]uuid.UUID, error)
}

type PostgresSourceRepository struct {
	db database.DB
}

func NewPostgresSourceRepository(db database.DB) *PostgresSourceRepository {
	return &PostgresSourceRepository{db: db}
}

func (r *PostgresSourceRepository) FindJob(ctx context.Context, jobID uuid.UUID) (*JobContent, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, title, company, location, description, requirements, responsibilities
		 FROM jobs
		 WHERE id = $1`,
		jobID,
	)

	var j JobContent
	if err := row.Scan(&j.ID, &j.Title, &j.Company, &j.Location, &j.Description, &j.Requirements, &j.Responsibilities); err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, persistenceErr("find job", err)
	}
	return &j, nil
}

func (r *PostgresSourceRepository) ListActiveJobIDs(ctx context.Context, limit, offset int) ([]uuid.UUID, error) {
	limit, offset = clampPage(limit, offset)
	return r.listIDs(ctx, "list jobs",
		`SELECT id FROM jobs WHERE is_active = true ORDER BY id ASC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
}

func (r *PostgresSourceRepository) FindResume(ctx context.Context, ownerID uuid.UUID) (*ResumeContent, error) {
	row := r.db.QueryRow(ctx,
		`SELECT owner_id, raw_text, parsed_at FROM resumes WHERE owner_id = $1`,
		ownerID,
	)

	var c ResumeContent
	if err := row.Scan(&c.OwnerID, &c.RawText, &c.ParsedAt); err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, persistenceErr("find resume", err)
	}
	return &c, nil
}

func (r *PostgresSourceRepository) SaveResume(ctx context.Context, c ResumeContent) error {
	if c.ParsedAt.IsZero() {
		c.ParsedAt = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO resumes (owner_id, raw_text, parsed_at, updated_at)
		 VALUES ($1, $2, $3, $3)
		 ON CONFLICT (owner_id) DO UPDATE SET
			raw_text = EXCLUDED.raw_text,
			parsed_at = EXCLUDED.parsed_at,
			updated_at = EXCLUDED.updated_at`,
		c.OwnerID, c.RawText, c.ParsedAt,
	)
	return persistenceErr("save resume", err)
}

func (r *PostgresSourceRepository) DeleteResume(ctx context.Context, ownerID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM resumes WHERE owner_id = $1`, ownerID)
	return persistenceErr("delete resume", err)
}

func (r *PostgresSourceRepository) ListResumeOwnerIDs(ctx context.Context, limit, offset int) ([]uuid.UUID, error) {
	limit, offset = clampPage(limit, offset)
	return r.listIDs(ctx, "list resumes",
		`SELECT owner_id FROM resumes ORDER BY owner_id ASC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
}

func (r *PostgresSourceRepository) listIDs(ctx context.Context, op, query string, args ...any) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, persistenceErr(op, err)
	}
	defer rows.Close()

	out := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, persistenceErr(op, err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceErr(op, err)
	}
	return out, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 200
	}
	if limit > 5000 {
		limit = 5000
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
