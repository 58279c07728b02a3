package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"jobscout/internal/database"
	"jobscout/internal/domain/embedding"
	"jobscout/internal/domain/match"
)

type MatchUpsert struct {
	ResumeID        uuid.UUID
	JobID           uuid.UUID
	MatchScore      int
	SimilarityScore float64
	At              time.Time
}

type MatchQuery struct {
	OwnerKind embedding.OwnerKind
	OwnerID   uuid.UUID
	MinScore  int
	Limit     int
}

type MatchRepository interface {
	// Upsert refreshes the scores of a pair and never touches notified.
	Upsert(ctx context.Context, m MatchUpsert) (match.Record, error)
	FindForOwner(ctx context.Context, q MatchQuery) ([]match.Record, error)
	FindPair(ctx context.Context, pair match.Pair) (*match.Record, error)

	// Claim leases the unnotified, unclaimed (or lease-expired) pairs among
	// pairs and returns the ones this call won.
	Claim(ctx context.Context, claimID uuid.UUID, pairs []match.Pair, now time.Time, ttl time.Duration) ([]match.Record, error)
	MarkNotified(ctx context.Context, claimID uuid.UUID, pairs []match.Pair, at time.Time) (int64, error)
	ReleaseClaim(ctx context.Context, claimID uuid.UUID, pairs []match.Pair) error

	ListUnnotified(ctx context.Context, limit int) ([]match.Record, error)
	DeleteByOwner(ctx context.Context, kind embedding.OwnerKind, ownerID uuid.UUID) (int64, error)
}

const matchColumns = "id, resume_id, job_id, match_score, similarity_score, notified, notified_at, created_at, updated_at"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type PostgresMatchRepository struct {
	db database.DB
}

func NewPostgresMatchRepository(db database.DB) *PostgresMatchRepository {
	return &PostgresMatchRepository{db: db}
}

func (r *PostgresMatchRepository) Upsert(ctx context.Context, m MatchUpsert) (match.Record, error) {
	if m.ResumeID == uuid.Nil || m.JobID == uuid.Nil {
		return match.Record{}, persistenceErr("upsert match", fmt.Errorf("nil owner id"))
	}
	if m.At.IsZero() {
		m.At = time.Now().UTC()
	}

	// The fallback branch returns the untouched row when the scores were equal.
	row := r.db.QueryRow(ctx,
		`WITH up AS (
			INSERT INTO job_matches (id, resume_id, job_id, match_score, similarity_score, notified, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, false, $6, $6)
			ON CONFLICT (resume_id, job_id) DO UPDATE SET
				match_score = EXCLUDED.match_score,
				similarity_score = EXCLUDED.similarity_score,
				updated_at = EXCLUDED.updated_at
			WHERE (job_matches.match_score, job_matches.similarity_score)
				IS DISTINCT FROM (EXCLUDED.match_score, EXCLUDED.similarity_score)
			RETURNING `+matchColumns+`
		)
		SELECT `+matchColumns+` FROM up
		UNION ALL
		SELECT `+matchColumns+` FROM job_matches
		WHERE resume_id = $2 AND job_id = $3 AND NOT EXISTS (SELECT 1 FROM up)`,
		uuid.New(),
		m.ResumeID,
		m.JobID,
		m.MatchScore,
		m.SimilarityScore,
		m.At,
	)

	rec, err := scanMatch(row)
	if err != nil {
		if isNoRows(err) {
			// a concurrent writer committed the row after this statement's snapshot
			found, ferr := r.FindPair(ctx, match.Pair{ResumeID: m.ResumeID, JobID: m.JobID})
			if ferr != nil {
				return match.Record{}, ferr
			}
			if found != nil {
				return *found, nil
			}
		}
		return match.Record{}, persistenceErr("upsert match", err)
	}
	return *rec, nil
}

// FindForOwner lists an owner's matches, highest score first. Resume-side
// listings carry the matched job's title, company and location.
func (r *PostgresMatchRepository) FindForOwner(ctx context.Context, q MatchQuery) ([]match.Record, error) {
	var builder sq.SelectBuilder
	switch q.OwnerKind {
	case embedding.OwnerJob:
		builder = psql.Select(qualified("m", matchColumns)...).From("job_matches m").
			Where(sq.Eq{"m.job_id": q.OwnerID})
	case embedding.OwnerResume:
		builder = selectWithJob().Where(sq.Eq{"m.resume_id": q.OwnerID})
	default:
		return nil, embedding.ErrUnknownOwnerKind
	}
	if q.MinScore > 0 {
		builder = builder.Where(sq.GtOrEq{"m.match_score": q.MinScore})
	}
	builder = builder.OrderBy("m.match_score DESC")
	if q.Limit > 0 {
		builder = builder.Limit(uint64(q.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build match query: %w", err)
	}
	if q.OwnerKind == embedding.OwnerResume {
		return r.queryMatchesWithJob(ctx, "find matches", query, args...)
	}
	return r.queryMatches(ctx, "find matches", query, args...)
}

func (r *PostgresMatchRepository) FindPair(ctx context.Context, pair match.Pair) (*match.Record, error) {
	query, args, err := selectWithJob().
		Where(sq.Eq{"m.resume_id": pair.ResumeID, "m.job_id": pair.JobID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build match query: %w", err)
	}
	rec, err := scanMatchWithJob(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, persistenceErr("find match", err)
	}
	return rec, nil
}

// selectWithJob left-joins the posting so a match outlives a deleted job row.
func selectWithJob() sq.SelectBuilder {
	cols := append(qualified("m", matchColumns), "j.title", "j.company", "j.location")
	return psql.Select(cols...).From("job_matches m").LeftJoin("jobs j ON j.id = m.job_id")
}

func qualified(alias, columns string) []string {
	parts := strings.Split(columns, ", ")
	for i, c := range parts {
		parts[i] = alias + "." + c
	}
	return parts
}

func (r *PostgresMatchRepository) Claim(ctx context.Context, claimID uuid.UUID, pairs []match.Pair, now time.Time, ttl time.Duration) ([]match.Record, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	resumeIDs, jobIDs := splitPairs(pairs)

	return r.queryMatches(ctx, "claim matches",
		`UPDATE job_matches SET notify_claim_id = $1, notify_claimed_at = $2
		 WHERE notified = false
		   AND (notify_claimed_at IS NULL OR notify_claimed_at < $3)
		   AND (resume_id, job_id) IN (SELECT * FROM unnest($4::uuid[], $5::uuid[]))
		 RETURNING `+matchColumns,
		claimID,
		now,
		now.Add(-ttl),
		resumeIDs,
		jobIDs,
	)
}

func (r *PostgresMatchRepository) MarkNotified(ctx context.Context, claimID uuid.UUID, pairs []match.Pair, at time.Time) (int64, error) {
	if len(pairs) == 0 {
		return 0, nil
	}
	resumeIDs, jobIDs := splitPairs(pairs)

	n, err := r.db.Exec(ctx,
		`UPDATE job_matches
		 SET notified = true, notified_at = $2, notify_claim_id = NULL, notify_claimed_at = NULL
		 WHERE notified = false
		   AND notify_claim_id = $1
		   AND (resume_id, job_id) IN (SELECT * FROM unnest($3::uuid[], $4::uuid[]))`,
		claimID, at, resumeIDs, jobIDs,
	)
	if err != nil {
		return 0, persistenceErr("mark notified", err)
	}
	return n, nil
}

func (r *PostgresMatchRepository) ReleaseClaim(ctx context.Context, claimID uuid.UUID, pairs []match.Pair) error {
	if len(pairs) == 0 {
		return nil
	}
	resumeIDs, jobIDs := splitPairs(pairs)

	_, err := r.db.Exec(ctx,
		`UPDATE job_matches SET notify_claim_id = NULL, notify_claimed_at = NULL
		 WHERE notified = false
		   AND notify_claim_id = $1
		   AND (resume_id, job_id) IN (SELECT * FROM unnest($2::uuid[], $3::uuid[]))`,
		claimID, resumeIDs, jobIDs,
	)
	return persistenceErr("release claim", err)
}

func (r *PostgresMatchRepository) ListUnnotified(ctx context.Context, limit int) ([]match.Record, error) {
	builder := psql.Select(matchColumns).
		From("job_matches").
		Where(sq.Eq{"notified": false}).
		OrderBy("created_at ASC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build unnotified query: %w", err)
	}
	return r.queryMatches(ctx, "list unnotified", query, args...)
}

func (r *PostgresMatchRepository) DeleteByOwner(ctx context.Context, kind embedding.OwnerKind, ownerID uuid.UUID) (int64, error) {
	column := "resume_id"
	if kind == embedding.OwnerJob {
		column = "job_id"
	}

	query, args, err := psql.Delete("job_matches").Where(sq.Eq{column: ownerID}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete query: %w", err)
	}
	n, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, persistenceErr("delete matches", err)
	}
	return n, nil
}

func (r *PostgresMatchRepository) queryMatches(ctx context.Context, op, query string, args ...any) ([]match.Record, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, persistenceErr(op, err)
	}
	defer rows.Close()

	out := make([]match.Record, 0)
	for rows.Next() {
		rec, err := scanMatch(rows)
		if err != nil {
			return nil, persistenceErr(op, err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceErr(op, err)
	}
	return out, nil
}

func (r *PostgresMatchRepository) queryMatchesWithJob(ctx context.Context, op, query string, args ...any) ([]match.Record, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, persistenceErr(op, err)
	}
	defer rows.Close()

	out := make([]match.Record, 0)
	for rows.Next() {
		rec, err := scanMatchWithJob(rows)
		if err != nil {
			return nil, persistenceErr(op, err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceErr(op, err)
	}
	return out, nil
}

func matchTargets(rec *match.Record) []any {
	return []any{
		&rec.ID,
		&rec.ResumeID,
		&rec.JobID,
		&rec.MatchScore,
		&rec.SimilarityScore,
		&rec.Notified,
		&rec.NotifiedAt,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	}
}

func scanMatch(row database.Row) (*match.Record, error) {
	var rec match.Record
	if err := row.Scan(matchTargets(&rec)...); err != nil {
		return nil, err
	}
	return &rec, nil
}

func scanMatchWithJob(row database.Row) (*match.Record, error) {
	var (
		rec                      match.Record
		title, company, location *string
	)
	if err := row.Scan(append(matchTargets(&rec), &title, &company, &location)...); err != nil {
		return nil, err
	}
	if title != nil {
		rec.Job = &match.JobSummary{Title: *title, Company: deref(company), Location: deref(location)}
	}
	return &rec, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func splitPairs(pairs []match.Pair) ([]string, []string) {
	resumeIDs := make([]string, len(pairs))
	jobIDs := make([]string, len(pairs))
	for i, p := range pairs {
		resumeIDs[i] = p.ResumeID.String()
		jobIDs[i] = p.JobID.String()
	}
	return resumeIDs, jobIDs
}
