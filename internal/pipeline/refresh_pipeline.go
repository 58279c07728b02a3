package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"jobscout/internal/domain/embedding"
	gateway "jobscout/internal/infrastructure/embedding"
	"jobscout/internal/metrics"
	"jobscout/internal/pkg/logger"
	"jobscout/internal/repository"
	"jobscout/internal/usecase"
)

type Embeddings interface {
	GetOrRefresh(ctx context.Context, kind embedding.OwnerKind, ownerID uuid.UUID, sourceText string) (usecase.RefreshResult, error)
}

type Matcher interface {
	Rescan(ctx context.Context, kind embedding.OwnerKind, ownerID uuid.UUID, vector []float32) ([]usecase.Match, error)
}

type Dispatcher interface {
	TriggerNotifications(ctx context.Context, kind embedding.OwnerKind, ownerID uuid.UUID, matches []usecase.Match) (usecase.DispatchSummary, error)
}

// Outcome describes one owner refresh.
type Outcome struct {
	OwnerKind     embedding.OwnerKind     `json:"ownerKind"`
	OwnerID       uuid.UUID               `json:"ownerId"`
	Changed       bool                    `json:"changed"`
	Matches       []usecase.Match         `json:"matches"`
	Notifications usecase.DispatchSummary `json:"notifications"`
}

// RefreshPipeline keeps an owner's embedding, matches and notifications in
// step: re-embed when the text changed, rescan the opposite side, notify the
// new pairs.
type RefreshPipeline struct {
	embeddings Embeddings
	matcher    Matcher
	dispatcher Dispatcher
	jobs       repository.JobSourceRepository
	resumes    repository.ResumeSourceRepository
	logger     *zap.Logger
}

func NewRefreshPipeline(
	embeddings Embeddings,
	matcher Matcher,
	dispatcher Dispatcher,
	jobs repository.JobSourceRepository,
	resumes repository.ResumeSourceRepository,
	log *zap.Logger,
) *RefreshPipeline {
	return &RefreshPipeline{
		embeddings: embeddings,
		matcher:    matcher,
		dispatcher: dispatcher,
		jobs:       jobs,
		resumes:    resumes,
		logger:     logger.Component(log, "pipeline"),
	}
}

// Refresh runs the whole chain for one owner. An unchanged embedding stops
// the chain after the cache lookup. Matches that were stored are notified even
// when some others failed to persist; the persistence error is still returned.
func (p *RefreshPipeline) Refresh(ctx context.Context, kind embedding.OwnerKind, ownerID uuid.UUID, text string) (Outcome, error) {
	out := Outcome{OwnerKind: kind, OwnerID: ownerID, Matches: []usecase.Match{}}
	log := p.logger.With(
		zap.String(logger.FieldOwnerKind, string(kind)),
		zap.String(logger.FieldOwnerID, ownerID.String()),
	)
	start := time.Now()

	res, err := p.embeddings.GetOrRefresh(ctx, kind, ownerID, text)
	if err != nil {
		metrics.EmbeddingRefreshes.WithLabelValues(string(kind), "error").Inc()
		return out, err
	}
	out.Changed = res.Changed
	if !res.Changed {
		metrics.EmbeddingRefreshes.WithLabelValues(string(kind), "unchanged").Inc()
		log.Debug("embedding unchanged", zap.String(logger.FieldStatus, "skipped"))
		return out, nil
	}
	metrics.EmbeddingRefreshes.WithLabelValues(string(kind), "changed").Inc()

	matches, scanErr := p.matcher.Rescan(ctx, kind, ownerID, res.Record.Vector)
	if scanErr != nil && !errors.Is(scanErr, repository.ErrPersistence) {
		return out, fmt.Errorf("rescan: %w", scanErr)
	}
	out.Matches = matches

	if p.dispatcher != nil && len(matches) > 0 {
		summary, err := p.dispatcher.TriggerNotifications(ctx, kind, ownerID, matches)
		if err != nil {
			return out, fmt.Errorf("notify: %w", err)
		}
		out.Notifications = summary
	}

	log.Info("owner refreshed",
		zap.String(logger.FieldStatus, "ok"),
		zap.Int("matches", len(matches)),
		zap.Int("dispatched", out.Notifications.Dispatched),
		zap.Duration("duration", time.Since(start)),
	)
	if scanErr != nil {
		return out, scanErr
	}
	return out, nil
}

// RefreshJob loads the job posting and refreshes it.
func (p *RefreshPipeline) RefreshJob(ctx context.Context, jobID uuid.UUID) (Outcome, error) {
	if p.jobs == nil {
		return Outcome{}, errors.New("job source is not configured")
	}
	job, err := p.jobs.FindJob(ctx, jobID)
	if err != nil {
		return Outcome{}, err
	}
	return p.Refresh(ctx, embedding.OwnerJob, jobID, usecase.JobText(*job))
}

// RefreshResume loads the owner's stored resume text and refreshes it.
func (p *RefreshPipeline) RefreshResume(ctx context.Context, ownerID uuid.UUID) (Outcome, error) {
	if p.resumes == nil {
		return Outcome{}, errors.New("resume source is not configured")
	}
	r, err := p.resumes.FindResume(ctx, ownerID)
	if err != nil {
		return Outcome{}, err
	}
	return p.Refresh(ctx, embedding.OwnerResume, ownerID, usecase.ResumeText(r.RawText))
}

// RefreshOwner reloads the owner from its source table and refreshes it.
func (p *RefreshPipeline) RefreshOwner(ctx context.Context, kind embedding.OwnerKind, ownerID uuid.UUID) (Outcome, error) {
	if kind == embedding.OwnerJob {
		return p.RefreshJob(ctx, ownerID)
	}
	return p.RefreshResume(ctx, ownerID)
}

type ReembedParams struct {
	Kind       embedding.OwnerKind
	Workers    int
	RPS        int
	PageSize   int
	MaxElapsed time.Duration
}

type ReembedReport struct {
	Total   int `json:"total"`
	Changed int `json:"changed"`
	Failed  int `json:"failed"`
}

// Reembed refreshes every owner of one kind. Provider rate limits and
// transient failures are retried with exponential backoff; other failures
// are counted and do not stop the batch.
func (p *RefreshPipeline) Reembed(ctx context.Context, params ReembedParams) (ReembedReport, error) {
	if !params.Kind.Valid() {
		return ReembedReport{}, embedding.ErrUnknownOwnerKind
	}
	ids, err := p.listOwners(ctx, params.Kind, params.PageSize)
	if err != nil {
		return ReembedReport{}, err
	}

	log := p.logger.With(zap.String(logger.FieldOwnerKind, string(params.Kind)))
	log.Info("reembed started", zap.Int("owners", len(ids)), zap.Int("workers", params.Workers))

	refresh := func(ctx context.Context, id uuid.UUID) (bool, error) {
		var out Outcome
		op := func() error {
			var err error
			out, err = p.RefreshOwner(ctx, params.Kind, id)
			if err != nil && !gateway.Retryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		err := backoff.Retry(op, backoff.WithContext(newBackOff(params.MaxElapsed), ctx))
		return out.Changed, err
	}

	report := ReembedReport{Total: len(ids)}
	for res := range fanOut(ctx, ids, params.Workers, params.RPS, refresh) {
		if res.Err != nil {
			report.Failed++
			log.Warn("reembed owner failed",
				zap.String(logger.FieldStatus, "error"),
				zap.String(logger.FieldOwnerID, res.OwnerID.String()),
				zap.Error(res.Err),
			)
			continue
		}
		if res.Changed {
			report.Changed++
		}
	}

	log.Info("reembed finished",
		zap.String(logger.FieldStatus, "ok"),
		zap.Int("total", report.Total),
		zap.Int("changed", report.Changed),
		zap.Int("failed", report.Failed),
	)
	return report, ctx.Err()
}

func (p *RefreshPipeline) listOwners(ctx context.Context, kind embedding.OwnerKind, pageSize int) ([]uuid.UUID, error) {
	if pageSize <= 0 {
		pageSize = 500
	}
	list := func(limit, offset int) ([]uuid.UUID, error) {
		if kind == embedding.OwnerJob {
			if p.jobs == nil {
				return nil, errors.New("job source is not configured")
			}
			return p.jobs.ListActiveJobIDs(ctx, limit, offset)
		}
		if p.resumes == nil {
			return nil, errors.New("resume source is not configured")
		}
		return p.resumes.ListResumeOwnerIDs(ctx, limit, offset)
	}

	out := make([]uuid.UUID, 0)
	for offset := 0; ; offset += pageSize {
		page, err := list(pageSize, offset)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < pageSize {
			return out, nil
		}
	}
}

func newBackOff(maxElapsed time.Duration) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	if maxElapsed > 0 {
		b.MaxElapsedTime = maxElapsed
	}
	return b
}
