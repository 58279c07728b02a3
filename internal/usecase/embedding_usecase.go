package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"jobscout/internal/domain/embedding"
	"jobscout/internal/domain/matching"
	"jobscout/internal/metrics"
	"jobscout/internal/pkg/logger"
	"jobscout/internal/repository"
)

// Embedder produces a vector for text. It is satisfied by the provider gateway.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Model() string
}

type RefreshResult struct {
	Record embedding.Record
	// Changed is true when a new vector was stored and a rescan is warranted.
	Changed bool
}

type EmbeddingUsecase struct {
	embeddings repository.EmbeddingRepository
	matches    repository.MatchRepository
	gateway    Embedder
	cache      MatchCache
	timeout    time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

func NewEmbeddingUsecase(
	embeddings repository.EmbeddingRepository,
	matches repository.MatchRepository,
	gateway Embedder,
	cache MatchCache,
	timeout time.Duration,
	log *zap.Logger,
) *EmbeddingUsecase {
	return &EmbeddingUsecase{
		embeddings: embeddings,
		matches:    matches,
		gateway:    gateway,
		cache:      cache,
		timeout:    timeout,
		logger:     logger.Component(log, "embedding_cache"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// GetOrRefresh returns the stored vector for the owner when its content hash
// equals the hash of sourceText, and otherwise regenerates and stores it.
func (u *EmbeddingUsecase) GetOrRefresh(ctx context.Context, kind embedding.OwnerKind, ownerID uuid.UUID, sourceText string) (RefreshResult, error) {
	if err := validateOwner(kind, ownerID); err != nil {
		return RefreshResult{}, err
	}
	if strings.TrimSpace(sourceText) == "" {
		return RefreshResult{}, ErrEmptyContent
	}

	log := u.logger.With(zap.String(logger.FieldOwnerKind, string(kind)), zap.String(logger.FieldOwnerID, ownerID.String()))
	hash := matching.Hash(sourceText)

	existing, err := u.embeddings.FindByOwner(ctx, kind, ownerID)
	if err != nil {
		metrics.EmbeddingRefreshes.WithLabelValues(string(kind), "error").Inc()
		return RefreshResult{}, err
	}
	if existing != nil && existing.ContentHash == hash {
		metrics.EmbeddingRefreshes.WithLabelValues(string(kind), "hit").Inc()
		log.Debug("embedding unchanged", zap.String(logger.FieldStatus, "hit"))
		return RefreshResult{Record: *existing, Changed: false}, nil
	}

	callCtx := ctx
	if u.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	vec, err := u.gateway.Embed(callCtx, sourceText)
	if err != nil {
		metrics.EmbeddingRefreshes.WithLabelValues(string(kind), "error").Inc()
		log.Warn("embedding generation failed", zap.String(logger.FieldStatus, "error"), zap.Error(err))
		return RefreshResult{}, err
	}

	rec := embedding.Record{
		OwnerKind:   kind,
		OwnerID:     ownerID,
		Vector:      vec,
		ContentHash: hash,
		UpdatedAt:   u.now(),
	}
	changed, err := u.embeddings.Upsert(ctx, rec, u.gateway.Model())
	if err != nil {
		metrics.EmbeddingRefreshes.WithLabelValues(string(kind), "error").Inc()
		log.Error("embedding upsert failed", zap.String(logger.FieldStatus, "error"), zap.Error(err))
		return RefreshResult{}, err
	}

	metrics.EmbeddingRefreshes.WithLabelValues(string(kind), "refreshed").Inc()
	log.Info("embedding refreshed",
		zap.String(logger.FieldStatus, "ok"),
		zap.Bool("changed", changed),
		zap.Int("dimension", len(vec)),
	)
	return RefreshResult{Record: rec, Changed: changed}, nil
}

// GetCached returns the stored record or nil when the owner has none.
func (u *EmbeddingUsecase) GetCached(ctx context.Context, kind embedding.OwnerKind, ownerID uuid.UUID) (*embedding.Record, error) {
	if err := validateOwner(kind, ownerID); err != nil {
		return nil, err
	}
	return u.embeddings.FindByOwner(ctx, kind, ownerID)
}

// Delete removes an owner's embedding and every match record that references
// it. It is the explicit cascade for a deleted job or resume.
func (u *EmbeddingUsecase) Delete(ctx context.Context, kind embedding.OwnerKind, ownerID uuid.UUID) error {
	if err := validateOwner(kind, ownerID); err != nil {
		return err
	}

	affected, err := u.matches.FindForOwner(ctx, repository.MatchQuery{OwnerKind: kind, OwnerID: ownerID})
	if err != nil {
		return err
	}
	if _, err := u.embeddings.DeleteByOwner(ctx, kind, ownerID); err != nil {
		return err
	}
	removed, err := u.matches.DeleteByOwner(ctx, kind, ownerID)
	if err != nil {
		return err
	}

	invalidateMatchCache(ctx, u.cache, u.logger, kind, ownerID)
	for _, m := range affected {
		invalidateMatchCache(ctx, u.cache, u.logger, kind.Opposite(), m.Counterpart(kind))
	}

	u.logger.Info("owner removed",
		zap.String(logger.FieldStatus, "ok"),
		zap.String(logger.FieldOwnerKind, string(kind)),
		zap.String(logger.FieldOwnerID, ownerID.String()),
		zap.Int64("matches_removed", removed),
	)
	return nil
}

func validateOwner(kind embedding.OwnerKind, ownerID uuid.UUID) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %w", ErrInvalidInput, embedding.ErrUnknownOwnerKind)
	}
	if ownerID == uuid.Nil {
		return fmt.Errorf("%w: owner id is required", ErrInvalidInput)
	}
	return nil
}
