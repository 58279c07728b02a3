package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"jobscout/internal/domain/embedding"
	"jobscout/internal/domain/match"
	"jobscout/internal/domain/matching"
	"jobscout/internal/metrics"
	"jobscout/internal/pkg/logger"
	"jobscout/internal/repository"
)

// Subject is the owner whose embedding is compared against the opposite side.
type Subject struct {
	Kind    embedding.OwnerKind
	OwnerID uuid.UUID
	Vector  []float32
}

type Counterpart struct {
	OwnerID uuid.UUID
	Vector  []float32
}

// Match is one retained comparison. Notified reflects the stored record after
// the upsert, so callers can tell new pairs from known ones.
type Match struct {
	CounterpartID   uuid.UUID
	ResumeID        uuid.UUID
	JobID           uuid.UUID
	MatchScore      int
	SimilarityScore float64
	Notified        bool
}

func (m Match) Pair() match.Pair {
	return match.Pair{ResumeID: m.ResumeID, JobID: m.JobID}
}

type MatchingUsecase struct {
	embeddings repository.EmbeddingRepository
	matches    repository.MatchRepository
	cache      MatchCache
	cacheTTL   time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

func NewMatchingUsecase(
	embeddings repository.EmbeddingRepository,
	matches repository.MatchRepository,
	cache MatchCache,
	cacheTTL time.Duration,
	log *zap.Logger,
) *MatchingUsecase {
	return &MatchingUsecase{
		embeddings: embeddings,
		matches:    matches,
		cache:      cache,
		cacheTTL:   cacheTTL,
		logger:     logger.Component(log, "matching"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// MatchOneAgainstMany scores subject against every counterpart, persists the
// pairs at or above the threshold and returns them. A counterpart that cannot
// be compared is logged and skipped. Pairs that could not be stored are left
// out of the result and reported through an ErrPersistence error alongside the
// stored ones.
func (u *MatchingUsecase) MatchOneAgainstMany(ctx context.Context, subject Subject, counterparts []Counterpart) ([]Match, error) {
	if err := validateOwner(subject.Kind, subject.OwnerID); err != nil {
		return nil, err
	}
	if len(subject.Vector) == 0 {
		return nil, fmt.Errorf("%w: subject vector is empty", ErrInvalidInput)
	}

	log := u.logger.With(
		zap.String(logger.FieldOwnerKind, string(subject.Kind)),
		zap.String(logger.FieldOwnerID, subject.OwnerID.String()),
	)

	out := make([]Match, 0)
	var storeFailures int
	for _, c := range counterparts {
		if c.OwnerID == uuid.Nil {
			metrics.RescanComparisons.WithLabelValues("skipped").Inc()
			continue
		}

		sim, err := matching.CosineSimilarity(subject.Vector, c.Vector)
		if err != nil {
			metrics.RescanComparisons.WithLabelValues("skipped").Inc()
			log.Warn("comparison skipped",
				zap.String(logger.FieldStatus, "skipped"),
				zap.String("counterpart_id", c.OwnerID.String()),
				zap.Error(err),
			)
			continue
		}
		if !matching.MeetsThreshold(sim) {
			metrics.RescanComparisons.WithLabelValues("below_threshold").Inc()
			continue
		}

		sim = matching.ClampSimilarity(sim)
		pair := match.PairFor(subject.Kind, subject.OwnerID, c.OwnerID)
		rec, err := u.matches.Upsert(ctx, repository.MatchUpsert{
			ResumeID:        pair.ResumeID,
			JobID:           pair.JobID,
			MatchScore:      matching.ToMatchScore(sim),
			SimilarityScore: sim,
			At:              u.now(),
		})
		if err != nil {
			storeFailures++
			log.Error("match upsert failed",
				zap.String(logger.FieldStatus, "error"),
				zap.String("counterpart_id", c.OwnerID.String()),
				zap.Error(err),
			)
			continue
		}

		metrics.RescanComparisons.WithLabelValues("retained").Inc()
		metrics.MatchesPersisted.Inc()
		invalidateMatchCache(ctx, u.cache, log, subject.Kind.Opposite(), c.OwnerID)
		out = append(out, Match{
			CounterpartID:   c.OwnerID,
			ResumeID:        rec.ResumeID,
			JobID:           rec.JobID,
			MatchScore:      rec.MatchScore,
			SimilarityScore: rec.SimilarityScore,
			Notified:        rec.Notified,
		})
	}
	invalidateMatchCache(ctx, u.cache, log, subject.Kind, subject.OwnerID)

	log.Info("match scan finished",
		zap.String(logger.FieldStatus, "ok"),
		zap.Int("counterparts", len(counterparts)),
		zap.Int("retained", len(out)),
		zap.Int("store_failures", storeFailures),
	)

	if storeFailures > 0 {
		return out, fmt.Errorf("%w: %d of %d matches not stored", repository.ErrPersistence, storeFailures, storeFailures+len(out))
	}
	return out, nil
}

// Rescan compares vector against every stored embedding of the opposite kind.
// The scan is linear in the number of counterparts.
func (u *MatchingUsecase) Rescan(ctx context.Context, kind embedding.OwnerKind, ownerID uuid.UUID, vector []float32) ([]Match, error) {
	if err := validateOwner(kind, ownerID); err != nil {
		return nil, err
	}

	records, err := u.embeddings.ListByKind(ctx, kind.Opposite())
	if err != nil {
		return nil, err
	}

	counterparts := make([]Counterpart, 0, len(records))
	for _, r := range records {
		counterparts = append(counterparts, Counterpart{OwnerID: r.OwnerID, Vector: r.Vector})
	}
	return u.MatchOneAgainstMany(ctx, Subject{Kind: kind, OwnerID: ownerID, Vector: vector}, counterparts)
}

// GetMatchesForOwner lists the owner's matches with MatchScore >= minScore,
// highest first. The result is cached until the next invalidation for the
// owner. An invalidation landing between the generation check and the cache
// write can still leave a stale list, which lives at most cacheTTL.
func (u *MatchingUsecase) GetMatchesForOwner(ctx context.Context, kind embedding.OwnerKind, ownerID uuid.UUID, minScore int) ([]match.Record, error) {
	if err := validateOwner(kind, ownerID); err != nil {
		return nil, err
	}
	if minScore < 0 || minScore > 100 {
		return nil, fmt.Errorf("%w: min score must be between 0 and 100", ErrInvalidInput)
	}

	key := MatchesCacheKey(kind, ownerID, minScore)
	var gen string
	if u.cache != nil {
		gen = matchGeneration(ctx, u.cache, kind, ownerID)
		var cached []match.Record
		ok, err := u.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			u.logger.Warn("match cache read failed", zap.String("key", key), zap.Error(err))
		}
		if ok {
			return cached, nil
		}
	}

	records, err := u.matches.FindForOwner(ctx, repository.MatchQuery{
		OwnerKind: kind,
		OwnerID:   ownerID,
		MinScore:  minScore,
	})
	if err != nil {
		return nil, err
	}

	if u.cache != nil {
		// an invalidation raced the load; the list may predate it
		if matchGeneration(ctx, u.cache, kind, ownerID) != gen {
			u.logger.Debug("match cache write skipped", zap.String("key", key))
			return records, nil
		}
		if err := u.cache.SetJSON(ctx, key, records, u.cacheTTL); err != nil {
			u.logger.Warn("match cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return records, nil
}

func (u *MatchingUsecase) GetMatch(ctx context.Context, resumeID, jobID uuid.UUID) (*match.Record, error) {
	if resumeID == uuid.Nil || jobID == uuid.Nil {
		return nil, fmt.Errorf("%w: resume and job ids are required", ErrInvalidInput)
	}
	rec, err := u.matches.FindPair(ctx, match.Pair{ResumeID: resumeID, JobID: jobID})
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrNotFound
	}
	return rec, nil
}
