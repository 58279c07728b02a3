package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"jobscout/internal/domain/embedding"
)

// MatchCache is the read-through store for per-owner match lists.
type MatchCache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

func MatchesCacheKey(kind embedding.OwnerKind, ownerID uuid.UUID, minScore int) string {
	return fmt.Sprintf("matches:%s:%s:%d", kind, ownerID, minScore)
}

func MatchesCachePattern(kind embedding.OwnerKind, ownerID uuid.UUID) string {
	return fmt.Sprintf("matches:%s:%s:*", kind, ownerID)
}

// matchesGenKey holds a token replaced on every invalidation. It sits outside
// MatchesCachePattern so the delete never removes it.
func matchesGenKey(kind embedding.OwnerKind, ownerID uuid.UUID) string {
	return fmt.Sprintf("matches-gen:%s:%s", kind, ownerID)
}

const matchesGenTTL = 24 * time.Hour

// matchGeneration returns the owner's current token, or "" when none is set.
func matchGeneration(ctx context.Context, cache MatchCache, kind embedding.OwnerKind, ownerID uuid.UUID) string {
	var gen string
	if ok, err := cache.GetJSON(ctx, matchesGenKey(kind, ownerID), &gen); err != nil || !ok {
		return ""
	}
	return gen
}

func invalidateMatchCache(ctx context.Context, cache MatchCache, log *zap.Logger, kind embedding.OwnerKind, ownerID uuid.UUID) {
	if cache == nil {
		return
	}
	// bump first so a read already past the database skips its write
	if err := cache.SetJSON(ctx, matchesGenKey(kind, ownerID), uuid.NewString(), matchesGenTTL); err != nil {
		log.Warn("match cache generation bump failed",
			zap.String("owner_kind", string(kind)),
			zap.String("owner_id", ownerID.String()),
			zap.Error(err),
		)
	}
	if err := cache.DeleteByPattern(ctx, MatchesCachePattern(kind, ownerID)); err != nil {
		log.Warn("match cache invalidation failed",
			zap.String("owner_kind", string(kind)),
			zap.String("owner_id", ownerID.String()),
			zap.Error(err),
		)
	}
}
