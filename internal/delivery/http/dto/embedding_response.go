package dto

import (
	"time"

	"github.com/google/uuid"

	"jobscout/internal/domain/embedding"
	"jobscout/internal/pipeline"
	"jobscout/internal/usecase"
)

type RefreshEmbeddingRequest struct {
	Text string `json:"text"`
}

type RefreshResponse struct {
	OwnerKind     string                  `json:"ownerKind"`
	OwnerID       uuid.UUID               `json:"ownerId"`
	Changed       bool                    `json:"changed"`
	Matches       []ScanMatchResponse     `json:"matches"`
	Notifications usecase.DispatchSummary `json:"notifications"`
}

func NewRefreshResponse(o pipeline.Outcome) RefreshResponse {
	return RefreshResponse{
		OwnerKind:     string(o.OwnerKind),
		OwnerID:       o.OwnerID,
		Changed:       o.Changed,
		Matches:       NewScanMatchResponses(o.Matches),
		Notifications: o.Notifications,
	}
}

// EmbeddingResponse omits the vector itself; Dimension is enough to check it.
type EmbeddingResponse struct {
	OwnerKind   string    `json:"ownerKind"`
	OwnerID     uuid.UUID `json:"ownerId"`
	ContentHash string    `json:"contentHash"`
	Dimension   int       `json:"dimension"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func NewEmbeddingResponse(r embedding.Record) EmbeddingResponse {
	return EmbeddingResponse{
		OwnerKind:   string(r.OwnerKind),
		OwnerID:     r.OwnerID,
		ContentHash: r.ContentHash,
		Dimension:   len(r.Vector),
		UpdatedAt:   r.UpdatedAt,
	}
}
