package handler

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"jobscout/internal/delivery/http/dto"
	"jobscout/internal/domain/embedding"
	"jobscout/internal/pipeline"
	"jobscout/internal/pkg/response"
)

type Refresher interface {
	Refresh(ctx context.Context, kind embedding.OwnerKind, ownerID uuid.UUID, text string) (pipeline.Outcome, error)
	RefreshOwner(ctx context.Context, kind embedding.OwnerKind, ownerID uuid.UUID) (pipeline.Outcome, error)
}

type EmbeddingStore interface {
	GetCached(ctx context.Context, kind embedding.OwnerKind, ownerID uuid.UUID) (*embedding.Record, error)
	Delete(ctx context.Context, kind embedding.OwnerKind, ownerID uuid.UUID) error
}

// EmbeddingHandler exposes the embedding cache to operators.
type EmbeddingHandler struct {
	refresher Refresher
	store     EmbeddingStore
}

func NewEmbeddingHandler(refresher Refresher, store EmbeddingStore) *EmbeddingHandler {
	return &EmbeddingHandler{refresher: refresher, store: store}
}

func (h *EmbeddingHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	grp := r.Group("/embeddings")
	grp.Get("/:kind/:id", h.Get)
	grp.Put("/:kind/:id", h.Put)
	grp.Post("/:kind/:id/refresh", h.RefreshFromSource)
	grp.Delete("/:kind/:id", h.Delete)
}

func (h *EmbeddingHandler) Get(c fiber.Ctx) error {
	kind, id, err := ownerParams(c)
	if err != nil {
		return err
	}

	rec, err := h.store.GetCached(c.Context(), kind, id)
	if err != nil {
		return mapUsecaseError(err)
	}
	if rec == nil {
		return mapUsecaseError(errNoEmbedding)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewEmbeddingResponse(*rec))
}

// Put refreshes the owner from the text in the body.
func (h *EmbeddingHandler) Put(c fiber.Ctx) error {
	kind, id, err := ownerParams(c)
	if err != nil {
		return err
	}

	var req dto.RefreshEmbeddingRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(err)
	}

	out, err := h.refresher.Refresh(c.Context(), kind, id, req.Text)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewRefreshResponse(out))
}

// RefreshFromSource refreshes the owner from its stored job posting or resume.
func (h *EmbeddingHandler) RefreshFromSource(c fiber.Ctx) error {
	kind, id, err := ownerParams(c)
	if err != nil {
		return err
	}

	out, err := h.refresher.RefreshOwner(c.Context(), kind, id)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewRefreshResponse(out))
}

func (h *EmbeddingHandler) Delete(c fiber.Ctx) error {
	kind, id, err := ownerParams(c)
	if err != nil {
		return err
	}

	if err := h.store.Delete(c.Context(), kind, id); err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, nil)
}

func ownerParams(c fiber.Ctx) (embedding.OwnerKind, uuid.UUID, error) {
	kind, err := embedding.ParseOwnerKind(c.Params("kind"))
	if err != nil {
		return "", uuid.Nil, mapUsecaseError(err)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return "", uuid.Nil, badRequest(err)
	}
	return kind, id, nil
}
