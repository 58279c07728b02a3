package handler

import (
	"context"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"jobscout/internal/delivery/http/dto"
	"jobscout/internal/delivery/http/middleware"
	"jobscout/internal/domain/embedding"
	"jobscout/internal/domain/match"
	"jobscout/internal/pkg/response"
)

type MatchReader interface {
	GetMatchesForOwner(ctx context.Context, kind embedding.OwnerKind, ownerID uuid.UUID, minScore int) ([]match.Record, error)
	GetMatch(ctx context.Context, resumeID, jobID uuid.UUID) (*match.Record, error)
}

type MatchHandler struct {
	uc              MatchReader
	defaultMinScore int
}

func NewMatchHandler(uc MatchReader, defaultMinScore int) *MatchHandler {
	return &MatchHandler{uc: uc, defaultMinScore: defaultMinScore}
}

// RegisterRoutes mounts the caller's own matches. The caller is the resume
// owner.
func (h *MatchHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	grp := r.Group("/matches")
	grp.Get("/", h.ListMine)
	grp.Get("/:job_id", h.GetMine)
}

func (h *MatchHandler) RegisterAdminRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/matches/:kind/:id", h.ListForOwner)
}

func (h *MatchHandler) ListMine(c fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized()
	}
	return h.list(c, embedding.OwnerResume, userID)
}

func (h *MatchHandler) GetMine(c fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized()
	}

	jobID, err := uuid.Parse(c.Params("job_id"))
	if err != nil {
		return badRequest(err)
	}

	rec, err := h.uc.GetMatch(c.Context(), userID, jobID)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewMatchResponse(*rec))
}

func (h *MatchHandler) ListForOwner(c fiber.Ctx) error {
	kind, id, err := ownerParams(c)
	if err != nil {
		return err
	}
	return h.list(c, kind, id)
}

func (h *MatchHandler) list(c fiber.Ctx, kind embedding.OwnerKind, ownerID uuid.UUID) error {
	minScore := h.defaultMinScore
	if raw := strings.TrimSpace(c.Query("min_score")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return badRequest(err)
		}
		minScore = v
	}

	records, err := h.uc.GetMatchesForOwner(c.Context(), kind, ownerID, minScore)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.List(c, dto.NewMatchListResponse(records), response.Meta{MinScore: &minScore})
}
