package handler

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"jobscout/internal/delivery/http/dto"
	"jobscout/internal/domain/embedding"
	"jobscout/internal/domain/match"
	"jobscout/internal/pkg/response"
	"jobscout/internal/usecase"
)

type NotificationDispatcher interface {
	TriggerNotifications(ctx context.Context, kind embedding.OwnerKind, ownerID uuid.UUID, matches []usecase.Match) (usecase.DispatchSummary, error)
	SweepPending(ctx context.Context, limit int) (usecase.DispatchSummary, error)
}

type OwnerMatches interface {
	GetMatchesForOwner(ctx context.Context, kind embedding.OwnerKind, ownerID uuid.UUID, minScore int) ([]match.Record, error)
}

// NotificationHandler lets operators re-drive notification delivery.
type NotificationHandler struct {
	dispatcher NotificationDispatcher
	matches    OwnerMatches
	sweepLimit int
}

func NewNotificationHandler(dispatcher NotificationDispatcher, matches OwnerMatches, sweepLimit int) *NotificationHandler {
	return &NotificationHandler{dispatcher: dispatcher, matches: matches, sweepLimit: sweepLimit}
}

func (h *NotificationHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	grp := r.Group("/notifications")
	grp.Post("/trigger", h.Trigger)
	grp.Post("/sweep", h.Sweep)
}

// Trigger notifies every stored, not yet notified match of one owner.
func (h *NotificationHandler) Trigger(c fiber.Ctx) error {
	var req dto.TriggerNotificationsRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(err)
	}
	kind, err := embedding.ParseOwnerKind(req.OwnerKind)
	if err != nil {
		return mapUsecaseError(err)
	}
	ownerID, err := uuid.Parse(req.OwnerID)
	if err != nil {
		return badRequest(err)
	}

	records, err := h.matches.GetMatchesForOwner(c.Context(), kind, ownerID, 0)
	if err != nil {
		return mapUsecaseError(err)
	}

	summary, err := h.dispatcher.TriggerNotifications(c.Context(), kind, ownerID, pendingMatches(kind, records))
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, summary)
}

func (h *NotificationHandler) Sweep(c fiber.Ctx) error {
	var req dto.SweepRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().Body(&req); err != nil {
			return badRequest(err)
		}
	}
	limit := req.Limit
	if limit <= 0 {
		limit = h.sweepLimit
	}

	summary, err := h.dispatcher.SweepPending(c.Context(), limit)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, summary)
}

func pendingMatches(kind embedding.OwnerKind, records []match.Record) []usecase.Match {
	out := make([]usecase.Match, 0, len(records))
	for _, r := range records {
		if r.Notified {
			continue
		}
		out = append(out, usecase.Match{
			CounterpartID:   r.Counterpart(kind),
			ResumeID:        r.ResumeID,
			JobID:           r.JobID,
			MatchScore:      r.MatchScore,
			SimilarityScore: r.SimilarityScore,
		})
	}
	return out
}
