package handler

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"jobscout/internal/delivery/http/dto"
	"jobscout/internal/delivery/http/middleware"
	"jobscout/internal/extraction"
	"jobscout/internal/pipeline"
	"jobscout/internal/pkg/response"
	"jobscout/internal/usecase"
)

type ResumeService interface {
	ParseResumeText(text string) (extraction.Profile, error)
	StoreResume(ctx context.Context, ownerID uuid.UUID, text string) (extraction.Profile, error)
	Status(ctx context.Context, ownerID uuid.UUID) (usecase.ResumeStatus, error)
}

type ResumeRefresher interface {
	RefreshResume(ctx context.Context, ownerID uuid.UUID) (pipeline.Outcome, error)
}

type ResumeHandler struct {
	uc        ResumeService
	refresher ResumeRefresher
}

func NewResumeHandler(uc ResumeService, refresher ResumeRefresher) *ResumeHandler {
	return &ResumeHandler{uc: uc, refresher: refresher}
}

func (h *ResumeHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	grp := r.Group("/resumes")
	grp.Post("/parse", h.Parse)
	grp.Get("/me", h.StatusMine)
	grp.Put("/me", h.StoreMine)
}

// Parse extracts a profile without storing anything.
func (h *ResumeHandler) Parse(c fiber.Ctx) error {
	var req dto.ResumeTextRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(err)
	}

	profile, err := h.uc.ParseResumeText(req.Text)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, profile)
}

// StatusMine reports whether the caller has a resume on file.
func (h *ResumeHandler) StatusMine(c fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized()
	}

	st, err := h.uc.Status(c.Context(), userID)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, st)
}

// StoreMine saves the caller's resume and refreshes its embedding and matches.
func (h *ResumeHandler) StoreMine(c fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized()
	}

	var req dto.ResumeTextRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(err)
	}

	profile, err := h.uc.StoreResume(c.Context(), userID, req.Text)
	if err != nil {
		return mapUsecaseError(err)
	}

	res := dto.StoreResumeResponse{Profile: profile}
	if h.refresher != nil {
		out, err := h.refresher.RefreshResume(c.Context(), userID)
		if err != nil {
			return mapUsecaseError(err)
		}
		refresh := dto.NewRefreshResponse(out)
		res.Refresh = &refresh
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, res)
}
