package handler

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"

	"jobscout/internal/delivery/http/middleware"
	"jobscout/internal/domain/embedding"
	gateway "jobscout/internal/infrastructure/embedding"
	"jobscout/internal/pkg/response"
	"jobscout/internal/repository"
	"jobscout/internal/usecase"
)

var errNoEmbedding = fmt.Errorf("%w: no embedding stored", usecase.ErrNotFound)

func mapUsecaseError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, embedding.ErrUnknownOwnerKind):
		return middleware.NewAppError(fiber.StatusBadRequest, "Unknown owner kind", nil, err)
	case errors.Is(err, usecase.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	case errors.Is(err, usecase.ErrEmptyContent):
		return middleware.NewAppError(fiber.StatusUnprocessableEntity, "Content is empty", nil, err)
	case errors.Is(err, usecase.ErrNotFound), errors.Is(err, repository.ErrNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Not found", nil, err)
	case errors.Is(err, gateway.ErrProvider), errors.Is(err, gateway.ErrMalformedResponse):
		return middleware.NewAppError(fiber.StatusBadGateway, response.MessageBadGateway, nil, err)
	case errors.Is(err, repository.ErrPersistence):
		return middleware.NewAppError(fiber.StatusServiceUnavailable, response.MessageServiceUnavailable, nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}

func badRequest(err error) error {
	return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
}

func unauthorized() error {
	return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
}
