package serverutils

import (
	"errors"

	"ai-studio-be/internal/pkg/apperrors"
	"ai-studio-be/pkg/embedding"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware maps domain errors onto HTTP statuses so controllers
// can simply return them. An unknown session is a client error, never an
// empty success.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
		}

		var noSession *apperrors.NoActiveSessionError
		if errors.As(err, &noSession) {
			return ctx.Status(fiber.StatusNotFound).JSON(ErrorResponse(fiber.StatusNotFound, err.Error()))
		}

		var malformed *apperrors.MalformedDocumentError
		if errors.As(err, &malformed) {
			return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse(fiber.StatusBadRequest, err.Error()))
		}

		var unavailable *apperrors.EmbeddingUnavailableError
		if errors.As(err, &unavailable) {
			return ctx.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse(fiber.StatusServiceUnavailable, err.Error()))
		}

		var mismatch *embedding.DimensionMismatchError
		if errors.As(err, &mismatch) {
			return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(fiber.StatusInternalServerError, err.Error()))
		}

		var inconsistent *apperrors.StoreInconsistencyError
		if errors.As(err, &inconsistent) {
			return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(fiber.StatusInternalServerError, err.Error()))
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(fiber.StatusInternalServerError, "Internal server error"))
	}
}
