package serverutils

import (
	"errors"

	"sight-gateway/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware maps the gateway error taxonomy to HTTP statuses:
// ValidationError -> 400, ConfigurationError -> 500 (client-usable message),
// UpstreamError -> 502. Anything else falls through as a generic 500.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var validationErr *apperror.ValidationError
		if errors.As(err, &validationErr) {
			return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse(validationErr.Message))
		}

		var configErr *apperror.ConfigurationError
		if errors.As(err, &configErr) {
			return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(configErr.Error()))
		}

		var upstreamErr *apperror.UpstreamError
		if errors.As(err, &upstreamErr) {
			return ctx.Status(fiber.StatusBadGateway).JSON(ErrorResponse(upstreamErr.Error()))
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Message))
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse("internal server error"))
	}
}
