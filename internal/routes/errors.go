package routes

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/example/stocki/internal/apperr"
)

// ErrorHandler writes every failure as {"message": ...}. Dependency and
// unknown errors are logged with their cause and shown generically.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
		}

		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			status := apperr.StatusCode(appErr)
			if appErr.Kind == apperr.KindDependency {
				logger.Error("request failed",
					slog.String("method", c.Method()),
					slog.String("path", c.Path()),
					slog.Any("error", err),
				)
			}
			return c.Status(status).JSON(fiber.Map{"message": appErr.Message})
		}

		logger.Error("unhandled error",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Any("error", err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "internal server error"})
	}
}
