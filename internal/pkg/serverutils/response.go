package serverutils

import (
	"errors"

	"ai-reqanalyzer-be/internal/pkg/apperrors"
	"ai-reqanalyzer-be/internal/pkg/logger"
	"ai-reqanalyzer-be/internal/pkg/ratelimit"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

type ApiResponse[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

func SuccessResponse[T any](message string, data T) ApiResponse[T] {
	return ApiResponse[T]{
		Code:    fiber.StatusOK,
		Message: message,
		Data:    data,
	}
}

func ErrorResponse(code int, message string) ApiResponse[any] {
	return ApiResponse[any]{
		Code:    code,
		Message: message,
	}
}

func ValidateRequest(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

// NewErrorHandler maps domain errors to HTTP status codes so controllers can
// just return errors.
func NewErrorHandler(log logger.ILogger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal server error"

		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &fiberErr):
			code = fiberErr.Code
			message = fiberErr.Message
		case errors.Is(err, ratelimit.ErrBudgetExceeded):
			code = fiber.StatusTooManyRequests
			message = err.Error()
		default:
			switch apperrors.KindOf(err) {
			case apperrors.KindNotFound:
				code = fiber.StatusNotFound
				message = err.Error()
			case apperrors.KindConflict:
				code = fiber.StatusConflict
				message = err.Error()
			case apperrors.KindInvariant:
				code = fiber.StatusUnprocessableEntity
				message = err.Error()
			case apperrors.KindCollaborator:
				code = fiber.StatusBadGateway
				message = err.Error()
			case apperrors.KindStore:
				log.Error("Http", "Storage failure", map[string]interface{}{
					"path":  ctx.Path(),
					"error": err.Error(),
				})
			default:
				log.Error("Http", "Unhandled error", map[string]interface{}{
					"path":  ctx.Path(),
					"error": err.Error(),
				})
			}
		}

		return ctx.Status(code).JSON(ErrorResponse(code, message))
	}
}
