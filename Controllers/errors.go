package Controllers

import (
	"errors"

	"ShiftAudit/Checklist"
	"ShiftAudit/Store"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// safeRedirect is where the client goes when a session it asked for is gone.
const safeRedirect = "/shift"

// respondError maps domain errors to HTTP responses. Anything unknown is
// logged and reported as a 500.
func respondError(ctx *fiber.Ctx, log *zap.Logger, err error) error {
	var verr *Checklist.ValidationError
	var gerr *Checklist.GateError

	switch {
	case errors.As(err, &verr):
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":                     "Please answer every question and justify every NOK",
			"violations":                verr.Violations,
			"first_invalid_question_id": verr.FirstInvalid(),
		})
	case errors.As(err, &gerr):
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": gerr.Err.Error(),
			"step":  gerr.Step,
		})
	case errors.Is(err, Checklist.ErrSessionNotFound):
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":    "Session not found",
			"redirect": safeRedirect,
		})
	case errors.Is(err, Store.ErrNotFound):
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":    "Not found",
			"redirect": safeRedirect,
		})
	case errors.Is(err, Checklist.ErrAlreadyComplete), errors.Is(err, Checklist.ErrSubmissionInFlight):
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": rootMessage(err)})
	case errors.Is(err, Checklist.ErrUnknownQuestion), errors.Is(err, Checklist.ErrInvalidStatus):
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": rootMessage(err)})
	case errors.Is(err, Checklist.ErrPersistAnswers):
		log.Error("submission failed", zap.Error(err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": Checklist.ErrPersistAnswers.Error(),
		})
	case errors.Is(err, Checklist.ErrCompleteSession):
		log.Error("submission left session incomplete", zap.Error(err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": Checklist.ErrCompleteSession.Error(),
		})
	}

	log.Error("request failed", zap.String("path", ctx.Path()), zap.Error(err))
	return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}

// rootMessage is the text of the innermost sentinel in err.
func rootMessage(err error) string {
	for _, sentinel := range []error{
		Checklist.ErrAlreadyComplete,
		Checklist.ErrSubmissionInFlight,
		Checklist.ErrUnknownQuestion,
		Checklist.ErrInvalidStatus,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}

// ErrorHandler is the Fiber fallback for errors returned by handlers.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return ctx.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}
		return respondError(ctx, log, err)
	}
}
