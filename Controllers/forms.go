package Controllers

import (
	"context"
	"errors"
	"time"

	"ShiftAudit/Checklist"
	"ShiftAudit/Models"
	"ShiftAudit/Store"
	"ShiftAudit/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type StartSessionRequest struct {
	Area             string `json:"area" validate:"required"`
	ProductionLineID string `json:"production_line_id" validate:"required,uuid"`
	OperationID      string `json:"operation_id" validate:"required,uuid"`
	Shift            string `json:"shift" validate:"required"`
}

type AnswerRequest struct {
	Status        string `json:"status" validate:"omitempty,oneof=ok nok na"`
	Justification string `json:"justification" validate:"max=2000"`
}

type FormQuestion struct {
	ID            uuid.UUID     `json:"id"`
	Number        int           `json:"question_number"`
	Text          string        `json:"question_text"`
	Status        Models.Status `json:"status"`
	Justification string        `json:"justification"`
}

// FormController starts sessions, records answers and submits checklists
type FormController struct {
	Repo      Store.Repository
	Forms     *Checklist.Forms
	Submitter *Checklist.Submitter
	Log       *zap.Logger
}

func NewFormController(repo Store.Repository, forms *Checklist.Forms, submitter *Checklist.Submitter, log *zap.Logger) *FormController {
	return &FormController{Repo: repo, Forms: forms, Submitter: submitter, Log: log}
}

func sessionParam(ctx *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Params("id"))
	return id, err == nil
}

func invalidSession(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error":    "Session not found",
		"redirect": safeRedirect,
	})
}

func formView(form *Checklist.Form) fiber.Map {
	answers := form.Sheet.Answers()
	questions := make([]FormQuestion, 0, len(form.Sheet.Questions()))
	for _, q := range form.Sheet.Questions() {
		e := answers[q.ID]
		questions = append(questions, FormQuestion{
			ID:            q.ID,
			Number:        q.Number,
			Text:          q.Text,
			Status:        e.Status,
			Justification: e.Justification,
		})
	}
	return fiber.Map{
		"session":   form.Session,
		"context":   Checklist.Labels(*form.Session),
		"questions": questions,
		"progress":  form.Sheet.Progress(),
		"counts":    form.Sheet.Counts(),
	}
}

// StartSession opens a checklist for a fully selected work context
// POST /api/sessions
func (fc *FormController) StartSession(ctx *fiber.Ctx) error {
	var req StartSessionRequest
	if handled, err := bind(ctx, &req); handled {
		return err
	}
	user, _ := middleware.CurrentUser(ctx)

	lineID := uuid.MustParse(req.ProductionLineID)
	opID := uuid.MustParse(req.OperationID)
	wc := Checklist.WorkContext{
		Area:             Models.Area(req.Area),
		ProductionLineID: &lineID,
		OperationID:      &opID,
		Shift:            Models.Shift(req.Shift),
	}
	resolved, err := wc.Resolve(ctx.UserContext(), fc.Repo)
	if err != nil {
		return respondError(ctx, fc.Log, err)
	}

	session, err := fc.Repo.CreateSession(ctx.UserContext(), resolved.NewSession(user.ID, time.Now()))
	if err != nil {
		return respondError(ctx, fc.Log, err)
	}

	fc.Log.Info("checklist started",
		zap.String("session_id", session.ID.String()),
		zap.String("user_id", user.ID.String()),
		zap.String("shift", string(session.Shift)),
		zap.String("area", string(session.Area)))

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"session":  session,
		"redirect": "/form/" + session.ID.String(),
	})
}

// GetForm returns the questions of an open session with the saved answers
// GET /api/sessions/:id/form
func (fc *FormController) GetForm(ctx *fiber.Ctx) error {
	id, ok := sessionParam(ctx)
	if !ok {
		return invalidSession(ctx)
	}
	user, _ := middleware.CurrentUser(ctx)

	form, err := fc.Forms.Open(ctx.UserContext(), id, user.ID)
	if err != nil {
		return respondError(ctx, fc.Log, err)
	}
	return ctx.JSON(formView(form))
}

// SetAnswer replaces the answer to one question
// PUT /api/sessions/:id/answers/:questionId
func (fc *FormController) SetAnswer(ctx *fiber.Ctx) error {
	id, ok := sessionParam(ctx)
	if !ok {
		return invalidSession(ctx)
	}
	questionID, err := uuid.Parse(ctx.Params("questionId"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid question ID"})
	}
	var req AnswerRequest
	if handled, err := bind(ctx, &req); handled {
		return err
	}
	user, _ := middleware.CurrentUser(ctx)

	form, entry, err := fc.Forms.SetAnswer(ctx.UserContext(), id, user.ID, questionID, Models.Status(req.Status), req.Justification)
	if err != nil {
		return respondError(ctx, fc.Log, err)
	}
	return ctx.JSON(fiber.Map{
		"question_id": questionID,
		"answer":      entry,
		"progress":    form.Sheet.Progress(),
		"counts":      form.Sheet.Counts(),
	})
}

// responsibleName is the full name on the user's profile, or the email.
func responsibleName(ctx context.Context, accounts Store.Accounts, user Models.User) (string, error) {
	profile, err := accounts.GetProfile(ctx, user.ID)
	if errors.Is(err, Store.ErrNotFound) {
		return user.Email, nil
	}
	if err != nil {
		return "", err
	}
	return profile.FullName, nil
}

// Submit validates and saves the checklist, then marks it complete
// POST /api/sessions/:id/submit
func (fc *FormController) Submit(ctx *fiber.Ctx) error {
	id, ok := sessionParam(ctx)
	if !ok {
		return invalidSession(ctx)
	}
	user, _ := middleware.CurrentUser(ctx)

	responsible, err := responsibleName(ctx.UserContext(), fc.Repo, user)
	if err != nil {
		return respondError(ctx, fc.Log, err)
	}

	res, err := fc.Submitter.Submit(ctx.UserContext(), Checklist.SubmitRequest{
		SessionID:   id,
		UserID:      user.ID,
		Responsible: responsible,
	})
	if err != nil {
		return respondError(ctx, fc.Log, err)
	}
	return ctx.JSON(fiber.Map{
		"result":   res,
		"redirect": "/success?session=" + id.String(),
	})
}
