package Checklist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ShiftAudit/Models"
	"ShiftAudit/Store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrPersistAnswers  = errors.New("failed to save answers")
	ErrCompleteSession = errors.New("answers saved but the session could not be completed")
)

// Notifier is told about submitted checklists that contain non-conformities.
type Notifier interface {
	NotifyNonConformity(ctx context.Context, report Report) error
}

type SubmitRequest struct {
	SessionID   uuid.UUID
	UserID      uuid.UUID
	Responsible string
}

type Result struct {
	SessionID   uuid.UUID `json:"session_id"`
	CompletedAt time.Time `json:"completed_at"`
	Stats       Stats     `json:"stats"`
}

type Submitter struct {
	recorder Recorder
	drafts   DraftStore
	notifier Notifier
	log      *zap.Logger
	now      func() time.Time
}

// NewSubmitter builds a Submitter. notifier may be nil.
func NewSubmitter(recorder Recorder, drafts DraftStore, notifier Notifier, log *zap.Logger) *Submitter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Submitter{
		recorder: recorder,
		drafts:   drafts,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// Submit validates the draft of a session, saves every answer in one batch
// and marks the session complete. Nothing is marked complete unless the
// answers were saved.
func (s *Submitter) Submit(ctx context.Context, req SubmitRequest) (*Result, error) {
	release, err := s.drafts.AcquireSubmitLock(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	session, err := ownedSession(ctx, s.recorder, req.SessionID, req.UserID)
	if err != nil {
		return nil, err
	}
	if session.IsComplete {
		return nil, ErrAlreadyComplete
	}

	sheet, err := loadSheet(ctx, s.recorder, s.drafts, req.SessionID)
	if err != nil {
		return nil, err
	}
	if violations := sheet.Validate(); len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	entries := sheet.Answers()
	records := make([]Store.AnswerRecord, 0, len(entries))
	answers := make([]Models.Answer, 0, len(entries))
	for _, q := range sheet.Questions() {
		e, ok := entries[q.ID]
		if !ok || e.Status == Models.StatusUnset {
			continue
		}
		records = append(records, Store.AnswerRecord{
			QuestionID:    q.ID,
			Status:        e.Status,
			Justification: e.Justification,
		})
		a := Models.Answer{QuestionID: q.ID, Status: e.Status, Question: q}
		if e.Status == Models.StatusNOK {
			j := e.Justification
			a.Justification = &j
		}
		answers = append(answers, a)
	}

	if err := s.recorder.InsertAnswers(ctx, req.SessionID, records); err != nil {
		if errors.Is(err, Store.ErrAlreadyComplete) {
			return nil, ErrAlreadyComplete
		}
		s.log.Error("saving answers failed",
			zap.String("session_id", req.SessionID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrPersistAnswers, err)
	}

	completedAt := s.now()
	if err := s.recorder.CompleteSession(ctx, req.SessionID, completedAt); err != nil {
		if errors.Is(err, Store.ErrAlreadyComplete) {
			return nil, ErrAlreadyComplete
		}
		s.log.Error("completing session failed after answers were saved",
			zap.String("session_id", req.SessionID.String()),
			zap.Int("answers", len(records)),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrCompleteSession, err)
	}

	if err := s.drafts.Delete(ctx, req.SessionID); err != nil {
		s.log.Warn("deleting draft failed", zap.String("session_id", req.SessionID.String()), zap.Error(err))
	}

	session.IsComplete = true
	session.CompletedAt = &completedAt
	report := BuildReport(*session, req.Responsible, answers)

	if s.notifier != nil && report.Stats.NOK > 0 {
		if err := s.notifier.NotifyNonConformity(ctx, report); err != nil {
			s.log.Warn("non-conformity notification failed",
				zap.String("session_id", req.SessionID.String()),
				zap.Error(err))
		}
	}

	s.log.Info("checklist submitted",
		zap.String("session_id", req.SessionID.String()),
		zap.Int("ok", report.Stats.OK),
		zap.Int("nok", report.Stats.NOK),
		zap.Int("na", report.Stats.NA))

	return &Result{SessionID: req.SessionID, CompletedAt: completedAt, Stats: report.Stats}, nil
}
