package Checklist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ShiftAudit/Models"
	"ShiftAudit/Store"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrAlreadyComplete = errors.New("session is already complete")
)

// An answer update waits this long in total for a running submission.
const (
	answerLockAttempts = 5
	answerLockBackoff  = 20 * time.Millisecond
)

// Recorder is the part of the store the form and submission flow use.
type Recorder interface {
	ListQuestions(ctx context.Context) ([]Models.Question, error)
	GetSession(ctx context.Context, id uuid.UUID) (*Models.FormSession, error)
	InsertAnswers(ctx context.Context, sessionID uuid.UUID, records []Store.AnswerRecord) error
	CompleteSession(ctx context.Context, sessionID uuid.UUID, completedAt time.Time) error
}

// Form is an open session with its questions and current answers.
type Form struct {
	Session *Models.FormSession
	Sheet   *AnswerSheet
}

type Forms struct {
	recorder Recorder
	drafts   DraftStore
}

func NewForms(recorder Recorder, drafts DraftStore) *Forms {
	return &Forms{recorder: recorder, drafts: drafts}
}

// ownedSession loads a session and hides sessions of other users behind
// ErrSessionNotFound.
func ownedSession(ctx context.Context, r Recorder, sessionID, userID uuid.UUID) (*Models.FormSession, error) {
	session, err := r.GetSession(ctx, sessionID)
	if errors.Is(err, Store.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if session.UserID != userID {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func loadSheet(ctx context.Context, r Recorder, drafts DraftStore, sessionID uuid.UUID) (*AnswerSheet, error) {
	questions, err := r.ListQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading questions: %w", err)
	}
	entries, err := drafts.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading draft: %w", err)
	}
	return NewAnswerSheet(questions, entries), nil
}

// Open returns the form of an incomplete session owned by userID.
func (f *Forms) Open(ctx context.Context, sessionID, userID uuid.UUID) (*Form, error) {
	session, err := ownedSession(ctx, f.recorder, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.IsComplete {
		return nil, ErrAlreadyComplete
	}
	sheet, err := loadSheet(ctx, f.recorder, f.drafts, sessionID)
	if err != nil {
		return nil, err
	}
	return &Form{Session: session, Sheet: sheet}, nil
}

// lockSession takes the session write lock, retrying briefly while a
// submission holds it.
func (f *Forms) lockSession(ctx context.Context, sessionID uuid.UUID) (func(), error) {
	for attempt := 1; ; attempt++ {
		release, err := f.drafts.AcquireSubmitLock(ctx, sessionID)
		if !errors.Is(err, ErrSubmissionInFlight) || attempt == answerLockAttempts {
			return release, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(answerLockBackoff):
		}
	}
}

// SetAnswer replaces one answer of an open session and stores it in the
// draft. It holds the session lock so a concurrent submission never misses
// or outlives the write.
func (f *Forms) SetAnswer(ctx context.Context, sessionID, userID, questionID uuid.UUID, status Models.Status, justification string) (*Form, Entry, error) {
	release, err := f.lockSession(ctx, sessionID)
	if err != nil {
		return nil, Entry{}, err
	}
	defer release()

	form, err := f.Open(ctx, sessionID, userID)
	if err != nil {
		return nil, Entry{}, err
	}
	entry, err := form.Sheet.SetAnswer(questionID, status, justification)
	if err != nil {
		return nil, Entry{}, err
	}
	if err := f.drafts.Save(ctx, sessionID, questionID, entry); err != nil {
		return nil, Entry{}, fmt.Errorf("saving draft: %w", err)
	}
	return form, entry, nil
}
