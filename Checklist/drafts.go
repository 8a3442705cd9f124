package Checklist

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrSubmissionInFlight = errors.New("a submission for this session is already in progress")

// DraftStore keeps the in-progress entries of open sessions between
// requests. Save replaces one entry as a whole.
type DraftStore interface {
	Load(ctx context.Context, sessionID uuid.UUID) (map[uuid.UUID]Entry, error)
	Save(ctx context.Context, sessionID, questionID uuid.UUID, e Entry) error
	Delete(ctx context.Context, sessionID uuid.UUID) error
	// AcquireSubmitLock takes the per-session write lock held by a submission
	// and by each answer update. It returns ErrSubmissionInFlight if the
	// lock is held.
	AcquireSubmitLock(ctx context.Context, sessionID uuid.UUID) (release func(), err error)
}
