// Package Store is the persistence boundary of the checklist service.
package Store

import (
	"context"
	"errors"
	"time"

	"ShiftAudit/Models"

	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// NewSession carries the fields a caller chooses when starting a checklist.
type NewSession struct {
	UserID           uuid.UUID
	Shift            Models.Shift
	Area             Models.Area
	ProductionLineID *uuid.UUID
	OperationID      *uuid.UUID
	Labels           Models.ContextLabels
	StartedAt        time.Time
}

// AnswerRecord is one finalized answer ready to be persisted.
type AnswerRecord struct {
	QuestionID    uuid.UUID
	Status        Models.Status
	Justification string
}

// HistoryFilter narrows the completed-session listing. Zero fields do not
// filter. DateFrom and DateTo are calendar days, both inclusive.
type HistoryFilter struct {
	DateFrom *time.Time
	DateTo   *time.Time
	Shift    Models.Shift
	Area     Models.Area
}

// Checklists is the data the checklist flow reads and writes.
type Checklists interface {
	ListQuestions(ctx context.Context) ([]Models.Question, error)
	CreateSession(ctx context.Context, s NewSession) (*Models.FormSession, error)
	GetSession(ctx context.Context, id uuid.UUID) (*Models.FormSession, error)
	InsertAnswers(ctx context.Context, sessionID uuid.UUID, records []AnswerRecord) error
	CompleteSession(ctx context.Context, sessionID uuid.UUID, completedAt time.Time) error
	ListCompletedSessions(ctx context.Context, userID uuid.UUID, f HistoryFilter) ([]Models.FormSession, error)
	ListAnswersWithQuestions(ctx context.Context, sessionID uuid.UUID) ([]Models.Answer, error)
}

// Catalog exposes the production lines and operations a session can target.
type Catalog interface {
	ListProductionLines(ctx context.Context, area Models.Area) ([]Models.ProductionLine, error)
	GetProductionLine(ctx context.Context, id uuid.UUID) (*Models.ProductionLine, error)
	ListOperations(ctx context.Context, lineID uuid.UUID) ([]Models.Operation, error)
	GetOperation(ctx context.Context, id uuid.UUID) (*Models.Operation, error)
}

// Accounts holds users, their profiles and their login sessions.
type Accounts interface {
	CreateUser(ctx context.Context, email string, passwordHash []byte, fullName string) (*Models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*Models.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*Models.User, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*Models.Profile, error)
	CreateLoginSession(ctx context.Context, userID uuid.UUID, expiresAt time.Time) (*Models.LoginSession, error)
	GetLoginSession(ctx context.Context, id uuid.UUID) (*Models.LoginSession, error)
	DeleteLoginSession(ctx context.Context, id uuid.UUID) error
}

// Orphans finds sessions whose answers were saved but whose completion
// flag was never set, once the newest answer is older than a cutoff.
type Orphans interface {
	ListOrphanedSessions(ctx context.Context, answeredBefore time.Time) ([]OrphanedSession, error)
	MarkNeedsReview(ctx context.Context, sessionID uuid.UUID) error
	ListNeedsReview(ctx context.Context, userID uuid.UUID) ([]Models.FormSession, error)
	CompleteSession(ctx context.Context, sessionID uuid.UUID, completedAt time.Time) error
}

type OrphanedSession struct {
	Session      Models.FormSession
	AnswerCount  int
	LastAnswerAt time.Time
}

// Repository is everything the service needs from the database.
type Repository interface {
	Checklists
	Catalog
	Accounts
	Orphans
}
