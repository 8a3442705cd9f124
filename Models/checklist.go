package Models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Question struct {
	UUIDModel
	Number    int       `json:"question_number" gorm:"column:question_number;not null;uniqueIndex"`
	Text      string    `json:"question_text" gorm:"column:question_text;type:text;not null"`
	CreatedAt time.Time `json:"created_at"`
}

type ProductionLine struct {
	UUIDModel
	Area       Area        `json:"area" gorm:"size:20;not null;index"`
	LineNumber int         `json:"line_number" gorm:"not null"`
	LineName   string      `json:"line_name" gorm:"size:255;not null"`
	CreatedAt  time.Time   `json:"created_at"`
	Operations []Operation `json:"operations,omitempty" gorm:"foreignKey:ProductionLineID;constraint:OnDelete:CASCADE"`
}

type Operation struct {
	UUIDModel
	ProductionLineID uuid.UUID `json:"production_line_id" gorm:"type:char(36);not null;index"`
	OperationNumber  int       `json:"operation_number" gorm:"not null"`
	OperationName    string    `json:"operation_name" gorm:"size:255;not null"`
	CreatedAt        time.Time `json:"created_at"`
}

// ContextLabels is the human-readable work context captured when a session
// starts, so reports stay stable if the catalog is renamed later.
type ContextLabels struct {
	Area           string `json:"area"`
	ProductionLine string `json:"production_line,omitempty"`
	Operation      string `json:"operation,omitempty"`
}

type FormSession struct {
	UUIDModel
	UserID           uuid.UUID      `json:"user_id" gorm:"type:char(36);not null;index"`
	Shift            Shift          `json:"shift" gorm:"size:20;not null;index"`
	Area             Area           `json:"area" gorm:"size:20;not null;index"`
	ProductionLineID *uuid.UUID     `json:"production_line_id" gorm:"type:char(36)"`
	OperationID      *uuid.UUID     `json:"operation_id" gorm:"type:char(36)"`
	StartedAt        time.Time      `json:"started_at" gorm:"not null"`
	CompletedAt      *time.Time     `json:"completed_at" gorm:"index"`
	IsComplete       bool           `json:"is_complete" gorm:"not null;default:false;index"`
	NeedsReview      bool           `json:"needs_review" gorm:"not null;default:false"`
	ContextLabels    datatypes.JSON `json:"context_labels"`
}

func (FormSession) TableName() string {
	return "form_sessions"
}

type Answer struct {
	UUIDModel
	FormSessionID uuid.UUID `json:"form_session_id" gorm:"type:char(36);not null;index;uniqueIndex:idx_answers_session_question"`
	QuestionID    uuid.UUID `json:"question_id" gorm:"type:char(36);not null;uniqueIndex:idx_answers_session_question"`
	Status        Status    `json:"status" gorm:"size:10;not null"`
	Justification *string   `json:"justification" gorm:"type:text"`
	AnsweredAt    time.Time `json:"answered_at" gorm:"not null"`

	Question Question `json:"question" gorm:"foreignKey:QuestionID"`
}
