package Models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UUIDModel is embedded by every table keyed by a UUID. SQLite and MySQL
// have no server-side generator, so the key is assigned before insert.
type UUIDModel struct {
	ID uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
}

func (m *UUIDModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

type User struct {
	UUIDModel
	Email        string    `json:"email" gorm:"size:255;not null;uniqueIndex"`
	PasswordHash []byte    `json:"-" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at"`
}

type Profile struct {
	UUIDModel
	UserID    uuid.UUID `json:"user_id" gorm:"type:char(36);not null;uniqueIndex"`
	FullName  string    `json:"full_name" gorm:"size:255;not null"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginSession backs one signed token. Signing out deletes the row, which
// invalidates the token even before it expires.
type LoginSession struct {
	UUIDModel
	UserID    uuid.UUID `json:"user_id" gorm:"type:char(36);not null;index"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}
