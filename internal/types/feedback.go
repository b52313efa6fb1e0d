package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	FeedbackRatingUp   = "up"
	FeedbackRatingDown = "down"
)

type ChatFeedback struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;index" json:"session_id"`
	MessageID uuid.UUID `gorm:"type:uuid;not null;index" json:"message_id"`
	Rating    string    `gorm:"not null" json:"rating"`
	Category  *string   `json:"category,omitempty"`
	Comment   *string   `gorm:"type:text" json:"comment,omitempty"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (ChatFeedback) TableName() string {
	return "chat_feedback"
}
