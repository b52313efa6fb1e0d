package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatSession groups messages from one widget visitor. Created lazily on the
// first message; LastSeen is refreshed best-effort on later turns.
type ChatSession struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	LastSeen  time.Time `gorm:"column:last_seen;not null;default:now()" json:"last_seen"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}

// ChatMessage is one turn. Immutable once persisted. Sources is a JSON array
// of Source objects; empty for user messages and unguided answers.
type ChatMessage struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SessionID uuid.UUID      `gorm:"type:uuid;not null;index" json:"session_id"`
	Session   *ChatSession   `gorm:"constraint:OnDelete:CASCADE;foreignKey:SessionID;references:ID" json:"-"`
	Role      string         `gorm:"not null" json:"role"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	Sources   datatypes.JSON `gorm:"type:jsonb" json:"sources"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

// Source is a citation surfaced to the visitor, either derived from retrieved
// chunks or parsed from the model's trailing citation block.
type Source struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}
