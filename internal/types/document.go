package types

import (
	"time"

	"github.com/google/uuid"
)

// Document lifecycle statuses. Transitions within one ingestion attempt are
// monotonic: pending/ingested -> ingesting -> ingested | error.
const (
	DocumentStatusPending   = "pending"
	DocumentStatusIngesting = "ingesting"
	DocumentStatusIngested  = "ingested"
	DocumentStatusError     = "error"
)

type Document struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Title      string     `gorm:"not null" json:"title"`
	SourceURL  *string    `gorm:"column:source_url" json:"source_url,omitempty"`
	MimeType   string     `gorm:"column:mime_type;not null" json:"mime_type"`
	Data       []byte     `gorm:"type:bytea" json:"-"`
	Status     string     `gorm:"not null;default:'pending'" json:"status"`
	ErrorMsg   *string    `gorm:"column:error_msg" json:"error_msg,omitempty"`
	IngestedAt *time.Time `gorm:"column:ingested_at" json:"ingested_at,omitempty"`
	CreatedAt  time.Time  `gorm:"not null;default:now()" json:"created_at"`
}

func (Document) TableName() string {
	return "documents"
}
