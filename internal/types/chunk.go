package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// EmbeddingDim is the dimensionality of the embedding model. It must be
// identical at ingestion and query time; mixing models breaks retrieval
// silently, so the dimension is pinned here and enforced by the column type.
const EmbeddingDim = 768

// DocumentChunk is one overlapping slice of a document's extracted text.
// Ordinals are dense and zero-based per document. Metadata denormalizes the
// owning document's title and source URL so citations render without a join.
type DocumentChunk struct {
	ID         uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	DocumentID uuid.UUID       `gorm:"type:uuid;not null;index" json:"document_id"`
	Document   *Document       `gorm:"constraint:OnDelete:CASCADE;foreignKey:DocumentID;references:ID" json:"document,omitempty"`
	Index      int             `gorm:"column:index;not null" json:"index"`
	Content    string          `gorm:"type:text;not null" json:"content"`
	Embedding  pgvector.Vector `gorm:"type:vector(768)" json:"-"`
	Metadata   datatypes.JSON  `gorm:"type:jsonb" json:"metadata"`
	CreatedAt  time.Time       `gorm:"not null;default:now()" json:"created_at"`

	// Populated by similarity search, not stored.
	Similarity float64 `gorm:"->;-:migration" json:"similarity,omitempty"`
}

func (DocumentChunk) TableName() string {
	return "document_chunks"
}

// ChunkMetadata is the denormalized citation payload stored on each chunk.
type ChunkMetadata struct {
	Title      string  `json:"title"`
	SourceURL  *string `json:"source_url"`
	ChunkIndex int     `json:"chunk_index"`
}
