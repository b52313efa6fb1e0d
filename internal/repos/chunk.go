package repos

import (
	"context"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/fbkorg/chatbot-backend/internal/platform/logger"
	"github.com/fbkorg/chatbot-backend/internal/types"
)

type ChunkRepo interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, chunks []*types.DocumentChunk) error
	DeleteByDocumentID(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) error
	GetByDocumentID(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) ([]*types.DocumentChunk, error)

	// Search returns up to limit chunks whose cosine similarity to the query
	// embedding meets threshold, most similar first.
	Search(ctx context.Context, tx *gorm.DB, embedding []float32, limit int, threshold float64) ([]*types.DocumentChunk, error)
}

type chunkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChunkRepo(db *gorm.DB, baseLog *logger.Logger) ChunkRepo {
	return &chunkRepo{db: db, log: baseLog.With("repo", "ChunkRepo")}
}

func (r *chunkRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *chunkRepo) CreateBatch(ctx context.Context, tx *gorm.DB, chunks []*types.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	// Keep insert batches small because Content and Embedding are large.
	const batchSize = 100
	return r.conn(tx).WithContext(ctx).CreateInBatches(chunks, batchSize).Error
}

func (r *chunkRepo) DeleteByDocumentID(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) error {
	return r.conn(tx).WithContext(ctx).
		Delete(&types.DocumentChunk{}, "document_id = ?", documentID).Error
}

func (r *chunkRepo) GetByDocumentID(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) ([]*types.DocumentChunk, error) {
	var chunks []*types.DocumentChunk
	if err := r.conn(tx).WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("index ASC").
		Find(&chunks).Error; err != nil {
		return nil, err
	}
	return chunks, nil
}

func (r *chunkRepo) Search(ctx context.Context, tx *gorm.DB, embedding []float32, limit int, threshold float64) ([]*types.DocumentChunk, error) {
	vec := pgvector.NewVector(embedding)

	var chunks []*types.DocumentChunk
	if err := r.conn(tx).WithContext(ctx).
		Raw(`
			SELECT *, 1 - (embedding <=> ?) AS similarity
			FROM document_chunks
			WHERE 1 - (embedding <=> ?) >= ?
			ORDER BY embedding <=> ?
			LIMIT ?
		`, vec, vec, threshold, vec, limit).
		Scan(&chunks).Error; err != nil {
		return nil, err
	}
	return chunks, nil
}
