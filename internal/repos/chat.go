package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fbkorg/chatbot-backend/internal/platform/logger"
	"github.com/fbkorg/chatbot-backend/internal/types"
)

type ChatSessionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, session *types.ChatSession) (*types.ChatSession, error)
	Touch(ctx context.Context, tx *gorm.DB, id uuid.UUID, at time.Time) error
}

type chatSessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatSessionRepo(db *gorm.DB, baseLog *logger.Logger) ChatSessionRepo {
	return &chatSessionRepo{db: db, log: baseLog.With("repo", "ChatSessionRepo")}
}

func (r *chatSessionRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *chatSessionRepo) Create(ctx context.Context, tx *gorm.DB, session *types.ChatSession) (*types.ChatSession, error) {
	if err := r.conn(tx).WithContext(ctx).Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

func (r *chatSessionRepo) Touch(ctx context.Context, tx *gorm.DB, id uuid.UUID, at time.Time) error {
	return r.conn(tx).WithContext(ctx).
		Model(&types.ChatSession{}).
		Where("id = ?", id).
		Update("last_seen", at).Error
}

type ChatMessageRepo interface {
	Create(ctx context.Context, tx *gorm.DB, msg *types.ChatMessage) (*types.ChatMessage, error)
	ListBySessionID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, limit int) ([]*types.ChatMessage, error)
}

type chatMessageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatMessageRepo(db *gorm.DB, baseLog *logger.Logger) ChatMessageRepo {
	return &chatMessageRepo{db: db, log: baseLog.With("repo", "ChatMessageRepo")}
}

func (r *chatMessageRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *chatMessageRepo) Create(ctx context.Context, tx *gorm.DB, msg *types.ChatMessage) (*types.ChatMessage, error) {
	if err := r.conn(tx).WithContext(ctx).Create(msg).Error; err != nil {
		return nil, err
	}
	return msg, nil
}

// ListBySessionID returns the newest messages first, capped at limit.
func (r *chatMessageRepo) ListBySessionID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, limit int) ([]*types.ChatMessage, error) {
	var msgs []*types.ChatMessage
	q := r.conn(tx).WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

type ChatFeedbackRepo interface {
	Create(ctx context.Context, tx *gorm.DB, fb *types.ChatFeedback) (*types.ChatFeedback, error)
}

type chatFeedbackRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatFeedbackRepo(db *gorm.DB, baseLog *logger.Logger) ChatFeedbackRepo {
	return &chatFeedbackRepo{db: db, log: baseLog.With("repo", "ChatFeedbackRepo")}
}

func (r *chatFeedbackRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *chatFeedbackRepo) Create(ctx context.Context, tx *gorm.DB, fb *types.ChatFeedback) (*types.ChatFeedback, error) {
	if err := r.conn(tx).WithContext(ctx).Create(fb).Error; err != nil {
		return nil, err
	}
	return fb, nil
}
