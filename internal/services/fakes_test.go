package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fbkorg/chatbot-backend/internal/platform/logger"
	"github.com/fbkorg/chatbot-backend/internal/platform/openai"
	"github.com/fbkorg/chatbot-backend/internal/types"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("failed to init logger: %v", err)
	}
	return log
}

// fakeOpenAIClient scripts Embed and StreamChat responses and records calls.
type fakeOpenAIClient struct {
	mu sync.Mutex

	embedCalls [][]string
	embedErr   error
	embedDim   int

	streamText  string
	streamErr   error
	streamCalls [][]openai.Message
}

func (f *fakeOpenAIClient) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.embedCalls = append(f.embedCalls, append([]string(nil), inputs...))
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	dim := f.embedDim
	if dim == 0 {
		dim = 4
	}
	out := make([][]float32, len(inputs))
	for i := range inputs {
		vec := make([]float32, dim)
		// Tag each vector with its input ordinal so ordering is checkable.
		vec[0] = float32(len(f.embedCalls)*1000 + i)
		out[i] = vec
	}
	return out, nil
}

func (f *fakeOpenAIClient) StreamChat(ctx context.Context, messages []openai.Message, onDelta func(string)) (string, error) {
	f.mu.Lock()
	f.streamCalls = append(f.streamCalls, append([]openai.Message(nil), messages...))
	text, err := f.streamText, f.streamErr
	f.mu.Unlock()
	if err != nil {
		return "", err
	}
	for _, r := range text {
		onDelta(string(r))
	}
	return text, nil
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	created  []*types.ChatSession
	touched  []uuid.UUID
	createEr error
}

func (f *fakeSessionRepo) Create(ctx context.Context, tx *gorm.DB, s *types.ChatSession) (*types.ChatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createEr != nil {
		return nil, f.createEr
	}
	f.created = append(f.created, s)
	return s, nil
}

func (f *fakeSessionRepo) Touch(ctx context.Context, tx *gorm.DB, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched = append(f.touched, id)
	return nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []*types.ChatMessage
	createEr error
	listErr  error
}

func (f *fakeMessageRepo) Create(ctx context.Context, tx *gorm.DB, m *types.ChatMessage) (*types.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createEr != nil {
		return nil, f.createEr
	}
	f.messages = append(f.messages, m)
	return m, nil
}

// ListBySessionID mirrors the store contract: newest first, capped at limit.
func (f *fakeMessageRepo) ListBySessionID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, limit int) ([]*types.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*types.ChatMessage
	for i := len(f.messages) - 1; i >= 0; i-- {
		if f.messages[i].SessionID == sessionID {
			out = append(out, f.messages[i])
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeMessageRepo) bySession(sessionID uuid.UUID) []*types.ChatMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.ChatMessage
	for _, m := range f.messages {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	return out
}

type fakeDocumentRepo struct {
	mu       sync.Mutex
	docs     map[uuid.UUID]*types.Document
	statuses map[uuid.UUID][]string
	errsSet  map[uuid.UUID]string
	listErr  error
}

func newFakeDocumentRepo() *fakeDocumentRepo {
	return &fakeDocumentRepo{
		docs:     map[uuid.UUID]*types.Document{},
		statuses: map[uuid.UUID][]string{},
		errsSet:  map[uuid.UUID]string{},
	}
}

func (f *fakeDocumentRepo) Create(ctx context.Context, tx *gorm.DB, d *types.Document) (*types.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[d.ID] = d
	return d, nil
}

func (f *fakeDocumentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[id]
	if !ok {
		return nil, fmt.Errorf("document %s not found", id)
	}
	return d, nil
}

func (f *fakeDocumentRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*types.Document
	for _, d := range f.docs {
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeDocumentRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, id)
	return nil
}

func (f *fakeDocumentRepo) SetStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[id] = append(f.statuses[id], status)
	return nil
}

func (f *fakeDocumentRepo) SetIngested(ctx context.Context, tx *gorm.DB, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[id] = append(f.statuses[id], types.DocumentStatusIngested)
	delete(f.errsSet, id)
	return nil
}

func (f *fakeDocumentRepo) SetError(ctx context.Context, tx *gorm.DB, id uuid.UUID, msg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[id] = append(f.statuses[id], types.DocumentStatusError)
	f.errsSet[id] = msg
	return nil
}

type fakeChunkRepo struct {
	mu       sync.Mutex
	ops      []string
	inserted []*types.DocumentChunk

	searchResult []*types.DocumentChunk
	searchErr    error
	searchLimit  int
	searchThresh float64
}

func (f *fakeChunkRepo) CreateBatch(ctx context.Context, tx *gorm.DB, chunks []*types.DocumentChunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, "insert")
	f.inserted = append(f.inserted, chunks...)
	return nil
}

func (f *fakeChunkRepo) DeleteByDocumentID(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, "delete")
	return nil
}

func (f *fakeChunkRepo) GetByDocumentID(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) ([]*types.DocumentChunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.DocumentChunk
	for _, c := range f.inserted {
		if c.DocumentID == documentID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeChunkRepo) Search(ctx context.Context, tx *gorm.DB, embedding []float32, limit int, threshold float64) ([]*types.DocumentChunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchLimit = limit
	f.searchThresh = threshold
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchResult, nil
}

type fakeRetrieval struct {
	chunks []*types.DocumentChunk
	called bool
}

func (f *fakeRetrieval) Retrieve(ctx context.Context, query string, k int) []*types.DocumentChunk {
	f.called = true
	return f.chunks
}

// turnRecorder captures the event sequence a chat turn emits.
type turnRecorder struct {
	tokens    []string
	doneMsg   uuid.UUID
	doneSess  uuid.UUID
	doneSrcs  []types.Source
	doneCount int
	errMsgs   []string
}

func (r *turnRecorder) Token(token string) error {
	r.tokens = append(r.tokens, token)
	return nil
}

func (r *turnRecorder) Done(messageID, sessionID uuid.UUID, sources []types.Source) error {
	r.doneCount++
	r.doneMsg = messageID
	r.doneSess = sessionID
	r.doneSrcs = sources
	return nil
}

func (r *turnRecorder) Error(message string) error {
	r.errMsgs = append(r.errMsgs, message)
	return nil
}
