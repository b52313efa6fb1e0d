package services

import (
	"context"
	"errors"
	"testing"

	"github.com/fbkorg/chatbot-backend/internal/types"
)

func TestRetrieve_PassesLimitAndThreshold(t *testing.T) {
	chunkRepo := &fakeChunkRepo{searchResult: []*types.DocumentChunk{{Content: "tutoring info"}}}
	client := &fakeOpenAIClient{}
	svc := NewRetrievalService(NewEmbeddingService(client, newTestLogger(t)), chunkRepo, 0.45, newTestLogger(t))

	chunks := svc.Retrieve(context.Background(), "tutoring", 5)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunkRepo.searchLimit != 5 {
		t.Fatalf("expected limit 5, got %d", chunkRepo.searchLimit)
	}
	if chunkRepo.searchThresh != 0.45 {
		t.Fatalf("expected threshold 0.45, got %v", chunkRepo.searchThresh)
	}
}

func TestRetrieve_DefaultsKWhenUnset(t *testing.T) {
	chunkRepo := &fakeChunkRepo{}
	client := &fakeOpenAIClient{}
	svc := NewRetrievalService(NewEmbeddingService(client, newTestLogger(t)), chunkRepo, 0, newTestLogger(t))

	svc.Retrieve(context.Background(), "events", 0)
	if chunkRepo.searchLimit != DefaultRetrievalTopK {
		t.Fatalf("expected default k %d, got %d", DefaultRetrievalTopK, chunkRepo.searchLimit)
	}
	if chunkRepo.searchThresh != DefaultSimilarityThreshold {
		t.Fatalf("expected default threshold %v, got %v", DefaultSimilarityThreshold, chunkRepo.searchThresh)
	}
}

func TestRetrieve_EmbedFailureDegradesToEmpty(t *testing.T) {
	chunkRepo := &fakeChunkRepo{searchResult: []*types.DocumentChunk{{Content: "x"}}}
	client := &fakeOpenAIClient{embedErr: errors.New("embedding backend down")}
	svc := NewRetrievalService(NewEmbeddingService(client, newTestLogger(t)), chunkRepo, 0.45, newTestLogger(t))

	if chunks := svc.Retrieve(context.Background(), "donations", 5); chunks != nil {
		t.Fatalf("expected nil on embed failure, got %d chunks", len(chunks))
	}
}

func TestRetrieve_SearchFailureDegradesToEmpty(t *testing.T) {
	chunkRepo := &fakeChunkRepo{searchErr: errors.New("connection refused")}
	client := &fakeOpenAIClient{}
	svc := NewRetrievalService(NewEmbeddingService(client, newTestLogger(t)), chunkRepo, 0.45, newTestLogger(t))

	if chunks := svc.Retrieve(context.Background(), "donations", 5); chunks != nil {
		t.Fatalf("expected nil on search failure, got %d chunks", len(chunks))
	}
}
