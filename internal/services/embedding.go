package services

import (
	"context"
	"strings"

	"github.com/fbkorg/chatbot-backend/internal/platform/fault"
	"github.com/fbkorg/chatbot-backend/internal/platform/logger"
	"github.com/fbkorg/chatbot-backend/internal/platform/openai"
)

// EmbedBatchSize caps how many texts go upstream in one request, matching
// the embedding backend's request-size and rate limits.
const EmbedBatchSize = 20

// EmbeddingService vectorizes text. Batching is invisible to callers: output
// ordering always matches input ordering. It never retries; callers decide
// whether a failed batch is fatal.
type EmbeddingService interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

type embeddingService struct {
	client openai.Client
	log    *logger.Logger
}

func NewEmbeddingService(client openai.Client, baseLog *logger.Logger) EmbeddingService {
	return &embeddingService{
		client: client,
		log:    baseLog.With("service", "EmbeddingService"),
	}
}

func (s *embeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	// Embedding models are sensitive to literal line breaks.
	clean := make([]string, len(texts))
	for i, t := range texts {
		clean[i] = strings.ReplaceAll(t, "\n", " ")
	}

	out := make([][]float32, 0, len(clean))
	for start := 0; start < len(clean); start += EmbedBatchSize {
		end := start + EmbedBatchSize
		if end > len(clean) {
			end = len(clean)
		}
		vectors, err := s.client.Embed(ctx, clean[start:end])
		if err != nil {
			return nil, fault.Embedding("embed batch", err)
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (s *embeddingService) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}
