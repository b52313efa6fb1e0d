package services

import (
	"context"

	"github.com/fbkorg/chatbot-backend/internal/platform/logger"
	"github.com/fbkorg/chatbot-backend/internal/repos"
	"github.com/fbkorg/chatbot-backend/internal/types"
)

const (
	// DefaultRetrievalTopK caps how many chunks ground one answer.
	DefaultRetrievalTopK = 5
	// DefaultSimilarityThreshold excludes weak matches even when fewer than
	// k chunks remain, so the result set may be smaller than k or empty.
	DefaultSimilarityThreshold = 0.45
)

// RetrievalService embeds a query with the same model used at ingestion time
// and runs a thresholded nearest-neighbor search. Failures degrade to an
// empty result set: answering ungrounded beats failing the whole chat turn.
type RetrievalService interface {
	Retrieve(ctx context.Context, query string, k int) []*types.DocumentChunk
}

type retrievalService struct {
	embedder  EmbeddingService
	chunkRepo repos.ChunkRepo
	threshold float64
	log       *logger.Logger
}

func NewRetrievalService(embedder EmbeddingService, chunkRepo repos.ChunkRepo, threshold float64, baseLog *logger.Logger) RetrievalService {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	return &retrievalService{
		embedder:  embedder,
		chunkRepo: chunkRepo,
		threshold: threshold,
		log:       baseLog.With("service", "RetrievalService"),
	}
}

func (s *retrievalService) Retrieve(ctx context.Context, query string, k int) []*types.DocumentChunk {
	if k <= 0 {
		k = DefaultRetrievalTopK
	}

	embedding, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		s.log.Warn("Query embedding failed; answering ungrounded", "error", err)
		return nil
	}

	chunks, err := s.chunkRepo.Search(ctx, nil, embedding, k, s.threshold)
	if err != nil {
		s.log.Warn("Vector search failed; answering ungrounded", "error", err)
		return nil
	}
	return chunks
}
