package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"

	"github.com/fbkorg/chatbot-backend/internal/ingestion/extractor"
	"github.com/fbkorg/chatbot-backend/internal/platform/fault"
	"github.com/fbkorg/chatbot-backend/internal/platform/logger"
	"github.com/fbkorg/chatbot-backend/internal/repos"
	"github.com/fbkorg/chatbot-backend/internal/types"
)

// IngestionService runs the extract -> chunk -> embed -> store pipeline for
// one document. Each step is a commit point; the pipeline is not one
// transaction. A crash mid-way leaves the document in `ingesting` or `error`,
// never falsely `ingested`. Old chunks are deleted before any new chunk is
// inserted, so re-ingestion atomically replaces the prior chunk set.
type IngestionService interface {
	Ingest(ctx context.Context, doc *types.Document, data []byte) error
}

type ingestionService struct {
	docRepo   repos.DocumentRepo
	chunkRepo repos.ChunkRepo
	embedder  EmbeddingService
	log       *logger.Logger
}

func NewIngestionService(docRepo repos.DocumentRepo, chunkRepo repos.ChunkRepo, embedder EmbeddingService, baseLog *logger.Logger) IngestionService {
	return &ingestionService{
		docRepo:   docRepo,
		chunkRepo: chunkRepo,
		embedder:  embedder,
		log:       baseLog.With("service", "IngestionService"),
	}
}

func (s *ingestionService) Ingest(ctx context.Context, doc *types.Document, data []byte) error {
	log := s.log.With("document_id", doc.ID)

	if err := s.docRepo.SetStatus(ctx, nil, doc.ID, types.DocumentStatusIngesting); err != nil {
		return fault.Store("mark document ingesting", err)
	}

	if err := s.run(ctx, doc, data, log); err != nil {
		if markErr := s.docRepo.SetError(ctx, nil, doc.ID, err.Error()); markErr != nil {
			log.Error("Failed to record ingestion error on document", "error", markErr)
		}
		return err
	}

	if err := s.docRepo.SetIngested(ctx, nil, doc.ID, time.Now().UTC()); err != nil {
		return fault.Store("mark document ingested", err)
	}
	log.Info("Document ingested")
	return nil
}

func (s *ingestionService) run(ctx context.Context, doc *types.Document, data []byte, log *logger.Logger) error {
	text, err := extractor.ExtractText(data, doc.MimeType)
	if err != nil {
		return err
	}

	chunks := extractor.ChunkText(text)
	log.Debug("Document chunked", "chunks", len(chunks), "text_len", len(text))

	// Delete strictly before insert: re-ingestion must leave exactly the new
	// chunk set, with no overlap between old and new.
	if err := s.chunkRepo.DeleteByDocumentID(ctx, nil, doc.ID); err != nil {
		return fault.Store("delete prior chunks", err)
	}

	for start := 0; start < len(chunks); start += EmbedBatchSize {
		end := start + EmbedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		vectors, err := s.embedder.EmbedBatch(ctx, batch)
		if err != nil {
			return err
		}

		rows := make([]*types.DocumentChunk, len(batch))
		for j, content := range batch {
			meta, err := json.Marshal(types.ChunkMetadata{
				Title:      doc.Title,
				SourceURL:  doc.SourceURL,
				ChunkIndex: start + j,
			})
			if err != nil {
				return err
			}
			rows[j] = &types.DocumentChunk{
				DocumentID: doc.ID,
				Index:      start + j,
				Content:    content,
				Embedding:  pgvector.NewVector(vectors[j]),
				Metadata:   datatypes.JSON(meta),
			}
		}

		if err := s.chunkRepo.CreateBatch(ctx, nil, rows); err != nil {
			return fault.Store("insert chunk batch", err)
		}
	}

	return nil
}
