package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/fbkorg/chatbot-backend/internal/ingestion/extractor"
	"github.com/fbkorg/chatbot-backend/internal/platform/fault"
	"github.com/fbkorg/chatbot-backend/internal/platform/logger"
	"github.com/fbkorg/chatbot-backend/internal/repos"
	"github.com/fbkorg/chatbot-backend/internal/types"
)

// reingestConcurrency bounds how many documents re-embed at once during a
// bulk re-ingest, to stay inside the embedding backend's rate limits.
const reingestConcurrency = 2

// DocumentService is the operator-facing surface over the document store and
// the ingestion pipeline.
type DocumentService interface {
	Upload(ctx context.Context, title string, sourceURL *string, filename string, data []byte) (*types.Document, error)
	List(ctx context.Context) ([]*types.Document, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Ingest(ctx context.Context, id uuid.UUID) error
	ReingestAll(ctx context.Context) error
}

type documentService struct {
	docRepo   repos.DocumentRepo
	ingestion IngestionService
	log       *logger.Logger
}

func NewDocumentService(docRepo repos.DocumentRepo, ingestion IngestionService, baseLog *logger.Logger) DocumentService {
	return &documentService{
		docRepo:   docRepo,
		ingestion: ingestion,
		log:       baseLog.With("service", "DocumentService"),
	}
}

func (s *documentService) Upload(ctx context.Context, title string, sourceURL *string, filename string, data []byte) (*types.Document, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("file is empty")
	}

	doc := &types.Document{
		ID:        uuid.New(),
		Title:     title,
		SourceURL: sourceURL,
		MimeType:  extractor.MimeFromName(filename),
		Data:      data,
		Status:    types.DocumentStatusPending,
	}
	if _, err := s.docRepo.Create(ctx, nil, doc); err != nil {
		return nil, fault.Store("create document", err)
	}
	s.log.Info("Document uploaded", "document_id", doc.ID, "mime_type", doc.MimeType, "bytes", len(data))
	return doc, nil
}

func (s *documentService) List(ctx context.Context) ([]*types.Document, error) {
	docs, err := s.docRepo.List(ctx, nil)
	if err != nil {
		return nil, fault.Store("list documents", err)
	}
	return docs, nil
}

// Delete removes the document; its chunks cascade at the store level.
func (s *documentService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.docRepo.Delete(ctx, nil, id); err != nil {
		return fault.Store("delete document", err)
	}
	return nil
}

func (s *documentService) Ingest(ctx context.Context, id uuid.UUID) error {
	doc, err := s.docRepo.GetByID(ctx, nil, id)
	if err != nil {
		return fault.Store("load document", err)
	}
	return s.ingestion.Ingest(ctx, doc, doc.Data)
}

// ReingestAll re-runs the pipeline over every stored document. Per-document
// failures land on the document row (the pipeline records them) and do not
// stop the rest of the batch; the first failure is still reported.
func (s *documentService) ReingestAll(ctx context.Context) error {
	docs, err := s.docRepo.List(ctx, nil)
	if err != nil {
		return fault.Store("list documents", err)
	}

	var g errgroup.Group
	g.SetLimit(reingestConcurrency)
	for _, doc := range docs {
		g.Go(func() error {
			if err := s.Ingest(ctx, doc.ID); err != nil {
				s.log.Warn("Re-ingest failed", "document_id", doc.ID, "error", err)
				return err
			}
			return nil
		})
	}
	return g.Wait()
}
