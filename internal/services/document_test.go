package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/fbkorg/chatbot-backend/internal/types"
)

func TestUpload_RequiresTitleAndData(t *testing.T) {
	docRepo := newFakeDocumentRepo()
	svc := NewDocumentService(docRepo, nil, newTestLogger(t))

	if _, err := svc.Upload(context.Background(), "  ", nil, "guide.pdf", []byte("x")); err == nil {
		t.Fatalf("expected error for blank title")
	}
	if _, err := svc.Upload(context.Background(), "Guide", nil, "guide.pdf", nil); err == nil {
		t.Fatalf("expected error for empty file")
	}
	if len(docRepo.docs) != 0 {
		t.Fatalf("nothing should be stored on validation failure")
	}
}

func TestUpload_ClassifiesMimeFromFilename(t *testing.T) {
	docRepo := newFakeDocumentRepo()
	svc := NewDocumentService(docRepo, nil, newTestLogger(t))

	doc, err := svc.Upload(context.Background(), "Annual Report", nil, "report.pdf", []byte("%PDF-1.7 data"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.MimeType != "application/pdf" {
		t.Fatalf("expected pdf mime, got %q", doc.MimeType)
	}
	if doc.Status != types.DocumentStatusPending {
		t.Fatalf("uploads start pending, got %q", doc.Status)
	}
	if len(doc.Data) == 0 {
		t.Fatalf("raw bytes must be retained for later ingestion")
	}
}

func TestIngestByID_LoadsStoredBytes(t *testing.T) {
	docRepo := newFakeDocumentRepo()
	chunkRepo := &fakeChunkRepo{}
	client := &fakeOpenAIClient{}
	ingestion := NewIngestionService(docRepo, chunkRepo, NewEmbeddingService(client, newTestLogger(t)), newTestLogger(t))
	svc := NewDocumentService(docRepo, ingestion, newTestLogger(t))

	doc := &types.Document{
		ID:       uuid.New(),
		Title:    "Programs Guide",
		MimeType: "text/plain",
		Data:     longText(40),
		Status:   types.DocumentStatusPending,
	}
	docRepo.docs[doc.ID] = doc

	if err := svc.Ingest(context.Background(), doc.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunkRepo.inserted) == 0 {
		t.Fatalf("expected chunks from the stored bytes")
	}
}

func TestIngestByID_UnknownDocument(t *testing.T) {
	docRepo := newFakeDocumentRepo()
	svc := NewDocumentService(docRepo, nil, newTestLogger(t))

	if err := svc.Ingest(context.Background(), uuid.New()); err == nil {
		t.Fatalf("expected error for unknown document")
	}
}

func TestReingestAll_ContinuesPastFailures(t *testing.T) {
	docRepo := newFakeDocumentRepo()
	chunkRepo := &fakeChunkRepo{}
	client := &fakeOpenAIClient{}
	ingestion := NewIngestionService(docRepo, chunkRepo, NewEmbeddingService(client, newTestLogger(t)), newTestLogger(t))
	svc := NewDocumentService(docRepo, ingestion, newTestLogger(t))

	good := &types.Document{ID: uuid.New(), Title: "Good", MimeType: "text/plain", Data: longText(40)}
	bad := &types.Document{ID: uuid.New(), Title: "Bad", MimeType: "application/pdf", Data: []byte("not a pdf")}
	docRepo.docs[good.ID] = good
	docRepo.docs[bad.ID] = bad

	err := svc.ReingestAll(context.Background())
	if err == nil {
		t.Fatalf("expected the failure to be reported")
	}

	// The good document still finished despite the bad one.
	goodStatuses := docRepo.statuses[good.ID]
	if len(goodStatuses) == 0 || goodStatuses[len(goodStatuses)-1] != types.DocumentStatusIngested {
		t.Fatalf("good document should be ingested, statuses=%v", goodStatuses)
	}
	badStatuses := docRepo.statuses[bad.ID]
	if len(badStatuses) == 0 || badStatuses[len(badStatuses)-1] != types.DocumentStatusError {
		t.Fatalf("bad document should be marked error, statuses=%v", badStatuses)
	}
}
