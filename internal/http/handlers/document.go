package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fbkorg/chatbot-backend/internal/http/response"
	"github.com/fbkorg/chatbot-backend/internal/platform/logger"
	"github.com/fbkorg/chatbot-backend/internal/services"
)

// maxUploadBytes caps admin uploads; anything bigger should not be going
// through the synchronous ingestion path anyway.
const maxUploadBytes = 32 << 20

type DocumentHandler struct {
	docs services.DocumentService
	log  *logger.Logger
}

func NewDocumentHandler(log *logger.Logger, docs services.DocumentService) *DocumentHandler {
	return &DocumentHandler{docs: docs, log: log.With("handler", "DocumentHandler")}
}

// POST /api/admin/documents (multipart: file, title, sourceUrl)
func (h *DocumentHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "file_required", errors.New("no file provided"))
		return
	}
	if fileHeader.Size > maxUploadBytes {
		response.RespondError(c, http.StatusBadRequest, "file_too_large", errors.New("file exceeds upload limit"))
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "file_unreadable", err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "file_unreadable", err)
		return
	}

	var sourceURL *string
	if raw := strings.TrimSpace(c.PostForm("sourceUrl")); raw != "" {
		sourceURL = &raw
	}

	doc, err := h.docs.Upload(c.Request.Context(), c.PostForm("title"), sourceURL, fileHeader.Filename, data)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "upload_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"success": true, "documentId": doc.ID})
}

// GET /api/admin/documents
func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.docs.List(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to list documents", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "list_failed", errors.New("failed to list documents"))
		return
	}
	response.RespondOK(c, gin.H{"documents": docs})
}

// POST /api/admin/documents/:id/ingest
func (h *DocumentHandler) Ingest(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_document_id", err)
		return
	}
	if err := h.docs.Ingest(c.Request.Context(), id); err != nil {
		// The error is already recorded on the document row; surface it to
		// the operator too.
		h.log.Error("Ingestion failed", "document_id", id, "error", err)
		response.RespondError(c, http.StatusInternalServerError, "ingest_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"success": true})
}

// POST /api/admin/documents/reingest
func (h *DocumentHandler) ReingestAll(c *gin.Context) {
	if err := h.docs.ReingestAll(c.Request.Context()); err != nil {
		h.log.Error("Bulk re-ingest finished with failures", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "reingest_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"success": true})
}

// DELETE /api/admin/documents/:id
func (h *DocumentHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_document_id", err)
		return
	}
	if err := h.docs.Delete(c.Request.Context(), id); err != nil {
		h.log.Error("Failed to delete document", "document_id", id, "error", err)
		response.RespondError(c, http.StatusInternalServerError, "delete_failed", errors.New("failed to delete document"))
		return
	}
	response.RespondOK(c, gin.H{"success": true})
}
