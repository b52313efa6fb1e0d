package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fbkorg/chatbot-backend/internal/http/response"
	"github.com/fbkorg/chatbot-backend/internal/platform/logger"
	"github.com/fbkorg/chatbot-backend/internal/repos"
	"github.com/fbkorg/chatbot-backend/internal/types"
)

var (
	errMessageRequired = errors.New("message is required")
	errChatUnavailable = errors.New("the assistant is unavailable right now, please try again")
	errFeedbackIDs     = errors.New("sessionId, messageId, and rating are required")
	errFeedbackRating  = errors.New(`rating must be "up" or "down"`)
)

type FeedbackHandler struct {
	feedback repos.ChatFeedbackRepo
	log      *logger.Logger
}

func NewFeedbackHandler(log *logger.Logger, feedback repos.ChatFeedbackRepo) *FeedbackHandler {
	return &FeedbackHandler{feedback: feedback, log: log.With("handler", "FeedbackHandler")}
}

type feedbackReq struct {
	SessionID string  `json:"sessionId"`
	MessageID string  `json:"messageId"`
	Rating    string  `json:"rating"`
	Category  *string `json:"category"`
	Comment   *string `json:"comment"`
}

// POST /api/feedback
func (h *FeedbackHandler) Submit(c *gin.Context) {
	var req feedbackReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	sessionID, sErr := uuid.Parse(strings.TrimSpace(req.SessionID))
	messageID, mErr := uuid.Parse(strings.TrimSpace(req.MessageID))
	if req.SessionID == "" || req.MessageID == "" || req.Rating == "" || sErr != nil || mErr != nil {
		response.RespondError(c, http.StatusBadRequest, "missing_fields", errFeedbackIDs)
		return
	}
	if req.Rating != types.FeedbackRatingUp && req.Rating != types.FeedbackRatingDown {
		response.RespondError(c, http.StatusBadRequest, "invalid_rating", errFeedbackRating)
		return
	}

	if _, err := h.feedback.Create(c.Request.Context(), nil, &types.ChatFeedback{
		ID:        uuid.New(),
		SessionID: sessionID,
		MessageID: messageID,
		Rating:    req.Rating,
		Category:  req.Category,
		Comment:   req.Comment,
	}); err != nil {
		h.log.Error("Failed to save feedback", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "feedback_failed", errors.New("failed to save feedback"))
		return
	}

	response.RespondOK(c, gin.H{"success": true})
}
