package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fbkorg/chatbot-backend/internal/http/response"
	"github.com/fbkorg/chatbot-backend/internal/platform/logger"
	"github.com/fbkorg/chatbot-backend/internal/services"
	"github.com/fbkorg/chatbot-backend/internal/sse"
)

type ChatHandler struct {
	chat services.ChatService
	log  *logger.Logger
}

func NewChatHandler(log *logger.Logger, chat services.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat, log: log.With("handler", "ChatHandler")}
}

type chatTurnReq struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

// POST /api/chat
//
// Emits an SSE stream of token events, one terminal done or error event,
// and a final [DONE] marker.
func (h *ChatHandler) Turn(c *gin.Context) {
	var req chatTurnReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		response.RespondError(c, http.StatusBadRequest, "message_required", errMessageRequired)
		return
	}

	ctx := c.Request.Context()
	turn, err := h.chat.PrepareTurn(ctx, req.SessionID, req.Message)
	if err != nil {
		h.log.Error("Failed to prepare chat turn", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "chat_turn_failed", errChatUnavailable)
		return
	}

	stream, err := sse.NewStream(c.Writer)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "streaming_unsupported", err)
		return
	}
	defer stream.Close()

	h.chat.StreamTurn(ctx, turn, stream)
}

// GET /api/chat/history?sessionId=...
func (h *ChatHandler) History(c *gin.Context) {
	sessionID, err := uuid.Parse(strings.TrimSpace(c.Query("sessionId")))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_session_id", err)
		return
	}
	msgs, err := h.chat.History(c.Request.Context(), sessionID)
	if err != nil {
		h.log.Error("Failed to load chat history", "session_id", sessionID, "error", err)
		response.RespondError(c, http.StatusInternalServerError, "history_failed", errChatUnavailable)
		return
	}
	response.RespondOK(c, gin.H{"messages": msgs})
}
