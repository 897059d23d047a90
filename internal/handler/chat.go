package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"garbanzo/internal/domain"
	"garbanzo/internal/handler/sse"
	"garbanzo/internal/httputil"
	chatsvc "garbanzo/internal/service/chat"
	"garbanzo/internal/service/llm"
)

// ChatHandler serves message streaming, stream cancellation, and the
// backend model/health endpoints.
type ChatHandler struct {
	chat   *chatsvc.Service
	logger *slog.Logger
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chat *chatsvc.Service, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, logger: logger}
}

type sendMessageRequest struct {
	Content string           `json:"content"`
	Options *llm.ChatOptions `json:"options,omitempty"`
}

// Stream handles POST /api/conversations/{id}/chat. The response is an SSE
// stream of chunk/thinking/done/error events.
func (h *ChatHandler) Stream(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)
	conversationID := r.PathValue("id")

	var req sendMessageRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Content == "" {
		handleError(w, h.logger, fmt.Errorf("%w: content is required", domain.ErrValidation))
		return
	}

	stream, err := h.chat.SendMessage(r.Context(), conversationID, userID, req.Content, req.Options)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	writer, err := sse.NewWriter(w)
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	for chunk := range stream {
		if err := writer.Send(sse.FromChunk(chunk)); err != nil {
			// Client is gone; the request context cancels the stream behind us.
			h.logger.Warn("sse write failed",
				"conversation_id", conversationID,
				"error", err,
			)
			return
		}
	}
}

// Cancel handles DELETE /api/conversations/{id}/chat. Responds 204 whether
// or not a stream was active; cancelling nothing is not an error.
func (h *ChatHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	conversationID := r.PathValue("id")
	h.chat.Cancel(conversationID)
	w.WriteHeader(http.StatusNoContent)
}

type modelListResponse struct {
	Models []llm.ModelInfo `json:"models"`
}

// ListModels handles GET /api/models.
func (h *ChatHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	models := h.chat.ListAvailableModels(r.Context())
	httputil.RespondJSON(w, http.StatusOK, modelListResponse{Models: models})
}

// LLMHealth handles GET /api/health/llm.
func (h *ChatHandler) LLMHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.chat.HealthCheck(r.Context()))
}
