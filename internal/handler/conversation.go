package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"garbanzo/internal/domain"
	"garbanzo/internal/domain/models"
	"garbanzo/internal/httputil"
	conversationsvc "garbanzo/internal/service/conversation"
)

// ConversationHandler serves conversation CRUD.
type ConversationHandler struct {
	conversations *conversationsvc.Service
	logger        *slog.Logger
}

// NewConversationHandler creates a new ConversationHandler.
func NewConversationHandler(conversations *conversationsvc.Service, logger *slog.Logger) *ConversationHandler {
	return &ConversationHandler{conversations: conversations, logger: logger}
}

type createConversationRequest struct {
	Title          *string `json:"title,omitempty"`
	Model          string  `json:"model,omitempty"`
	InitialMessage *string `json:"initial_message,omitempty"`
}

func (r createConversationRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Length(0, 200)),
		validation.Field(&r.Model, validation.Length(0, 100)),
	)
}

type updateConversationRequest struct {
	Title *string `json:"title,omitempty"`
	Model *string `json:"model,omitempty"`
}

func (r updateConversationRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Length(0, 200)),
		validation.Field(&r.Model, validation.Length(0, 100)),
	)
}

type conversationOut struct {
	ID           string           `json:"id"`
	Title        *string          `json:"title"`
	Model        string           `json:"model"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	MessageCount int              `json:"message_count"`
	Messages     []models.Message `json:"messages,omitempty"`
}

func toConversationOut(conv *models.Conversation, includeMessages bool) conversationOut {
	out := conversationOut{
		ID:           conv.ID,
		Title:        conv.Title,
		Model:        conv.Model,
		CreatedAt:    conv.CreatedAt,
		UpdatedAt:    conv.UpdatedAt,
		MessageCount: len(conv.Messages),
	}
	if includeMessages {
		out.Messages = conv.Messages
		if out.Messages == nil {
			out.Messages = []models.Message{}
		}
	}
	return out
}

type conversationListResponse struct {
	Conversations []conversationOut `json:"conversations"`
	Total         int               `json:"total"`
	Page          int               `json:"page"`
	PageSize      int               `json:"page_size"`
}

// Create handles POST /api/conversations.
func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createConversationRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		handleError(w, h.logger, fmt.Errorf("%w: %v", domain.ErrValidation, err))
		return
	}

	userID := httputil.GetUserID(r)
	conv, err := h.conversations.Create(r.Context(), userID, req.Title, req.Model, req.InitialMessage)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, toConversationOut(conv, true))
}

// List handles GET /api/conversations.
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", 20)

	conversations, total, err := h.conversations.List(r.Context(), userID, page, pageSize)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	out := make([]conversationOut, len(conversations))
	for i := range conversations {
		out[i] = toConversationOut(&conversations[i], false)
	}

	httputil.RespondJSON(w, http.StatusOK, conversationListResponse{
		Conversations: out,
		Total:         total,
		Page:          page,
		PageSize:      pageSize,
	})
}

// Get handles GET /api/conversations/{id}.
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)
	conversationID := r.PathValue("id")

	conv, err := h.conversations.Get(r.Context(), conversationID, userID, true)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, toConversationOut(conv, true))
}

// Update handles PATCH /api/conversations/{id}.
func (h *ConversationHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateConversationRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		handleError(w, h.logger, fmt.Errorf("%w: %v", domain.ErrValidation, err))
		return
	}

	userID := httputil.GetUserID(r)
	conversationID := r.PathValue("id")

	conv, err := h.conversations.Update(r.Context(), conversationID, userID, req.Title, req.Model)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, toConversationOut(conv, false))
}

// Delete handles DELETE /api/conversations/{id}.
func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)
	conversationID := r.PathValue("id")

	if err := h.conversations.Delete(r.Context(), conversationID, userID); err != nil {
		handleError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func queryInt(r *http.Request, key string, fallback int) int {
	if value := r.URL.Query().Get(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
