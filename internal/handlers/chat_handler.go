package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"docuchat/internal/models"
)

// ChatProcessor runs the retrieval-augmented chat pipeline
type ChatProcessor interface {
	ProcessChat(ctx context.Context, userQuery string, topK int) *models.ChatResult
}

// ChatHandler handles HTTP requests for document Q&A
type ChatHandler struct {
	orchestrator ChatProcessor
	logger       *log.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(orchestrator ChatProcessor, logger *log.Logger) *ChatHandler {
	return &ChatHandler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// Chat handles chat requests over ingested documents
// @Summary Chat with documents
// @Description Answer a question grounded in previously uploaded documents
// @Tags chat
// @Accept json
// @Produce json
// @Param request body models.ChatRequest true "Chat request"
// @Success 200 {object} models.ChatResponse
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /api/chat [post]
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	if h.orchestrator == nil {
		h.sendError(w, http.StatusServiceUnavailable, "Chat service is not available")
		return
	}

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Printf("Invalid chat request body: %v", err)
		h.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	h.logger.Printf("Chat request (session %s): %q", sessionID, req.Query)

	result := h.orchestrator.ProcessChat(r.Context(), req.Query, req.TopK)
	if !result.Success {
		h.sendError(w, http.StatusBadRequest, result.Error)
		return
	}

	h.sendJSON(w, http.StatusOK, models.ChatResponse{
		Response:           result.Response,
		SessionID:          sessionID,
		Sources:            collectSources(result.Chunks),
		RephrasedQuery:     result.RephrasedQuery,
		FollowupQuestions:  result.FollowupQuestions,
		NumChunksRetrieved: result.NumChunksRetrieved,
	})
}

// collectSources returns the distinct source names of the retrieved chunks,
// in retrieval order.
func collectSources(chunks []*models.RetrievedChunk) []string {
	seen := make(map[string]bool)
	var sources []string
	for _, chunk := range chunks {
		source := strings.TrimSpace(chunk.Metadata.SourceOrUnknown())
		if source == "" || seen[source] {
			continue
		}
		seen[source] = true
		sources = append(sources, source)
	}
	return sources
}

func (h *ChatHandler) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Printf("Failed to encode JSON: %v", err)
	}
}

func (h *ChatHandler) sendError(w http.ResponseWriter, status int, message string) {
	h.sendJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Status:  status,
	})
}
