package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"docuchat/internal/handlers"
)

// Handlers groups everything RegisterRoutes wires up. Handlers are always
// constructed, even when their backing services failed to initialize; they
// answer 503 themselves, so every route is always registered.
type Handlers struct {
	Health http.HandlerFunc
	Home   http.HandlerFunc

	ChatHandler *handlers.ChatHandler
	DocHandler  *handlers.DocumentHandler
}

// RegisterRoutes sets up all application routes
func RegisterRoutes(router *mux.Router, h *Handlers) {
	// Health endpoints
	router.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	// Main routes
	router.HandleFunc("/", h.Home).Methods(http.MethodGet)

	router.HandleFunc("/api/chat", h.ChatHandler.Chat).Methods(http.MethodPost)

	router.HandleFunc("/api/upload", h.DocHandler.UploadDocument).Methods(http.MethodPost)
	router.HandleFunc("/api/documents", h.DocHandler.ListDocuments).Methods(http.MethodGet)
	router.HandleFunc("/api/documents/{document_id}", h.DocHandler.DeleteDocument).Methods(http.MethodDelete)
	router.HandleFunc("/api/stats", h.DocHandler.Stats).Methods(http.MethodGet)
}
