package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"docuchat/internal/models"
)

// DocumentManager exposes the document lifecycle operations the HTTP layer
// needs.
type DocumentManager interface {
	ProcessPDF(ctx context.Context, pdfPath, filename, sessionID string) (*models.UploadResult, error)
	ListDocuments(ctx context.Context, sessionID string) ([]*models.Document, error)
	DeleteDocument(ctx context.Context, documentID string) (int, error)
	Stats(ctx context.Context) (int, string, error)
}

// DocumentHandler handles HTTP requests for document operations
type DocumentHandler struct {
	docService DocumentManager
	logger     *log.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(docService DocumentManager, logger *log.Logger) *DocumentHandler {
	return &DocumentHandler{
		docService: docService,
		logger:     logger,
	}
}

// UploadResponse wraps the ingestion result returned to the client
type UploadResponse struct {
	Message    string   `json:"message"`
	DocumentID string   `json:"document_id"`
	SessionID  string   `json:"session_id"`
	NumChunks  int      `json:"num_chunks"`
	FilePaths  []string `json:"file_paths,omitempty"`
}

// UploadDocument handles PDF upload and ingestion requests
// @Summary Upload a PDF
// @Description Upload a PDF, chunk it, and index it for retrieval
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PDF file"
// @Param session_id formData string false "Session to attach the document to"
// @Success 200 {object} UploadResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /api/upload [post]
func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	if h.docService == nil {
		h.sendError(w, http.StatusServiceUnavailable, "Document service is not available")
		return
	}

	h.logger.Printf("Upload request from %s", r.RemoteAddr)

	// Parse multipart form (max 100MB)
	if err := r.ParseMultipartForm(100 << 20); err != nil {
		h.logger.Printf("Failed to parse form: %v", err)
		h.sendError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.logger.Printf("No file uploaded: %v", err)
		h.sendError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		h.sendError(w, http.StatusBadRequest, "Only PDF files are supported")
		return
	}

	sessionID := r.FormValue("session_id")

	// Spool the upload to disk so the PDF reader can seek
	tmpFile, err := os.CreateTemp("", "upload-*.pdf")
	if err != nil {
		h.logger.Printf("Failed to create temp file: %v", err)
		h.sendError(w, http.StatusInternalServerError, "Failed to store uploaded file")
		return
	}
	defer os.Remove(tmpFile.Name())

	if _, err := io.Copy(tmpFile, file); err != nil {
		tmpFile.Close()
		h.logger.Printf("Failed to write temp file: %v", err)
		h.sendError(w, http.StatusInternalServerError, "Failed to store uploaded file")
		return
	}
	if err := tmpFile.Close(); err != nil {
		h.logger.Printf("Failed to close temp file: %v", err)
		h.sendError(w, http.StatusInternalServerError, "Failed to store uploaded file")
		return
	}

	result, err := h.docService.ProcessPDF(r.Context(), tmpFile.Name(), header.Filename, sessionID)
	if err != nil {
		h.logger.Printf("Upload failed for %s: %v", header.Filename, err)
		h.sendError(w, http.StatusInternalServerError, fmt.Sprintf("Upload failed: %v", err))
		return
	}

	h.sendJSON(w, http.StatusOK, UploadResponse{
		Message:    fmt.Sprintf("Processed %s into %d chunks", header.Filename, result.NumChunks),
		DocumentID: result.DocumentID,
		SessionID:  result.SessionID,
		NumChunks:  result.NumChunks,
		FilePaths:  result.FilePaths,
	})
}

// DocumentListResponse represents a list of documents response
type DocumentListResponse struct {
	Documents []*models.Document `json:"documents"`
	Count     int                `json:"count"`
}

// ListDocuments handles requests to list ingested documents
// @Summary List documents
// @Description Get ingested documents, optionally filtered by session
// @Tags documents
// @Produce json
// @Param session_id query string false "Session filter"
// @Success 200 {object} DocumentListResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/documents [get]
func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	if h.docService == nil {
		h.sendError(w, http.StatusServiceUnavailable, "Document service is not available")
		return
	}

	sessionID := r.URL.Query().Get("session_id")

	docs, err := h.docService.ListDocuments(r.Context(), sessionID)
	if err != nil {
		h.logger.Printf("Failed to list documents: %v", err)
		h.sendError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to list documents: %v", err))
		return
	}

	h.sendJSON(w, http.StatusOK, DocumentListResponse{
		Documents: docs,
		Count:     len(docs),
	})
}

// DeleteDocumentResponse reports how many chunks a delete removed
type DeleteDocumentResponse struct {
	Success       bool   `json:"success"`
	DocumentID    string `json:"document_id"`
	ChunksRemoved int    `json:"chunks_removed"`
}

// DeleteDocument handles requests to delete a document and its chunks
// @Summary Delete document
// @Description Delete a document's chunks from the index and its registry entry
// @Tags documents
// @Produce json
// @Param document_id path string true "Document ID"
// @Success 200 {object} DeleteDocumentResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/documents/{document_id} [delete]
func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if h.docService == nil {
		h.sendError(w, http.StatusServiceUnavailable, "Document service is not available")
		return
	}

	vars := mux.Vars(r)
	documentID := vars["document_id"]

	h.logger.Printf("Delete document: %s", documentID)

	removed, err := h.docService.DeleteDocument(r.Context(), documentID)
	if err != nil {
		h.logger.Printf("Failed to delete document %s: %v", documentID, err)
		h.sendError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to delete document: %v", err))
		return
	}

	h.sendJSON(w, http.StatusOK, DeleteDocumentResponse{
		Success:       true,
		DocumentID:    documentID,
		ChunksRemoved: removed,
	})
}

// StatsResponse reports vector store statistics
type StatsResponse struct {
	TotalChunks int    `json:"total_chunks"`
	Backend     string `json:"backend"`
}

// Stats handles requests for vector store statistics
// @Summary Index statistics
// @Description Get the number of indexed chunks and the active vector backend
// @Tags documents
// @Produce json
// @Success 200 {object} StatsResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/stats [get]
func (h *DocumentHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if h.docService == nil {
		h.sendError(w, http.StatusServiceUnavailable, "Document service is not available")
		return
	}

	count, backend, err := h.docService.Stats(r.Context())
	if err != nil {
		h.logger.Printf("Failed to read stats: %v", err)
		h.sendError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to read stats: %v", err))
		return
	}

	h.sendJSON(w, http.StatusOK, StatsResponse{
		TotalChunks: count,
		Backend:     backend,
	})
}

func (h *DocumentHandler) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Printf("Failed to encode JSON: %v", err)
	}
}

func (h *DocumentHandler) sendError(w http.ResponseWriter, status int, message string) {
	h.sendJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Status:  status,
	})
}

// ErrorResponse is the uniform error payload for all handlers
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}
