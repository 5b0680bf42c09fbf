package models

import (
	"time"
)

// Document represents an uploaded document and its ingestion outcome.
type Document struct {
	ID         string         `json:"document_id"`
	SessionID  string         `json:"session_id"`
	Name       string         `json:"name"`
	Filename   string         `json:"filename"`
	ChunkCount int            `json:"chunk_count"`
	Status     DocumentStatus `json:"status"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// DocumentStatus represents the ingestion status of a document.
type DocumentStatus string

const (
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusCompleted  DocumentStatus = "completed"
	DocumentStatusFailed     DocumentStatus = "failed"
)

// Validate checks if the document is valid.
func (d *Document) Validate() error {
	if d.ID == "" {
		return &ValidationError{Field: "document_id", Message: "document ID is required"}
	}
	if d.SessionID == "" {
		return &ValidationError{Field: "session_id", Message: "session ID is required"}
	}
	if d.Filename == "" {
		return &ValidationError{Field: "filename", Message: "filename is required"}
	}
	if d.ChunkCount < 0 {
		return &ValidationError{Field: "chunk_count", Message: "chunk count cannot be negative"}
	}
	return nil
}

// UploadResult is the outcome of a completed document ingestion.
type UploadResult struct {
	DocumentID string   `json:"document_id"`
	SessionID  string   `json:"session_id"`
	NumChunks  int      `json:"num_chunks"`
	FilePaths  []string `json:"file_paths,omitempty"`
}
