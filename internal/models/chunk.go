package models

import (
	"fmt"
	"time"
)

// ChunkMetadata is the typed metadata record attached to every stored chunk.
// Both vector backends share this shape; map conversion happens only at the
// storage boundary.
type ChunkMetadata struct {
	DocumentID  string   `json:"document_id"`
	SessionID   string   `json:"session_id"`
	ChunkIndex  int      `json:"chunk_index"`
	TotalChunks int      `json:"total_chunks"`
	Source      string   `json:"source"`
	Keywords    []string `json:"keywords,omitempty"`
}

// SourceOrUnknown returns the source label, defaulting to "Unknown".
func (m ChunkMetadata) SourceOrUnknown() string {
	if m.Source == "" {
		return "Unknown"
	}
	return m.Source
}

// Chunk represents a text chunk with embedding and metadata.
type Chunk struct {
	ID        string        `json:"id"`
	Text      string        `json:"text"`
	Embedding []float32     `json:"embedding,omitempty"`
	Metadata  ChunkMetadata `json:"metadata"`
	CreatedAt time.Time     `json:"created_at"`
}

// DeriveID returns the deterministic chunk ID used when none is supplied.
// Re-ingesting the same document_id/chunk_index pair therefore overwrites
// on backends that upsert by ID.
func (c *Chunk) DeriveID() string {
	return fmt.Sprintf("%s_%d", c.Metadata.DocumentID, c.Metadata.ChunkIndex)
}

// Validate checks if the chunk is valid for storage.
func (c *Chunk) Validate() error {
	if c.Metadata.DocumentID == "" {
		return &ValidationError{Field: "document_id", Message: "document ID is required"}
	}
	if c.Text == "" {
		return &ValidationError{Field: "text", Message: "text is required"}
	}
	if c.Metadata.ChunkIndex < 0 {
		return &ValidationError{Field: "chunk_index", Message: "chunk index cannot be negative"}
	}
	return nil
}

// RetrievedChunk is a single nearest-neighbor result. Distance semantics are
// backend-defined (cosine space on ChromaDB, squared Euclidean on the flat
// index) and must not be compared across backends.
type RetrievedChunk struct {
	ID       string        `json:"id"`
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
	Distance float32       `json:"distance"`
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
