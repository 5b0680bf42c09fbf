package repositories

import (
	"context"
	"log"
	"time"

	"docuchat/internal/db"
	"docuchat/internal/models"
)

// VectorStore defines the backend-agnostic interface for vector index
// operations. The backend is chosen once at construction; callers never
// branch on backend type.
type VectorStore interface {
	// Add writes chunk records. Chunks without an ID get the deterministic
	// "<document_id>_<chunk_index>" ID. The ChromaDB backend upserts by ID;
	// the flat fallback appends, so re-adding the same ID duplicates the
	// record (flat indices cannot update in place).
	Add(ctx context.Context, chunks []*models.Chunk) ([]string, error)

	// Query returns up to nResults nearest records ordered by ascending
	// distance. The where filter is an equality filter over metadata fields,
	// honored only by the ChromaDB backend; the flat backend logs the
	// capability gap and returns unfiltered results.
	Query(ctx context.Context, queryEmbedding []float32, nResults int, where map[string]interface{}) ([]*models.RetrievedChunk, error)

	// GetByIDs performs exact lookup; unknown IDs are omitted, not an error.
	GetByIDs(ctx context.Context, ids []string) ([]*models.Chunk, error)

	// DeleteByDocumentID removes all records for a document and returns how
	// many were removed. The flat backend logs a warning and removes nothing.
	DeleteByDocumentID(ctx context.Context, documentID string) (int, error)

	// Count returns the total number of stored records.
	Count(ctx context.Context) (int, error)

	// Backend returns the active backend name ("chromadb" or "flat").
	Backend() string

	Close() error
}

// VectorStoreConfig holds configuration for vector store construction
type VectorStoreConfig struct {
	Chroma         db.ChromaDBConfig
	CollectionName string
	PersistDir     string
	ProbeTimeout   time.Duration
}

// NewVectorStore probes ChromaDB and returns the managed backend when it is
// reachable, otherwise the flat fallback backend. Ingestion is never blocked
// by the preferred backend being unavailable.
func NewVectorStore(config VectorStoreConfig, logger *log.Logger) (VectorStore, error) {
	if config.CollectionName == "" {
		config.CollectionName = "document_chunks"
	}
	if config.ProbeTimeout == 0 {
		config.ProbeTimeout = 5 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.ProbeTimeout)
	defer cancel()

	chromaClient := db.NewChromaDBClient(config.Chroma)
	if err := chromaClient.Heartbeat(ctx); err == nil {
		repo, err := NewChromaVectorStore(chromaClient, config.CollectionName, logger)
		if err == nil {
			logger.Printf("ChromaDB backend initialized (collection: %s)", config.CollectionName)
			return repo, nil
		}
		logger.Printf("ChromaDB collection setup failed: %v", err)
	} else {
		logger.Printf("ChromaDB unreachable: %v", err)
	}
	chromaClient.Close()

	logger.Println("Falling back to flat vector index")
	return NewFlatVectorStore(config.PersistDir, config.CollectionName, logger)
}

// VectorStoreError represents errors from a vector store backend
type VectorStoreError struct {
	Operation string
	Err       error
	Message   string
}

func (e *VectorStoreError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Operation + ": " + e.Err.Error()
	}
	return e.Operation + ": unknown error"
}

func (e *VectorStoreError) Unwrap() error {
	return e.Err
}

// NewVectorStoreError creates a new vector store error
func NewVectorStoreError(operation string, err error, message string) *VectorStoreError {
	return &VectorStoreError{
		Operation: operation,
		Err:       err,
		Message:   message,
	}
}
