package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"docuchat/internal/db"
	"docuchat/internal/models"
)

// ChromaVectorStore implements VectorStore using ChromaDB
type ChromaVectorStore struct {
	client     *db.ChromaDBClient
	collection string
	logger     *log.Logger
}

// NewChromaVectorStore creates a ChromaDB-backed vector store, creating the
// collection (cosine space) if it does not exist yet.
func NewChromaVectorStore(client *db.ChromaDBClient, collection string, logger *log.Logger) (*ChromaVectorStore, error) {
	ctx := context.Background()
	if _, err := client.GetOrCreateCollection(ctx, collection, nil); err != nil {
		return nil, NewVectorStoreError("init", err, "failed to get or create collection: "+collection)
	}

	return &ChromaVectorStore{
		client:     client,
		collection: collection,
		logger:     logger,
	}, nil
}

// Backend returns the backend name
func (s *ChromaVectorStore) Backend() string {
	return "chromadb"
}

// Add upserts chunk records into the collection
func (s *ChromaVectorStore) Add(ctx context.Context, chunks []*models.Chunk) ([]string, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	ids := make([]string, len(chunks))
	documents := make([]string, len(chunks))
	embeddings := make([][]float32, len(chunks))
	metadatas := make([]map[string]interface{}, len(chunks))

	for i, chunk := range chunks {
		if err := chunk.Validate(); err != nil {
			return nil, NewVectorStoreError("add", err, "")
		}
		id := chunk.ID
		if id == "" {
			id = chunk.DeriveID()
		}
		ids[i] = id
		documents[i] = chunk.Text
		embeddings[i] = chunk.Embedding
		metadatas[i] = metadataToMap(chunk.Metadata)
	}

	if err := s.client.UpsertDocuments(ctx, s.collection, ids, documents, embeddings, metadatas); err != nil {
		return nil, NewVectorStoreError("add", err, fmt.Sprintf("failed to store %d chunks", len(chunks)))
	}

	return ids, nil
}

// Query searches for the nearest chunks to the query embedding
func (s *ChromaVectorStore) Query(ctx context.Context, queryEmbedding []float32, nResults int, where map[string]interface{}) ([]*models.RetrievedChunk, error) {
	queryEmbeddings := [][]float32{queryEmbedding}
	results, err := s.client.Query(ctx, s.collection, queryEmbeddings, nResults, where)
	if err != nil {
		return nil, NewVectorStoreError("query", err, "")
	}

	retrieved := make([]*models.RetrievedChunk, 0)
	if len(results.IDs) > 0 {
		for i := range results.IDs[0] {
			var text string
			if len(results.Documents) > 0 && len(results.Documents[0]) > i {
				text = results.Documents[0][i]
			}

			var distance float32
			if len(results.Distances) > 0 && len(results.Distances[0]) > i {
				distance = results.Distances[0][i]
			}

			metadata := models.ChunkMetadata{}
			if len(results.Metadatas) > 0 && len(results.Metadatas[0]) > i {
				metadata = metadataFromMap(results.Metadatas[0][i])
			}

			retrieved = append(retrieved, &models.RetrievedChunk{
				ID:       results.IDs[0][i],
				Text:     text,
				Metadata: metadata,
				Distance: distance,
			})
		}
	}

	return retrieved, nil
}

// GetByIDs retrieves chunks by their IDs; unknown IDs are omitted
func (s *ChromaVectorStore) GetByIDs(ctx context.Context, ids []string) ([]*models.Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	result, err := s.client.GetDocuments(ctx, s.collection, ids, nil, 0)
	if err != nil {
		return nil, NewVectorStoreError("get_by_ids", err, "")
	}

	chunks := make([]*models.Chunk, 0, len(result.IDs))
	for i, id := range result.IDs {
		text := ""
		if i < len(result.Documents) {
			text = result.Documents[i]
		}
		metadata := models.ChunkMetadata{}
		if i < len(result.Metadatas) {
			metadata = metadataFromMap(result.Metadatas[i])
		}
		chunks = append(chunks, &models.Chunk{
			ID:       id,
			Text:     text,
			Metadata: metadata,
		})
	}

	return chunks, nil
}

// DeleteByDocumentID deletes all chunks for a document
func (s *ChromaVectorStore) DeleteByDocumentID(ctx context.Context, documentID string) (int, error) {
	where := map[string]interface{}{
		"document_id": documentID,
	}
	result, err := s.client.GetDocuments(ctx, s.collection, nil, where, 0)
	if err != nil {
		return 0, NewVectorStoreError("delete_document", err, "failed to get chunks for document")
	}

	if len(result.IDs) == 0 {
		return 0, nil
	}

	if err := s.client.DeleteDocuments(ctx, s.collection, result.IDs); err != nil {
		return 0, NewVectorStoreError("delete_document", err, fmt.Sprintf("failed to delete %d chunks", len(result.IDs)))
	}

	return len(result.IDs), nil
}

// Count returns the total number of stored records
func (s *ChromaVectorStore) Count(ctx context.Context) (int, error) {
	count, err := s.client.CountCollection(ctx, s.collection)
	if err != nil {
		return 0, NewVectorStoreError("count", err, "")
	}
	return count, nil
}

// Close closes the ChromaDB client
func (s *ChromaVectorStore) Close() error {
	s.client.Close()
	return nil
}

// metadataToMap flattens chunk metadata into the map shape ChromaDB stores.
// ChromaDB only supports simple metadata values, so the keyword list is
// serialized to a JSON string.
func metadataToMap(m models.ChunkMetadata) map[string]interface{} {
	out := map[string]interface{}{
		"document_id":  m.DocumentID,
		"session_id":   m.SessionID,
		"chunk_index":  m.ChunkIndex,
		"total_chunks": m.TotalChunks,
		"source":       m.SourceOrUnknown(),
	}
	if len(m.Keywords) > 0 {
		if data, err := json.Marshal(m.Keywords); err == nil {
			out["keywords"] = string(data)
		}
	}
	return out
}

// metadataFromMap rebuilds the typed metadata record. Missing source labels
// default to "Unknown" here, at the decode boundary.
func metadataFromMap(raw map[string]interface{}) models.ChunkMetadata {
	m := models.ChunkMetadata{}
	if v, ok := raw["document_id"].(string); ok {
		m.DocumentID = v
	}
	if v, ok := raw["session_id"].(string); ok {
		m.SessionID = v
	}
	if v, ok := raw["chunk_index"].(float64); ok {
		m.ChunkIndex = int(v)
	}
	if v, ok := raw["total_chunks"].(float64); ok {
		m.TotalChunks = int(v)
	}
	if v, ok := raw["source"].(string); ok && v != "" {
		m.Source = v
	} else {
		m.Source = "Unknown"
	}
	if v, ok := raw["keywords"].(string); ok && v != "" {
		var keywords []string
		if err := json.Unmarshal([]byte(v), &keywords); err == nil {
			m.Keywords = keywords
		}
	}
	return m
}
