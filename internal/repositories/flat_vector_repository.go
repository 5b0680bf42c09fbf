package repositories

import (
	"context"
	"encoding/gob"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"docuchat/internal/models"
)

// FlatVectorStore implements VectorStore with a brute-force in-memory index
// and squared Euclidean distance. The index and its id/record mappings are
// persisted to disk on every write and loaded back on construction, which is
// what makes the in-memory index durable across restarts. Losing the
// metadata file orphans the vectors, so both files are load-bearing.
//
// Writes follow a read-modify-persist pattern and are serialized by an
// internal mutex; the persisted files are not safe for multiple processes.
type FlatVectorStore struct {
	mu         sync.RWMutex
	persistDir string
	collection string
	logger     *log.Logger

	dimension int
	vectors   [][]float32
	idMap     map[string]int
	records   map[int]flatRecord
}

// flatRecord is the stored per-slot record. Fields are exported for gob.
type flatRecord struct {
	ID       string
	Text     string
	Metadata models.ChunkMetadata
}

// flatMetadataFile is the on-disk companion to the vector index file.
type flatMetadataFile struct {
	Dimension int
	IDMap     map[string]int
	Records   map[int]flatRecord
}

// NewFlatVectorStore creates the fallback store, loading an existing index
// from disk when both the index and metadata files are present. Partial
// presence is treated as no existing index.
func NewFlatVectorStore(persistDir, collection string, logger *log.Logger) (*FlatVectorStore, error) {
	if err := os.MkdirAll(persistDir, 0o755); err != nil {
		return nil, NewVectorStoreError("init", err, "failed to create persist directory")
	}

	s := &FlatVectorStore{
		persistDir: persistDir,
		collection: collection,
		logger:     logger,
		idMap:      make(map[string]int),
		records:    make(map[int]flatRecord),
	}

	if err := s.load(); err != nil {
		return nil, NewVectorStoreError("init", err, "failed to load persisted index")
	}

	return s, nil
}

// Backend returns the backend name
func (s *FlatVectorStore) Backend() string {
	return "flat"
}

func (s *FlatVectorStore) indexPath() string {
	return filepath.Join(s.persistDir, s.collection+".index")
}

func (s *FlatVectorStore) metadataPath() string {
	return filepath.Join(s.persistDir, s.collection+".metadata")
}

// Add appends chunk records to the index and persists it. Re-adding an
// existing ID appends a duplicate record; flat indices do not support
// in-place update, and the id mapping then points at the newest slot.
func (s *FlatVectorStore) Add(ctx context.Context, chunks []*models.Chunk) ([]string, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, len(chunks))
	for i, chunk := range chunks {
		if err := chunk.Validate(); err != nil {
			return nil, NewVectorStoreError("add", err, "")
		}
		if s.dimension == 0 {
			s.dimension = len(chunk.Embedding)
		}
		if len(chunk.Embedding) != s.dimension {
			return nil, NewVectorStoreError("add", nil,
				fmt.Sprintf("embedding dimension mismatch: got %d, index has %d", len(chunk.Embedding), s.dimension))
		}

		id := chunk.ID
		if id == "" {
			id = chunk.DeriveID()
		}
		if _, exists := s.idMap[id]; exists {
			s.logger.Printf("Flat index: duplicate id %s appended (flat index does not upsert)", id)
		}

		slot := len(s.vectors)
		s.vectors = append(s.vectors, chunk.Embedding)
		s.idMap[id] = slot
		s.records[slot] = flatRecord{
			ID:       id,
			Text:     chunk.Text,
			Metadata: chunk.Metadata,
		}
		ids[i] = id
	}

	if err := s.persist(); err != nil {
		return nil, NewVectorStoreError("add", err, "failed to persist index")
	}

	return ids, nil
}

// Query returns the nResults nearest records by squared Euclidean distance.
// Metadata filtering is not supported on this backend.
func (s *FlatVectorStore) Query(ctx context.Context, queryEmbedding []float32, nResults int, where map[string]interface{}) ([]*models.RetrievedChunk, error) {
	if where != nil {
		s.logger.Println("Flat index: metadata filters are not supported on this backend; returning unfiltered results")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.vectors) == 0 {
		return []*models.RetrievedChunk{}, nil
	}

	type scored struct {
		slot     int
		distance float32
	}

	scores := make([]scored, len(s.vectors))
	for i, v := range s.vectors {
		scores[i] = scored{slot: i, distance: squaredL2(v, queryEmbedding)}
	}

	sort.Slice(scores, func(i, j int) bool {
		return scores[i].distance < scores[j].distance
	})

	if nResults > len(scores) {
		nResults = len(scores)
	}

	results := make([]*models.RetrievedChunk, 0, nResults)
	for _, sc := range scores[:nResults] {
		record := s.records[sc.slot]
		results = append(results, &models.RetrievedChunk{
			ID:       record.ID,
			Text:     record.Text,
			Metadata: record.Metadata,
			Distance: sc.distance,
		})
	}

	return results, nil
}

// GetByIDs retrieves records by ID; unknown IDs are omitted
func (s *FlatVectorStore) GetByIDs(ctx context.Context, ids []string) ([]*models.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunks := make([]*models.Chunk, 0, len(ids))
	for _, id := range ids {
		slot, ok := s.idMap[id]
		if !ok {
			continue
		}
		record, ok := s.records[slot]
		if !ok {
			continue
		}
		chunks = append(chunks, &models.Chunk{
			ID:        record.ID,
			Text:      record.Text,
			Embedding: s.vectors[slot],
			Metadata:  record.Metadata,
		})
	}

	return chunks, nil
}

// DeleteByDocumentID is a documented no-op: a flat index cannot remove
// vectors without a rebuild. A warning is logged and nothing is removed.
func (s *FlatVectorStore) DeleteByDocumentID(ctx context.Context, documentID string) (int, error) {
	s.logger.Printf("Flat index: deletion is not supported; chunks for document %s remain indexed", documentID)
	return 0, nil
}

// Count returns the total number of stored records
func (s *FlatVectorStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors), nil
}

// Close is a no-op; state already lives on disk after every write
func (s *FlatVectorStore) Close() error {
	return nil
}

// persist writes the index and metadata files. Caller must hold the lock.
func (s *FlatVectorStore) persist() error {
	indexFile, err := os.Create(s.indexPath())
	if err != nil {
		return fmt.Errorf("failed to create index file: %w", err)
	}
	defer indexFile.Close()

	if err := gob.NewEncoder(indexFile).Encode(s.vectors); err != nil {
		return fmt.Errorf("failed to encode index: %w", err)
	}

	metadataFile, err := os.Create(s.metadataPath())
	if err != nil {
		return fmt.Errorf("failed to create metadata file: %w", err)
	}
	defer metadataFile.Close()

	meta := flatMetadataFile{
		Dimension: s.dimension,
		IDMap:     s.idMap,
		Records:   s.records,
	}
	if err := gob.NewEncoder(metadataFile).Encode(meta); err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	return nil
}

// load restores a previously persisted index. Both files must exist together;
// otherwise the store starts empty.
func (s *FlatVectorStore) load() error {
	indexPath := s.indexPath()
	metadataPath := s.metadataPath()

	if _, err := os.Stat(indexPath); err != nil {
		s.logger.Printf("No existing flat index found for collection %s", s.collection)
		return nil
	}
	if _, err := os.Stat(metadataPath); err != nil {
		s.logger.Printf("Flat index metadata file missing for collection %s; starting empty", s.collection)
		return nil
	}

	indexFile, err := os.Open(indexPath)
	if err != nil {
		return fmt.Errorf("failed to open index file: %w", err)
	}
	defer indexFile.Close()

	if err := gob.NewDecoder(indexFile).Decode(&s.vectors); err != nil {
		return fmt.Errorf("failed to decode index: %w", err)
	}

	metadataFile, err := os.Open(metadataPath)
	if err != nil {
		return fmt.Errorf("failed to open metadata file: %w", err)
	}
	defer metadataFile.Close()

	var meta flatMetadataFile
	if err := gob.NewDecoder(metadataFile).Decode(&meta); err != nil {
		return fmt.Errorf("failed to decode metadata: %w", err)
	}

	s.dimension = meta.Dimension
	s.idMap = meta.IDMap
	s.records = meta.Records
	if s.idMap == nil {
		s.idMap = make(map[string]int)
	}
	if s.records == nil {
		s.records = make(map[int]flatRecord)
	}

	s.logger.Printf("Flat index loaded from %s (%d vectors)", indexPath, len(s.vectors))
	return nil
}

func squaredL2(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
