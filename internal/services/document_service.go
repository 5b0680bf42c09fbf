package services

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"docuchat/internal/models"
	"docuchat/internal/repositories"
)

// DocumentService runs the ingestion pipeline: extract -> chunk -> markdown
// -> persist -> embed -> index -> register.
type DocumentService struct {
	extractor TextExtractor
	chunker   *Chunker
	keywords  *KeywordExtractor
	embedder  EmbeddingProvider
	store     repositories.VectorStore
	registry  repositories.DocumentRepository
	chunkDir  string
	logger    *log.Logger
}

// NewDocumentService creates a new document ingestion service
func NewDocumentService(
	extractor TextExtractor,
	chunker *Chunker,
	keywords *KeywordExtractor,
	embedder EmbeddingProvider,
	store repositories.VectorStore,
	registry repositories.DocumentRepository,
	chunkDir string,
	logger *log.Logger,
) *DocumentService {
	return &DocumentService{
		extractor: extractor,
		chunker:   chunker,
		keywords:  keywords,
		embedder:  embedder,
		store:     store,
		registry:  registry,
		chunkDir:  chunkDir,
		logger:    logger,
	}
}

// ProcessPDF ingests one uploaded PDF. A fresh document ID is minted per
// upload; the session ID is generated when the caller did not supply one.
func (s *DocumentService) ProcessPDF(ctx context.Context, pdfPath, filename, sessionID string) (*models.UploadResult, error) {
	documentID := uuid.NewString()
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	documentName := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	text, err := s.extractor.ExtractText(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("text extraction failed: %w", err)
	}

	textChunks := s.chunker.Chunk(text)
	s.logger.Printf("Document %s (%s): %d chunks", documentName, documentID, len(textChunks))

	markdownChunks := FormatMarkdown(textChunks, documentName)

	filePaths, err := SaveChunks(markdownChunks, documentID, sessionID, s.chunkDir)
	if err != nil {
		return nil, fmt.Errorf("failed to persist chunks: %w", err)
	}

	if len(textChunks) > 0 {
		if err := s.indexChunks(ctx, textChunks, documentID, sessionID, documentName); err != nil {
			return nil, err
		}
	}

	doc := &models.Document{
		ID:         documentID,
		SessionID:  sessionID,
		Name:       documentName,
		Filename:   filepath.Base(filename),
		ChunkCount: len(textChunks),
		Status:     models.DocumentStatusCompleted,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if err := s.registry.Register(ctx, doc); err != nil {
		// Registry bookkeeping must not undo a completed ingestion
		s.logger.Printf("Failed to register document %s: %v", documentID, err)
	}

	return &models.UploadResult{
		DocumentID: documentID,
		SessionID:  sessionID,
		NumChunks:  len(textChunks),
		FilePaths:  filePaths,
	}, nil
}

func (s *DocumentService) indexChunks(ctx context.Context, textChunks []string, documentID, sessionID, documentName string) error {
	embeddings, err := s.embedder.Embed(ctx, textChunks)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(embeddings) != len(textChunks) {
		return fmt.Errorf("expected %d embeddings, got %d", len(textChunks), len(embeddings))
	}

	chunks := make([]*models.Chunk, len(textChunks))
	for i, text := range textChunks {
		keywords, err := s.keywords.Extract(text)
		if err != nil {
			s.logger.Printf("Keyword extraction failed for chunk %d: %v", i, err)
			keywords = nil
		}

		chunks[i] = &models.Chunk{
			Text:      text,
			Embedding: embeddings[i],
			Metadata: models.ChunkMetadata{
				DocumentID:  documentID,
				SessionID:   sessionID,
				ChunkIndex:  i,
				TotalChunks: len(textChunks),
				Source:      documentName,
				Keywords:    keywords,
			},
			CreatedAt: time.Now(),
		}
	}

	if _, err := s.store.Add(ctx, chunks); err != nil {
		return fmt.Errorf("failed to index chunks: %w", err)
	}

	return nil
}

// ListDocuments returns registered documents, scoped to a session when a
// session ID is given.
func (s *DocumentService) ListDocuments(ctx context.Context, sessionID string) ([]*models.Document, error) {
	if sessionID != "" {
		return s.registry.ListBySession(ctx, sessionID)
	}
	return s.registry.List(ctx)
}

// DeleteDocument removes a document's chunks from the vector store and its
// registry entry, returning how many chunks the store removed.
func (s *DocumentService) DeleteDocument(ctx context.Context, documentID string) (int, error) {
	removed, err := s.store.DeleteByDocumentID(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete document chunks: %w", err)
	}

	if err := s.registry.Delete(ctx, documentID); err != nil {
		s.logger.Printf("Failed to remove registry entry for %s: %v", documentID, err)
	}

	return removed, nil
}

// Stats reports the vector store record count and active backend name
func (s *DocumentService) Stats(ctx context.Context) (int, string, error) {
	count, err := s.store.Count(ctx)
	if err != nil {
		return 0, s.store.Backend(), err
	}
	return count, s.store.Backend(), nil
}
