package services

import (
	"context"
	"errors"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docuchat/internal/models"
)

func setupTestDocumentService(t *testing.T) (*DocumentService, *MockTextExtractor, *MockEmbeddingProvider, *MockVectorStore, *MockDocumentRepository) {
	mockExtractor := new(MockTextExtractor)
	mockEmbedder := new(MockEmbeddingProvider)
	mockStore := new(MockVectorStore)
	mockRegistry := new(MockDocumentRepository)

	chunker, err := NewChunker(DefaultChunkSize, DefaultChunkOverlap)
	require.NoError(t, err)

	logger := log.New(os.Stdout, "[TEST] ", log.LstdFlags)

	service := NewDocumentService(
		mockExtractor,
		chunker,
		NewKeywordExtractor(),
		mockEmbedder,
		mockStore,
		mockRegistry,
		t.TempDir(),
		logger,
	)

	return service, mockExtractor, mockEmbedder, mockStore, mockRegistry
}

func TestProcessPDF_FullPipeline(t *testing.T) {
	service, mockExtractor, mockEmbedder, mockStore, mockRegistry := setupTestDocumentService(t)

	mockExtractor.On("ExtractText", "/tmp/report.pdf").
		Return("The project budget was approved in March. Spending is tracked quarterly.", nil)

	mockEmbedder.On("Embed", mock.Anything, mock.MatchedBy(func(texts []string) bool {
		return len(texts) == 1
	})).Return([][]float32{{0.1, 0.2}}, nil)

	var storedChunks []*models.Chunk
	mockStore.On("Add", mock.Anything, mock.MatchedBy(func(chunks []*models.Chunk) bool {
		storedChunks = chunks
		return len(chunks) == 1
	})).Return([]string{"id"}, nil)

	mockRegistry.On("Register", mock.Anything, mock.MatchedBy(func(doc *models.Document) bool {
		return doc.Name == "report" &&
			doc.Filename == "report.pdf" &&
			doc.ChunkCount == 1 &&
			doc.Status == models.DocumentStatusCompleted
	})).Return(nil)

	result, err := service.ProcessPDF(context.Background(), "/tmp/report.pdf", "report.pdf", "session-1")
	require.NoError(t, err)

	assert.NotEmpty(t, result.DocumentID)
	assert.Equal(t, "session-1", result.SessionID)
	assert.Equal(t, 1, result.NumChunks)
	require.Len(t, result.FilePaths, 1)
	assert.FileExists(t, result.FilePaths[0])

	require.Len(t, storedChunks, 1)
	chunk := storedChunks[0]
	assert.Equal(t, result.DocumentID, chunk.Metadata.DocumentID)
	assert.Equal(t, "session-1", chunk.Metadata.SessionID)
	assert.Equal(t, 0, chunk.Metadata.ChunkIndex)
	assert.Equal(t, 1, chunk.Metadata.TotalChunks)
	assert.Equal(t, "report", chunk.Metadata.Source)
	assert.Equal(t, []float32{0.1, 0.2}, chunk.Embedding)

	mockStore.AssertExpectations(t)
	mockRegistry.AssertExpectations(t)
}

func TestProcessPDF_GeneratesSessionIDWhenMissing(t *testing.T) {
	service, mockExtractor, mockEmbedder, mockStore, mockRegistry := setupTestDocumentService(t)

	mockExtractor.On("ExtractText", mock.Anything).Return("Short document text.", nil)
	mockEmbedder.On("Embed", mock.Anything, mock.Anything).Return([][]float32{{0.3}}, nil)
	mockStore.On("Add", mock.Anything, mock.Anything).Return([]string{"id"}, nil)
	mockRegistry.On("Register", mock.Anything, mock.Anything).Return(nil)

	result, err := service.ProcessPDF(context.Background(), "/tmp/doc.pdf", "doc.pdf", "")
	require.NoError(t, err)
	assert.NotEmpty(t, result.SessionID)
}

func TestProcessPDF_ExtractionFailure(t *testing.T) {
	service, mockExtractor, _, mockStore, _ := setupTestDocumentService(t)

	mockExtractor.On("ExtractText", mock.Anything).
		Return("", errors.New("not a PDF"))

	_, err := service.ProcessPDF(context.Background(), "/tmp/bad.pdf", "bad.pdf", "s")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "text extraction failed")
	mockStore.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
}

func TestProcessPDF_EmbeddingFailure(t *testing.T) {
	service, mockExtractor, mockEmbedder, mockStore, _ := setupTestDocumentService(t)

	mockExtractor.On("ExtractText", mock.Anything).Return("Some document text.", nil)
	mockEmbedder.On("Embed", mock.Anything, mock.Anything).
		Return(nil, errors.New("backend down"))

	_, err := service.ProcessPDF(context.Background(), "/tmp/doc.pdf", "doc.pdf", "s")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to embed chunks")
	mockStore.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
}

func TestProcessPDF_EmptyDocumentSkipsIndexing(t *testing.T) {
	service, mockExtractor, mockEmbedder, mockStore, mockRegistry := setupTestDocumentService(t)

	mockExtractor.On("ExtractText", mock.Anything).Return("", nil)
	mockRegistry.On("Register", mock.Anything, mock.MatchedBy(func(doc *models.Document) bool {
		return doc.ChunkCount == 0
	})).Return(nil)

	result, err := service.ProcessPDF(context.Background(), "/tmp/empty.pdf", "empty.pdf", "s")
	require.NoError(t, err)
	assert.Equal(t, 0, result.NumChunks)

	mockEmbedder.AssertNotCalled(t, "Embed", mock.Anything, mock.Anything)
	mockStore.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
}

func TestProcessPDF_RegistryFailureDoesNotFailIngestion(t *testing.T) {
	service, mockExtractor, mockEmbedder, mockStore, mockRegistry := setupTestDocumentService(t)

	mockExtractor.On("ExtractText", mock.Anything).Return("Some document text.", nil)
	mockEmbedder.On("Embed", mock.Anything, mock.Anything).Return([][]float32{{0.3}}, nil)
	mockStore.On("Add", mock.Anything, mock.Anything).Return([]string{"id"}, nil)
	mockRegistry.On("Register", mock.Anything, mock.Anything).
		Return(errors.New("redis down"))

	result, err := service.ProcessPDF(context.Background(), "/tmp/doc.pdf", "doc.pdf", "s")
	require.NoError(t, err)
	assert.Equal(t, 1, result.NumChunks)
}

func TestListDocuments_SessionScoped(t *testing.T) {
	service, _, _, _, mockRegistry := setupTestDocumentService(t)

	docs := []*models.Document{{ID: "d1", SessionID: "s1"}}
	mockRegistry.On("ListBySession", mock.Anything, "s1").Return(docs, nil)

	got, err := service.ListDocuments(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, docs, got)
	mockRegistry.AssertNotCalled(t, "List", mock.Anything)
}

func TestListDocuments_All(t *testing.T) {
	service, _, _, _, mockRegistry := setupTestDocumentService(t)

	docs := []*models.Document{{ID: "d1"}, {ID: "d2"}}
	mockRegistry.On("List", mock.Anything).Return(docs, nil)

	got, err := service.ListDocuments(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestDeleteDocument(t *testing.T) {
	service, _, _, mockStore, mockRegistry := setupTestDocumentService(t)

	mockStore.On("DeleteByDocumentID", mock.Anything, "doc-1").Return(4, nil)
	mockRegistry.On("Delete", mock.Anything, "doc-1").Return(nil)

	removed, err := service.DeleteDocument(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 4, removed)
	mockRegistry.AssertExpectations(t)
}

func TestDeleteDocument_StoreFailure(t *testing.T) {
	service, _, _, mockStore, mockRegistry := setupTestDocumentService(t)

	mockStore.On("DeleteByDocumentID", mock.Anything, "doc-1").
		Return(0, errors.New("backend error"))

	_, err := service.DeleteDocument(context.Background(), "doc-1")
	require.Error(t, err)
	mockRegistry.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestStats(t *testing.T) {
	service, _, _, mockStore, _ := setupTestDocumentService(t)

	mockStore.On("Count", mock.Anything).Return(42, nil)
	mockStore.On("Backend").Return("chromadb")

	count, backend, err := service.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, count)
	assert.Equal(t, "chromadb", backend)
}
