package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docuchat/internal/models"
)

type MockChatProcessor struct {
	mock.Mock
}

func (m *MockChatProcessor) ProcessChat(ctx context.Context, userQuery string, topK int) *models.ChatResult {
	args := m.Called(ctx, userQuery, topK)
	return args.Get(0).(*models.ChatResult)
}

func setupTestChatHandler() (*ChatHandler, *MockChatProcessor) {
	mockProcessor := new(MockChatProcessor)
	logger := log.New(os.Stdout, "[TEST] ", log.LstdFlags)
	return NewChatHandler(mockProcessor, logger), mockProcessor
}

func postChat(t *testing.T, handler *ChatHandler, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))

	req := httptest.NewRequest(http.MethodPost, "/api/chat", &buf)
	rec := httptest.NewRecorder()
	handler.Chat(rec, req)
	return rec
}

func TestChat_Success(t *testing.T) {
	handler, mockProcessor := setupTestChatHandler()

	mockProcessor.On("ProcessChat", mock.Anything, "What is the vacation policy?", 3).
		Return(&models.ChatResult{
			Success:        true,
			OriginalQuery:  "What is the vacation policy?",
			RephrasedQuery: "How many vacation days do employees receive?",
			Response:       "25 days per year.",
			Chunks: []*models.RetrievedChunk{
				{ID: "d1_0", Text: "chunk", Metadata: models.ChunkMetadata{Source: "handbook"}},
				{ID: "d1_1", Text: "chunk", Metadata: models.ChunkMetadata{Source: "handbook"}},
				{ID: "d2_0", Text: "chunk", Metadata: models.ChunkMetadata{Source: "contract"}},
			},
			FollowupQuestions:  []string{"Do days roll over?"},
			NumChunksRetrieved: 3,
		})

	rec := postChat(t, handler, models.ChatRequest{
		Query:     "What is the vacation policy?",
		SessionID: "session-1",
		TopK:      3,
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.ChatResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "25 days per year.", resp.Response)
	assert.Equal(t, "session-1", resp.SessionID)
	assert.Equal(t, "How many vacation days do employees receive?", resp.RephrasedQuery)
	assert.Equal(t, []string{"handbook", "contract"}, resp.Sources)
	assert.Equal(t, 3, resp.NumChunksRetrieved)

	mockProcessor.AssertExpectations(t)
}

func TestChat_GeneratesSessionIDWhenMissing(t *testing.T) {
	handler, mockProcessor := setupTestChatHandler()

	mockProcessor.On("ProcessChat", mock.Anything, mock.Anything, mock.Anything).
		Return(&models.ChatResult{Success: true, Response: "answer"})

	rec := postChat(t, handler, models.ChatRequest{Query: "a valid question"})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.ChatResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEmpty(t, resp.SessionID)
}

func TestChat_RejectedQueryReturns400(t *testing.T) {
	handler, mockProcessor := setupTestChatHandler()

	mockProcessor.On("ProcessChat", mock.Anything, "hi", 0).
		Return(&models.ChatResult{
			Success: false,
			Error:   "Invalid or empty query. Please provide a meaningful question.",
		})

	rec := postChat(t, handler, models.ChatRequest{Query: "hi"})

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Contains(t, resp.Message, "Invalid or empty query")
}

func TestChat_InvalidBodyReturns400(t *testing.T) {
	handler, mockProcessor := setupTestChatHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	handler.Chat(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	mockProcessor.AssertNotCalled(t, "ProcessChat", mock.Anything, mock.Anything, mock.Anything)
}

func TestChat_NilOrchestratorReturns503(t *testing.T) {
	logger := log.New(os.Stdout, "[TEST] ", log.LstdFlags)
	handler := NewChatHandler(nil, logger)

	rec := postChat(t, handler, models.ChatRequest{Query: "a valid question"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
