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

func setupTestAnswerGenerator() (*AnswerGenerator, *MockCompletionClient) {
	mockLLM := new(MockCompletionClient)
	logger := log.New(os.Stdout, "[TEST] ", log.LstdFlags)
	return NewAnswerGenerator(mockLLM, logger), mockLLM
}

func makeRetrievedChunk(text, source string) *models.RetrievedChunk {
	return &models.RetrievedChunk{
		ID:   "doc1_0",
		Text: text,
		Metadata: models.ChunkMetadata{
			DocumentID: "doc1",
			Source:     source,
		},
	}
}

func TestFormatContext_Empty(t *testing.T) {
	generator, _ := setupTestAnswerGenerator()

	assert.Equal(t, "No relevant context found.", generator.FormatContext(nil))
	assert.Equal(t, "No relevant context found.", generator.FormatContext([]*models.RetrievedChunk{}))
}

func TestFormatContext_NumbersAndLabelsChunks(t *testing.T) {
	generator, _ := setupTestAnswerGenerator()

	chunks := []*models.RetrievedChunk{
		makeRetrievedChunk("Payments are due monthly.", "contract"),
		makeRetrievedChunk("Late fees apply after 30 days.", "contract"),
	}

	formatted := generator.FormatContext(chunks)
	assert.Contains(t, formatted, "[Context 1] (Source: contract)\nPayments are due monthly.")
	assert.Contains(t, formatted, "[Context 2] (Source: contract)\nLate fees apply after 30 days.")
}

func TestFormatContext_MissingSourceDefaultsToUnknown(t *testing.T) {
	generator, _ := setupTestAnswerGenerator()

	chunks := []*models.RetrievedChunk{makeRetrievedChunk("Some text.", "")}

	formatted := generator.FormatContext(chunks)
	assert.Contains(t, formatted, "(Source: Unknown)")
}

func TestAnswer_IncludesContextAndQuery(t *testing.T) {
	generator, mockLLM := setupTestAnswerGenerator()

	var capturedPrompt string
	mockLLM.On("Complete", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		capturedPrompt = prompt
		return true
	})).Return("Payments are due monthly.", nil)

	chunks := []*models.RetrievedChunk{makeRetrievedChunk("Payments are due monthly.", "contract")}
	answer := generator.Answer(context.Background(), "When are payments due?", chunks)

	assert.Equal(t, "Payments are due monthly.", answer)
	assert.Contains(t, capturedPrompt, "When are payments due?")
	assert.Contains(t, capturedPrompt, "[Context 1]")
}

func TestAnswer_NoChunksUsesNoContextSentence(t *testing.T) {
	generator, mockLLM := setupTestAnswerGenerator()

	var capturedPrompt string
	mockLLM.On("Complete", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		capturedPrompt = prompt
		return true
	})).Return("I don't have information about that.", nil)

	answer := generator.Answer(context.Background(), "When are payments due?", nil)

	assert.Equal(t, "I don't have information about that.", answer)
	assert.Contains(t, capturedPrompt, "No relevant context found.")
}

func TestAnswer_LLMFailureReturnsErrorString(t *testing.T) {
	generator, mockLLM := setupTestAnswerGenerator()

	mockLLM.On("Complete", mock.Anything, mock.Anything).
		Return("", errors.New("rate limited"))

	answer := generator.Answer(context.Background(), "When are payments due?", nil)
	assert.Contains(t, answer, "Error generating response")
	assert.Contains(t, answer, "rate limited")
}

func TestFollowups_ParsesLines(t *testing.T) {
	generator, mockLLM := setupTestAnswerGenerator()

	mockLLM.On("Complete", mock.Anything, mock.Anything).
		Return("What is the late fee?\n\nCan payments be deferred?\nWho do I contact?\n", nil)

	questions := generator.Followups(context.Background(), "When are payments due?", "Monthly.")
	require.Len(t, questions, 3)
	assert.Equal(t, "What is the late fee?", questions[0])
	assert.Equal(t, "Can payments be deferred?", questions[1])
	assert.Equal(t, "Who do I contact?", questions[2])
}

func TestFollowups_CapsAtThree(t *testing.T) {
	generator, mockLLM := setupTestAnswerGenerator()

	mockLLM.On("Complete", mock.Anything, mock.Anything).
		Return("q1\nq2\nq3\nq4\nq5", nil)

	questions := generator.Followups(context.Background(), "q", "a")
	assert.Len(t, questions, 3)
}

func TestFollowups_LLMFailureReturnsEmptyList(t *testing.T) {
	generator, mockLLM := setupTestAnswerGenerator()

	mockLLM.On("Complete", mock.Anything, mock.Anything).
		Return("", errors.New("timeout"))

	questions := generator.Followups(context.Background(), "q", "a")
	assert.NotNil(t, questions)
	assert.Empty(t, questions)
}
