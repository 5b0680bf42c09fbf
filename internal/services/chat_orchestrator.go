package services

import (
	"context"
	"errors"
	"log"
	"sync"

	"docuchat/internal/models"
	"docuchat/internal/repositories"
)

// DefaultTopK is the number of chunks retrieved per chat turn when the
// caller does not specify one
const DefaultTopK = 5

// ChatOrchestrator sequences one chat turn: rewrite -> retrieve -> answer ->
// follow-ups. Rephrasing rejection short-circuits the turn; retrieval
// failures degrade to zero chunks rather than aborting.
type ChatOrchestrator struct {
	rewriter  *QueryRewriter
	generator *AnswerGenerator
	embedder  EmbeddingProvider
	logger    *log.Logger

	// The vector store is the one shared resource across concurrent chat
	// requests and can be rebound after construction (it may depend on data
	// not yet ingested when the orchestrator is built).
	mu    sync.RWMutex
	store repositories.VectorStore
}

// NewChatOrchestrator creates an orchestrator. The store may be nil; chat
// then proceeds with empty context until SetVectorStore is called.
func NewChatOrchestrator(rewriter *QueryRewriter, generator *AnswerGenerator, embedder EmbeddingProvider, store repositories.VectorStore, logger *log.Logger) *ChatOrchestrator {
	return &ChatOrchestrator{
		rewriter:  rewriter,
		generator: generator,
		embedder:  embedder,
		store:     store,
		logger:    logger,
	}
}

// SetVectorStore replaces the vector store handle
func (o *ChatOrchestrator) SetVectorStore(store repositories.VectorStore) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.store = store
}

func (o *ChatOrchestrator) vectorStore() repositories.VectorStore {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.store
}

// ProcessChat runs one full chat turn and always returns a structured
// result. Follow-up questions are generated from the original query, not
// the rephrased one.
func (o *ChatOrchestrator) ProcessChat(ctx context.Context, userQuery string, topK int) *models.ChatResult {
	if topK <= 0 {
		topK = DefaultTopK
	}

	// Step 1: validate and rephrase
	rephrased, err := o.rewriter.Process(ctx, userQuery)
	if err != nil {
		if !errors.Is(err, ErrInvalidQuery) {
			o.logger.Printf("Query rewriting failed: %v", err)
		}
		return &models.ChatResult{
			Success:           false,
			OriginalQuery:     userQuery,
			Chunks:            []*models.RetrievedChunk{},
			FollowupQuestions: []string{},
			Error:             "Invalid or empty query. Please provide a meaningful question.",
		}
	}

	// Step 2: retrieve relevant chunks; retrieval problems mean degraded
	// context, not a failed chat
	chunks := o.retrieve(ctx, rephrased, topK)

	// Step 3: generate the grounded answer
	response := o.generator.Answer(ctx, rephrased, chunks)

	// Step 4: suggest follow-up questions from the original query
	followups := o.generator.Followups(ctx, userQuery, response)

	return &models.ChatResult{
		Success:            true,
		OriginalQuery:      userQuery,
		RephrasedQuery:     rephrased,
		Response:           response,
		Chunks:             chunks,
		FollowupQuestions:  followups,
		NumChunksRetrieved: len(chunks),
	}
}

func (o *ChatOrchestrator) retrieve(ctx context.Context, query string, topK int) []*models.RetrievedChunk {
	store := o.vectorStore()
	if store == nil {
		return []*models.RetrievedChunk{}
	}

	embeddings, err := o.embedder.Embed(ctx, []string{query})
	if err != nil || len(embeddings) == 0 {
		o.logger.Printf("Error embedding query: %v", err)
		return []*models.RetrievedChunk{}
	}

	chunks, err := store.Query(ctx, embeddings[0], topK, nil)
	if err != nil {
		o.logger.Printf("Error retrieving from vector store: %v", err)
		return []*models.RetrievedChunk{}
	}

	return chunks
}
