package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
)

// ErrInvalidQuery marks queries rejected before any LLM call: empty input or
// fewer than 3 characters after trimming.
var ErrInvalidQuery = errors.New("invalid or empty query")

const rephrasePromptTemplate = `Rephrase the following question to be clear, specific, and optimized for semantic search in a document database.
Keep it concise and maintain the original intent.

Original question: %s

Rephrased question:`

// QueryRewriter validates raw user queries and rewrites them into a
// retrieval-optimized form via one LLM call.
type QueryRewriter struct {
	llm    CompletionClient
	logger *log.Logger
}

// NewQueryRewriter creates a new query rewriter
func NewQueryRewriter(llm CompletionClient, logger *log.Logger) *QueryRewriter {
	return &QueryRewriter{
		llm:    llm,
		logger: logger,
	}
}

// Validate reports whether the query is meaningful enough to process
func (q *QueryRewriter) Validate(query string) bool {
	return len(strings.TrimSpace(query)) >= 3
}

// Process validates the query and returns its search-optimized rephrasing.
// Rephrasing failure never blocks the pipeline: on an LLM error or empty
// rephrasing the validated original query is returned unchanged.
func (q *QueryRewriter) Process(ctx context.Context, query string) (string, error) {
	if !q.Validate(query) {
		return "", ErrInvalidQuery
	}

	prompt := fmt.Sprintf(rephrasePromptTemplate, query)

	rephrased, err := q.llm.Complete(ctx, prompt)
	if err != nil {
		q.logger.Printf("Error rephrasing query: %v", err)
		return query, nil
	}

	rephrased = strings.TrimSpace(rephrased)
	if rephrased == "" {
		return query, nil
	}

	return rephrased, nil
}
