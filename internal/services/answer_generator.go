package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"docuchat/internal/models"
)

const (
	// noContextSentence is used verbatim when retrieval produced nothing;
	// the generator still answers and states the limitation
	noContextSentence = "No relevant context found."

	// maxFollowupQuestions caps follow-up suggestions per turn
	maxFollowupQuestions = 3
)

const answerPromptTemplate = `You are a helpful AI assistant that answers questions based on the provided context.

Context from documents:
%s

User Question: %s

Instructions:
- Answer the question using ONLY the information from the provided context
- If the context doesn't contain enough information to answer the question, say so clearly
- Be concise but comprehensive
- Cite which context section(s) you used if relevant
- If multiple contexts provide information, synthesize them coherently

Answer:`

const followupPromptTemplate = `Based on this Q&A, suggest 3 relevant follow-up questions the user might ask:

Question: %s
Answer: %s

Provide only the questions, one per line, without numbering.`

// AnswerGenerator produces grounded answers from retrieved chunks and
// suggests follow-up questions.
type AnswerGenerator struct {
	llm    CompletionClient
	logger *log.Logger
}

// NewAnswerGenerator creates a new answer generator
func NewAnswerGenerator(llm CompletionClient, logger *log.Logger) *AnswerGenerator {
	return &AnswerGenerator{
		llm:    llm,
		logger: logger,
	}
}

// FormatContext renders retrieved chunks into numbered context blocks with
// their source labels.
func (g *AnswerGenerator) FormatContext(chunks []*models.RetrievedChunk) string {
	if len(chunks) == 0 {
		return noContextSentence
	}

	parts := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		parts = append(parts, fmt.Sprintf("[Context %d] (Source: %s)\n%s\n",
			i+1, chunk.Metadata.SourceOrUnknown(), chunk.Text))
	}

	return strings.Join(parts, "\n")
}

// Answer asks the LLM for an answer grounded in the retrieved chunks. An
// LLM failure is surfaced as an error-string answer rather than an error so
// the orchestrator can still return a structured result.
func (g *AnswerGenerator) Answer(ctx context.Context, query string, chunks []*models.RetrievedChunk) string {
	prompt := fmt.Sprintf(answerPromptTemplate, g.FormatContext(chunks), query)

	response, err := g.llm.Complete(ctx, prompt)
	if err != nil {
		g.logger.Printf("Error generating response: %v", err)
		return fmt.Sprintf("Error generating response: %v", err)
	}

	return strings.TrimSpace(response)
}

// Followups suggests up to 3 follow-up questions for the query/answer pair.
// Failures degrade to an empty list.
func (g *AnswerGenerator) Followups(ctx context.Context, query, answer string) []string {
	prompt := fmt.Sprintf(followupPromptTemplate, query, answer)

	raw, err := g.llm.Complete(ctx, prompt)
	if err != nil {
		g.logger.Printf("Error generating follow-up questions: %v", err)
		return []string{}
	}

	questions := make([]string, 0, maxFollowupQuestions)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		questions = append(questions, line)
		if len(questions) == maxFollowupQuestions {
			break
		}
	}

	return questions
}
