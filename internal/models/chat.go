package models

// ChatRequest represents the incoming chat request from the frontend.
type ChatRequest struct {
	Query     string `json:"query"`                // The user's question
	SessionID string `json:"session_id,omitempty"` // Conversation/session identifier
	TopK      int    `json:"top_k,omitempty"`      // Number of chunks to retrieve (default: 5)
}

// ChatResponse represents the response sent back to the frontend.
type ChatResponse struct {
	Response           string   `json:"response"`
	SessionID          string   `json:"session_id"`
	Sources            []string `json:"sources,omitempty"`
	RephrasedQuery     string   `json:"rephrased_query,omitempty"`
	FollowupQuestions  []string `json:"followup_questions,omitempty"`
	NumChunksRetrieved int      `json:"num_chunks_retrieved"`
}

// ChatResult is the structured outcome of one orchestrated chat turn.
type ChatResult struct {
	Success            bool              `json:"success"`
	OriginalQuery      string            `json:"original_query"`
	RephrasedQuery     string            `json:"rephrased_query,omitempty"`
	Response           string            `json:"response,omitempty"`
	Chunks             []*RetrievedChunk `json:"chunks"`
	FollowupQuestions  []string          `json:"followup_questions"`
	NumChunksRetrieved int               `json:"num_chunks_retrieved"`
	Error              string            `json:"error,omitempty"`
}

// BasicResponse is a simple status message payload.
type BasicResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}
