package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	// DefaultOpenAIEmbeddingModel is the hosted embedding model
	DefaultOpenAIEmbeddingModel = "text-embedding-3-small"

	// DefaultLocalEmbeddingURL points at an OpenAI-compatible local server
	// (LM Studio default port)
	DefaultLocalEmbeddingURL = "http://localhost:1234/v1"

	// DefaultLocalEmbeddingModel is the embedding model a local server loads
	DefaultLocalEmbeddingModel = "text-embedding-nomic-embed-text-v1.5"

	// DefaultEmbeddingTimeout bounds per-call embedding latency
	DefaultEmbeddingTimeout = 30 * time.Second
)

// ErrEmbeddingConfiguration marks construction-time configuration failures
// (missing API key, unreachable local model). Callers should fail to
// initialize the dependent component rather than continue half-configured.
var ErrEmbeddingConfiguration = errors.New("embedding configuration error")

// EmbeddingProvider converts text into fixed-dimension vectors.
type EmbeddingProvider interface {
	// Embed returns one vector per input text, order-preserving. Per-call
	// failures propagate; retries belong to the caller.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the fixed dimensionality of the active backend
	Dimension() int
}

// EmbeddingConfig holds configuration for embedding provider construction
type EmbeddingConfig struct {
	Provider string // "openai", "local", or "auto"
	Model    string
	APIKey   string // hosted backend credential
	LocalURL string // base URL of the local OpenAI-compatible server
	Timeout  time.Duration
}

// NewEmbeddingProvider selects and constructs an embedding backend.
// "auto" prefers the hosted API when an API key is configured and falls
// back to the local model otherwise.
func NewEmbeddingProvider(config EmbeddingConfig) (EmbeddingProvider, error) {
	if config.Timeout == 0 {
		config.Timeout = DefaultEmbeddingTimeout
	}

	switch config.Provider {
	case "", "auto":
		if config.APIKey != "" {
			return newOpenAIEmbedder(config)
		}
		return newLocalEmbedder(config)
	case "openai":
		return newOpenAIEmbedder(config)
	case "local":
		return newLocalEmbedder(config)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrEmbeddingConfiguration, config.Provider)
	}
}

// OpenAIEmbedder generates embeddings through the hosted OpenAI API
type OpenAIEmbedder struct {
	client    openai.Client
	model     string
	dimension int
	timeout   time.Duration
}

func newOpenAIEmbedder(config EmbeddingConfig) (*OpenAIEmbedder, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("%w: OpenAI API key not found", ErrEmbeddingConfiguration)
	}

	model := config.Model
	if model == "" {
		model = DefaultOpenAIEmbeddingModel
	}

	return &OpenAIEmbedder{
		client:    openai.NewClient(option.WithAPIKey(config.APIKey)),
		model:     model,
		dimension: openAIModelDimension(model),
		timeout:   config.Timeout,
	}, nil
}

// openAIModelDimension maps hosted embedding model names to their fixed
// output dimensionality (text-embedding-3-small: 1536, -large: 3072).
func openAIModelDimension(model string) int {
	if strings.Contains(model, "large") {
		return 3072
	}
	return 1536
}

// Embed generates embeddings for the given texts
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	params := openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(e.model),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
	}

	resp, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}

	embeddings := make([][]float32, len(resp.Data))
	for _, data := range resp.Data {
		vector := make([]float32, len(data.Embedding))
		for i, v := range data.Embedding {
			vector[i] = float32(v)
		}
		embeddings[data.Index] = vector
	}

	return embeddings, nil
}

// Dimension returns the embedding dimensionality for the active model
func (e *OpenAIEmbedder) Dimension() int {
	return e.dimension
}

// LocalEmbedder generates embeddings through an OpenAI-compatible local
// server such as LM Studio. The model dimension is probed once at
// construction, so an unreachable or modeless server fails fast.
type LocalEmbedder struct {
	baseURL    string
	model      string
	dimension  int
	httpClient *http.Client
}

type localEmbeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type localEmbeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func newLocalEmbedder(config EmbeddingConfig) (*LocalEmbedder, error) {
	baseURL := config.LocalURL
	if baseURL == "" {
		baseURL = DefaultLocalEmbeddingURL
	}
	model := config.Model
	if model == "" {
		model = DefaultLocalEmbeddingModel
	}

	e := &LocalEmbedder{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}

	// Probe the server with a single embedding to establish the dimension
	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
	defer cancel()

	probe, err := e.Embed(ctx, []string{"dimension probe"})
	if err != nil {
		return nil, fmt.Errorf("%w: local embedding model unavailable: %v", ErrEmbeddingConfiguration, err)
	}
	if len(probe) == 0 || len(probe[0]) == 0 {
		return nil, fmt.Errorf("%w: local embedding model returned an empty vector", ErrEmbeddingConfiguration)
	}
	e.dimension = len(probe[0])

	return e, nil
}

// Embed generates embeddings for the given texts
func (e *LocalEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(localEmbeddingRequest{
		Input: texts,
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", e.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedding server returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed localEmbeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(parsed.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(parsed.Data))
	}

	embeddings := make([][]float32, len(texts))
	for _, data := range parsed.Data {
		if data.Index < 0 || data.Index >= len(embeddings) {
			return nil, fmt.Errorf("embedding index %d out of range", data.Index)
		}
		embeddings[data.Index] = data.Embedding
	}

	return embeddings, nil
}

// Dimension returns the probed embedding dimensionality
func (e *LocalEmbedder) Dimension() int {
	return e.dimension
}
