package openai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/brightboard/brightboard/internal/domain"
	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultEmbeddingModel is the OpenAI model used for generating embeddings
	DefaultEmbeddingModel = openai.AdaEmbeddingV2
	// DefaultEmbeddingDimensions is the expected dimension of embeddings from ada-002
	DefaultEmbeddingDimensions = 1536
	// DefaultGenerationModel is the chat model used for grounded answers
	DefaultGenerationModel = openai.GPT4oMini

	defaultEmbedTimeout    = 30 * time.Second
	defaultGenerateTimeout = 60 * time.Second
)

// ErrNoAPIKey is returned when the OpenAI API key is not set
var ErrNoAPIKey = errors.New("OPENAI_API_KEY environment variable not set")

// EmbeddingAPI defines the provider surface the client depends on. The rest
// of the pipeline never sees provider-specific request shapes.
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// GenerationAPI defines the chat-completion surface used by the answerer.
type GenerationAPI interface {
	CreateChatCompletion(ctx context.Context, system, user string) (string, error)
}

// Client wraps the OpenAI API for embedding and generation calls. Every
// remote call carries an explicit timeout so expiry surfaces as a failure,
// not a hang.
type Client struct {
	embeddings      EmbeddingAPI
	generation      GenerationAPI
	dimensions      int
	embedTimeout    time.Duration
	generateTimeout time.Duration
}

// OpenAIAdapter adapts the go-openai SDK to the narrow API interfaces.
type OpenAIAdapter struct {
	client         *openai.Client
	embeddingModel openai.EmbeddingModel
	chatModel      string
}

func NewOpenAIAdapter(apiKey string, embeddingModel openai.EmbeddingModel, chatModel string) *OpenAIAdapter {
	if embeddingModel == "" {
		embeddingModel = DefaultEmbeddingModel
	}
	if chatModel == "" {
		chatModel = DefaultGenerationModel
	}
	return &OpenAIAdapter{
		client:         openai.NewClient(apiKey),
		embeddingModel: embeddingModel,
		chatModel:      chatModel,
	}
}

// CreateEmbeddings calls the OpenAI API to create embeddings for a batch of texts.
func (a *OpenAIAdapter) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: a.embeddingModel,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

// CreateChatCompletion submits one system+user prompt pair and returns the answer text.
func (a *OpenAIAdapter) CreateChatCompletion(ctx context.Context, system, user string) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no completion choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

type Config struct {
	APIKey              string
	EmbeddingModel      openai.EmbeddingModel
	EmbeddingDimensions int
	GenerationModel     string
	EmbedTimeout        time.Duration
	GenerateTimeout     time.Duration
}

// NewClient creates a new OpenAI client using defaults.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(Config{APIKey: apiKey})
}

// NewClientWithConfig creates a new OpenAI client with explicit configuration.
func NewClientWithConfig(cfg Config) *Client {
	adapter := NewOpenAIAdapter(cfg.APIKey, cfg.EmbeddingModel, cfg.GenerationModel)
	return newClient(adapter, adapter, cfg)
}

// NewClientFromEnv creates a new OpenAI client using the OPENAI_API_KEY environment variable
func NewClientFromEnv() (*Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return NewClient(apiKey), nil
}

func newClient(embeddings EmbeddingAPI, generation GenerationAPI, cfg Config) *Client {
	dimensions := cfg.EmbeddingDimensions
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}
	embedTimeout := cfg.EmbedTimeout
	if embedTimeout <= 0 {
		embedTimeout = defaultEmbedTimeout
	}
	generateTimeout := cfg.GenerateTimeout
	if generateTimeout <= 0 {
		generateTimeout = defaultGenerateTimeout
	}
	return &Client{
		embeddings:      embeddings,
		generation:      generation,
		dimensions:      dimensions,
		embedTimeout:    embedTimeout,
		generateTimeout: generateTimeout,
	}
}

// Dimensions returns the fixed vector dimensionality for this deployment.
func (c *Client) Dimensions() int {
	return c.dimensions
}

// GenerateEmbedding generates an embedding for a single text.
func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, domain.ErrEmptyText
	}

	ctx, cancel := context.WithTimeout(ctx, c.embedTimeout)
	defer cancel()

	vectors, err := c.embeddings.CreateEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, providerError("create embedding", err)
	}

	if len(vectors[0]) != c.dimensions {
		return nil, domain.ErrDimensionMismatch
	}

	return vectors[0], nil
}

// GenerateEmbeddings embeds texts one request at a time, in input order.
// On failure the completed prefix is returned alongside the error so the
// caller can decide whether to resume or discard. A dimension mismatch
// aborts immediately: it is a configuration error, not a per-call one.
func (c *Client) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	completed := make([][]float32, 0, len(texts))
	for i, text := range texts {
		vector, err := c.GenerateEmbedding(ctx, text)
		if err != nil {
			return completed, fmt.Errorf("embedding %d of %d: %w", i+1, len(texts), err)
		}
		completed = append(completed, vector)
	}
	return completed, nil
}

// GenerateAnswer submits a single structured prompt and returns the answer text.
func (c *Client) GenerateAnswer(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.generateTimeout)
	defer cancel()

	answer, err := c.generation.CreateChatCompletion(ctx, system, user)
	if err != nil {
		return "", providerError("create chat completion", err)
	}
	return answer, nil
}

func providerError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.NewDomainErrorWithCause(domain.ErrCodeProviderTimeout, "failed to "+op, err)
	}
	return domain.NewDomainErrorWithCause(domain.ErrCodeProviderUnavailable, "failed to "+op, err)
}
