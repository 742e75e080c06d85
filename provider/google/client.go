// Package google implements an embedding provider backed by the Google
// GenAI API. It is used to embed knowledge base documents and search
// queries for semantic retrieval.
package google

import (
	"context"

	"google.golang.org/genai"
)

// DefaultEmbeddingModel is the embedding model used when none is configured.
const DefaultEmbeddingModel = "text-embedding-004"

// Client wraps the Google GenAI SDK for embedding generation.
type Client struct {
	client         *genai.Client
	embeddingModel string
}

// New creates a new Google GenAI client with the given API key.
func New(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	c := &Client{
		client:         client,
		embeddingModel: DefaultEmbeddingModel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ClientOption configures the Google client.
type ClientOption func(*Client)

// WithEmbeddingModel sets the embedding model for requests.
func WithEmbeddingModel(model string) ClientOption {
	return func(c *Client) {
		c.embeddingModel = model
	}
}
