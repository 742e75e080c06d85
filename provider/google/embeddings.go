package google

import (
	"context"
	"fmt"

	ai "github.com/alexandrerays/bedrock-agentcore-stock-agent"
	"google.golang.org/genai"
)

// Embed generates embeddings for the provided texts using Google's embedding API.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: at least one text is required for embedding", ai.ErrEmptyInput)
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = &genai.Content{
			Parts: []*genai.Part{{Text: text}},
		}
	}

	resp, err := c.client.Models.EmbedContent(ctx, c.embeddingModel, contents, &genai.EmbedContentConfig{})
	if err != nil {
		return nil, wrapError(err)
	}

	embeddings := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		embeddings[i] = emb.Values
	}
	return embeddings, nil
}
