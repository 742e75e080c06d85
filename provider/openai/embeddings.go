package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	ai "github.com/alexandrerays/bedrock-agentcore-stock-agent"
)

// Embed generates embeddings for the provided texts. One vector is returned
// per input text, in order, satisfying knowledge.Embedder.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: at least one text is required for embedding", ai.ErrEmptyInput)
	}

	params := openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(c.embeddingModel),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
	}

	resp, err := c.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, wrapError(err)
	}

	embeddings := make([][]float32, len(resp.Data))
	for i, data := range resp.Data {
		vec := make([]float32, len(data.Embedding))
		for j, v := range data.Embedding {
			vec[j] = float32(v)
		}
		embeddings[i] = vec
	}
	return embeddings, nil
}
