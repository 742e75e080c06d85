package knowledge

import "context"

// Embedder converts texts into dense vectors. Implementations are provided
// by the provider packages; any embedding backend that returns one vector
// per input text in order satisfies the interface.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
