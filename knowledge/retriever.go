package knowledge

import (
	"context"
	"errors"
)

// ErrUnavailable indicates the retriever has no index to search, usually
// because the knowledge base directory was missing or empty at startup.
var ErrUnavailable = errors.New("knowledge: retriever not available")

// Retrieval defaults matching the agent's document search tool.
const (
	DefaultTopK = 3

	// DefaultScoreThreshold admits every non-negative similarity.
	DefaultScoreThreshold float32 = 0.0
)

// Retriever searches a vector index for chunks relevant to a query.
type Retriever struct {
	index     *Index
	topK      int
	threshold float32
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever)

// WithTopK sets how many matches Retrieve returns. Default is 3.
func WithTopK(k int) RetrieverOption {
	return func(r *Retriever) {
		r.topK = k
	}
}

// WithScoreThreshold sets the minimum similarity for a match. Default is 0.
func WithScoreThreshold(t float32) RetrieverOption {
	return func(r *Retriever) {
		r.threshold = t
	}
}

// NewRetriever creates a retriever over the given index.
// A nil index produces a retriever whose Retrieve always fails with
// ErrUnavailable.
func NewRetriever(index *Index, opts ...RetrieverOption) *Retriever {
	r := &Retriever{
		index:     index,
		topK:      DefaultTopK,
		threshold: DefaultScoreThreshold,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewRetrieverFromDir loads, chunks and indexes every document under dir.
// Returns ErrUnavailable if the directory holds no indexable documents.
func NewRetrieverFromDir(ctx context.Context, dir string, embedder Embedder, opts ...RetrieverOption) (*Retriever, error) {
	docs, err := LoadDir(dir, DefaultChunkSize, DefaultChunkOverlap)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrUnavailable
	}

	index := NewIndex(embedder)
	if err := index.Add(ctx, docs); err != nil {
		return nil, err
	}
	return NewRetriever(index, opts...), nil
}

// Retrieve returns the most relevant chunks for the query.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]Match, error) {
	if r == nil || r.index == nil {
		return nil, ErrUnavailable
	}
	return r.index.Search(ctx, query, r.topK, r.threshold)
}

// Stats describes the retriever's index.
type Stats struct {
	Chunks  int      `json:"chunks"`
	Sources []string `json:"sources"`
}

// Stats returns the size and sources of the underlying index.
func (r *Retriever) Stats() Stats {
	if r == nil || r.index == nil {
		return Stats{}
	}
	return Stats{
		Chunks:  r.index.Len(),
		Sources: r.index.Sources(),
	}
}
