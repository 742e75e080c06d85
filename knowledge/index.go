package knowledge

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// Match is a document scored against a query. Scores are cosine similarity:
// higher means more relevant.
type Match struct {
	Document Document
	Score    float32
}

// Index is an in-memory vector index over document chunks.
// It is safe for concurrent use.
type Index struct {
	embedder Embedder

	mu      sync.RWMutex
	docs    []Document
	vectors [][]float32
	sources map[string]struct{}
}

// NewIndex creates an empty index backed by the given embedder.
func NewIndex(embedder Embedder) *Index {
	return &Index{
		embedder: embedder,
		sources:  make(map[string]struct{}),
	}
}

// Add embeds the documents and stores them in the index.
func (idx *Index) Add(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}

	vectors, err := idx.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("knowledge: embedding documents: %w", err)
	}
	if len(vectors) != len(docs) {
		return fmt.Errorf("knowledge: embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.docs = append(idx.docs, docs...)
	idx.vectors = append(idx.vectors, vectors...)
	for _, d := range docs {
		idx.sources[d.Source] = struct{}{}
	}
	return nil
}

// Search embeds the query and returns up to k matches with cosine similarity
// at or above threshold, ordered from most to least relevant.
func (idx *Index) Search(ctx context.Context, query string, k int, threshold float32) ([]Match, error) {
	if k <= 0 {
		return nil, nil
	}

	vectors, err := idx.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("knowledge: embedding query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("knowledge: embedder returned %d vectors for query", len(vectors))
	}
	queryVec := vectors[0]

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	matches := make([]Match, 0, len(idx.docs))
	for i, vec := range idx.vectors {
		score := cosineSimilarity(queryVec, vec)
		if score >= threshold {
			matches = append(matches, Match{Document: idx.docs[i], Score: score})
		}
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Score > matches[b].Score
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// Len returns the number of indexed chunks.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.docs)
}

// Sources returns the distinct source files in the index, sorted.
func (idx *Index) Sources() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]string, 0, len(idx.sources))
	for s := range idx.sources {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched or zero-length vectors score 0.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
