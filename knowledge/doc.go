// Package knowledge provides document retrieval over an in-memory vector
// index for grounding agent answers in financial reference material.
//
// Plain-text and markdown files are loaded from a directory, split into
// overlapping chunks, embedded through an [Embedder], and stored in an
// [Index] that ranks chunks by cosine similarity. [Retriever] wires the
// pieces together behind a single Retrieve call; scores run from -1 to 1
// with higher meaning more relevant.
package knowledge
