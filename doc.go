// Package stockagent provides the core types for a tool-calling stock
// market agent: conversation messages, tool definitions and calls, chat
// responses, and the ChatProvider contract implemented by the reasoning
// backends in the provider subpackages.
//
// The machinery lives in the subpackages:
//
//   - agent: the reason/act loop that drives a conversation to completion
//   - tool: the tool registry and typed handler registration
//   - event: internal loop events consumed by the stream adapter
//   - stream: the wire-level event protocol emitted to callers
//   - market: the market-data client backing the price tools
//   - knowledge: document embedding, indexing, and retrieval
//   - stocktools: the tool adapters wired into the registry
//   - server: the NDJSON streaming HTTP boundary
package stockagent
