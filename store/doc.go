// Package store provides conversation history storage for agent runs.
//
// [MessageStore] holds the messages of a single conversation and supports
// optional persistence through the [Adapter] interface, with an in-memory
// implementation provided by [MemoryAdapter]. [SessionStore] keys message
// stores by runtime session id so multi-turn conversations survive across
// requests.
package store
