// Package convo tracks multi-turn conversations.
//
// A Manager persists sessions through a storage.SessionRepository and hands
// out *Conversation handles. A handle carries the session id and a rolling
// window of the most recent exchanges (ten by default). The window is an
// in-memory view; the persisted history is never pruned.
//
// From the window a Conversation derives:
//
//   - ContextSummary: a digest of the last five exchanges for the prompt
//   - QueryVariations: rewrites pairing the question with recent topics
//   - IsFollowUp: whether the question continues the conversation
//
// Topics come from a pluggable TopicExtractor. LegalTopicExtractor matches
// "Section <n>" and "Article <n>" citations and a small legal vocabulary.
//
// # Concurrency
//
// AddExchange serializes writers per session id, re-reads the persisted
// record and appends to it, so concurrent requests on one session never lose
// an exchange. Sessions do not lock each other.
package convo
