// Package ledger is the in-memory system of record for accepted documents and
// producer sessions.
//
// Every accepted document receives an identifier from a single monotonically
// increasing counter starting at zero; identifiers are never reused, even
// after a session's documents are forgotten. The ledger guards session
// lifecycle transitions (open, append, close) and rejects operations against
// duplicate, unknown, or terminated sessions with sentinel errors the caller
// can inspect with errors.Is.
//
// The ledger holds no persistent state. All methods are safe for concurrent
// use.
package ledger
