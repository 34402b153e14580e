// Package document defines the closed set of event kinds exchanged between
// instrumented producers, the ledger, and viewers.
//
// Every event travels in an envelope that keeps meta fields (id, type,
// sessionId) separate from the kind-specific data:
//
//	{"meta":{"id":3,"type":"error","sessionId":"7"},"data":{...}}
//
// Producers send only {"meta":{"type":...},"data":{...}}; id and sessionId
// are assigned by the server on acceptance. Decoding dispatches on the
// meta.type discriminator through a lookup table; an unknown discriminator is
// a decode miss, not an error, so callers can log and skip.
package document
