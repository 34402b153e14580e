// Package ingest accepts producer TCP connections carrying newline-delimited
// JSON documents. Each connection is one session: a synthetic
// connectionOpened document is recorded on accept, producer documents are
// appended as lines arrive, and a synthetic connectionClosed document is
// recorded when the connection ends for any reason.
//
// Malformed lines, unknown document kinds, and rejected appends are logged
// and skipped; a bad line never terminates its session and a bad session
// never affects another.
package ingest
