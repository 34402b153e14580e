// Package fanout delivers accepted documents to connected viewers.
//
// Each viewer gets a buffered queue drained by its own writer goroutine, so a
// slow or stalled viewer never blocks ingestion or the other viewers. A
// viewer whose queue overflows or whose transport errors is dropped from the
// hub and closed. Delivery is push-only from the moment of registration;
// viewers that connect late see only documents accepted after they joined.
package fanout
