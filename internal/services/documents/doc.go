// Package docsvc provides the read and housekeeping operations over the
// document ledger: listing and fetching documents, the aggregate meta view,
// forgetting terminated sessions, and compiling viewer filter expressions.
package docsvc
