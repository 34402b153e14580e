package document

import "encoding/json"

// Document is one kind-specific event payload from the closed variant set.
type Document interface {
	// DocumentType returns the wire discriminator for the kind.
	DocumentType() string
}

// Envelope is an accepted, server-numbered document. Instances are created by
// the ledger on acceptance and immutable thereafter.
type Envelope struct {
	ID        uint64
	SessionID string
	Document  Document
}

// Meta is the envelope header in the outbound wire encoding.
type Meta struct {
	ID        uint64 `json:"id"`
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
}

// MarshalJSON encodes the envelope in the broadcast/snapshot format, with
// meta fields nested apart from the kind-specific data.
func (e *Envelope) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Meta Meta     `json:"meta"`
		Data Document `json:"data"`
	}{
		Meta: Meta{ID: e.ID, Type: e.Document.DocumentType(), SessionID: e.SessionID},
		Data: e.Document,
	})
}
