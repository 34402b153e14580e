package document

// Wire discriminators for the synthetic lifecycle kinds. These are emitted by
// the ingestion handler itself, never by producers, so they do not appear in
// the inbound decode table.
const (
	TypeConnectionOpened = "connectionOpened"
	TypeConnectionClosed = "connectionClosed"
)

// ConnectionOpened brackets the start of a producer session. Payload is empty.
type ConnectionOpened struct{}

// DocumentType returns the wire discriminator.
func (ConnectionOpened) DocumentType() string { return TypeConnectionOpened }

// ConnectionClosed brackets the end of a producer session, whether the
// producer closed cleanly or the transport failed. Payload is empty.
type ConnectionClosed struct{}

// DocumentType returns the wire discriminator.
func (ConnectionClosed) DocumentType() string { return TypeConnectionClosed }
