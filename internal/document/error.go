package document

// TypeError is the wire discriminator for producer-reported errors.
const TypeError = "error"

// Error is one producer-reported error occurrence with its source location,
// simplified call trace, and host metadata.
type Error struct {
	Message         string   `json:"message"`
	Severity        Severity `json:"severity"`
	File            string   `json:"file,omitempty"`
	Line            int      `json:"line,omitempty"`
	Trace           []string `json:"trace,omitempty"`
	Host            string   `json:"host,omitempty"`
	ServerIP        string   `json:"serverIp,omitempty"`
	RemoteIP        string   `json:"remoteIp,omitempty"`
	ApplicationName string   `json:"applicationName,omitempty"`
	Time            float64  `json:"time,omitempty"`
}

// DocumentType returns the wire discriminator.
func (Error) DocumentType() string { return TypeError }
