package document

// Wire discriminators for the producer-sent script lifecycle kinds.
const (
	TypeScriptStarted = "scriptStarted"
	TypeScriptEnded   = "scriptEnded"
)

// ScriptStarted carries the execution context reported by a producer when an
// instrumented script begins.
type ScriptStarted struct {
	Method          string  `json:"method,omitempty"`
	ServerAPI       string  `json:"serverApi,omitempty"`
	Script          string  `json:"script,omitempty"`
	ScriptFilename  string  `json:"scriptFilename,omitempty"`
	Hostname        string  `json:"hostname,omitempty"`
	ServerIP        string  `json:"serverIp,omitempty"`
	RemoteIP        string  `json:"remoteIp,omitempty"`
	Time            float64 `json:"time,omitempty"`
	ApplicationName string  `json:"applicationName,omitempty"`
}

// DocumentType returns the wire discriminator.
func (ScriptStarted) DocumentType() string { return TypeScriptStarted }

// ScriptEnded carries the elapsed wall-clock time of a finished script.
type ScriptEnded struct {
	Time float64 `json:"time"`
}

// DocumentType returns the wire discriminator.
func (ScriptEnded) DocumentType() string { return TypeScriptEnded }
