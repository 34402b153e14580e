package document

import (
	"encoding/json"
	"fmt"
)

// wireDocument is the inbound producer framing. Producers never supply id or
// sessionId; those meta fields exist only on the outbound encoding.
type wireDocument struct {
	Meta struct {
		Type string `json:"type"`
	} `json:"meta"`
	Data json.RawMessage `json:"data"`
}

// decoders is the decode table keyed on the wire discriminator. Only
// producer-sent kinds are listed; the synthetic connection bracket kinds are
// constructed by the ingestion handler, never decoded from the wire.
var decoders = map[string]func(json.RawMessage) (Document, error){
	TypeScriptStarted: func(data json.RawMessage) (Document, error) {
		var d ScriptStarted
		return d, unmarshalData(data, &d)
	},
	TypeError: func(data json.RawMessage) (Document, error) {
		var d Error
		return d, unmarshalData(data, &d)
	},
	TypeScriptEnded: func(data json.RawMessage) (Document, error) {
		var d ScriptEnded
		return d, unmarshalData(data, &d)
	},
}

func unmarshalData(data json.RawMessage, into Document) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, into); err != nil {
		return fmt.Errorf("decode %s data: %w", into.DocumentType(), err)
	}
	return nil
}

// Decode resolves a discriminator and decodes the kind-specific data. The
// second return is false when the discriminator has no decoder (a miss, not
// an error); err is non-nil only when a known kind carries malformed data.
func Decode(typ string, data json.RawMessage) (Document, bool, error) {
	decode, ok := decoders[typ]
	if !ok {
		return nil, false, nil
	}
	doc, err := decode(data)
	if err != nil {
		return nil, true, err
	}
	return doc, true, nil
}

// DecodeLine parses one newline-delimited wire document. Malformed JSON and
// malformed kind data are errors; an unknown discriminator is a miss
// (false, nil) left to the caller to log and skip.
func DecodeLine(line []byte) (Document, bool, error) {
	var w wireDocument
	if err := json.Unmarshal(line, &w); err != nil {
		return nil, false, fmt.Errorf("decode wire document: %w", err)
	}
	if w.Meta.Type == "" {
		return nil, false, fmt.Errorf("wire document missing meta.type")
	}
	return Decode(w.Meta.Type, w.Data)
}
