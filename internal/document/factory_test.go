package document

import (
	"encoding/json"
	"testing"
)

func TestDecodeLineScriptStarted(t *testing.T) {
	line := []byte(`{"meta":{"type":"scriptStarted"},"data":{"method":"GET","script":"/index.php","hostname":"web-1","time":1.5}}`)
	doc, ok, err := DecodeLine(line)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !ok {
		t.Fatalf("expected a decoder match")
	}
	started, isStarted := doc.(ScriptStarted)
	if !isStarted {
		t.Fatalf("want ScriptStarted, got %T", doc)
	}
	if started.Method != "GET" || started.Script != "/index.php" || started.Hostname != "web-1" {
		t.Fatalf("unexpected fields: %+v", started)
	}
}

func TestDecodeLineErrorDocument(t *testing.T) {
	line := []byte(`{"meta":{"type":"error"},"data":{"message":"boom","severity":"WARNING","file":"a.php","line":42}}`)
	doc, ok, err := DecodeLine(line)
	if err != nil || !ok {
		t.Fatalf("decode: ok=%v err=%v", ok, err)
	}
	errDoc, isErr := doc.(Error)
	if !isErr {
		t.Fatalf("want Error, got %T", doc)
	}
	if errDoc.Message != "boom" || errDoc.Severity != SeverityWarning || errDoc.Line != 42 {
		t.Fatalf("unexpected fields: %+v", errDoc)
	}
}

func TestDecodeLineScriptEnded(t *testing.T) {
	doc, ok, err := DecodeLine([]byte(`{"meta":{"type":"scriptEnded"},"data":{"time":0.25}}`))
	if err != nil || !ok {
		t.Fatalf("decode: ok=%v err=%v", ok, err)
	}
	ended, isEnded := doc.(ScriptEnded)
	if !isEnded {
		t.Fatalf("want ScriptEnded, got %T", doc)
	}
	if ended.Time != 0.25 {
		t.Fatalf("want time 0.25, got %v", ended.Time)
	}
}

func TestDecodeLineUnknownTypeIsMissNotError(t *testing.T) {
	doc, ok, err := DecodeLine([]byte(`{"meta":{"type":"heartbeat"},"data":{}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok || doc != nil {
		t.Fatalf("expected a miss, got ok=%v doc=%v", ok, doc)
	}
}

func TestDecodeLineMalformedJSON(t *testing.T) {
	if _, _, err := DecodeLine([]byte(`{"meta":{`)); err == nil {
		t.Fatalf("expected error on malformed json")
	}
}

func TestDecodeLineMissingType(t *testing.T) {
	if _, _, err := DecodeLine([]byte(`{"data":{"message":"x"}}`)); err == nil {
		t.Fatalf("expected error on missing meta.type")
	}
}

func TestDecodeLineBadDataForKnownType(t *testing.T) {
	_, ok, err := DecodeLine([]byte(`{"meta":{"type":"error"},"data":"not-an-object"}`))
	if err == nil {
		t.Fatalf("expected error on malformed data")
	}
	if !ok {
		t.Fatalf("malformed data for a known kind should still report a match")
	}
}

func TestSyntheticKindsNotDecodable(t *testing.T) {
	for _, typ := range []string{TypeConnectionOpened, TypeConnectionClosed} {
		_, ok, err := Decode(typ, nil)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", typ, err)
		}
		if ok {
			t.Fatalf("%s: synthetic kind must not be wire-decodable", typ)
		}
	}
}

func TestEnvelopeMarshalShape(t *testing.T) {
	env := &Envelope{ID: 7, SessionID: "3", Document: Error{Message: "boom", Severity: SeverityError}}
	raw, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got struct {
		Meta Meta            `json:"meta"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Meta.ID != 7 || got.Meta.SessionID != "3" || got.Meta.Type != TypeError {
		t.Fatalf("unexpected meta: %+v", got.Meta)
	}
	var data Error
	if err := json.Unmarshal(got.Data, &data); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
	if data.Message != "boom" {
		t.Fatalf("unexpected data: %+v", data)
	}
}
