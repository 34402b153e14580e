package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	cfgpkg "github.com/webgraphe/phollow/internal/config"
	"github.com/webgraphe/phollow/internal/document"
	"github.com/webgraphe/phollow/internal/runtime"
)

func startTestServer(t *testing.T) (*runtime.Runtime, string) {
	t.Helper()
	rt, err := runtime.Open(runtime.Options{Config: cfgpkg.Default()})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	ts := httptest.NewServer(New(rt).Handler())
	t.Cleanup(ts.Close)
	return rt, "ws" + strings.TrimPrefix(ts.URL, "http")
}

func dial(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) (document.Meta, json.RawMessage) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got struct {
		Meta document.Meta   `json:"meta"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return got.Meta, got.Data
}

func waitViewerCount(t *testing.T, rt *runtime.Runtime, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for rt.Hub().ViewerCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("viewer count %d, want %d", rt.Hub().ViewerCount(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestViewerReceivesDocuments(t *testing.T) {
	rt, wsURL := startTestServer(t)
	conn := dial(t, wsURL)
	waitViewerCount(t, rt, 1)

	if _, err := rt.OpenSession("1"); err != nil {
		t.Fatalf("open session: %v", err)
	}
	if _, err := rt.AppendDocument("1", document.Error{Message: "boom", Severity: document.SeverityWarning}); err != nil {
		t.Fatalf("append: %v", err)
	}

	meta, _ := readEnvelope(t, conn)
	if meta.Type != document.TypeConnectionOpened || meta.ID != 0 {
		t.Fatalf("first push: %+v", meta)
	}
	meta, data := readEnvelope(t, conn)
	if meta.Type != document.TypeError || meta.ID != 1 || meta.SessionID != "1" {
		t.Fatalf("second push: %+v", meta)
	}
	var errDoc document.Error
	if err := json.Unmarshal(data, &errDoc); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
	if errDoc.Message != "boom" {
		t.Fatalf("unexpected data: %+v", errDoc)
	}
}

func TestFilterNarrowsPush(t *testing.T) {
	rt, wsURL := startTestServer(t)
	conn := dial(t, wsURL+"/?filter="+`type%20%3D%3D%20%22error%22`)
	waitViewerCount(t, rt, 1)

	if _, err := rt.OpenSession("1"); err != nil {
		t.Fatalf("open session: %v", err)
	}
	if _, err := rt.AppendDocument("1", document.ScriptStarted{Script: "/a.php"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := rt.AppendDocument("1", document.Error{Message: "boom", Severity: document.SeverityError}); err != nil {
		t.Fatalf("append: %v", err)
	}

	meta, _ := readEnvelope(t, conn)
	if meta.Type != document.TypeError {
		t.Fatalf("filtered viewer got %s", meta.Type)
	}
}

func TestBadFilterRejectedBeforeUpgrade(t *testing.T) {
	_, wsURL := startTestServer(t)
	_, resp, err := websocket.DefaultDialer.Dial(wsURL+"/?filter=((broken", nil)
	if err == nil {
		t.Fatalf("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("want 400, got %+v", resp)
	}
}

func TestInboundFramesIgnored(t *testing.T) {
	rt, wsURL := startTestServer(t)
	conn := dial(t, wsURL)
	waitViewerCount(t, rt, 1)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"anything":"at all"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := rt.OpenSession("1"); err != nil {
		t.Fatalf("open session: %v", err)
	}
	meta, _ := readEnvelope(t, conn)
	if meta.Type != document.TypeConnectionOpened {
		t.Fatalf("viewer must keep receiving after inbound frame, got %+v", meta)
	}
}

func TestDisconnectUnregistersViewer(t *testing.T) {
	rt, wsURL := startTestServer(t)
	conn := dial(t, wsURL)
	waitViewerCount(t, rt, 1)
	_ = conn.Close()
	waitViewerCount(t, rt, 0)
}
