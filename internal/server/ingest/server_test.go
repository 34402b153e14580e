package ingest

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	cfgpkg "github.com/webgraphe/phollow/internal/config"
	"github.com/webgraphe/phollow/internal/document"
	"github.com/webgraphe/phollow/internal/ledger"
	"github.com/webgraphe/phollow/internal/runtime"
)

func startTestServer(t *testing.T) (*runtime.Runtime, net.Addr, context.CancelFunc) {
	t.Helper()
	rt, err := runtime.Open(runtime.Options{Config: cfgpkg.Default()})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	srv := New(rt)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Serve(ctx, l)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		_ = rt.Close()
	})
	return rt, l.Addr(), cancel
}

func waitForCount(t *testing.T, rt *runtime.Runtime, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for rt.Ledger().Count() != want {
		if time.Now().After(deadline) {
			t.Fatalf("ledger has %d documents, want %d", rt.Ledger().Count(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func waitForSessionState(t *testing.T, rt *runtime.Runtime, id string, state ledger.SessionState) ledger.SessionInfo {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		info, ok := rt.Ledger().Session(id)
		if ok && info.State == state {
			return info
		}
		if time.Now().After(deadline) {
			t.Fatalf("session %s never reached %s (info=%+v ok=%v)", id, state, info, ok)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSessionBracketsConnection(t *testing.T) {
	rt, addr, _ := startTestServer(t)
	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	fmt.Fprintln(conn, `{"meta":{"type":"scriptStarted"},"data":{"script":"/a.php"}}`)
	fmt.Fprintln(conn, `{"meta":{"type":"error"},"data":{"message":"boom","severity":"WARNING"}}`)
	fmt.Fprintln(conn, `{"meta":{"type":"scriptEnded"},"data":{"time":0.5}}`)
	_ = conn.Close()

	info := waitForSessionState(t, rt, "1", ledger.StateTerminated)
	if info.EventCount != 5 {
		t.Fatalf("want 5 events (open + 3 + close), got %d", info.EventCount)
	}
	if info.ErrorCount != 1 || !info.Ended {
		t.Fatalf("unexpected session info: %+v", info)
	}

	all := rt.Ledger().All()
	if all[0].Document.DocumentType() != document.TypeConnectionOpened {
		t.Fatalf("first document must be connectionOpened")
	}
	if all[len(all)-1].Document.DocumentType() != document.TypeConnectionClosed {
		t.Fatalf("last document must be connectionClosed")
	}
}

func TestMalformedLinesAreSkipped(t *testing.T) {
	rt, addr, _ := startTestServer(t)
	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	fmt.Fprintln(conn, `this is not json`)
	fmt.Fprintln(conn, `{"meta":{"type":"mystery"},"data":{}}`)
	fmt.Fprintln(conn, `{"meta":{"type":"error"},"data":"bad-payload"}`)
	fmt.Fprintln(conn, `{"meta":{"type":"error"},"data":{"message":"kept","severity":"NOTICE"}}`)
	_ = conn.Close()

	info := waitForSessionState(t, rt, "1", ledger.StateTerminated)
	// open + one good error + close
	if info.EventCount != 3 {
		t.Fatalf("want 3 events, got %d", info.EventCount)
	}
	if info.ErrorCount != 1 {
		t.Fatalf("want 1 error, got %d", info.ErrorCount)
	}
}

func TestPartialFramesAcrossWrites(t *testing.T) {
	rt, addr, _ := startTestServer(t)
	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	line := `{"meta":{"type":"error"},"data":{"message":"split","severity":"WARNING"}}` + "\n"
	half := len(line) / 2
	if _, err := conn.Write([]byte(line[:half])); err != nil {
		t.Fatalf("write: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if _, err := conn.Write([]byte(line[half:])); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitForCount(t, rt, 2) // open + error
	_ = conn.Close()
	waitForSessionState(t, rt, "1", ledger.StateTerminated)
}

func TestConcurrentProducersGetDistinctSessions(t *testing.T) {
	rt, addr, _ := startTestServer(t)
	const producers = 4
	conns := make([]net.Conn, producers)
	for i := range conns {
		c, err := net.Dial("tcp", addr.String())
		if err != nil {
			t.Fatalf("dial %d: %v", i, err)
		}
		conns[i] = c
		fmt.Fprintln(c, `{"meta":{"type":"error"},"data":{"message":"x","severity":"NOTICE"}}`)
	}
	for _, c := range conns {
		_ = c.Close()
	}
	deadline := time.Now().Add(2 * time.Second)
	for len(rt.Ledger().Sessions()) != producers {
		if time.Now().After(deadline) {
			t.Fatalf("want %d sessions, got %d", producers, len(rt.Ledger().Sessions()))
		}
		time.Sleep(5 * time.Millisecond)
	}
	waitForCount(t, rt, producers*3)
}

func TestShutdownClosesActiveSessions(t *testing.T) {
	rt, addr, cancel := startTestServer(t)
	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	fmt.Fprintln(conn, `{"meta":{"type":"scriptStarted"},"data":{"script":"/a.php"}}`)
	waitForCount(t, rt, 2)

	cancel()
	waitForSessionState(t, rt, "1", ledger.StateTerminated)
}
