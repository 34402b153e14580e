package runtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	cfgpkg "github.com/webgraphe/phollow/internal/config"
	"github.com/webgraphe/phollow/internal/document"
	"github.com/webgraphe/phollow/internal/ledger"
)

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	rt, err := Open(Options{Config: cfgpkg.Default()})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	return rt
}

func TestOpenCloseHealth(t *testing.T) {
	rt := newTestRuntime(t)
	if err := rt.CheckHealth(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
	if rt.BootID() == "" {
		t.Fatalf("boot id must be set")
	}
	if err := rt.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := rt.CheckHealth(context.Background()); err == nil {
		t.Fatalf("health after close must fail")
	}
}

func TestSessionLifecycleThroughRuntime(t *testing.T) {
	rt := newTestRuntime(t)
	if _, err := rt.OpenSession("1"); err != nil {
		t.Fatalf("open session: %v", err)
	}
	if _, err := rt.AppendDocument("1", document.Error{Message: "x", Severity: document.SeverityNotice}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := rt.CloseSession("1"); err != nil {
		t.Fatalf("close session: %v", err)
	}
	if _, err := rt.AppendDocument("1", document.ScriptEnded{}); !errors.Is(err, ledger.ErrSessionTerminated) {
		t.Fatalf("want ErrSessionTerminated, got %v", err)
	}
	if rt.Ledger().Count() != 3 {
		t.Fatalf("want 3 documents, got %d", rt.Ledger().Count())
	}
}

// collectViewer implements fanout.Viewer for ordering checks.
type collectViewer struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (v *collectViewer) Send(p []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.payloads = append(v.payloads, p)
	return nil
}

func (v *collectViewer) Close() error { return nil }

func (v *collectViewer) count() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.payloads)
}

func TestViewerSeesBroadcasts(t *testing.T) {
	rt := newTestRuntime(t)
	v := &collectViewer{}
	rt.Hub().Register(v, nil)
	if _, err := rt.OpenSession("1"); err != nil {
		t.Fatalf("open session: %v", err)
	}
	if _, err := rt.CloseSession("1"); err != nil {
		t.Fatalf("close session: %v", err)
	}
	// per-viewer writers deliver asynchronously
	deadline := time.Now().Add(2 * time.Second)
	for v.count() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("viewer got %d payloads, want 2", v.count())
		}
		time.Sleep(5 * time.Millisecond)
	}
	// late viewers get no replay
	late := &collectViewer{}
	rt.Hub().Register(late, nil)
	if late.count() != 0 {
		t.Fatalf("late viewer must not see a replay")
	}
}

func TestConcurrentMutationsStaySerialized(t *testing.T) {
	rt := newTestRuntime(t)
	const sessions = 8
	var wg sync.WaitGroup
	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := string(rune('a' + n))
			if _, err := rt.OpenSession(id); err != nil {
				t.Errorf("open %s: %v", id, err)
				return
			}
			for j := 0; j < 20; j++ {
				if _, err := rt.AppendDocument(id, document.Error{Message: "x", Severity: document.SeverityWarning}); err != nil {
					t.Errorf("append %s: %v", id, err)
					return
				}
			}
			if _, err := rt.CloseSession(id); err != nil {
				t.Errorf("close %s: %v", id, err)
			}
		}(i)
	}
	wg.Wait()
	all := rt.Ledger().All()
	for i := 1; i < len(all); i++ {
		if all[i-1].ID >= all[i].ID {
			t.Fatalf("acceptance order broken at %d", i)
		}
	}
	if len(all) != sessions*22 {
		t.Fatalf("want %d documents, got %d", sessions*22, len(all))
	}
}
