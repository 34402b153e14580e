// Package runtime wires the ledger, the viewer hub, and config into a
// single-node phollow instance. It exposes Open/Close, basic health checks,
// and the serialized mutation entry points used by the ingestion server.
//
// Example:
//
//	cfg := config.Default()
//	rt, _ := runtime.Open(runtime.Options{Config: cfg})
//	defer rt.Close()
//	// Health
//	_ = rt.CheckHealth(context.Background())
//	// Record a session
//	_, _ = rt.OpenSession("1")
//	_, _ = rt.AppendDocument("1", document.Error{Message: "boom"})
//	_, _ = rt.CloseSession("1")
package runtime
