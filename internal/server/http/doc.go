// Package httpserver serves the dashboard UI and the pull API: document
// listing and lookup, the aggregate meta view, session forgetting, and
// health. Browser-facing routes go through an origin guard configured by
// Config.Origin.
//
// Example:
//
//	rt, _ := runtime.Open(runtime.Options{Config: config.Default()})
//	s := httpserver.New(rt)
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = s.ListenAndServe(ctx, ":8080")
package httpserver
