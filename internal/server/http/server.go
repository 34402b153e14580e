package httpserver

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/webgraphe/phollow/internal/runtime"
	"github.com/webgraphe/phollow/internal/server/http/controllers"
	docsvc "github.com/webgraphe/phollow/internal/services/documents"
	"github.com/webgraphe/phollow/internal/ui"
	logpkg "github.com/webgraphe/phollow/pkg/log"
)

// Server is the dashboard and pull-API HTTP server.
type Server struct {
	rt     *runtime.Runtime
	logger logpkg.Logger
	srv    *http.Server
	lis    net.Listener
}

// New wires the controllers and the embedded dashboard into one handler.
func New(rt *runtime.Runtime) *Server {
	mux := http.NewServeMux()
	s := &Server{
		rt:     rt,
		logger: rt.Logger().With(logpkg.Component("http")),
	}
	registry := controllers.NewControllerRegistry(rt, docsvc.New(rt))
	registry.RegisterAllRoutes(mux)
	mux.Handle("/", http.FileServer(ui.FS()))
	s.srv = &http.Server{Handler: s.originGuard(cors(mux))}
	return s
}

// Handler exposes the full route tree for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.lis = l
	s.logger.Info("http listening", logpkg.Str("addr", l.Addr().String()))
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(l) }()
	select {
	case <-ctx.Done():
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(cctx)
		return nil
	case err := <-errCh:
		return err
	}
}

// Close stops the listener.
func (s *Server) Close() {
	if s.lis != nil {
		_ = s.lis.Close()
	}
}

// originGuard rejects browser requests from disallowed origins with 403.
// Requests without an Origin header (curl, same-origin fetches) pass.
func (s *Server) originGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && !s.originAllowed(origin) {
			s.logger.Warn("rejected origin", logpkg.Str("origin", origin))
			http.Error(w, "origin not allowed", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) originAllowed(origin string) bool {
	if allowed := s.rt.Config().Origin; allowed != "" && origin == allowed {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := u.Hostname()
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, DELETE, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
