package ws

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/webgraphe/phollow/internal/runtime"
	docsvc "github.com/webgraphe/phollow/internal/services/documents"
	logpkg "github.com/webgraphe/phollow/pkg/log"
)

const (
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 30 * time.Second
	readLimit    = 4 << 10
)

// Server upgrades viewer connections and feeds them from the hub.
type Server struct {
	rt       *runtime.Runtime
	logger   logpkg.Logger
	srv      *http.Server
	lis      net.Listener
	upgrader websocket.Upgrader
}

// New returns a viewer server over the runtime.
func New(rt *runtime.Runtime) *Server {
	s := &Server{
		rt:     rt,
		logger: rt.Logger().With(logpkg.Component("ws")),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleWS)
	s.srv = &http.Server{Handler: mux}
	return s
}

// Handler exposes the upgrade endpoint for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// ListenAndServe serves viewer upgrades until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.lis = l
	s.logger.Info("viewer channel listening", logpkg.Str("addr", l.Addr().String()))
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

// checkOrigin admits non-browser clients (no Origin header), local
// dashboards, and the one configured origin.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
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

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	accept, err := docsvc.NewFilter(r.URL.Query().Get("filter"))
	if err != nil {
		http.Error(w, "bad filter: "+err.Error(), http.StatusBadRequest)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("upgrade failed", logpkg.Err(err))
		return
	}
	v := &viewer{conn: conn, done: make(chan struct{})}
	s.rt.Hub().Register(v, accept)
	s.logger.Info("viewer connected", logpkg.Str("remote", conn.RemoteAddr().String()))

	go s.pingLoop(v)
	go s.readPump(v)
}

// readPump drains inbound frames. The channel is push-only, so frames are
// discarded; a read error means the viewer went away.
func (s *Server) readPump(v *viewer) {
	defer s.rt.Hub().Unregister(v)

	v.conn.SetReadLimit(readLimit)
	_ = v.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	v.conn.SetPongHandler(func(string) error {
		return v.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})
	for {
		if _, _, err := v.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("viewer read ended", logpkg.Err(err))
			}
			return
		}
		s.logger.Debug("ignoring inbound viewer frame")
	}
}

// pingLoop keeps the connection alive until the viewer is closed.
func (s *Server) pingLoop(v *viewer) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := v.ping(); err != nil {
				return
			}
		case <-v.closed():
			return
		}
	}
}

// viewer adapts one WebSocket connection to fanout.Viewer. Writes are
// serialized; gorilla connections allow one concurrent writer.
type viewer struct {
	conn *websocket.Conn
	mu   sync.Mutex
	done chan struct{}
	once sync.Once
}

func (v *viewer) Send(payload []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	_ = v.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return v.conn.WriteMessage(websocket.TextMessage, payload)
}

func (v *viewer) Close() error {
	var err error
	v.once.Do(func() {
		v.mu.Lock()
		_ = v.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		_ = v.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		v.mu.Unlock()
		err = v.conn.Close()
		close(v.done)
	})
	return err
}

func (v *viewer) ping() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	_ = v.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return v.conn.WriteMessage(websocket.PingMessage, nil)
}

func (v *viewer) closed() <-chan struct{} { return v.done }
