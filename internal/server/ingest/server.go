package ingest

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/webgraphe/phollow/internal/document"
	"github.com/webgraphe/phollow/internal/runtime"
	logpkg "github.com/webgraphe/phollow/pkg/log"
)

// maxLineBytes caps one wire document; longer lines fail the scan and end
// the connection.
const maxLineBytes = 1 << 20

// Server accepts producer connections and feeds the runtime.
type Server struct {
	rt     *runtime.Runtime
	logger logpkg.Logger
	lis    net.Listener

	nextSession atomic.Uint64

	mu    sync.Mutex
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup
}

// New returns an ingestion server over the runtime.
func New(rt *runtime.Runtime) *Server {
	return &Server{
		rt:     rt,
		logger: rt.Logger().With(logpkg.Component("ingest")),
		conns:  make(map[net.Conn]struct{}),
	}
}

// ListenAndServe accepts producer connections until ctx is canceled, then
// closes the listener and all active connections and waits for their
// sessions to wind down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

// Serve accepts on an existing listener. Tests bind 127.0.0.1:0 and pass
// the listener in.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	s.lis = l
	s.logger.Info("ingest listening", logpkg.Str("addr", l.Addr().String()))

	errCh := make(chan error, 1)
	go func() { errCh <- s.acceptLoop(l) }()
	select {
	case <-ctx.Done():
		s.Close()
		<-errCh
		s.wg.Wait()
		return nil
	case err := <-errCh:
		s.wg.Wait()
		return err
	}
}

// Addr returns the bound listener address, for tests binding port 0.
func (s *Server) Addr() net.Addr {
	if s.lis == nil {
		return nil
	}
	return s.lis.Addr()
}

// Close stops the listener and tears down active connections.
func (s *Server) Close() {
	if s.lis != nil {
		_ = s.lis.Close()
	}
	s.mu.Lock()
	for c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()
}

func (s *Server) acceptLoop(l net.Listener) error {
	for {
		conn, err := l.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		s.track(conn)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(conn)
		}()
	}
}

func (s *Server) track(conn net.Conn) {
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

// handleConn runs one producer session from accept to disconnect.
func (s *Server) handleConn(conn net.Conn) {
	defer s.untrack(conn)
	defer conn.Close()

	sessionID := strconv.FormatUint(s.nextSession.Add(1), 10)
	logger := s.logger.With(
		logpkg.Str("session", sessionID),
		logpkg.Str("remote", conn.RemoteAddr().String()),
	)

	if _, err := s.rt.OpenSession(sessionID); err != nil {
		logger.Error("open session", logpkg.Err(err))
		return
	}
	logger.Info("session opened")

	accepted, skipped := s.readLines(conn, sessionID, logger)

	if _, err := s.rt.CloseSession(sessionID); err != nil {
		logger.Error("close session", logpkg.Err(err))
	}
	logger.Info("session closed",
		logpkg.Int("accepted", accepted), logpkg.Int("skipped", skipped))
}

// readLines consumes wire documents until the connection ends. Every decode
// or append failure is logged and skipped.
func (s *Server) readLines(conn net.Conn, sessionID string, logger logpkg.Logger) (accepted, skipped int) {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64<<10), maxLineBytes)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		doc, ok, err := document.DecodeLine(line)
		if err != nil {
			skipped++
			logger.Warn("skipping malformed document", logpkg.Err(err))
			continue
		}
		if !ok {
			skipped++
			logger.Debug("skipping unknown document kind")
			continue
		}
		if _, err := s.rt.AppendDocument(sessionID, doc); err != nil {
			skipped++
			logger.Warn("append rejected", logpkg.Err(err))
			continue
		}
		accepted++
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		logger.Debug("connection read ended", logpkg.Err(err))
	}
	return accepted, skipped
}
