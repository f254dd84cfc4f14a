package live

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/morph/pkg/archive"
	"github.com/vango-dev/morph/pkg/component"
	"github.com/vango-dev/morph/pkg/metrics"
)

const (
	// DefaultPath is the default WebSocket endpoint.
	DefaultPath = "/live"

	writeTimeout = 10 * time.Second
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPath sets the WebSocket endpoint.
func WithPath(path string) Option {
	return func(s *Server) {
		if path != "" {
			s.path = path
		}
	}
}

// WithMetrics records session activity and runtime events on m and exposes
// it at /metrics.
func WithMetrics(m *metrics.Collector) Option {
	return func(s *Server) { s.metrics = m }
}

// WithArchive stores every session's final markup in store when the session
// closes.
func WithArchive(store *archive.Store) Option {
	return func(s *Server) { s.archive = store }
}

// WithRuntimeOptions passes options to every session runtime.
func WithRuntimeOptions(opts ...component.Option) Option {
	return func(s *Server) { s.runtimeOpts = append(s.runtimeOpts, opts...) }
}

// Server serves an App to browsers over WebSocket.
type Server struct {
	app         App
	logger      *slog.Logger
	path        string
	metrics     *metrics.Collector
	archive     *archive.Store
	runtimeOpts []component.Option
	upgrader    websocket.Upgrader

	mu       sync.RWMutex
	sessions map[string]*Session
}

// New creates a server for app.
func New(app App, opts ...Option) *Server {
	s := &Server{
		app:      app,
		logger:   slog.Default().With("component", "live"),
		path:     DefaultPath,
		sessions: make(map[string]*Session),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/", s.handlePage)
	r.Get(s.path, s.handleWebSocket)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}
	return r
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	s.logger.Info("live server listening", "addr", addr, "path", s.path)
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.closeAll()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// SessionCount returns the number of open sessions.
func (s *Server) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Server) runtimeOptions() []component.Option {
	opts := append([]component.Option(nil), s.runtimeOpts...)
	if s.metrics != nil {
		opts = append(opts,
			component.WithObserver(s.metrics),
			component.WithPatchObserver(s.metrics),
		)
	}
	return opts
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>morph</title></head>
<body>{{.Body}}
<script>{{.Script}}</script>
</body>
</html>
`))

// handlePage renders the app once, statically, and serves it with the
// client script that opens a live session.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	sess, err := NewSession(s.app, s.logger, s.runtimeOpts...)
	if err != nil {
		s.logger.Error("render page", "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	body := sess.Snapshot(MessageRender).HTML
	sess.Close()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err = pageTemplate.Execute(w, map[string]any{
		"Body":   template.HTML(body),
		"Script": template.JS(clientScript(s.path)),
	})
	if err != nil {
		s.logger.Warn("write page", "error", err)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.recordWSError("upgrade")
		return
	}
	defer conn.Close()

	sess, err := NewSession(s.app, s.logger, s.runtimeOptions()...)
	if err != nil {
		s.logger.Error("open session", "error", err)
		_ = s.write(conn, Message{Type: MessageError, Error: err.Error()})
		return
	}
	s.register(sess)
	defer s.unregister(r.Context(), sess)

	if err := s.write(conn, sess.Snapshot(MessageRender)); err != nil {
		s.recordWSError("write")
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.recordWSError("read")
			}
			return
		}

		var ev ClientEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			s.recordWSError("decode")
			_ = s.write(conn, Message{Type: MessageError, Error: "invalid event"})
			continue
		}

		msg, handled := sess.Dispatch(ev)
		if s.metrics != nil {
			s.metrics.RecordEvent(ev.Event, handled)
		}
		if err := s.write(conn, msg); err != nil {
			s.recordWSError("write")
			return
		}
	}
}

func (s *Server) write(conn *websocket.Conn, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (s *Server) register(sess *Session) {
	s.mu.Lock()
	s.sessions[sess.ID()] = sess
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.RecordSessionOpen()
	}
	s.logger.Debug("session opened", "session", sess.ID())
}

func (s *Server) unregister(ctx context.Context, sess *Session) {
	s.mu.Lock()
	_, ok := s.sessions[sess.ID()]
	delete(s.sessions, sess.ID())
	s.mu.Unlock()
	if !ok {
		return
	}

	if s.archive != nil {
		actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		if err := sess.Archive(actx, s.archive); err != nil {
			s.logger.Warn("archive session", "session", sess.ID(), "error", err)
		}
		cancel()
	}
	sess.Close()
	if s.metrics != nil {
		s.metrics.RecordSessionClose()
	}
	s.logger.Debug("session closed", "session", sess.ID())
}

func (s *Server) closeAll() {
	s.mu.RLock()
	open := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		open = append(open, sess)
	}
	s.mu.RUnlock()
	for _, sess := range open {
		s.unregister(context.Background(), sess)
	}
}

func (s *Server) recordWSError(kind string) {
	if s.metrics != nil {
		s.metrics.RecordWebSocketError(kind)
	}
}
