package live

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vango-dev/morph/pkg/archive"
	"github.com/vango-dev/morph/pkg/component"
	"github.com/vango-dev/morph/pkg/dom"
	"github.com/vango-dev/morph/pkg/patch"
)

// MessageType identifies a server-to-client message.
type MessageType string

const (
	MessageRender MessageType = "render"
	MessagePatch  MessageType = "patch"
	MessageError  MessageType = "error"
)

// ClientEvent is sent by the browser when a ref element fires an event. Key,
// when set, scopes the ref lookup to the keyed element that contains it.
type ClientEvent struct {
	Ref    string `json:"ref"`
	Key    string `json:"key,omitempty"`
	Event  string `json:"event"`
	Detail any    `json:"detail,omitempty"`
}

// Message is sent to the browser after every state change.
//
// Mutation paths are relative to the container named by their Root: the
// element whose Boundary attribute carries that value, or the body when it
// equals the message's own Root.
type Message struct {
	Type      MessageType      `json:"type"`
	HTML      string           `json:"html,omitempty"`
	Mutations []patch.Mutation `json:"mutations,omitempty"`
	Boundary  string           `json:"boundary,omitempty"`
	Root      string           `json:"root,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// App builds the root definition of a session against the session's own
// runtime.
type App func(rt *component.Runtime) *component.Definition

var sessionSeq atomic.Uint64

// Session is one mounted root and its runtime. Methods are safe for
// concurrent use; the runtime itself is only touched under the lock.
type Session struct {
	id     string
	logger *slog.Logger

	mu   sync.Mutex
	rt   *component.Runtime
	doc  *dom.Node
	body *dom.Node
	root *component.Instance
	log  *patch.Log
}

// NewSession creates a runtime, mounts app's root definition into a fresh
// document and returns the session.
func NewSession(app App, logger *slog.Logger, opts ...component.Option) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}
	id := strconv.FormatUint(sessionSeq.Add(1), 10)
	s := &Session{
		id:     id,
		logger: logger.With("session", id),
		log:    &patch.Log{},
	}

	opts = append(opts,
		component.WithLogger(s.logger),
		component.WithPatchObserver(s.log),
	)
	s.rt = component.New(opts...)
	s.doc = dom.NewDocument()
	s.body = dom.NewElement("body")
	s.doc.AppendChild(s.body)

	def := app(s.rt)
	if def == nil {
		return nil, fmt.Errorf("live: app returned no definition")
	}
	root, err := s.rt.Mount(s.body, def, nil)
	if err != nil {
		return nil, err
	}
	s.root = root
	return s, nil
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Root returns the mounted root instance.
func (s *Session) Root() *component.Instance {
	return s.root
}

// Snapshot returns the current markup and drains the mutation log.
func (s *Session) Snapshot(typ MessageType) Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message(typ)
}

func (s *Session) message(typ MessageType) Message {
	boundary := s.rt.Markers().Boundary
	msg := Message{
		Type:      typ,
		HTML:      dom.InnerHTML(s.body),
		Mutations: append([]patch.Mutation(nil), s.log.Mutations...),
		Boundary:  boundary,
		Root:      s.body.AttrOr(boundary, ""),
	}
	s.log.Reset()
	return msg
}

// Dispatch delivers ev to the first element whose ref attribute matches,
// drains the microtask queue and returns the resulting patch message.
// handled is false when no element or listener matched.
func (s *Session) Dispatch(ev ClientEvent) (msg Message, handled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	markers := s.rt.Markers()
	scope := s.body
	if ev.Key != "" {
		scope = s.body.FindAttr(markers.Key, ev.Key)
	}
	var target *dom.Node
	if scope != nil {
		target = scope.FindAttr(markers.Ref, ev.Ref)
	}
	if target == nil {
		return Message{Type: MessageError, Error: fmt.Sprintf("no element with ref %q", ev.Ref)}, false
	}
	calls := target.Dispatch(&dom.Event{Type: ev.Event, Detail: ev.Detail})
	s.rt.Flush()
	return s.message(MessagePatch), calls > 0
}

// Archive stores the session's current markup under its id.
func (s *Session) Archive(ctx context.Context, store *archive.Store) error {
	s.mu.Lock()
	entry := &archive.Entry{
		Definition: s.root.Definition().Name(),
		Instance:   s.root.ID(),
		HTML:       dom.InnerHTML(s.body),
		Created:    time.Now().UTC(),
	}
	s.mu.Unlock()
	return store.Put(ctx, "session-"+s.id, entry)
}

// Close unmounts the root.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.root.Unmount()
	s.rt.Flush()
}
