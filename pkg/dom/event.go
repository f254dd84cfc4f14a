package dom

// Event is dispatched on a node and bubbles up through its ancestors.
type Event struct {
	Type    string
	Target  *Node
	Current *Node
	Detail  any

	stopped bool
}

// StopPropagation prevents the event from reaching further ancestors.
func (e *Event) StopPropagation() {
	e.stopped = true
}

// Handler receives dispatched events.
type Handler func(*Event)

type listener struct {
	typ     string
	handler Handler
}

// AddEventListener registers handler for events of typ on n. The returned
// function removes exactly this registration.
func (n *Node) AddEventListener(typ string, handler Handler) (remove func()) {
	l := &listener{typ: typ, handler: handler}
	n.listeners = append(n.listeners, l)
	return func() {
		for i, x := range n.listeners {
			if x == l {
				n.listeners = append(n.listeners[:i], n.listeners[i+1:]...)
				return
			}
		}
	}
}

// ListenerCount returns the number of listeners registered on n.
func (n *Node) ListenerCount() int {
	return len(n.listeners)
}

// Dispatch delivers ev to n and then to each ancestor until propagation is
// stopped. It returns the number of handlers invoked.
func (n *Node) Dispatch(ev *Event) int {
	if ev.Target == nil {
		ev.Target = n
	}
	calls := 0
	for cur := n; cur != nil && !ev.stopped; cur = cur.parent {
		ev.Current = cur
		ls := make([]*listener, len(cur.listeners))
		copy(ls, cur.listeners)
		for _, l := range ls {
			if l.typ == ev.Type {
				l.handler(ev)
				calls++
			}
		}
	}
	return calls
}
