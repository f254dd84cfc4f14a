package component

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
)

// Props are the properties passed to an instance. The "key" prop is reserved
// for identity resolution.
type Props map[string]any

// KeyProp is the prop name carrying an explicit identity key.
const KeyProp = "key"

// Key returns the explicit key, or "" when the props carry none.
func (p Props) Key() string {
	v, ok := p[KeyProp]
	if !ok || v == nil {
		return ""
	}
	switch k := v.(type) {
	case string:
		return k
	case int:
		return strconv.Itoa(k)
	case int64:
		return strconv.FormatInt(k, 10)
	case uint64:
		return strconv.FormatUint(k, 10)
	default:
		return fmt.Sprint(k)
	}
}

// String returns the named prop as a string, or "".
func (p Props) String(name string) string {
	v, ok := p[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Int returns the named prop as an int, or 0.
func (p Props) Int(name string) int {
	switch v := p[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// merged returns a copy of p overlaid with next.
func (p Props) merged(next Props) Props {
	out := make(Props, len(p)+len(next))
	maps.Copy(out, p)
	maps.Copy(out, next)
	return out
}

// State is the partial-object form of component state. SetState merges a
// State into a State-shaped current state.
type State = map[string]any

// RenderFunc produces markup for an instance. Empty output (after trimming
// whitespace) null-renders the instance.
type RenderFunc func(i *Instance) string

// Static returns a RenderFunc that always produces markup.
func Static(markup string) RenderFunc {
	return func(*Instance) string { return markup }
}

// Listener binds a handler to every element in an instance's own subtree
// whose ref attribute equals Ref.
type Listener struct {
	Ref     string
	Event   string
	Handler func(i *Instance, e *Event)
}

// Config is the frozen configuration of a definition.
type Config struct {
	// State is the initial state. A func() any is called once per clone;
	// maps and slices are copied.
	State any

	// Hooks are copied into every clone's queues.
	Hooks map[Phase][]Hook

	// Listeners are (re)bound after every committed render.
	Listeners []Listener

	// Slots are static content bindings resolved with Instance.Slot.
	Slots map[string]Content

	// Tag is the wrapper element used when the definition is rendered as a
	// child. Defaults to "div".
	Tag string
}

// Definition is an immutable component template.
type Definition struct {
	id     uint64
	name   string
	render RenderFunc
	config Config
}

// ID returns the runtime-unique definition id.
func (d *Definition) ID() uint64 {
	return d.id
}

// Name returns the definition's name.
func (d *Definition) Name() string {
	return d.name
}

// Tag returns the wrapper tag used for child rendering.
func (d *Definition) Tag() string {
	return d.config.Tag
}

// freeze copies everything mutable out of cfg.
func freeze(cfg Config) Config {
	out := Config{
		State:     cfg.State,
		Listeners: slices.Clone(cfg.Listeners),
		Slots:     maps.Clone(cfg.Slots),
		Tag:       cfg.Tag,
	}
	if out.Tag == "" {
		out.Tag = "div"
	}
	if len(cfg.Hooks) > 0 {
		out.Hooks = make(map[Phase][]Hook, len(cfg.Hooks))
		for ph, hs := range cfg.Hooks {
			out.Hooks[ph] = slices.Clone(hs)
		}
	}
	return out
}

// initialState produces a fresh copy of the configured initial state.
func (d *Definition) initialState() any {
	switch s := d.config.State.(type) {
	case nil:
		return nil
	case func() any:
		return s()
	case map[string]any:
		return maps.Clone(s)
	case []any:
		return slices.Clone(s)
	default:
		return s
	}
}

// Markup is render output tagged with the definition that produced it.
type Markup struct {
	HTML       string
	Definition uint64
}

// String returns the markup text.
func (m Markup) String() string {
	return m.HTML
}

// Empty reports whether the markup null-renders.
func (m Markup) Empty() bool {
	return isEmpty(m.HTML)
}
