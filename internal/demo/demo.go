// Package demo provides the sample components served by `morph serve` and
// rendered by `morph render`.
package demo

import (
	"fmt"
	"html"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/vango-dev/morph/internal/errors"
	"github.com/vango-dev/morph/pkg/component"
)

// Builder defines a demo's root definition on rt.
type Builder func(rt *component.Runtime) *component.Definition

var builders = map[string]Builder{
	"counter": Counter,
	"todos":   Todos,
}

// Names returns the registered demo names, sorted.
func Names() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the named demo.
func Lookup(name string) (Builder, error) {
	b, ok := builders[name]
	if !ok {
		return nil, errors.New("E140").
			WithDetailf("no demo named %q", name).
			WithSuggestion("Use one of: " + strings.Join(Names(), ", "))
	}
	return b, nil
}

func count(i *component.Instance) int {
	s, _ := i.State().(component.State)
	n, _ := s["count"].(int)
	return n
}

func add(delta int) func(i *component.Instance, _ *component.Event) {
	return func(i *component.Instance, _ *component.Event) {
		i.SetState(func(s any) any {
			next := component.State{}
			for k, v := range s.(component.State) {
				next[k] = v
			}
			next["count"] = next["count"].(int) + delta
			return next
		})
	}
}

// Counter is a single counter with increment and decrement buttons. It
// null-renders while hidden and keeps its count across the toggle.
func Counter(rt *component.Runtime) *component.Definition {
	display := rt.Define("counter-display", func(i *component.Instance) string {
		if i.Props()["hidden"] == true {
			return ""
		}
		return `<output data-ref="value">` + strconv.Itoa(i.Props().Int("value")) + `</output>`
	}, component.Config{Tag: "span"})

	return rt.Define("counter", func(i *component.Instance) string {
		s, _ := i.State().(component.State)
		hidden, _ := s["hidden"].(bool)
		var b strings.Builder
		b.WriteString(`<button data-ref="dec">-</button>`)
		b.WriteString(i.Child(display, component.Props{"value": count(i), "hidden": hidden}))
		b.WriteString(`<button data-ref="inc">+</button>`)
		b.WriteString(`<button data-ref="toggle">toggle</button>`)
		return b.String()
	}, component.Config{
		State: func() any { return component.State{"count": 0, "hidden": false} },
		Listeners: []component.Listener{
			{Ref: "inc", Event: "click", Handler: add(1)},
			{Ref: "dec", Event: "click", Handler: add(-1)},
			{Ref: "toggle", Event: "click", Handler: func(i *component.Instance, _ *component.Event) {
				s, _ := i.State().(component.State)
				hidden, _ := s["hidden"].(bool)
				i.SetState(component.State{"hidden": !hidden})
			}},
		},
	})
}

func items(i *component.Instance) []string {
	s, _ := i.State().(component.State)
	it, _ := s["items"].([]string)
	return it
}

// Todos is a keyed list. Items keep their identity and their own done state
// when the list is reversed or an item is removed.
func Todos(rt *component.Runtime) *component.Definition {
	item := rt.Define("todo", func(i *component.Instance) string {
		s, _ := i.State().(component.State)
		class := "todo"
		if done, _ := s["done"].(bool); done {
			class += " done"
		}
		return fmt.Sprintf(`<span class="%s" data-ref="text">%s</span><button data-ref="remove">x</button>`,
			class, html.EscapeString(i.Props().String("text")))
	}, component.Config{
		Tag:   "li",
		State: func() any { return component.State{"done": false} },
		Listeners: []component.Listener{
			{Ref: "text", Event: "click", Handler: func(i *component.Instance, _ *component.Event) {
				s, _ := i.State().(component.State)
				done, _ := s["done"].(bool)
				i.SetState(component.State{"done": !done})
			}},
			{Ref: "remove", Event: "click", Handler: func(i *component.Instance, _ *component.Event) {
				key := i.Props().Key()
				if p := i.Parent(); p != nil {
					p.SetState(func(s any) any {
						next := component.State{}
						for k, v := range s.(component.State) {
							next[k] = v
						}
						next["items"] = slices.DeleteFunc(slices.Clone(items(p)), func(it string) bool { return it == key })
						return next
					})
				}
			}},
		},
	})

	return rt.Define("todos", func(i *component.Instance) string {
		var b strings.Builder
		b.WriteString(`<button data-ref="add">add</button><button data-ref="reverse">reverse</button><ul>`)
		for _, it := range items(i) {
			b.WriteString(i.Child(item, component.Props{component.KeyProp: it, "text": it}))
		}
		b.WriteString(`</ul>`)
		return b.String()
	}, component.Config{
		State: func() any {
			return component.State{"items": []string{"parse", "patch", "ship"}, "next": 1}
		},
		Listeners: []component.Listener{
			{Ref: "add", Event: "click", Handler: func(i *component.Instance, _ *component.Event) {
				i.SetState(func(s any) any {
					cur := s.(component.State)
					n, _ := cur["next"].(int)
					next := component.State{}
					for k, v := range cur {
						next[k] = v
					}
					next["items"] = append(slices.Clone(items(i)), "task "+strconv.Itoa(n))
					next["next"] = n + 1
					return next
				})
			}},
			{Ref: "reverse", Event: "click", Handler: func(i *component.Instance, _ *component.Event) {
				rev := slices.Clone(items(i))
				slices.Reverse(rev)
				i.SetState(component.State{"items": rev})
			}},
		},
	})
}
