package component

import (
	"maps"
	"slices"
	"strings"

	"github.com/vango-dev/morph/pkg/dom"
)

// childSlot is an identity key in a parent's call-order cache. Keyed and
// positional slots never collide. A keyed slot belongs to one definition,
// so two definitions sharing a key hold separate instances; a positional
// slot is shared and goes stale when the definition at that position
// changes.
type childSlot struct {
	keyed   bool
	key     string
	def     uint64
	ordinal int
}

// Clone creates a fresh instance from def's frozen template.
func (rt *Runtime) Clone(def *Definition, props Props) *Instance {
	rt.nextInstID++
	inst := &Instance{
		id:       rt.nextInstID,
		rt:       rt,
		def:      def,
		state:    def.initialState(),
		props:    Props{}.merged(props),
		hooks:    make(hookQueues, len(phases)),
		children: make(map[childSlot]*Instance),
		orphans:  make(map[uint64]bool),
	}
	for ph, hs := range def.config.Hooks {
		inst.hooks[ph] = slices.Clone(hs)
	}
	return inst
}

// Invoke resolves which instance an invocation of def denotes.
//
// Outside a render pass, a keyed invocation returns the definition's
// singleton for that key and an unkeyed one returns a fresh clone. During a
// render pass the invocation is a child call of the rendering instance and
// is resolved through that parent's call-order cache.
func (rt *Runtime) Invoke(def *Definition, props Props) *Instance {
	if parent := rt.current(); parent != nil {
		return parent.resolveChild(def, props)
	}

	key := props.Key()
	if key == "" {
		return rt.Clone(def, props)
	}

	rt.tick++
	reg := rt.singletons[def.id]
	if reg == nil {
		reg = make(map[string]*Instance)
		rt.singletons[def.id] = reg
	}
	if inst, ok := reg[key]; ok {
		inst.lastUsed = rt.tick
		inst.push(props)
		return inst
	}

	inst := rt.Clone(def, props)
	inst.keyBound = true
	inst.lastUsed = rt.tick
	reg[key] = inst
	rt.evictSingletons(def, reg, key)
	return inst
}

// Singleton returns the keyed singleton of def, if one exists.
func (rt *Runtime) Singleton(def *Definition, key string) (*Instance, bool) {
	inst, ok := rt.singletons[def.id][key]
	return inst, ok
}

// resolveChild implements identity resolution for a child call made while p
// is rendering.
func (p *Instance) resolveChild(def *Definition, props Props) *Instance {
	rt := p.rt
	rt.tick++

	slot := childSlot{ordinal: p.callCounter}
	p.callCounter++
	if key := props.Key(); key != "" {
		slot = childSlot{keyed: true, key: key, def: def.id}
	}

	inst, ok := p.children[slot]
	if !ok || inst.def != def {
		if ok {
			rt.logger.Debug("call-order cache entry stale",
				"code", "E104",
				"parent", p.id,
				"was", inst.def.name,
				"now", def.name,
			)
			p.retire(inst)
		}
		inst = rt.Clone(def, props)
		inst.parent = p
		inst.lastUsed = rt.tick
		p.children[slot] = inst
		p.invoked = append(p.invoked, inst)
		p.evictChildren()
	} else {
		inst.lastUsed = rt.tick
		p.invoked = append(p.invoked, inst)
	}

	if inst.live() {
		inst.Update(props)
	} else {
		inst.props = inst.props.merged(props)
		inst.prepare()
	}
	return inst
}

// retire drops a child that lost its slot. Its node is swept after the
// parent's next commit.
func (p *Instance) retire(c *Instance) {
	p.forgetRefs(c)
	if c.status == StatusMounted || c.status == StatusNullRendered {
		c.Unmount()
	}
	p.invoked = slices.DeleteFunc(p.invoked, func(x *Instance) bool { return x == c })
	p.orphans[c.id] = true
}

// forgetRefs drops the ref cache entries of c and its descendants.
func (p *Instance) forgetRefs(c *Instance) {
	top := p.top()
	if len(top.refs) == 0 {
		return
	}
	var prefixes []string
	var walk func(*Instance)
	walk = func(x *Instance) {
		prefixes = append(prefixes, x.idAttr()+"/")
		for _, gc := range x.children {
			walk(gc)
		}
	}
	walk(c)
	maps.DeleteFunc(top.refs, func(key string, _ *dom.Node) bool {
		for _, prefix := range prefixes {
			if strings.HasPrefix(key, prefix) {
				return true
			}
		}
		return false
	})
}

func (p *Instance) evictChildren() {
	limit := p.rt.limits.MaxChildren
	if limit <= 0 || len(p.children) <= limit {
		return
	}
	var (
		victim   childSlot
		oldest   uint64
		found    bool
		inflight = make(map[*Instance]bool, len(p.invoked))
	)
	for _, c := range p.invoked {
		inflight[c] = true
	}
	for slot, c := range p.children {
		if c.bound() || inflight[c] {
			continue
		}
		if !found || c.lastUsed < oldest {
			victim, oldest, found = slot, c.lastUsed, true
		}
	}
	if !found {
		return
	}
	c := p.children[victim]
	delete(p.children, victim)
	p.orphans[c.id] = true
	p.forgetRefs(c)
	p.rt.observer.Evicted(c.def.name, "children")
}

func (rt *Runtime) evictSingletons(def *Definition, reg map[string]*Instance, keep string) {
	limit := rt.limits.MaxSingletons
	if limit <= 0 || len(reg) <= limit {
		return
	}
	var (
		victim string
		oldest uint64
		found  bool
	)
	for key, inst := range reg {
		if key == keep || inst.bound() {
			continue
		}
		if !found || inst.lastUsed < oldest {
			victim, oldest, found = key, inst.lastUsed, true
		}
	}
	if !found {
		return
	}
	delete(reg, victim)
	rt.observer.Evicted(def.name, "singletons")
}
