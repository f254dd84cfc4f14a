package component

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	merrors "github.com/vango-dev/morph/internal/errors"
	"github.com/vango-dev/morph/pkg/dom"
	"github.com/vango-dev/morph/pkg/patch"
)

// Mount binds the instance to target and renders it. A nil target is a
// fatal error (E101). Mounting an instance that is already mounting or
// mounted is a no-op.
//
// When the instance holds a snapshot from an earlier unmount, the snapshot
// is restored into target before rendering.
func (i *Instance) Mount(target *dom.Node, props Props) error {
	if target == nil {
		return merrors.New("E101").
			WithDetailf("definition %q, instance %d", i.def.name, i.id).
			Wrap(ErrMountTargetMissing)
	}
	if i.status != StatusIdle {
		return nil
	}

	ctx, span := i.rt.tracer.Start(context.Background(), "morph.mount",
		trace.WithAttributes(i.spanAttrs()...))
	defer span.End()

	i.status = StatusMounting
	i.runHooks(ctx, PhaseBeforeMount)
	if i.status != StatusMounting {
		return nil
	}

	i.root = target
	if !target.IsDocument() && !target.HasAttr(i.rt.markers.Boundary) {
		target.SetAttr(i.rt.markers.Boundary, i.idAttr())
		i.ownsRootAttr = true
	}
	if i.snapshot != nil {
		i.rt.restore(target, i.snapshot)
		i.snapshot = nil
	}

	i.prevProps = i.props
	i.props = i.props.merged(props)
	if !i.renderPass(ctx) {
		// The render function failed; keep the binding so a later update can
		// recover.
		i.status = StatusMounted
	}
	return nil
}

// Update merges props and re-renders synchronously. It is a no-op unless the
// instance is mounted or null-rendered.
func (i *Instance) Update(props Props) {
	if !i.bound() {
		return
	}
	i.prevProps = i.props
	i.props = i.props.merged(props)
	i.renderPass(context.Background())
}

// Unmount tears the instance down. Its live content is detached into a
// snapshot so that a later Mount round-trips without re-rendering first.
// Registry entries that point at the instance stay valid.
func (i *Instance) Unmount() {
	if !i.bound() {
		return
	}
	ctx, span := i.rt.tracer.Start(context.Background(), "morph.unmount",
		trace.WithAttributes(i.spanAttrs()...))
	defer span.End()

	wasMounted := i.status == StatusMounted
	i.status = StatusUnmounting

	if wasMounted {
		i.runHooks(ctx, PhaseBeforeUnmount)
		i.snapshot = i.rt.detach(i.root)
	}
	i.unbindListeners()

	for _, c := range i.children {
		c.Unmount()
		i.orphans[c.id] = true
	}
	i.children = make(map[childSlot]*Instance)
	i.invoked = nil
	i.refs = nil

	if i.ownsRootAttr {
		i.root.RemoveAttr(i.rt.markers.Boundary)
		i.ownsRootAttr = false
	}
	i.root = nil
	i.status = StatusIdle

	if wasMounted {
		i.runHooks(ctx, PhaseUnmount)
	}
}

// Render produces the instance's markup, tagged with its definition, without
// touching the live tree.
func (i *Instance) Render(props Props) Markup {
	i.props = i.props.merged(props)
	out, ok := i.produce()
	if ok {
		i.lastMarkup = out
	}
	return Markup{HTML: i.lastMarkup, Definition: i.def.id}
}

// Child invokes def as a child of i and returns the wrapper markup to embed
// in i's output. It must be called from i's render function.
func (i *Instance) Child(def *Definition, props Props) string {
	if i.rt.current() != i {
		i.rt.logger.Warn("child call outside render pass",
			"parent", i.id,
			"definition", def.name,
		)
		return ""
	}
	return i.rt.Invoke(def, props).wrap()
}

// wrap returns the boundary element carrying the instance's last markup.
func (i *Instance) wrap() string {
	m := i.rt.markers
	tag := i.def.config.Tag
	var b strings.Builder
	fmt.Fprintf(&b, `<%s %s="%d" %s="%d"`, tag, m.Boundary, i.id, m.Definition, i.def.id)
	if k := i.props.Key(); k != "" {
		fmt.Fprintf(&b, ` %s="%s"`, m.Key, html.EscapeString(k))
	}
	b.WriteByte('>')
	b.WriteString(i.lastMarkup)
	fmt.Fprintf(&b, "</%s>", tag)
	return b.String()
}

// prepare produces markup for a child that is not bound inside its parent's
// tree. The parent adopts it after committing its own output.
func (i *Instance) prepare() {
	ctx := context.Background()
	if i.status == StatusIdle {
		i.runHooks(ctx, PhaseBeforeMount)
	}
	i.runHooks(ctx, PhaseBeforeRender)
	if out, ok := i.produce(); ok {
		i.lastMarkup = out
	}
}

// produce runs the render function with i on the render stack. Panics are
// recovered and reported as E105; ok is false in that case.
func (i *Instance) produce() (markup string, ok bool) {
	i.rt.push(i)
	i.callCounter = 0
	i.invoked = i.invoked[:0]
	defer func() {
		i.rt.pop()
		if r := recover(); r != nil {
			me := merrors.New("E105").WithDetailf("%v", r)
			i.rt.logger.Error(me.Message,
				"code", "E105",
				"definition", i.def.name,
				"instance", i.id,
				"panic", r,
			)
			markup, ok = "", false
		}
	}()
	return i.def.render(i), true
}

// renderPass runs one render and commits it. It reports whether the render
// function produced output.
func (i *Instance) renderPass(ctx context.Context) bool {
	start := time.Now()
	ctx, span := i.rt.tracer.Start(ctx, "morph.render",
		trace.WithAttributes(i.spanAttrs()...))
	defer span.End()

	i.runHooks(ctx, PhaseBeforeRender)
	out, ok := i.produce()
	if !ok {
		span.SetStatus(codes.Error, "render panicked")
		return false
	}

	var mutations int
	counter := patch.ObserverFunc(func(patch.Mutation) { mutations++ })
	tr := i.commit(ctx, out, counter)

	span.SetAttributes(
		attribute.String("morph.transition", tr.String()),
		attribute.Int("morph.mutations", mutations),
	)
	i.rt.observer.Rendered(RenderEvent{
		Definition: i.def.name,
		Instance:   i.id,
		Transition: tr,
		Mutations:  mutations,
		Duration:   time.Since(start),
	})
	return true
}

// commit applies markup to the bound root according to the current status.
func (i *Instance) commit(ctx context.Context, markup string, obs patch.Observer) Transition {
	i.lastMarkup = markup

	if isEmpty(markup) {
		if i.status == StatusNullRendered {
			return TransitionEmpty
		}
		wasMounted := i.status == StatusMounted
		i.snapshot = i.rt.detach(i.root)
		i.park(nil)
		if wasMounted {
			i.runHooks(ctx, PhaseBeforeUnmount)
			i.runHooks(ctx, PhaseUnmount)
		}
		i.unbindListeners()
		i.status = StatusNullRendered
		return TransitionNull
	}

	tr := TransitionUpdate
	switch i.status {
	case StatusNullRendered:
		tr = TransitionRestore
		if i.snapshot != nil {
			i.rt.restore(i.root, i.snapshot)
			i.snapshot = nil
		}
	case StatusMounting:
		tr = TransitionMount
	}

	i.rt.patcher.PatchObserved(i.root, markup, obs)
	i.commitChildren(ctx)
	i.hydrate()
	i.unbindListeners()
	i.bindListeners()

	if tr == TransitionUpdate {
		i.runHooks(ctx, PhaseUpdate)
	} else {
		i.status = StatusMounted
		i.runHooks(ctx, PhaseMount)
	}
	return tr
}

// commitChildren binds the children invoked during the last pass to the
// boundary nodes the patch left in the tree, parks the ones that were not
// invoked and sweeps their nodes.
func (i *Instance) commitChildren(ctx context.Context) {
	keep := make(map[uint64]bool, len(i.invoked))
	for _, c := range i.invoked {
		keep[c.id] = true
		delete(i.orphans, c.id)
		if c.live() {
			continue
		}
		node := i.root.FindAttr(i.rt.markers.Boundary, c.idAttr())
		if node == nil {
			i.rt.logger.Warn(merrors.New("E106").Message,
				"code", "E106",
				"parent", i.id,
				"definition", c.def.name,
				"instance", c.id,
			)
			continue
		}
		c.adopt(ctx, node)
	}
	i.park(keep)
	i.sweep(keep)
}

// park unmounts every cached child that is not in keep.
func (i *Instance) park(keep map[uint64]bool) {
	for _, c := range i.children {
		if keep[c.id] {
			continue
		}
		if c.bound() {
			c.Unmount()
		}
		i.orphans[c.id] = true
	}
}

// sweep removes boundary nodes of children that are no longer invoked.
func (i *Instance) sweep(keep map[uint64]bool) {
	if len(i.orphans) == 0 {
		return
	}
	owned := make(map[string]bool, len(i.orphans))
	for id := range i.orphans {
		if !keep[id] {
			owned[strconv.FormatUint(id, 10)] = true
		}
	}
	for _, n := range i.root.QueryAttr(i.rt.markers.Boundary) {
		v, _ := n.Attr(i.rt.markers.Boundary)
		if owned[v] {
			i.rt.patcher.Remove(i.root, n)
		}
	}
	clear(i.orphans)
}

// adopt binds a child to the boundary node its parent's patch produced and
// brings the node's content up to date.
func (i *Instance) adopt(ctx context.Context, node *dom.Node) {
	start := time.Now()
	ctx, span := i.rt.tracer.Start(ctx, "morph.adopt",
		trace.WithAttributes(i.spanAttrs()...))
	defer span.End()

	wasMounted := i.status == StatusMounted
	i.root = node
	i.snapshot = nil

	var mutations int
	counter := patch.ObserverFunc(func(patch.Mutation) { mutations++ })
	i.rt.patcher.PatchObserved(node, i.lastMarkup, counter)

	if isEmpty(i.lastMarkup) {
		i.park(nil)
		i.unbindListeners()
		if wasMounted {
			i.runHooks(ctx, PhaseBeforeUnmount)
			i.runHooks(ctx, PhaseUnmount)
		}
		i.status = StatusNullRendered
	} else {
		i.commitChildren(ctx)
		i.hydrate()
		i.unbindListeners()
		i.bindListeners()
		if !wasMounted {
			i.status = StatusMounted
			i.runHooks(ctx, PhaseMount)
		}
	}

	span.SetAttributes(attribute.Int("morph.mutations", mutations))
	i.rt.observer.Rendered(RenderEvent{
		Definition: i.def.name,
		Instance:   i.id,
		Transition: TransitionAdopt,
		Mutations:  mutations,
		Duration:   time.Since(start),
	})
}

// hydrate runs the slot and action hydrators, in that order.
func (i *Instance) hydrate() {
	if h := i.rt.slotHydrator; h != nil {
		h.Hydrate(i, i.root)
	}
	if h := i.rt.actionHydrator; h != nil {
		h.Hydrate(i, i.root)
	}
}

func (i *Instance) idAttr() string {
	return strconv.FormatUint(i.id, 10)
}

func (i *Instance) spanAttrs() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("morph.definition", i.def.name),
		attribute.Int64("morph.instance", int64(i.id)),
	}
}
