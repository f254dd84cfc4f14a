package patch

import (
	"fmt"

	"github.com/vango-dev/morph/pkg/dom"
)

// Op is the type of tree mutation.
type Op uint8

const (
	OpSetText     Op = 0x01 // Overwrite text data
	OpSetAttr     Op = 0x02 // Add or update attribute
	OpRemoveAttr  Op = 0x03 // Remove attribute
	OpInsertNode  Op = 0x04 // Insert a new node
	OpRemoveNode  Op = 0x05 // Remove a node
	OpMoveNode    Op = 0x06 // Relocate a keyed node
	OpReplaceNode Op = 0x07 // Replace a node outright
)

// String returns the string representation of the Op.
func (op Op) String() string {
	switch op {
	case OpSetText:
		return "SetText"
	case OpSetAttr:
		return "SetAttr"
	case OpRemoveAttr:
		return "RemoveAttr"
	case OpInsertNode:
		return "InsertNode"
	case OpRemoveNode:
		return "RemoveNode"
	case OpMoveNode:
		return "MoveNode"
	case OpReplaceNode:
		return "ReplaceNode"
	default:
		return "Unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (op Op) MarshalText() ([]byte, error) {
	return []byte(op.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (op *Op) UnmarshalText(text []byte) error {
	for o := OpSetText; o <= OpReplaceNode; o++ {
		if o.String() == string(text) {
			*op = o
			return nil
		}
	}
	return fmt.Errorf("patch: unknown op %q", text)
}

// Mutation describes a single change applied to the live tree.
type Mutation struct {
	Op    Op     `json:"op"`
	Root  string `json:"root,omitempty"`  // boundary value of the container, if it has one
	Path  []int  `json:"path"`            // child-index path from the container
	Index int    `json:"index,omitempty"` // destination index for moves
	Key   string `json:"key,omitempty"`   // attribute name
	Value string `json:"value,omitempty"` // attribute value or text
	HTML  string `json:"html,omitempty"`  // markup of inserted/replacement nodes

	Node *dom.Node `json:"-"` // node the mutation applied to
}

// Observer receives mutations as the patcher applies them.
type Observer interface {
	Mutated(m Mutation)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Mutation)

// Mutated implements Observer.
func (f ObserverFunc) Mutated(m Mutation) { f(m) }

// Log collects mutations in order.
type Log struct {
	Mutations []Mutation
}

// Mutated implements Observer.
func (l *Log) Mutated(m Mutation) {
	l.Mutations = append(l.Mutations, m)
}

// Len returns the number of recorded mutations.
func (l *Log) Len() int {
	return len(l.Mutations)
}

// Count returns how many mutations of op were recorded.
func (l *Log) Count(op Op) int {
	n := 0
	for _, m := range l.Mutations {
		if m.Op == op {
			n++
		}
	}
	return n
}

// Reset clears the log.
func (l *Log) Reset() {
	l.Mutations = l.Mutations[:0]
}

// multi fans a mutation out to several observers.
type multi []Observer

func (m multi) Mutated(mu Mutation) {
	for _, o := range m {
		o.Mutated(mu)
	}
}
