package depot

import (
	"github.com/TheBitDrifter/mask"
	"github.com/rotisserie/eris"
)

type Operation int

const (
	OpAnd Operation = iota
	OpOr
	OpNot
)

type compositeNode struct {
	op         Operation
	children   []QueryNode
	components []Typed
}

type leafNode struct {
	components []Typed
}

type query struct {
	root QueryNode
}

func newQuery() Query {
	return &query{}
}

func newCompositeNode(op Operation, components []Typed) *compositeNode {
	return &compositeNode{
		op:         op,
		children:   make([]QueryNode, 0),
		components: components,
	}
}

func newLeafNode(components []Typed) *leafNode {
	return &leafNode{components: components}
}

func maskOf(components []Typed) mask.Mask {
	var nodeMask mask.Mask
	for _, comp := range components {
		nodeMask.Mark(uint32(comp.TypeID()))
	}
	return nodeMask
}

func (n *compositeNode) Evaluate(held Signature) bool {
	nodeMask := maskOf(n.components)

	switch n.op {
	case OpAnd:
		if !held.ContainsAll(nodeMask) {
			return false
		}
		for _, child := range n.children {
			if !child.Evaluate(held) {
				return false
			}
		}
		return true

	case OpOr:
		if held.ContainsAny(nodeMask) {
			return true
		}
		for _, child := range n.children {
			if child.Evaluate(held) {
				return true
			}
		}
		return false

	case OpNot:
		if len(n.children) == 0 {
			return held.ContainsNone(nodeMask)
		}
		for _, child := range n.children {
			if child.Evaluate(held) {
				return false
			}
		}
		return !held.ContainsAny(nodeMask)
	}
	return false
}

func (n *leafNode) Evaluate(held Signature) bool {
	return held.ContainsAll(maskOf(n.components))
}

func (q *query) And(items ...any) QueryNode {
	components, children := q.processItems(items...)
	node := newCompositeNode(OpAnd, components)
	node.children = children
	if q.root == nil {
		q.root = node
	}
	return node
}

func (q *query) Or(items ...any) QueryNode {
	components, children := q.processItems(items...)
	node := newCompositeNode(OpOr, components)
	node.children = children
	if q.root == nil {
		q.root = node
	}
	return node
}

func (q *query) Not(items ...any) QueryNode {
	components, children := q.processItems(items...)
	node := newCompositeNode(OpNot, components)
	node.children = children
	if q.root == nil {
		q.root = node
	}
	return node
}

// Has is a leaf requiring every given type.
func (q *query) Has(items ...Typed) QueryNode {
	node := newLeafNode(items)
	if q.root == nil {
		q.root = node
	}
	return node
}

func (q *query) processItems(items ...any) ([]Typed, []QueryNode) {
	components := make([]Typed, 0)
	children := make([]QueryNode, 0)

	for _, item := range items {
		switch v := item.(type) {
		case QueryNode:
			children = append(children, v)
		case Typed:
			components = append(components, v)
		case []Typed:
			components = append(components, v...)
		}
	}

	return components, children
}

func (q *query) Evaluate(held Signature) bool {
	if q.root == nil {
		return false
	}
	return q.root.Evaluate(held)
}

// Filter returns the live entities, ascending, whose held types satisfy node. Filters
// may combine And, Or and Not; they scan every live entity and are never cached. Use
// Query for plain conjunctions.
func (w *World) Filter(node QueryNode) ([]Entity, error) {
	if node == nil {
		return nil, eris.Wrap(ErrEmptyQuery, "filter node cannot be nil")
	}
	if err := w.checkNode(node); err != nil {
		return nil, err
	}
	matched := make([]Entity, 0)
	for e := range w.entities.All() {
		if node.Evaluate(w.storage.signature(e)) {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

// checkNode resolves the types named by the built-in nodes against the world's registry.
func (w *World) checkNode(node QueryNode) error {
	switch n := node.(type) {
	case *query:
		if n.root != nil {
			return w.checkNode(n.root)
		}
	case *compositeNode:
		if _, err := w.registry.resolve(n.components); err != nil {
			return err
		}
		for _, child := range n.children {
			if err := w.checkNode(child); err != nil {
				return err
			}
		}
	case *leafNode:
		_, err := w.registry.resolve(n.components)
		return err
	}
	return nil
}
