package depot

import "iter"

// Typed is anything that names a component type: a TypeID, a Type[T] handle, or a
// component Instance[T].
type Typed interface {
	TypeID() TypeID
}

// Component is a record tagged with the type that produced it.
type Component interface {
	Typed
	// Record returns the shared *T held by the component.
	Record() any
}

// Row is one query result: the entity and its components in requested order.
type Row struct {
	Entity     Entity
	Components []any
}

type EntityAllocator interface {
	Create() (Entity, error)
	Register(Entity) error
	Destroy(Entity) error
	Alive(Entity) bool
	Count() int
	All() iter.Seq[Entity]
}

// QueryNode matches entities by the set of types they hold.
type QueryNode interface {
	Evaluate(held Signature) bool
}

// Query builds composite filters for World.Filter. Items are component types or nested
// nodes.
type Query interface {
	QueryNode
	And(items ...any) QueryNode
	Or(items ...any) QueryNode
	Not(items ...any) QueryNode
	Has(items ...Typed) QueryNode
}

type iCursor interface {
	Rows() iter.Seq2[Entity, []any]
	Next() bool
}

// CacheStats describes the query cache of a World.
type CacheStats struct {
	Hits      int
	Misses    int
	Evictions int
	Entries   int
}

// Cursor iterates the result of a query. The world stays locked from the first call to
// Next until the cursor is exhausted or Reset.
type Cursor struct {
	world *World
	types []Typed

	rows   []Row
	index  int
	err    error
	locked bool

	initialized bool
}

// Instance is a component record produced by a Type[T].
type Instance[T any] struct {
	id       TypeID
	registry *Registry
	Value    *T
}

// Type is the handle of a declared component kind.
type Type[T any] struct {
	id       TypeID
	registry *Registry
}
