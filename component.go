package depot

import (
	"reflect"

	"dario.cat/mergo"
	"github.com/TheBitDrifter/depot/internal/assert"
	"github.com/huandu/go-clone"
	"github.com/rotisserie/eris"
)

// TypeID identifies a component kind within a Registry. IDs are dense, start at 0 and are
// never reused.
type TypeID uint32

// TypeID lets a raw id be passed wherever a Typed is accepted.
func (id TypeID) TypeID() TypeID {
	return id
}

// MaxComponentTypes is the number of component kinds a Registry can hold. Query
// signatures are bitmasks, one bit per kind.
const MaxComponentTypes = 64

var (
	_ Typed     = TypeID(0)
	_ Typed     = Type[struct{}]{}
	_ Component = Instance[struct{}]{}
)

// kind is the registry entry of a declared component type.
type kind struct {
	name     string
	template any // *T, deep-copied on every produce
	produce  func() Component
	merge    func(dst, src any) error
	owns     func(record any) bool
}

// Registry assigns TypeIDs and holds the default template of every declared kind. A
// Registry is owned by, or shared between, the worlds that store its kinds.
type Registry struct {
	kinds []kind
}

func newRegistry() *Registry {
	return &Registry{kinds: make([]kind, 0, MaxComponentTypes)}
}

// Len returns the number of declared kinds.
func (r *Registry) Len() int {
	return len(r.kinds)
}

// Known reports whether id was declared in this registry.
func (r *Registry) Known(id TypeID) bool {
	return int(id) < len(r.kinds)
}

// Name returns the Go type name of a declared kind, or "" for an unknown id.
func (r *Registry) Name(id TypeID) string {
	if !r.Known(id) {
		return ""
	}
	return r.kinds[id].name
}

func (r *Registry) kind(id TypeID) *kind {
	assert.That(r.Known(id), "component type %d is not declared", id)
	return &r.kinds[id]
}

// bound is implemented by handles and instances that remember the Registry that
// declared their type.
type bound interface {
	registryOf() *Registry
}

// check returns the type id of item. Undeclared ids and handles or instances of another
// registry are rejected; raw ids cannot be told apart and are only range checked.
func (r *Registry) check(item Typed) (TypeID, error) {
	if item == nil {
		return 0, eris.Wrap(ErrUnknownComponentType, "nil component type")
	}
	id := item.TypeID()
	if b, ok := item.(bound); ok {
		if owner := b.registryOf(); owner != nil && owner != r {
			return 0, eris.Wrapf(ErrUnknownComponentType, "component type %d belongs to another registry", id)
		}
	}
	if !r.Known(id) {
		return 0, eris.Wrapf(ErrUnknownComponentType, "component type %d", id)
	}
	return id, nil
}

// resolve converts items to type ids in the given order.
func (r *Registry) resolve(items []Typed) ([]TypeID, error) {
	ids := make([]TypeID, len(items))
	for i, item := range items {
		id, err := r.check(item)
		if err != nil {
			return nil, eris.Wrapf(err, "position %d", i)
		}
		ids[i] = id
	}
	return ids, nil
}

func declare[T any](r *Registry, defaults []T) (Type[T], error) {
	typ := reflect.TypeFor[T]()
	if typ.Kind() != reflect.Struct {
		return Type[T]{}, eris.Wrapf(ErrInvalidComponentType, "cannot declare %s", typ)
	}
	if len(r.kinds) >= MaxComponentTypes {
		return Type[T]{}, eris.Wrapf(ErrTooManyComponentTypes, "cannot declare %s: limit is %d", typ, MaxComponentTypes)
	}

	// The first default is copied whole, unexported fields included. Later defaults
	// override its non-zero exported fields.
	template := new(T)
	for i := range defaults {
		if i == 0 {
			template = clone.Clone(&defaults[0]).(*T)
			continue
		}
		if err := mergeRecords[T](template, clone.Clone(&defaults[i])); err != nil {
			return Type[T]{}, eris.Wrapf(err, "failed to merge default template of %s", typ)
		}
	}

	id := TypeID(len(r.kinds))
	r.kinds = append(r.kinds, kind{
		name:     typ.String(),
		template: template,
		produce: func() Component {
			return produce(r, id, template)
		},
		merge: mergeRecords[T],
		owns: func(record any) bool {
			ptr, ok := record.(*T)
			return ok && ptr != nil
		},
	})
	return Type[T]{id: id, registry: r}, nil
}

// produce deep-copies the template so no two records share memory with each other or
// with the template.
func produce[T any](r *Registry, id TypeID, template *T) Instance[T] {
	value, ok := clone.Clone(template).(*T)
	assert.That(ok, "template of component type %d cloned to %T", id, value)
	return Instance[T]{id: id, registry: r, Value: value}
}

// mergeRecords deep-merges src into dst in place. Non-zero fields of src replace those of
// dst; zero fields leave dst untouched.
func mergeRecords[T any](dst, src any) error {
	d, ok := dst.(*T)
	if !ok {
		return eris.Wrapf(ErrRecordType, "stored record is %T", dst)
	}
	s, ok := src.(*T)
	if !ok {
		return eris.Wrapf(ErrRecordType, "incoming record is %T", src)
	}
	if d == s {
		return nil
	}
	return mergo.Merge(d, s, mergo.WithOverride)
}

// TypeID returns the type the instance was produced by.
func (i Instance[T]) TypeID() TypeID {
	return i.id
}

// Record returns the shared *T.
func (i Instance[T]) Record() any {
	return i.Value
}

func (i Instance[T]) registryOf() *Registry {
	return i.registry
}
