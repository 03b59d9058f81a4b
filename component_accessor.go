package depot

import (
	"github.com/TheBitDrifter/depot/internal/assert"
	"github.com/huandu/go-clone"
)

// TypeID returns the id assigned to this kind at declaration.
func (t Type[T]) TypeID() TypeID {
	return t.id
}

// Name returns the Go type name of the kind.
func (t Type[T]) Name() string {
	return t.registry.Name(t.id)
}

func (t Type[T]) registryOf() *Registry {
	return t.registry
}

// New produces a fresh record: a deep copy of the default template with a copy of every
// override merged over it in order. Zero-valued and unexported override fields keep the
// default.
func (t Type[T]) New(overrides ...T) Instance[T] {
	template, ok := t.registry.kind(t.id).template.(*T)
	assert.That(ok, "component type %d does not hold a %T template", t.id, template)

	inst := produce(t.registry, t.id, template)
	for i := range overrides {
		err := mergeRecords[T](inst.Value, clone.Clone(&overrides[i]))
		assert.That(err == nil, "override of component type %d does not merge: %v", t.id, err)
	}
	return inst
}

// GetFromEntity returns the stored record of this kind for e.
func (t Type[T]) GetFromEntity(w *World, e Entity) (*T, bool) {
	record, ok := w.GetComponent(e, t)
	if !ok {
		return nil, false
	}
	value, ok := record.(*T)
	return value, ok
}

// GetFromRow returns the i-th component of a query row as *T, or nil if it is of another
// kind.
func (t Type[T]) GetFromRow(row Row, i int) *T {
	if i < 0 || i >= len(row.Components) {
		return nil
	}
	value, _ := row.Components[i].(*T)
	return value
}

// GetFromCursor returns the i-th component of the cursor's current row.
func (t Type[T]) GetFromCursor(c *Cursor, i int) *T {
	row, ok := c.current()
	if !ok {
		return nil
	}
	return t.GetFromRow(row, i)
}
