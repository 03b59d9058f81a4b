package depot

type factory struct{}

var Factory factory

// NewRegistry returns an empty component registry.
func (f factory) NewRegistry() *Registry {
	return newRegistry()
}

// NewWorld returns an empty world over registry. Later options override earlier ones.
func (f factory) NewWorld(registry *Registry, opts ...WorldOptions) (*World, error) {
	return newWorld(registry, opts...)
}

func (f factory) NewQuery() Query {
	return newQuery()
}

func (f factory) NewCursor(world *World, types ...Typed) *Cursor {
	return newCursor(world, types)
}

// FactoryNewComponent declares a component kind in r. The defaults are merged in order
// into the template every new record is copied from.
func FactoryNewComponent[T any](r *Registry, defaults ...T) (Type[T], error) {
	return declare(r, defaults)
}
