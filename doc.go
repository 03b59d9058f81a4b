/*
Package depot provides an in-memory entity/component store with cached queries.

Depot keeps one sparse table per component type and answers "which entities hold all of
these types" by intersecting the tables' sorted key sets, smallest first. Results are
memoized per type set and evicted precisely: a write only drops the cached queries that
include a type whose membership it changed.

Core Concepts:

  - Entity: An id handed out by a strictly increasing counter. Ids are never reused.
  - Component: A struct record of a declared type. Records are shared by reference.
  - Registry: Assigns dense type ids and holds the default template of every type.
  - Query: The entities holding every requested type, ascending, with their components
    projected in the requested order.

Basic Usage:

	// Create a registry and a world
	registry := depot.Factory.NewRegistry()
	world, _ := depot.Factory.NewWorld(registry)

	// Define components
	position, _ := depot.FactoryNewComponent(registry, Position{X: 5, Y: 6})
	velocity, _ := depot.FactoryNewComponent[Velocity](registry)

	// Create entities
	world.CreateEntity(position, velocity)

	// Query entities and process them
	cursor := world.NewCursor(position, velocity)
	for cursor.Next() {
		pos := position.GetFromCursor(cursor, 0)
		vel := velocity.GetFromCursor(cursor, 1)
		pos.X += vel.X
		pos.Y += vel.Y
	}

Editing the fields of a returned record edits the store and never invalidates a cached
query. Adding, removing and destroying must go through the World. While a cursor
iterates, the world is locked and mutations are queued with the Enqueue methods.
*/
package depot
