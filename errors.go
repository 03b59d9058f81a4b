package depot

import (
	"fmt"

	"github.com/rotisserie/eris"
)

var (
	// ErrEntityNotFound is returned when mutating an entity that was never created or has
	// already been destroyed.
	ErrEntityNotFound = eris.New("entity does not exist")
	// ErrEntityExists is returned when registering an id that is already alive.
	ErrEntityExists = eris.New("entity already registered")
	// ErrEntityRetired is returned when registering an id that belonged to a destroyed entity.
	ErrEntityRetired = eris.New("entity id was destroyed and cannot be reused")
	// ErrEntitiesExhausted is returned by Create once the highest id has been handed out.
	ErrEntitiesExhausted = eris.New("entity ids exhausted")
	// ErrInvalidEntity is returned for the zero entity.
	ErrInvalidEntity = eris.New("invalid entity id")

	ErrUnknownComponentType  = eris.New("component type not declared in this registry")
	ErrInvalidComponentType  = eris.New("component type must be a struct")
	ErrTooManyComponentTypes = eris.New("registry is full")
	ErrComponentNotFound     = eris.New("component does not exist on entity")
	ErrStaleComponent        = eris.New("a different instance of this component type is stored")
	ErrRecordType            = eris.New("record does not match its component type")

	ErrEmptyQuery  = eris.New("query requires at least one component type")
	ErrWorldLocked = eris.New("world is currently locked")
)

// ComponentNotFoundError reports the removal of a component instance whose type the entity
// does not hold.
type ComponentNotFoundError struct {
	Entity Entity
	Type   TypeID
}

func (e ComponentNotFoundError) Error() string {
	return fmt.Sprintf("component type %d does not exist on entity %d", e.Type, e.Entity)
}

func (e ComponentNotFoundError) Is(target error) bool {
	return target == ErrComponentNotFound
}

// StaleComponentError reports the removal of a component instance that is not the one
// stored for the entity. Remove by type instead.
type StaleComponentError struct {
	Entity Entity
	Type   TypeID
}

func (e StaleComponentError) Error() string {
	return fmt.Sprintf(
		"component instance is not stored on entity %d: another instance of type %d exists, remove it by type",
		e.Entity, e.Type,
	)
}

func (e StaleComponentError) Is(target error) bool {
	return target == ErrStaleComponent
}
