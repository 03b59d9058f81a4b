package depot

import (
	"iter"
	"maps"
	"math"
	"slices"

	"github.com/kelindar/bitmap"
	"github.com/rotisserie/eris"
)

// Entity identifies one logical thing in a World. Ids are handed out by a strictly
// increasing counter starting at 1 and are never reused.
type Entity uint32

// Nil is the zero entity. It is never alive.
const Nil Entity = 0

var _ EntityAllocator = &allocator{}

// denseIDs bounds the ids kept in a bitmap. A bitmap grows to its highest set bit, so
// registered ids above the bound go to a map instead.
const denseIDs = 1 << 20

// idSet is a set of entity ids: a bitmap for the low, counter-allocated range and a map
// for sparse registered ids.
type idSet struct {
	dense  bitmap.Bitmap
	sparse map[Entity]struct{}
}

func (s *idSet) add(id Entity) {
	if id < denseIDs {
		s.dense.Set(uint32(id))
		return
	}
	if s.sparse == nil {
		s.sparse = make(map[Entity]struct{})
	}
	s.sparse[id] = struct{}{}
}

func (s *idSet) remove(id Entity) {
	if id < denseIDs {
		s.dense.Remove(uint32(id))
		return
	}
	delete(s.sparse, id)
}

func (s *idSet) contains(id Entity) bool {
	if id < denseIDs {
		return s.dense.Contains(uint32(id))
	}
	_, ok := s.sparse[id]
	return ok
}

// all yields ids in ascending order. Dense ids all sort before sparse ones.
func (s *idSet) all() iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		stopped := false
		s.dense.Range(func(x uint32) {
			if stopped {
				return
			}
			if !yield(Entity(x)) {
				stopped = true
			}
		})
		if stopped || len(s.sparse) == 0 {
			return
		}
		for _, id := range slices.Sorted(maps.Keys(s.sparse)) {
			if !yield(id) {
				return
			}
		}
	}
}

// allocator tracks liveness explicitly, so an entity with zero components and a destroyed
// entity are never confused.
type allocator struct {
	last    Entity // Highest id handed out or registered
	alive   idSet  // Ids currently alive
	retired idSet  // Ids that were destroyed
	count   int
}

func newAllocator() *allocator {
	return &allocator{}
}

// Create allocates the next id. It fails once MaxUint32 has been handed out or
// registered.
func (a *allocator) Create() (Entity, error) {
	if a.last == math.MaxUint32 {
		return Nil, eris.Wrapf(ErrEntitiesExhausted, "last entity %d", a.last)
	}
	a.last++
	a.alive.add(a.last)
	a.count++
	return a.last, nil
}

// Register marks a caller-chosen id alive. Later calls to Create never return it.
func (a *allocator) Register(id Entity) error {
	if id == Nil {
		return ErrInvalidEntity
	}
	if a.alive.contains(id) {
		return eris.Wrapf(ErrEntityExists, "entity %d", id)
	}
	if a.retired.contains(id) {
		return eris.Wrapf(ErrEntityRetired, "entity %d", id)
	}
	a.alive.add(id)
	a.count++
	if id > a.last {
		a.last = id
	}
	return nil
}

// Destroy retires a live id. Destroying an unknown or already destroyed id is an error.
func (a *allocator) Destroy(id Entity) error {
	if !a.Alive(id) {
		return eris.Wrapf(ErrEntityNotFound, "entity %d", id)
	}
	a.alive.remove(id)
	a.retired.add(id)
	a.count--
	return nil
}

func (a *allocator) Alive(id Entity) bool {
	return id != Nil && a.alive.contains(id)
}

func (a *allocator) Count() int {
	return a.count
}

// All yields live entities in ascending order.
func (a *allocator) All() iter.Seq[Entity] {
	return a.alive.all()
}
