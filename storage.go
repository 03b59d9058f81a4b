package depot

import (
	"slices"

	"github.com/TheBitDrifter/depot/internal/assert"
	"github.com/kelindar/bitmap"
	"github.com/rotisserie/eris"
)

// table stores the records of one component type. records answers point lookups; sorted
// keeps the same keys in ascending order for intersection.
type table struct {
	records map[Entity]any
	sorted  []Entity
}

func newTable() *table {
	return &table{
		records: make(map[Entity]any),
		sorted:  make([]Entity, 0, 64),
	}
}

func (t *table) len() int {
	return len(t.sorted)
}

// insert expects e to be absent.
func (t *table) insert(e Entity, record any) {
	t.records[e] = record
	// Ids grow monotonically, so appending is the common case.
	if n := len(t.sorted); n == 0 || t.sorted[n-1] < e {
		t.sorted = append(t.sorted, e)
		return
	}
	i, found := slices.BinarySearch(t.sorted, e)
	assert.That(!found, "entity %d already in table", e)
	t.sorted = slices.Insert(t.sorted, i, e)
}

func (t *table) delete(e Entity) bool {
	if _, ok := t.records[e]; !ok {
		return false
	}
	delete(t.records, e)
	i, found := slices.BinarySearch(t.sorted, e)
	assert.That(found, "entity %d missing from sorted keys", e)
	t.sorted = slices.Delete(t.sorted, i, i+1)
	return true
}

// storage holds one table per component type plus, for every tracked entity, the set of
// types it holds. An entity is tracked from creation until destruction even when it
// holds nothing.
type storage struct {
	registry *Registry
	tables   []*table
	held     map[Entity]bitmap.Bitmap
}

func newStorage(registry *Registry) *storage {
	return &storage{
		registry: registry,
		tables:   make([]*table, 0, MaxComponentTypes),
		held:     make(map[Entity]bitmap.Bitmap),
	}
}

func (s *storage) track(e Entity) {
	_, exists := s.held[e]
	assert.That(!exists, "entity %d already tracked", e)
	s.held[e] = bitmap.Bitmap{}
}

func (s *storage) tracked(e Entity) bool {
	_, ok := s.held[e]
	return ok
}

func (s *storage) table(id TypeID) *table {
	for int(id) >= len(s.tables) {
		s.tables = append(s.tables, nil)
	}
	if s.tables[id] == nil {
		s.tables[id] = newTable()
	}
	return s.tables[id]
}

// set inserts record, or deep-merges it into the record already stored for (e, id). It
// reports whether e gained the type, which is the only change queries can observe.
func (s *storage) set(e Entity, id TypeID, record any) (bool, error) {
	assert.That(s.tracked(e), "entity %d is not tracked", e)

	tbl := s.table(id)
	if existing, ok := tbl.records[e]; ok {
		if err := s.registry.kind(id).merge(existing, record); err != nil {
			return false, eris.Wrapf(err, "failed to merge component type %d on entity %d", id, e)
		}
		return false, nil
	}

	tbl.insert(e, record)
	held := s.held[e]
	held.Set(uint32(id))
	s.held[e] = held
	return true, nil
}

// remove deletes the record of type id from e. Absent records are a no-op.
func (s *storage) remove(e Entity, id TypeID) bool {
	if int(id) >= len(s.tables) || s.tables[id] == nil {
		return false
	}
	if !s.tables[id].delete(e) {
		return false
	}
	held := s.held[e]
	held.Remove(uint32(id))
	s.held[e] = held
	return true
}

func (s *storage) get(e Entity, id TypeID) (any, bool) {
	if int(id) >= len(s.tables) || s.tables[id] == nil {
		return nil, false
	}
	record, ok := s.tables[id].records[e]
	return record, ok
}

func (s *storage) has(e Entity, id TypeID) bool {
	held, ok := s.held[e]
	return ok && held.Contains(uint32(id))
}

// destroyEntity drops e from every table and from the bookkeeping. It returns the types e
// held.
func (s *storage) destroyEntity(e Entity) bitmap.Bitmap {
	held, ok := s.held[e]
	if !ok {
		return bitmap.Bitmap{}
	}
	held.Range(func(x uint32) {
		removed := s.tables[x].delete(e)
		assert.That(removed, "entity %d held type %d but was not in its table", e, x)
	})
	delete(s.held, e)
	return held
}

// signature returns the types e holds as a mask.
func (s *storage) signature(e Entity) Signature {
	var sig Signature
	held := s.held[e]
	held.Range(func(x uint32) {
		sig.Mark(x)
	})
	return sig
}

// keys returns the sorted key set of type id. The slice is owned by storage.
func (s *storage) keys(id TypeID) []Entity {
	if int(id) >= len(s.tables) || s.tables[id] == nil {
		return nil
	}
	return s.tables[id].sorted
}

// records returns a copy of every record e holds, keyed by type.
func (s *storage) records(e Entity) map[TypeID]any {
	held, ok := s.held[e]
	if !ok {
		return nil
	}
	out := make(map[TypeID]any, held.Count())
	held.Range(func(x uint32) {
		out[TypeID(x)] = s.tables[x].records[e]
	})
	return out
}
