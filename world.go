package depot

import (
	"slices"

	"github.com/TheBitDrifter/depot/internal/assert"
	iter_util "github.com/TheBitDrifter/util/iter"
	"github.com/kelindar/bitmap"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// World is the entity/component store. Every mutation goes through it so the query cache
// can be invalidated before the mutation returns. A World is not safe for concurrent use.
type World struct {
	registry *Registry
	entities *allocator
	storage  *storage
	cache    *queryCache

	cacheEnabled bool
	lockDepth    int
	opQueue      opQueue

	log zerolog.Logger
}

func newWorld(registry *Registry, opts ...WorldOptions) (*World, error) {
	if registry == nil {
		return nil, eris.New("registry cannot be nil")
	}
	options := newDefaultWorldOptions()
	for _, opt := range opts {
		options.apply(opt)
	}
	if err := options.validate(); err != nil {
		return nil, eris.Wrap(err, "invalid world options")
	}

	return &World{
		registry:     registry,
		entities:     newAllocator(),
		storage:      newStorage(registry),
		cache:        newQueryCache(options.MaxCachedQueries),
		cacheEnabled: !options.DisableQueryCache,
		opQueue:      newOpQueue(),
		log:          *options.Logger,
	}, nil
}

// Registry returns the registry the world resolves component types against.
func (w *World) Registry() *Registry {
	return w.registry
}

// -------------------------------------------------------------------------------------------------
// Entity operations
// -------------------------------------------------------------------------------------------------

// CreateEntity allocates a new entity and attaches the given components to it.
func (w *World) CreateEntity(items ...Typed) (Entity, error) {
	if w.Locked() {
		return Nil, eris.Wrap(ErrWorldLocked, "cannot create entity")
	}
	pending, err := w.prepare(items)
	if err != nil {
		return Nil, err
	}

	e, err := w.entities.Create()
	if err != nil {
		return Nil, err
	}
	w.storage.track(e)
	w.log.Debug().Uint32("entity", uint32(e)).Int("components", len(pending)).Msg("entity created")

	return e, w.attach(e, pending)
}

// RegisterEntity makes a caller-chosen id alive and attaches the given components to it.
func (w *World) RegisterEntity(e Entity, items ...Typed) error {
	if w.Locked() {
		return eris.Wrap(ErrWorldLocked, "cannot register entity")
	}
	pending, err := w.prepare(items)
	if err != nil {
		return err
	}
	if err := w.entities.Register(e); err != nil {
		return err
	}

	w.storage.track(e)
	w.log.Debug().Uint32("entity", uint32(e)).Int("components", len(pending)).Msg("entity registered")

	return w.attach(e, pending)
}

// DestroyEntity removes e and all of its components. Every cached query over a type e
// held is evicted.
func (w *World) DestroyEntity(e Entity) error {
	if w.Locked() {
		return eris.Wrap(ErrWorldLocked, "cannot destroy entity")
	}
	if err := w.entities.Destroy(e); err != nil {
		return err
	}

	held := w.storage.destroyEntity(e)
	w.invalidate(held)
	w.log.Debug().Uint32("entity", uint32(e)).Msg("entity destroyed")
	return nil
}

// Alive reports whether e was created and not destroyed.
func (w *World) Alive(e Entity) bool {
	return w.entities.Alive(e)
}

// EntityCount returns the number of live entities.
func (w *World) EntityCount() int {
	return w.entities.Count()
}

// AllEntities returns every live entity in ascending order.
func (w *World) AllEntities() []Entity {
	return iter_util.Collect(w.entities.All())
}

// -------------------------------------------------------------------------------------------------
// Component operations
// -------------------------------------------------------------------------------------------------

// pendingRecord is a validated record waiting to be stored.
type pendingRecord struct {
	id     TypeID
	record any
}

// prepare validates items and resolves each to a record. Instances are stored as given;
// type handles and raw ids produce a default record.
func (w *World) prepare(items []Typed) ([]pendingRecord, error) {
	pending := make([]pendingRecord, 0, len(items))
	for i, item := range items {
		id, err := w.registry.check(item)
		if err != nil {
			return nil, eris.Wrapf(err, "position %d", i)
		}

		k := w.registry.kind(id)
		if c, ok := item.(Component); ok {
			if !k.owns(c.Record()) {
				return nil, eris.Wrapf(ErrRecordType, "component type %d (%s) got %T", id, k.name, c.Record())
			}
			pending = append(pending, pendingRecord{id: id, record: c.Record()})
			continue
		}
		pending = append(pending, pendingRecord{id: id, record: k.produce().Record()})
	}
	return pending, nil
}

// attach stores validated records on e and invalidates all structural changes together.
func (w *World) attach(e Entity, pending []pendingRecord) error {
	var affected bitmap.Bitmap
	defer func() { w.invalidate(affected) }()

	for _, p := range pending {
		added, err := w.storage.set(e, p.id, p.record)
		if err != nil {
			return err
		}
		if added {
			affected.Set(uint32(p.id))
		}
	}
	return nil
}

// SetComponents attaches components to e. A component whose type e already holds is
// deep-merged into the stored record, keeping the stored pointer; such field updates do
// not invalidate cached queries. Items are validated before anything is stored.
//
// A merge only copies non-zero fields, so it can never reset a stored field to its zero
// value. To do that, edit the record returned by GetComponent, or remove the type and set
// it again.
func (w *World) SetComponents(e Entity, items ...Typed) error {
	if w.Locked() {
		return eris.Wrap(ErrWorldLocked, "cannot set components")
	}
	if !w.entities.Alive(e) {
		return eris.Wrapf(ErrEntityNotFound, "entity %d", e)
	}
	pending, err := w.prepare(items)
	if err != nil {
		return err
	}
	return w.attach(e, pending)
}

// RemoveComponents detaches components from e. A type handle or id removes whatever
// record of that type e holds and is a no-op if there is none. An instance removes only
// itself: if e holds a different instance of the type the call fails with a
// StaleComponentError, and if e holds none with a ComponentNotFoundError. Items are
// validated before anything is removed.
func (w *World) RemoveComponents(e Entity, items ...Typed) error {
	if w.Locked() {
		return eris.Wrap(ErrWorldLocked, "cannot remove components")
	}
	if !w.entities.Alive(e) {
		return eris.Wrapf(ErrEntityNotFound, "entity %d", e)
	}

	ids := make([]TypeID, len(items))
	for i, item := range items {
		id, err := w.registry.check(item)
		if err != nil {
			return eris.Wrapf(err, "position %d", i)
		}
		if c, ok := item.(Component); ok {
			stored, exists := w.storage.get(e, id)
			if !exists {
				return ComponentNotFoundError{Entity: e, Type: id}
			}
			if stored != c.Record() {
				return StaleComponentError{Entity: e, Type: id}
			}
		}
		ids[i] = id
	}

	var affected bitmap.Bitmap
	for _, id := range ids {
		if w.storage.remove(e, id) {
			affected.Set(uint32(id))
		}
	}
	w.invalidate(affected)
	return nil
}

// GetComponent returns the record of type t stored on e. Unknown and destroyed entities
// hold nothing.
func (w *World) GetComponent(e Entity, t Typed) (any, bool) {
	id, err := w.registry.check(t)
	if err != nil {
		return nil, false
	}
	return w.storage.get(e, id)
}

// GetComponents returns the records of the given types on e in the given order, with nil
// for every type e does not hold.
func (w *World) GetComponents(e Entity, types ...Typed) []any {
	records := make([]any, len(types))
	for i, t := range types {
		records[i], _ = w.GetComponent(e, t)
	}
	return records
}

func (w *World) HasComponent(e Entity, t Typed) bool {
	id, err := w.registry.check(t)
	return err == nil && w.storage.has(e, id)
}

// Components returns every record e holds, keyed by type. It is nil for an entity that
// is not alive.
func (w *World) Components(e Entity) map[TypeID]any {
	if !w.entities.Alive(e) {
		return nil
	}
	return w.storage.records(e)
}

// HasComponents reports whether e holds every given type. It is false for an empty list.
func (w *World) HasComponents(e Entity, types ...Typed) bool {
	if len(types) == 0 {
		return false
	}
	for _, t := range types {
		if !w.HasComponent(e, t) {
			return false
		}
	}
	return true
}

// -------------------------------------------------------------------------------------------------
// Queries
// -------------------------------------------------------------------------------------------------

// Query returns every entity holding all of the given types, ascending, each with its
// components in the requested order. The returned rows are fresh on every call, but the
// records inside them are the stored ones: editing their fields edits the store.
func (w *World) Query(types ...Typed) ([]Row, error) {
	entry, ids, err := w.lookup(types)
	if err != nil {
		return nil, err
	}

	cols := make([]int, len(ids))
	for i, id := range ids {
		cols[i] = entry.column(id)
		assert.That(cols[i] >= 0, "cached entry is missing component type %d", id)
	}

	rows := make([]Row, len(entry.entities))
	for j, e := range entry.entities {
		components := make([]any, len(cols))
		for i, col := range cols {
			components[i] = entry.columns[col][j]
		}
		rows[j] = Row{Entity: e, Components: components}
	}
	return rows, nil
}

// Entities returns every entity holding all of the given types, ascending.
func (w *World) Entities(types ...Typed) ([]Entity, error) {
	entry, _, err := w.lookup(types)
	if err != nil {
		return nil, err
	}
	return slices.Clone(entry.entities), nil
}

// CacheStats reports the query cache counters.
func (w *World) CacheStats() CacheStats {
	return w.cache.stats()
}

// ClearQueryCache drops every cached query. Counters are kept.
func (w *World) ClearQueryCache() {
	w.cache.Clear()
}

// lookup returns the cached entry for types, computing and caching it on a miss, along
// with the requested ids in request order.
func (w *World) lookup(types []Typed) (*cacheEntry, []TypeID, error) {
	if len(types) == 0 {
		return nil, nil, ErrEmptyQuery
	}
	ids, err := w.registry.resolve(types)
	if err != nil {
		return nil, nil, err
	}

	sig, canonical := signatureOf(ids)
	if w.cacheEnabled {
		if entry, ok := w.cache.get(sig); ok {
			return entry, ids, nil
		}
	}

	entry := w.compute(canonical)
	if w.cacheEnabled && !w.cache.put(sig, entry) {
		w.log.Debug().Int("capacity", w.cache.maxCapacity).Msg("query cache full, result not cached")
	}
	w.log.Debug().Int("types", len(canonical)).Int("matches", len(entry.entities)).Msg("query computed")
	return entry, ids, nil
}

// compute intersects the tables of the canonical types and gathers one column of records
// per type.
func (w *World) compute(canonical []TypeID) *cacheEntry {
	sets := make([][]Entity, len(canonical))
	for i, id := range canonical {
		sets[i] = w.storage.keys(id)
	}
	entities := intersect(sets)

	columns := make([][]any, len(canonical))
	for i, id := range canonical {
		column := make([]any, len(entities))
		for j, e := range entities {
			record, ok := w.storage.get(e, id)
			assert.That(ok, "entity %d matched type %d but holds no record", e, id)
			column[j] = record
		}
		columns[i] = column
	}

	return &cacheEntry{
		types:    canonical,
		entities: entities,
		columns:  columns,
	}
}

// invalidate evicts every cached query over one of the affected types.
func (w *World) invalidate(affected bitmap.Bitmap) {
	if !w.cacheEnabled {
		return
	}
	if evicted := w.cache.invalidate(affected); evicted > 0 {
		w.log.Debug().Int("evicted", evicted).Msg("query cache invalidated")
	}
}
