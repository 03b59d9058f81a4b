package depot

import (
	"github.com/rotisserie/eris"
)

type operation struct {
	typ    operationType
	entity Entity
	items  []Typed
}

type operationType int

const (
	opCreate operationType = iota
	opDestroy
	opSetComponents
	opRemoveComponents
)

func (t operationType) String() string {
	switch t {
	case opCreate:
		return "create"
	case opDestroy:
		return "destroy"
	case opSetComponents:
		return "set"
	case opRemoveComponents:
		return "remove"
	}
	return "unknown"
}

// opQueue holds the mutations requested while the world is locked. They are applied on
// the final Unlock: creates first, then component changes in the order they were
// queued, then destroys. Component changes for an entity that is queued for destruction
// are dropped.
type opQueue struct {
	createOps      []operation
	componentOps   []operation
	destroyOps     []operation
	pendingDestroy map[Entity]struct{}
}

func newOpQueue() opQueue {
	return opQueue{
		pendingDestroy: make(map[Entity]struct{}),
	}
}

func (q *opQueue) len() int {
	return len(q.createOps) + len(q.componentOps) + len(q.destroyOps)
}

func (q *opQueue) enqueueCreate(items []Typed) {
	q.createOps = append(q.createOps, operation{typ: opCreate, items: items})
}

func (q *opQueue) enqueueDestroy(e Entity) {
	if _, queued := q.pendingDestroy[e]; queued {
		return
	}
	q.pendingDestroy[e] = struct{}{}
	q.destroyOps = append(q.destroyOps, operation{typ: opDestroy, entity: e})
}

func (q *opQueue) enqueueComponentOp(typ operationType, e Entity, items []Typed) {
	if _, queued := q.pendingDestroy[e]; queued {
		return
	}
	q.componentOps = append(q.componentOps, operation{typ: typ, entity: e, items: items})
}

func (q *opQueue) clear() {
	q.createOps = q.createOps[:0]
	q.componentOps = q.componentOps[:0]
	q.destroyOps = q.destroyOps[:0]
	clear(q.pendingDestroy)
}

// -------------------------------------------------------------------------------------------------
// Locking
// -------------------------------------------------------------------------------------------------

// Lock forbids direct mutations until the matching Unlock. Locks nest.
func (w *World) Lock() {
	w.lockDepth++
}

// Unlock releases one Lock. The final Unlock applies every queued operation and returns
// the first error any of them produced. Failing operations do not stop the others.
func (w *World) Unlock() error {
	if w.lockDepth == 0 {
		return eris.New("world is not locked")
	}
	w.lockDepth--
	if w.lockDepth > 0 {
		return nil
	}
	return w.processOperationQueue()
}

func (w *World) Locked() bool {
	return w.lockDepth > 0
}

func (w *World) processOperationQueue() error {
	if w.opQueue.len() == 0 {
		return nil
	}
	defer w.opQueue.clear()

	var first error
	fail := func(op operation, err error) {
		w.log.Warn().Err(err).Str("op", op.typ.String()).Uint32("entity", uint32(op.entity)).
			Msg("queued operation failed")
		if first == nil {
			first = eris.Wrapf(err, "failed to apply queued %s", op.typ)
		}
	}

	// Process creates first
	for _, op := range w.opQueue.createOps {
		if _, err := w.CreateEntity(op.items...); err != nil {
			fail(op, err)
		}
	}

	// Process component modifications
	for _, op := range w.opQueue.componentOps {
		if _, doomed := w.opQueue.pendingDestroy[op.entity]; doomed {
			continue
		}
		var err error
		switch op.typ {
		case opSetComponents:
			err = w.SetComponents(op.entity, op.items...)
		case opRemoveComponents:
			err = w.RemoveComponents(op.entity, op.items...)
		}
		if err != nil {
			fail(op, err)
		}
	}

	// Process destroys last
	for _, op := range w.opQueue.destroyOps {
		if err := w.DestroyEntity(op.entity); err != nil {
			fail(op, err)
		}
	}

	w.log.Debug().Int("operations", w.opQueue.len()).Msg("operation queue flushed")
	return first
}

// -------------------------------------------------------------------------------------------------
// Deferred mutations
// -------------------------------------------------------------------------------------------------

// EnqueueCreateEntity creates an entity now, or on the final Unlock when the world is
// locked. The entity id is only returned when it is created immediately.
func (w *World) EnqueueCreateEntity(items ...Typed) (Entity, error) {
	if !w.Locked() {
		return w.CreateEntity(items...)
	}
	w.opQueue.enqueueCreate(items)
	return Nil, nil
}

// EnqueueSetComponents behaves like SetComponents, deferred while the world is locked.
func (w *World) EnqueueSetComponents(e Entity, items ...Typed) error {
	if !w.Locked() {
		return w.SetComponents(e, items...)
	}
	w.opQueue.enqueueComponentOp(opSetComponents, e, items)
	return nil
}

// EnqueueRemoveComponents behaves like RemoveComponents, deferred while the world is
// locked.
func (w *World) EnqueueRemoveComponents(e Entity, items ...Typed) error {
	if !w.Locked() {
		return w.RemoveComponents(e, items...)
	}
	w.opQueue.enqueueComponentOp(opRemoveComponents, e, items)
	return nil
}

// EnqueueDestroyEntity behaves like DestroyEntity, deferred while the world is locked.
// Component changes queued for e are dropped.
func (w *World) EnqueueDestroyEntity(e Entity) error {
	if !w.Locked() {
		return w.DestroyEntity(e)
	}
	w.opQueue.enqueueDestroy(e)
	return nil
}
