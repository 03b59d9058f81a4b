package depot

import (
	"iter"
)

var _ iCursor = &Cursor{}

func newCursor(world *World, types []Typed) *Cursor {
	return &Cursor{
		world: world,
		types: types,
	}
}

// NewCursor returns a cursor over the entities holding all of the given types.
func (w *World) NewCursor(types ...Typed) *Cursor {
	return newCursor(w, types)
}

// Next advances to the next row. It returns false once the rows are exhausted or the
// query failed, releasing the world lock; check Err afterwards.
func (c *Cursor) Next() bool {
	if !c.initialized && !c.initialize() {
		return false
	}
	if c.index < len(c.rows) {
		c.index++
		return true
	}
	c.Reset()
	return false
}

// Rows yields every row of the query. Breaking out of the loop releases the world lock.
func (c *Cursor) Rows() iter.Seq2[Entity, []any] {
	return func(yield func(Entity, []any) bool) {
		if !c.initialized && !c.initialize() {
			return
		}
		defer c.Reset()

		for c.index < len(c.rows) {
			row := c.rows[c.index]
			c.index++
			if !yield(row.Entity, row.Components) {
				return
			}
		}
	}
}

// initialize runs the query and locks the world for the lifetime of the iteration.
func (c *Cursor) initialize() bool {
	c.err = nil
	rows, err := c.world.Query(c.types...)
	if err != nil {
		c.err = err
		return false
	}
	c.rows = rows
	c.index = 0
	c.world.Lock()
	c.locked = true
	c.initialized = true
	return true
}

// Reset rewinds the cursor and releases its world lock. Errors from operations queued
// during the iteration are reported by Err.
func (c *Cursor) Reset() {
	if c.locked {
		c.locked = false
		if err := c.world.Unlock(); err != nil && c.err == nil {
			c.err = err
		}
	}
	c.rows = nil
	c.index = 0
	c.initialized = false
}

// Err returns the error of the last query or of the operations applied when the cursor
// released the world.
func (c *Cursor) Err() error {
	return c.err
}

func (c *Cursor) current() (Row, bool) {
	if !c.initialized || c.index == 0 || c.index > len(c.rows) {
		return Row{}, false
	}
	return c.rows[c.index-1], true
}

// Entity returns the entity of the current row, or Nil before the first Next.
func (c *Cursor) Entity() Entity {
	row, ok := c.current()
	if !ok {
		return Nil
	}
	return row.Entity
}

// Component returns the i-th requested component of the current row.
func (c *Cursor) Component(i int) any {
	row, ok := c.current()
	if !ok || i < 0 || i >= len(row.Components) {
		return nil
	}
	return row.Components[i]
}

// TotalMatched returns the number of rows. It runs the query, and locks the world, if the
// cursor has not started yet.
func (c *Cursor) TotalMatched() int {
	if !c.initialized && !c.initialize() {
		return 0
	}
	return len(c.rows)
}

// RemainingRows returns the number of rows Next has not reached yet.
func (c *Cursor) RemainingRows() int {
	return len(c.rows) - c.index
}
