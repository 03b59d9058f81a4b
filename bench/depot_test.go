package bench

import (
	"testing"

	"github.com/TheBitDrifter/depot"
)

// go test -bench=. ./bench -benchmem

const (
	nPos    = 9000
	nPosVel = 1000
)

type Position struct {
	X float64
	Y float64
}

type Velocity struct {
	X float64
	Y float64
}

func newDepotWorld(b *testing.B, opts depot.WorldOptions) (*depot.World, depot.Type[Position], depot.Type[Velocity]) {
	registry := depot.Factory.NewRegistry()
	position, err := depot.FactoryNewComponent[Position](registry)
	if err != nil {
		b.Fatal(err)
	}
	velocity, err := depot.FactoryNewComponent[Velocity](registry)
	if err != nil {
		b.Fatal(err)
	}
	world, err := depot.Factory.NewWorld(registry, opts)
	if err != nil {
		b.Fatal(err)
	}

	for range nPos {
		if _, err := world.CreateEntity(position); err != nil {
			b.Fatal(err)
		}
	}
	for range nPosVel {
		if _, err := world.CreateEntity(position, velocity); err != nil {
			b.Fatal(err)
		}
	}
	return world, position, velocity
}

func BenchmarkIterDepotCursor(b *testing.B) {
	b.StopTimer()
	world, position, velocity := newDepotWorld(b, depot.WorldOptions{})
	cursor := world.NewCursor(position, velocity)
	b.StartTimer()

	for i := 0; i < b.N; i++ {
		for cursor.Next() {
			pos := position.GetFromCursor(cursor, 0)
			vel := velocity.GetFromCursor(cursor, 1)

			pos.X += vel.X
			pos.Y += vel.Y
		}
	}
}

func BenchmarkIterDepotRows(b *testing.B) {
	b.StopTimer()
	world, _, _ := newDepotWorld(b, depot.WorldOptions{})
	b.StartTimer()

	for i := 0; i < b.N; i++ {
		rows, err := world.Query(depot.TypeID(0), depot.TypeID(1))
		if err != nil {
			b.Fatal(err)
		}
		for _, row := range rows {
			pos := row.Components[0].(*Position)
			vel := row.Components[1].(*Velocity)

			pos.X += vel.X
			pos.Y += vel.Y
		}
	}
}

func BenchmarkIterDepotUncached(b *testing.B) {
	b.StopTimer()
	world, position, velocity := newDepotWorld(b, depot.WorldOptions{DisableQueryCache: true})
	b.StartTimer()

	for i := 0; i < b.N; i++ {
		rows, err := world.Query(position, velocity)
		if err != nil {
			b.Fatal(err)
		}
		for _, row := range rows {
			pos := position.GetFromRow(row, 0)
			vel := velocity.GetFromRow(row, 1)

			pos.X += vel.X
			pos.Y += vel.Y
		}
	}
}

// BenchmarkChurnDepot toggles a component every iteration so every query misses.
func BenchmarkChurnDepot(b *testing.B) {
	b.StopTimer()
	world, position, velocity := newDepotWorld(b, depot.WorldOptions{})
	target, err := world.CreateEntity(position)
	if err != nil {
		b.Fatal(err)
	}
	b.StartTimer()

	for i := 0; i < b.N; i++ {
		if err := world.SetComponents(target, velocity); err != nil {
			b.Fatal(err)
		}
		if _, err := world.Entities(position, velocity); err != nil {
			b.Fatal(err)
		}
		if err := world.RemoveComponents(target, velocity); err != nil {
			b.Fatal(err)
		}
	}
}
