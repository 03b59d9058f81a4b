package depot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeclareAssignsDenseIDs(t *testing.T) {
	t.Parallel()

	k := newTestKinds(t)
	assert.Equal(t, TypeID(0), k.position.TypeID())
	assert.Equal(t, TypeID(1), k.velocity.TypeID())
	assert.Equal(t, TypeID(2), k.health.TypeID())
	assert.Equal(t, 3, k.registry.Len())
	assert.Equal(t, "depot.Position", k.position.Name())
	assert.Empty(t, k.registry.Name(42))
}

func TestDeclareRejectsNonStruct(t *testing.T) {
	t.Parallel()

	r := Factory.NewRegistry()
	_, err := FactoryNewComponent[int](r)
	assert.ErrorIs(t, err, ErrInvalidComponentType)
	_, err = FactoryNewComponent[*Position](r)
	assert.ErrorIs(t, err, ErrInvalidComponentType)
	assert.Zero(t, r.Len())
}

func TestDeclareLimit(t *testing.T) {
	t.Parallel()

	r := Factory.NewRegistry()
	for range MaxComponentTypes {
		_, err := FactoryNewComponent[Position](r)
		require.NoError(t, err)
	}
	_, err := FactoryNewComponent[Position](r)
	assert.ErrorIs(t, err, ErrTooManyComponentTypes)
}

func TestNewAppliesDefaultsAndOverrides(t *testing.T) {
	t.Parallel()

	k := newTestKinds(t)

	tests := []struct {
		name      string
		overrides []Position
		want      Position
	}{
		{"defaults", nil, Position{X: 5, Y: 6}},
		{"partial override", []Position{{X: 1}}, Position{X: 1, Y: 6}},
		{"overrides apply in order", []Position{{X: 1}, {X: 2, Y: 3}}, Position{X: 2, Y: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			inst := k.position.New(tt.overrides...)
			assert.Equal(t, tt.want, *inst.Value)
			assert.Equal(t, k.position.TypeID(), inst.TypeID())
		})
	}
}

func TestNewProducesIndependentCopies(t *testing.T) {
	t.Parallel()

	r := Factory.NewRegistry()
	stats, err := FactoryNewComponent(r, Stats{
		Name:   "base",
		Tags:   []string{"a"},
		Limits: map[string]int{"hp": 1},
	})
	require.NoError(t, err)

	first := stats.New()
	first.Value.Tags[0] = "changed"
	first.Value.Limits["hp"] = 99
	first.Value.Inner.Level = 7

	second := stats.New()
	assert.Equal(t, []string{"a"}, second.Value.Tags)
	assert.Equal(t, map[string]int{"hp": 1}, second.Value.Limits)
	assert.Zero(t, second.Value.Inner.Level)
	assert.NotSame(t, first.Value, second.Value)
}

func TestMergeRecordsKeepsUnspecifiedFields(t *testing.T) {
	t.Parallel()

	dst := &Stats{Name: "keep", Tags: []string{"x"}}
	dst.Inner.Level = 3
	src := &Stats{Tags: []string{"y"}}
	src.Inner.Label = "new"

	require.NoError(t, mergeRecords[Stats](dst, src))
	assert.Equal(t, "keep", dst.Name)
	assert.Equal(t, []string{"y"}, dst.Tags)
	assert.Equal(t, 3, dst.Inner.Level)
	assert.Equal(t, "new", dst.Inner.Label)

	assert.ErrorIs(t, mergeRecords[Stats](dst, &Position{}), ErrRecordType)
	assert.NoError(t, mergeRecords[Stats](dst, dst))
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	k := newTestKinds(t)

	ids, err := k.registry.resolve([]Typed{k.health, TypeID(0), k.velocity.New()})
	require.NoError(t, err)
	assert.Equal(t, []TypeID{2, 0, 1}, ids)

	_, err = k.registry.resolve([]Typed{k.health, TypeID(3)})
	assert.ErrorIs(t, err, ErrUnknownComponentType)
	_, err = k.registry.resolve([]Typed{nil})
	assert.ErrorIs(t, err, ErrUnknownComponentType)
}

type Tagged struct {
	Name  string
	count int
	Any   any
	Hook  func() int
}

func TestNewKeepsUnexportedAndInterfaceFields(t *testing.T) {
	t.Parallel()

	r := Factory.NewRegistry()
	tagged, err := FactoryNewComponent(r, Tagged{
		Name:  "a",
		count: 3,
		Any:   []int{1, 2},
		Hook:  func() int { return 7 },
	})
	require.NoError(t, err)

	first := tagged.New()
	assert.Equal(t, "a", first.Value.Name)
	assert.Equal(t, 3, first.Value.count)
	require.IsType(t, []int{}, first.Value.Any)
	assert.Equal(t, []int{1, 2}, first.Value.Any)
	require.NotNil(t, first.Value.Hook)
	assert.Equal(t, 7, first.Value.Hook())

	first.Value.Any.([]int)[0] = 99
	first.Value.count = 4
	second := tagged.New(Tagged{Name: "b"})
	assert.Equal(t, []int{1, 2}, second.Value.Any)
	assert.Equal(t, 3, second.Value.count)
	assert.Equal(t, "b", second.Value.Name)
}

type markerA struct{ A int }

type markerB struct{ B string }

func TestRegistryRejectsForeignHandles(t *testing.T) {
	t.Parallel()

	ra := Factory.NewRegistry()
	fromA, err := FactoryNewComponent[markerA](ra)
	require.NoError(t, err)
	rb := Factory.NewRegistry()
	fromB, err := FactoryNewComponent[markerB](rb)
	require.NoError(t, err)
	require.Equal(t, fromA.TypeID(), fromB.TypeID())

	w, err := Factory.NewWorld(rb)
	require.NoError(t, err)
	e, err := w.CreateEntity(fromB)
	require.NoError(t, err)

	tests := []struct {
		name string
		item Typed
	}{
		{"handle", fromA},
		{"instance", fromA.New()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := rb.check(tt.item)
			assert.ErrorIs(t, err, ErrUnknownComponentType)

			_, err = w.CreateEntity(tt.item)
			assert.ErrorIs(t, err, ErrUnknownComponentType)
			assert.ErrorIs(t, w.SetComponents(e, tt.item), ErrUnknownComponentType)
			assert.ErrorIs(t, w.RemoveComponents(e, tt.item), ErrUnknownComponentType)
			_, err = w.Query(tt.item)
			assert.ErrorIs(t, err, ErrUnknownComponentType)

			assert.False(t, w.HasComponent(e, tt.item))
			_, ok := w.GetComponent(e, tt.item)
			assert.False(t, ok)
		})
	}

	q := Factory.NewQuery()
	_, err = w.Filter(q.And(fromB, q.Not(fromA)))
	assert.ErrorIs(t, err, ErrUnknownComponentType)
	_, err = w.Filter(q)
	assert.ErrorIs(t, err, ErrUnknownComponentType)

	// Raw ids carry no registry and resolve by number.
	assert.True(t, w.HasComponent(e, TypeID(0)))
	b, ok := fromB.GetFromEntity(w, e)
	require.True(t, ok)
	assert.Equal(t, markerB{}, *b)
}
