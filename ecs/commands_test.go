package ecs_test

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/maskecs/ecs"
)

type testSpawnSystem struct {
	executed bool
}

func (s *testSpawnSystem) Execute(frame *ecs.UpdateFrame) error {
	s.executed = true
	frame.Commands.Spawn(Position{X: 1, Y: 2}, Velocity{DX: 0.5, DY: 0.5})
	frame.Commands.Spawn(Position{X: 3, Y: 4})
	return nil
}

type testDeleteSystem struct {
	entityToDelete ecs.EntityId
}

func (s *testDeleteSystem) Execute(frame *ecs.UpdateFrame) error {
	frame.Commands.Delete(s.entityToDelete)
	return nil
}

type testAddSystem struct {
	entity ecs.EntityId
}

func (s *testAddSystem) Execute(frame *ecs.UpdateFrame) error {
	frame.Commands.AddComponent(s.entity, Velocity{DX: 5, DY: 10})
	return nil
}

type testRemoveSystem struct {
	entity   ecs.EntityId
	compType *ecs.ComponentType
}

func (s *testRemoveSystem) Execute(frame *ecs.UpdateFrame) error {
	frame.Commands.RemoveComponent(s.entity, s.compType)
	return nil
}

type testMixedSystem struct {
	entity ecs.EntityId
}

func (s *testMixedSystem) Execute(frame *ecs.UpdateFrame) error {
	frame.Commands.Spawn(Position{X: 10, Y: 20})
	frame.Commands.AddComponent(s.entity, Velocity{DX: 1, DY: 1})
	frame.Commands.Delete(s.entity)
	frame.Commands.Spawn(Health{Current: 100, Max: 100})
	return nil
}

// Systems for cross-system entity mutation tests
type systemAddHealth struct {
	entity ecs.EntityId
}

func (s *systemAddHealth) Execute(frame *ecs.UpdateFrame) error {
	frame.Commands.AddComponent(s.entity, Health{Current: 50, Max: 100})
	return nil
}

type systemAddVelocity struct {
	entity ecs.EntityId
}

func (s *systemAddVelocity) Execute(frame *ecs.UpdateFrame) error {
	frame.Commands.AddComponent(s.entity, Velocity{DX: 1, DY: 2})
	return nil
}

func countView[T any](t *testing.T, world *ecs.World) int {
	t.Helper()
	view, err := ecs.NewView[T](world)
	require.NoError(t, err)
	count := 0
	for range view.Iter() {
		count++
	}
	return count
}

func TestCommands(t *testing.T) {
	r := newTestRegistry()

	t.Run("spawn entities", func(t *testing.T) {
		world := ecs.NewWorld(r.ComponentRegistry)
		scheduler := ecs.NewScheduler(world)

		system := &testSpawnSystem{}
		require.NoError(t, scheduler.Register(system))

		assert.Equal(t, 0, countView[struct{ Position }](t, world), "entities spawned before frame execution")

		require.NoError(t, scheduler.Once(1.0))

		assert.Equal(t, 2, countView[struct{ Position }](t, world))
		assert.True(t, system.executed)
	})

	t.Run("delete entities", func(t *testing.T) {
		world := ecs.NewWorld(r.ComponentRegistry)
		e1, _ := world.NewEntity(Position{X: 1, Y: 2})
		e2, _ := world.NewEntity(Position{X: 3, Y: 4})

		scheduler := ecs.NewScheduler(world)
		require.NoError(t, scheduler.Register(&testDeleteSystem{entityToDelete: e1}))

		require.NoError(t, scheduler.Once(1.0))

		assert.False(t, world.Exists(e1), "entity not deleted after frame")
		assert.True(t, world.Exists(e2), "wrong entity deleted")
		assert.Empty(t, world.PendingDeletions())
	})

	t.Run("delete schedules without removing", func(t *testing.T) {
		world := ecs.NewWorld(r.ComponentRegistry)
		e1, _ := world.NewEntity(Position{})

		commands := ecs.NewCommands()
		commands.Delete(e1)
		require.NoError(t, commands.Flush(world))

		assert.True(t, world.Exists(e1))
		assert.True(t, world.IsPendingDeletion(e1))
		assert.Equal(t, 0, commands.Len())
	})

	t.Run("add components", func(t *testing.T) {
		world := ecs.NewWorld(r.ComponentRegistry)
		entity, _ := world.NewEntity(Position{X: 1, Y: 2})

		scheduler := ecs.NewScheduler(world)
		require.NoError(t, scheduler.Register(&testAddSystem{entity: entity}))
		require.NoError(t, scheduler.Once(1.0))

		view, err := ecs.NewView[struct {
			Position
			Velocity
		}](world)
		require.NoError(t, err)

		item, ok := view.Get(entity)
		require.True(t, ok, "component not added after frame")
		assert.Equal(t, Position{X: 1, Y: 2}, item.Position)
		assert.Equal(t, Velocity{DX: 5, DY: 10}, item.Velocity)
	})

	t.Run("remove components", func(t *testing.T) {
		world := ecs.NewWorld(r.ComponentRegistry)
		entity, _ := world.NewEntity(Position{X: 1, Y: 2}, Velocity{DX: 5, DY: 10})

		scheduler := ecs.NewScheduler(world)
		require.NoError(t, scheduler.Register(&testRemoveSystem{entity: entity, compType: r.velocity}))
		require.NoError(t, scheduler.Once(1.0))

		assert.Equal(t, 0, countView[struct {
			Position
			Velocity
		}](t, world), "velocity component not removed")
		assert.Equal(t, 1, countView[struct{ Position }](t, world))
	})

	t.Run("mixed operations", func(t *testing.T) {
		world := ecs.NewWorld(r.ComponentRegistry)
		e1, _ := world.NewEntity(Position{X: 1, Y: 2})

		scheduler := ecs.NewScheduler(world)
		require.NoError(t, scheduler.Register(&testMixedSystem{entity: e1}))
		require.NoError(t, scheduler.Once(1.0))

		assert.Equal(t, 1, countView[struct{ Position }](t, world))
		assert.Equal(t, 1, countView[struct{ Health }](t, world))
		assert.False(t, world.Exists(e1))
	})

	t.Run("cross-system remove then add same entity", func(t *testing.T) {
		world := ecs.NewWorld(r.ComponentRegistry)
		entity, _ := world.NewEntity(Position{X: 1, Y: 2}, Velocity{DX: 5, DY: 10})

		scheduler := ecs.NewScheduler(world)
		require.NoError(t, scheduler.Register(&testRemoveSystem{entity: entity, compType: r.velocity}))
		require.NoError(t, scheduler.Register(&systemAddHealth{entity: entity}))
		require.NoError(t, scheduler.Once(1.0))

		health, err := ecs.Get[Health](world, entity)
		require.NoError(t, err)
		assert.Equal(t, Health{Current: 50, Max: 100}, health)

		has, err := world.HasComponent(entity, r.velocity)
		require.NoError(t, err)
		assert.False(t, has)
	})

	t.Run("cross-system multiple adds same entity", func(t *testing.T) {
		world := ecs.NewWorld(r.ComponentRegistry)
		entity, _ := world.NewEntity(Position{X: 3, Y: 4})

		scheduler := ecs.NewScheduler(world)
		require.NoError(t, scheduler.Register(&systemAddVelocity{entity: entity}))
		require.NoError(t, scheduler.Register(&systemAddHealth{entity: entity}))
		require.NoError(t, scheduler.Once(1.0))

		has, err := world.HasComponents(entity, r.position, r.velocity, r.health)
		require.NoError(t, err)
		assert.True(t, has)
	})

	t.Run("cross-system mutation after delete is ignored", func(t *testing.T) {
		world := ecs.NewWorld(r.ComponentRegistry)
		entity, _ := world.NewEntity(Position{X: 7, Y: 8})

		scheduler := ecs.NewScheduler(world)
		require.NoError(t, scheduler.Register(&testDeleteSystem{entityToDelete: entity}))
		require.NoError(t, scheduler.Register(&systemAddHealth{entity: entity}))
		require.NoError(t, scheduler.Once(1.0))

		assert.False(t, world.Exists(entity))
		assert.Equal(t, 0, countView[struct{ Health }](t, world), "no Health-only entities should exist")
	})

	t.Run("failing command stops the flush", func(t *testing.T) {
		world := ecs.NewWorld(r.ComponentRegistry)
		entity, _ := world.NewEntity(Position{})

		commands := ecs.NewCommands()
		commands.AddComponent(entity, Position{X: 2})
		commands.Spawn(Health{})
		deferred := false
		commands.Defer(func() { deferred = true })

		err := commands.Flush(world)
		assert.True(t, eris.Is(err, ecs.ErrDuplicateComponentType))
		assert.False(t, deferred)
		assert.Equal(t, 1, world.Len())
		assert.Equal(t, 0, commands.Len(), "buffer is reset after a failed flush")
	})

	t.Run("commands before a failure stay applied", func(t *testing.T) {
		world := ecs.NewWorld(r.ComponentRegistry)
		doomed, _ := world.NewEntity(Position{})
		moving, _ := world.NewEntity(Position{}, Velocity{DX: 1})
		target, _ := world.NewEntity(Health{})

		commands := ecs.NewCommands()
		commands.Delete(doomed)
		commands.RemoveComponent(moving, r.velocity)
		commands.AddComponent(target, Health{Current: 5})
		commands.Spawn(Position{})

		err := commands.Flush(world)
		assert.True(t, eris.Is(err, ecs.ErrDuplicateComponentType))
		assert.True(t, world.IsPendingDeletion(doomed))
		has, err := world.HasComponent(moving, r.velocity)
		require.NoError(t, err)
		assert.False(t, has)
		assert.Equal(t, 3, world.Len(), "spawn after the failing add is dropped")
	})

	t.Run("defer runs after structural changes", func(t *testing.T) {
		world := ecs.NewWorld(r.ComponentRegistry)
		commands := ecs.NewCommands()

		var seen int
		commands.Defer(func() { seen = world.Len() })
		commands.Spawn(Position{})
		commands.Spawn(Position{})
		require.NoError(t, commands.Flush(world))
		assert.Equal(t, 2, seen)
	})
}
