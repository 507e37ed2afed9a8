package ecs

import "github.com/rotisserie/eris"

// Commands provides a buffer for deferred ECS operations that are executed at the end of a frame.
// This prevents structural changes to the world while systems are iterating queries.
type Commands struct {
	spawns  []spawnCommand
	deletes []EntityId
	adds    []addComponentCommand
	removes []removeComponentCommand
	defers  []deferCommand
}

// NewCommands creates an empty command buffer.
func NewCommands() *Commands {
	return &Commands{}
}

type deferCommand struct {
	fn func()
}

type spawnCommand struct {
	components []any
}

type addComponentCommand struct {
	entity    EntityId
	component any
}

type removeComponentCommand struct {
	entity   EntityId
	compType *ComponentType
}

// Defer queues a function execution operation.
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, deferCommand{fn: fn})
}

// Spawn queues an entity spawn operation with the given components.
func (c *Commands) Spawn(components ...any) {
	c.spawns = append(c.spawns, spawnCommand{components: components})
}

// Delete queues an entity for deletion. The entity is scheduled on the world
// when the buffer is flushed and removed when pending deletions are processed.
func (c *Commands) Delete(entity EntityId) {
	c.deletes = append(c.deletes, entity)
}

// AddComponent queues a component addition operation.
func (c *Commands) AddComponent(entity EntityId, component any) {
	c.adds = append(c.adds, addComponentCommand{
		entity:    entity,
		component: component,
	})
}

// RemoveComponent queues a component removal operation.
func (c *Commands) RemoveComponent(entity EntityId, compType *ComponentType) {
	c.removes = append(c.removes, removeComponentCommand{
		entity:   entity,
		compType: compType,
	})
}

// Len returns the number of queued operations.
func (c *Commands) Len() int {
	return len(c.spawns) + len(c.deletes) + len(c.adds) + len(c.removes) + len(c.defers)
}

// Flush applies all queued commands to the world and resets the buffer.
// Deletes are scheduled first, then removes, adds, spawns and deferred
// functions run in that order. Component changes to entities deleted in the
// same buffer are skipped.
//
// The first failing command stops the flush and its error is returned.
// Commands applied before it stay applied: deletes remain scheduled and
// earlier removes and adds are not rolled back. The rest of the buffer is
// discarded.
func (c *Commands) Flush(w *World) error {
	defer c.reset()

	deletedEntities := make(map[EntityId]bool, len(c.deletes))
	for _, cmd := range c.deletes {
		w.ScheduleForDeletion(cmd)
		deletedEntities[cmd] = true
	}

	for _, cmd := range c.removes {
		if deletedEntities[cmd.entity] {
			continue
		}
		if err := w.RemoveComponent(cmd.entity, cmd.compType); err != nil {
			return eris.Wrap(err, "flushing remove command")
		}
	}

	for _, cmd := range c.adds {
		if deletedEntities[cmd.entity] {
			continue
		}
		if err := w.AddComponent(cmd.entity, cmd.component); err != nil {
			return eris.Wrap(err, "flushing add command")
		}
	}

	for _, cmd := range c.spawns {
		if _, err := w.NewEntity(cmd.components...); err != nil {
			return eris.Wrap(err, "flushing spawn command")
		}
	}

	for _, df := range c.defers {
		df.fn()
	}
	return nil
}

func (c *Commands) reset() {
	c.spawns = c.spawns[:0]
	c.deletes = c.deletes[:0]
	c.adds = c.adds[:0]
	c.removes = c.removes[:0]
	c.defers = c.defers[:0]
}
