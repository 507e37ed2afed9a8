package ecs

import (
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/kamstrup/intmap"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// World owns a set of entities and their components, together with the
// per-type indices used by queries.
//
// A World is not safe for concurrent mutation. ScheduleForDeletion is the one
// exception: it may be called concurrently with readers and with itself.
type World struct {
	name     string
	registry *ComponentRegistry
	logger   zerolog.Logger

	records *intmap.Map[EntityId, *entityRecord]
	alive   *entitySet
	index   componentIndex
	nextId  EntityId

	pendingMu sync.Mutex
	pending   *entitySet

	singletons map[reflect.Type]any
}

// WorldOption configures a World.
type WorldOption func(*World)

// WithWorldName labels the world in logs and String output.
func WithWorldName(name string) WorldOption {
	return func(w *World) {
		w.name = name
	}
}

// WithLogger sets the logger used for lifecycle events.
func WithLogger(logger zerolog.Logger) WorldOption {
	return func(w *World) {
		w.logger = logger
	}
}

// WithCapacity preallocates room for n entities.
func WithCapacity(n int) WorldOption {
	return func(w *World) {
		w.records = intmap.New[EntityId, *entityRecord](n)
		w.alive = newEntitySet(n)
	}
}

// NewWorld creates an empty world bound to the given registry.
func NewWorld(registry *ComponentRegistry, opts ...WorldOption) *World {
	w := &World{
		name:     "world",
		registry: registry,
		logger:   zerolog.Nop(),
		records:  intmap.New[EntityId, *entityRecord](256),
		alive:    newEntitySet(256),
		pending:  newEntitySet(16),
		nextId:   1,

		singletons: make(map[reflect.Type]any),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With().Str("world", w.name).Logger()
	return w
}

// Name returns the world's label.
func (w *World) Name() string { return w.name }

// Registry returns the registry the world resolves component types with.
func (w *World) Registry() *ComponentRegistry { return w.registry }

// Len returns the number of live entities.
func (w *World) Len() int { return w.alive.len() }

func (w *World) String() string {
	return fmt.Sprintf("World(%s, entities=%d, pending=%d)", w.name, w.alive.len(), w.pendingLen())
}

// resolve maps component values to their registered types, rejecting
// unregistered types and repeated types within the batch.
func (w *World) resolve(components []any) ([]*ComponentType, error) {
	types := make([]*ComponentType, len(components))
	for i, c := range components {
		ct, err := w.registry.TypeOf(c)
		if err != nil {
			return nil, err
		}
		if slices.Contains(types[:i], ct) {
			return nil, eris.Wrapf(ErrDuplicateComponentType, "component %s given more than once", ct.name)
		}
		types[i] = ct
	}
	return types, nil
}

func (w *World) record(id EntityId) (*entityRecord, error) {
	rec, ok := w.records.Get(id)
	if !ok {
		return nil, eris.Wrapf(ErrEntityNotFound, "entity %d", id)
	}
	return rec, nil
}

// NewEntity creates an entity carrying the given components and returns its
// ID. No entity is created if two components share a type.
func (w *World) NewEntity(components ...any) (EntityId, error) {
	types, err := w.resolve(components)
	if err != nil {
		return NoEntity, err
	}

	id := w.nextId
	w.nextId++
	rec := newEntityRecord(len(components))
	for i, ct := range types {
		rec.put(ct, components[i])
		w.index.set(ct).add(id)
	}
	w.records.Put(id, rec)
	w.alive.add(id)

	w.logger.Debug().Uint64("entity", uint64(id)).Str("mask", rec.mask.String()).Msg("entity created")
	return id, nil
}

// AddComponent attaches a component to an existing entity. The entity is left
// untouched if it already has a component of that type.
func (w *World) AddComponent(id EntityId, component any) error {
	return w.AddComponents(id, component)
}

// AddComponents attaches several components at once. Either all of them are
// attached or, on error, none are.
func (w *World) AddComponents(id EntityId, components ...any) error {
	rec, err := w.record(id)
	if err != nil {
		return err
	}
	types, err := w.resolve(components)
	if err != nil {
		return err
	}
	for _, ct := range types {
		if _, ok := rec.components[ct]; ok {
			return eris.Wrapf(ErrDuplicateComponentType, "entity %d already has %s", id, ct.name)
		}
	}

	for i, ct := range types {
		rec.put(ct, components[i])
		w.index.set(ct).add(id)
	}
	return nil
}

// SetComponent replaces the value of a component the entity already has.
func (w *World) SetComponent(id EntityId, component any) error {
	rec, err := w.record(id)
	if err != nil {
		return err
	}
	ct, err := w.registry.TypeOf(component)
	if err != nil {
		return err
	}
	if _, ok := rec.components[ct]; !ok {
		return eris.Wrapf(ErrComponentNotFound, "entity %d has no %s", id, ct.name)
	}
	rec.components[ct] = component
	return nil
}

// RemoveComponent detaches the component of the given type.
func (w *World) RemoveComponent(id EntityId, ct *ComponentType) error {
	if err := w.registry.owns(ct); err != nil {
		return err
	}
	rec, err := w.record(id)
	if err != nil {
		return err
	}
	if _, ok := rec.components[ct]; !ok {
		return eris.Wrapf(ErrComponentNotFound, "entity %d has no %s", id, ct.name)
	}
	rec.remove(ct)
	w.index.set(ct).remove(id)
	return nil
}

// EntityComponent returns the component of the given type.
func (w *World) EntityComponent(id EntityId, ct *ComponentType) (any, error) {
	if err := w.registry.owns(ct); err != nil {
		return nil, err
	}
	rec, err := w.record(id)
	if err != nil {
		return nil, err
	}
	v, ok := rec.components[ct]
	if !ok {
		return nil, eris.Wrapf(ErrComponentNotFound, "entity %d has no %s", id, ct.name)
	}
	return v, nil
}

// EntityComponents returns a read-only view of all components of an entity.
func (w *World) EntityComponents(id EntityId) (ComponentView, error) {
	rec, err := w.record(id)
	if err != nil {
		return ComponentView{}, err
	}
	return ComponentView{rec: rec, registry: w.registry}, nil
}

// HasComponent reports whether the entity has a component of the given type.
// Types from another registry are rejected with ErrComponentNotRegistered.
func (w *World) HasComponent(id EntityId, ct *ComponentType) (bool, error) {
	if err := w.registry.owns(ct); err != nil {
		return false, err
	}
	rec, err := w.record(id)
	if err != nil {
		return false, err
	}
	return rec.mask.Has(ct.id), nil
}

// HasComponents reports whether the entity has all of the given types. It is
// true for an empty list.
func (w *World) HasComponents(id EntityId, types ...*ComponentType) (bool, error) {
	for _, ct := range types {
		if err := w.registry.owns(ct); err != nil {
			return false, err
		}
	}
	rec, err := w.record(id)
	if err != nil {
		return false, err
	}
	for _, ct := range types {
		if !rec.mask.Has(ct.id) {
			return false, nil
		}
	}
	return true, nil
}

// Mask returns the presence bitmask of an entity.
func (w *World) Mask(id EntityId) (Bitmask, error) {
	rec, err := w.record(id)
	if err != nil {
		return Bitmask{}, err
	}
	return rec.mask, nil
}

// Exists reports whether id refers to a live entity.
func (w *World) Exists(id EntityId) bool {
	_, ok := w.records.Get(id)
	return ok
}

// Entities returns the IDs of all live entities.
func (w *World) Entities() []EntityId {
	return w.alive.snapshot()
}

// ScheduleForDeletion marks an entity for removal by the next call to
// ProcessPendingDeletions. Scheduling is idempotent. IDs that do not refer to
// a live entity are ignored.
func (w *World) ScheduleForDeletion(id EntityId) {
	if !w.Exists(id) {
		w.logger.Warn().Uint64("entity", uint64(id)).Msg("ignoring deletion of unknown entity")
		return
	}
	w.pendingMu.Lock()
	w.pending.add(id)
	w.pendingMu.Unlock()
}

// PendingDeletions returns the IDs currently scheduled for deletion.
func (w *World) PendingDeletions() []EntityId {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	return w.pending.snapshot()
}

// IsPendingDeletion reports whether id is scheduled for deletion.
func (w *World) IsPendingDeletion(id EntityId) bool {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	return w.pending.has(id)
}

func (w *World) pendingLen() int {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	return w.pending.len()
}

// DeleteEntityImmediately removes an entity and all of its components. It is
// a no-op for IDs that are not live.
func (w *World) DeleteEntityImmediately(id EntityId) {
	w.pendingMu.Lock()
	w.pending.remove(id)
	w.pendingMu.Unlock()

	rec, ok := w.records.Get(id)
	if !ok {
		return
	}
	for ct := range rec.components {
		w.index.set(ct).remove(id)
	}
	w.records.Del(id)
	w.alive.remove(id)
	w.logger.Debug().Uint64("entity", uint64(id)).Msg("entity deleted")
}

// ProcessPendingDeletions deletes every entity scheduled for deletion and
// returns how many were removed.
func (w *World) ProcessPendingDeletions() int {
	w.pendingMu.Lock()
	ids := w.pending.snapshot()
	w.pending.clear()
	w.pendingMu.Unlock()

	for _, id := range ids {
		w.DeleteEntityImmediately(id)
	}
	if len(ids) > 0 {
		w.logger.Debug().Int("count", len(ids)).Msg("processed pending deletions")
	}
	return len(ids)
}
