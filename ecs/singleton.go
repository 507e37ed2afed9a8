package ecs

import "reflect"

// Singleton provides access to a single value that is not associated with
// any entity. Use this for global simulation state or configuration shared by
// systems. Singleton values are stored per World by type and are not part of
// snapshots.
type Singleton[T any] struct {
	world *World
	value *T
}

// NewSingleton creates a new Singleton accessor for the given world.
// If initializer is provided and the singleton doesn't exist yet, it is
// created with the initializer value. Otherwise a zero value is used.
// This guarantees the singleton exists after the call.
func NewSingleton[T any](w *World, initializer ...T) *Singleton[T] {
	s := &Singleton[T]{}
	s.bind(w)
	if s.value == nil {
		var value T
		if len(initializer) > 0 {
			value = initializer[0]
		}
		s.value = &value
		w.singletons[reflect.TypeFor[T]()] = s.value
	}
	return s
}

// bind attaches the accessor to a world. The Scheduler calls this for
// Singleton fields of registered systems.
func (s *Singleton[T]) bind(w *World) {
	s.world = w
	s.value = nil
	if p, ok := w.singletons[reflect.TypeFor[T]()]; ok {
		s.value = p.(*T)
	}
}

// Get returns a pointer to the singleton value, or nil if it has not been
// created in the world.
func (s *Singleton[T]) Get() *T {
	if s.value == nil && s.world != nil {
		s.bind(s.world)
	}
	return s.value
}

// Exists reports whether the singleton has been created in the world.
func (s *Singleton[T]) Exists() bool {
	return s.Get() != nil
}

// Set replaces the singleton value, creating it if needed.
func (s *Singleton[T]) Set(value T) {
	if p := s.Get(); p != nil {
		*p = value
		return
	}
	s.value = &value
	s.world.singletons[reflect.TypeFor[T]()] = s.value
}

type worldBinder interface {
	bind(w *World)
}

// ReadSingleton sets *target to the singleton of type T, where target is a
// **T. It reports false and leaves target untouched if no such singleton
// exists.
func (w *World) ReadSingleton(target any) bool {
	out := reflect.ValueOf(target)
	if out.Kind() != reflect.Pointer || out.IsNil() || out.Elem().Kind() != reflect.Pointer {
		return false
	}
	p, ok := w.singletons[out.Elem().Type().Elem()]
	if !ok {
		return false
	}
	out.Elem().Set(reflect.ValueOf(p))
	return true
}
