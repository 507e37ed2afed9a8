package ecs

import (
	"iter"

	"github.com/rotisserie/eris"
)

// ComponentView is a read-only view of one entity's components. It reflects
// later changes to the entity and must not be used after the entity is
// deleted.
type ComponentView struct {
	rec      *entityRecord
	registry *ComponentRegistry
}

// Len returns the number of components.
func (v ComponentView) Len() int {
	if v.rec == nil {
		return 0
	}
	return len(v.rec.components)
}

// Get returns the component of the given type.
func (v ComponentView) Get(ct *ComponentType) (any, bool) {
	if v.rec == nil {
		return nil, false
	}
	c, ok := v.rec.components[ct]
	return c, ok
}

// Has reports whether a component of the given type is present.
func (v ComponentView) Has(ct *ComponentType) bool {
	_, ok := v.Get(ct)
	return ok
}

// Mask returns the presence bitmask.
func (v ComponentView) Mask() Bitmask {
	if v.rec == nil {
		return Bitmask{}
	}
	return v.rec.mask
}

// All iterates the components in registration order of their types.
func (v ComponentView) All() iter.Seq2[*ComponentType, any] {
	return func(yield func(*ComponentType, any) bool) {
		if v.rec == nil {
			return
		}
		mask := v.rec.mask
		for n := range mask.Len() {
			if !mask.Has(n) {
				continue
			}
			ct := v.registry.At(n)
			if !yield(ct, v.rec.components[ct]) {
				return
			}
		}
	}
}

// Get returns the component of type T attached to an entity.
func Get[T any](w *World, id EntityId) (T, error) {
	var zero T
	ct, err := TypeFor[T](w.registry)
	if err != nil {
		return zero, err
	}
	c, err := w.EntityComponent(id, ct)
	if err != nil {
		return zero, err
	}
	v, ok := c.(T)
	if !ok {
		return zero, eris.Errorf("component %s has unexpected type %T", ct.name, c)
	}
	return v, nil
}
