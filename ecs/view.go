package ecs

import (
	"iter"
	"reflect"

	"github.com/rotisserie/eris"
)

// View is a typed projection of entities onto a struct. Each field of T must
// have a registered component type. Embedded fields are always required;
// named fields can be marked as optional using the `ecs:"optional"` struct tag
// and hold their zero value when the component is absent.
type View[T any] struct {
	world    *World
	fields   []viewField
	required []*ComponentType
	filter   Expr
	err      error
}

type viewField struct {
	index    int
	ct       *ComponentType
	optional bool
}

// NewView creates a view over w for the struct type T.
func NewView[T any](w *World) (*View[T], error) {
	structType := reflect.TypeFor[T]()
	if structType.Kind() != reflect.Struct {
		return nil, eris.Errorf("view type %s must be a struct", structType)
	}

	v := &View[T]{world: w, filter: True()}
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if !field.IsExported() {
			return nil, eris.Errorf("view field %s must be exported", field.Name)
		}
		ct, ok := w.registry.types.lookup(field.Type)
		if !ok {
			return nil, eris.Wrapf(ErrComponentNotRegistered, "view field %s of type %s", field.Name, field.Type)
		}

		optional := false
		if tag := field.Tag.Get("ecs"); tag != "" {
			if tag != "optional" {
				return nil, eris.Errorf("invalid ecs tag value %q on field %s (only \"optional\" is supported)", tag, field.Name)
			}
			if field.Anonymous {
				return nil, eris.Errorf("embedded field %s cannot be optional", field.Name)
			}
			optional = true
		}

		v.fields = append(v.fields, viewField{index: i, ct: ct, optional: optional})
		if !optional {
			v.required = append(v.required, ct)
		}
	}
	if len(v.required) == 0 {
		return nil, eris.Errorf("view type %s has no required components", structType)
	}
	return v, nil
}

// Filter narrows the view. Repeated calls AND the terms together.
// A term from another registry leaves the view empty; see Err.
func (v *View[T]) Filter(t Term) *View[T] {
	e := t.expr()
	if err := v.world.registry.ownsAll(e); err != nil && v.err == nil {
		v.err = err
	}
	v.filter = And(v.filter, e)
	return v
}

// Err returns the error that left the view empty, if any.
func (v *View[T]) Err() error { return v.err }

func (v *View[T]) fill(rec *entityRecord) T {
	var result T
	out := reflect.ValueOf(&result).Elem()
	for _, f := range v.fields {
		c, ok := rec.components[f.ct]
		if !ok {
			continue
		}
		out.Field(f.index).Set(reflect.ValueOf(c))
	}
	return result
}

func (v *View[T]) accepts(rec *entityRecord) bool {
	if v.err != nil {
		return false
	}
	for _, ct := range v.required {
		if !rec.mask.Has(ct.id) {
			return false
		}
	}
	return v.filter.Matches(rec.mask)
}

// Get returns the view struct for one entity, or false if the entity does not
// exist or lacks a required component.
func (v *View[T]) Get(id EntityId) (T, bool) {
	rec, ok := v.world.records.Get(id)
	if !ok || !v.accepts(rec) {
		var zero T
		return zero, false
	}
	return v.fill(rec), true
}

// Iter returns an iterator over all entities that have all the required components for this view.
func (v *View[T]) Iter() iter.Seq2[EntityId, T] {
	var match func(Bitmask) bool
	if v.filter.Kind() != KindTrue {
		match = v.filter.Matches
	}
	return func(yield func(EntityId, T) bool) {
		if v.err != nil {
			return
		}
		for id, rec := range matches(v.world, v.required, match) {
			if !yield(id, v.fill(rec)) {
				return
			}
		}
	}
}

// Values returns an iterator over just the view structs.
func (v *View[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, value := range v.Iter() {
			if !yield(value) {
				return
			}
		}
	}
}

// Spawn creates a new entity with components extracted from the view struct.
// Optional fields holding their zero value are left out.
func (v *View[T]) Spawn(data T) (EntityId, error) {
	in := reflect.ValueOf(data)
	components := make([]any, 0, len(v.fields))
	for _, f := range v.fields {
		field := in.Field(f.index)
		if f.optional && field.IsZero() {
			continue
		}
		components = append(components, field.Interface())
	}
	return v.world.NewEntity(components...)
}
