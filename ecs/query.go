package ecs

import (
	"iter"
	"strings"
)

// Query selects the entities carrying every one of a list of component types,
// optionally narrowed by a filter expression. Each match yields the entity ID
// and its components in the order the types were given.
//
// A query with no types matches no entities. Neither does a query given a
// type or filter term from a registry other than the world's; Err reports
// why. Mutating the world while an iterator from a query is in use is not
// supported.
type Query struct {
	world  *World
	types  []*ComponentType
	filter Expr
	err    error
}

// NewQuery creates a query over w for entities that have all of types.
func NewQuery(w *World, types ...*ComponentType) *Query {
	q := &Query{
		world:  w,
		types:  types,
		filter: True(),
	}
	for _, ct := range types {
		if err := w.registry.owns(ct); err != nil {
			q.err = err
			break
		}
	}
	return q
}

// Filter narrows the query by t. Calling Filter again ANDs the new term with
// the existing filter.
func (q *Query) Filter(t Term) *Query {
	e := t.expr()
	if err := q.world.registry.ownsAll(e); err != nil && q.err == nil {
		q.err = err
	}
	q.filter = And(q.filter, e)
	return q
}

// Err returns the error that left the query empty, if any.
func (q *Query) Err() error { return q.err }

// Iter evaluates the filter by walking the expression for each candidate.
func (q *Query) Iter() iter.Seq2[EntityId, []any] {
	if q.err != nil {
		return func(func(EntityId, []any) bool) {}
	}
	var match func(Bitmask) bool
	if q.filter.Kind() != KindTrue {
		match = q.filter.Matches
	}
	return scan(q.world, q.types, match)
}

// Count returns the number of entities the query currently matches.
func (q *Query) Count() int {
	return count(q.Iter())
}

// Compile returns an immutable query whose filter has been compiled to
// clause form.
func (q *Query) Compile() *CompiledQuery {
	cq := &CompiledQuery{
		world: q.world,
		types: append([]*ComponentType(nil), q.types...),
		err:   q.err,
	}
	if q.filter.Kind() != KindTrue {
		cq.filter = CompileFilter(q.filter)
	}
	return cq
}

func (q *Query) String() string {
	return describe("Query", q.types, q.filter)
}

// CompiledQuery is a Query with a precompiled filter. It cannot be filtered
// further.
type CompiledQuery struct {
	world  *World
	types  []*ComponentType
	filter *Filter
	err    error
}

// Err returns the error carried over from the query it was compiled from.
func (q *CompiledQuery) Err() error { return q.err }

// Iter iterates matching entities.
func (q *CompiledQuery) Iter() iter.Seq2[EntityId, []any] {
	if q.err != nil {
		return func(func(EntityId, []any) bool) {}
	}
	var match func(Bitmask) bool
	if q.filter != nil {
		match = q.filter.Matches
	}
	return scan(q.world, q.types, match)
}

// Count returns the number of entities the query currently matches.
func (q *CompiledQuery) Count() int {
	return count(q.Iter())
}

func (q *CompiledQuery) String() string {
	filter := True()
	if q.filter != nil {
		filter = q.filter.Expr()
	}
	return describe("CompiledQuery", q.types, filter)
}

// scan yields the requested components of each match in request order.
func scan(w *World, types []*ComponentType, match func(Bitmask) bool) iter.Seq2[EntityId, []any] {
	return func(yield func(EntityId, []any) bool) {
		for id, rec := range matches(w, types, match) {
			row := make([]any, len(types))
			for i, ct := range types {
				row[i] = rec.components[ct]
			}
			if !yield(id, row) {
				return
			}
		}
	}
}

// matches intersects the type indices, walking the smallest set and probing
// the others, and applies match to each candidate's mask.
func matches(w *World, types []*ComponentType, match func(Bitmask) bool) iter.Seq2[EntityId, *entityRecord] {
	return func(yield func(EntityId, *entityRecord) bool) {
		if len(types) == 0 {
			return
		}

		sets := make([]*entitySet, len(types))
		smallest := 0
		for i, ct := range types {
			s := w.index.peek(ct)
			if s == nil || s.len() == 0 {
				return
			}
			sets[i] = s
			if s.len() < sets[smallest].len() {
				smallest = i
			}
		}
		driver := sets[smallest]

	candidates:
		for _, id := range driver.ids {
			for i, s := range sets {
				if i != smallest && !s.has(id) {
					continue candidates
				}
			}
			rec, ok := w.records.Get(id)
			if !ok {
				continue
			}
			if match != nil && !match(rec.mask) {
				continue
			}
			if !yield(id, rec) {
				return
			}
		}
	}
}

func count[V any](seq iter.Seq2[EntityId, V]) int {
	n := 0
	for range seq {
		n++
	}
	return n
}

func describe(kind string, types []*ComponentType, filter Expr) string {
	names := make([]string, len(types))
	for i, ct := range types {
		names[i] = ct.name
	}
	var sb strings.Builder
	sb.WriteString(kind)
	sb.WriteByte('(')
	sb.WriteString(strings.Join(names, ", "))
	sb.WriteByte(')')
	if filter.Kind() != KindTrue {
		sb.WriteString(".Filter(")
		sb.WriteString(filter.String())
		sb.WriteByte(')')
	}
	return sb.String()
}
