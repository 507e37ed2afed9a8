package ecs

import "github.com/kamstrup/intmap"

// entitySet is a sparse set of entity IDs. Membership is an intmap lookup and
// iteration walks a dense slice, so iteration order is deterministic for a
// given sequence of inserts and removals.
type entitySet struct {
	ids []EntityId
	pos *intmap.Map[EntityId, int]
}

func newEntitySet(capacity int) *entitySet {
	return &entitySet{
		ids: make([]EntityId, 0, capacity),
		pos: intmap.New[EntityId, int](capacity),
	}
}

func (s *entitySet) add(id EntityId) bool {
	if _, ok := s.pos.Get(id); ok {
		return false
	}
	s.pos.Put(id, len(s.ids))
	s.ids = append(s.ids, id)
	return true
}

// remove swaps the last element into the removed slot.
func (s *entitySet) remove(id EntityId) bool {
	i, ok := s.pos.Get(id)
	if !ok {
		return false
	}
	last := len(s.ids) - 1
	if i != last {
		moved := s.ids[last]
		s.ids[i] = moved
		s.pos.Put(moved, i)
	}
	s.ids = s.ids[:last]
	s.pos.Del(id)
	return true
}

func (s *entitySet) has(id EntityId) bool {
	_, ok := s.pos.Get(id)
	return ok
}

func (s *entitySet) len() int {
	return len(s.ids)
}

// snapshot returns a copy of the members that stays valid while the set is
// modified.
func (s *entitySet) snapshot() []EntityId {
	out := make([]EntityId, len(s.ids))
	copy(out, s.ids)
	return out
}

func (s *entitySet) clear() {
	for _, id := range s.ids {
		s.pos.Del(id)
	}
	s.ids = s.ids[:0]
}

// componentIndex maps each registered type ordinal to the set of entities
// carrying that type. Sets are created lazily since types may be registered
// after the world is created.
type componentIndex struct {
	sets []*entitySet
}

func (x *componentIndex) set(ct *ComponentType) *entitySet {
	for len(x.sets) <= ct.id {
		x.sets = append(x.sets, nil)
	}
	s := x.sets[ct.id]
	if s == nil {
		s = newEntitySet(0)
		x.sets[ct.id] = s
	}
	return s
}

// peek returns the set for ct without creating it.
func (x *componentIndex) peek(ct *ComponentType) *entitySet {
	if ct.id >= len(x.sets) {
		return nil
	}
	return x.sets[ct.id]
}
