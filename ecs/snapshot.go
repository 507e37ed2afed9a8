package ecs

import (
	"reflect"
	"slices"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
)

// Snapshot is the portable form of a World. Types lists the names of the
// component types present in the world, in registration order, and each
// entity maps an index into Types to that component's serialized value.
type Snapshot struct {
	Types    []string                             `json:"types"`
	Entities map[EntityId]map[int]json.RawMessage `json:"entities"`
}

// Snapshot serializes every entity of the world. It fails unless every
// registered component type is serializable.
func (w *World) Snapshot() (*Snapshot, error) {
	if !w.registry.Serializable() {
		return nil, eris.Wrapf(ErrSerializationUnavailable, "world %s", w.name)
	}

	slots := make(map[*ComponentType]int)
	for _, ct := range w.registry.Types() {
		if s := w.index.peek(ct); s != nil && s.len() > 0 {
			slots[ct] = len(slots)
		}
	}
	snap := &Snapshot{
		Types:    make([]string, len(slots)),
		Entities: make(map[EntityId]map[int]json.RawMessage, w.alive.len()),
	}
	for ct, slot := range slots {
		snap.Types[slot] = ct.name
	}

	for _, id := range w.alive.ids {
		rec, _ := w.records.Get(id)
		encoded := make(map[int]json.RawMessage, len(rec.components))
		for ct, value := range rec.components {
			data, err := serialize(value)
			if err != nil {
				return nil, eris.Wrapf(err, "serializing %s of entity %d", ct.name, id)
			}
			encoded[slots[ct]] = data
		}
		snap.Entities[id] = encoded
	}
	return snap, nil
}

// Restore builds a new World from a snapshot. Entity IDs are preserved and
// the new world assigns IDs above the highest restored one. A snapshot that
// names a type twice is rejected with ErrDuplicateComponentType.
func Restore(registry *ComponentRegistry, snap *Snapshot, opts ...WorldOption) (*World, error) {
	if !registry.Serializable() {
		return nil, eris.Wrap(ErrSerializationUnavailable, "restoring snapshot")
	}

	types := make([]*ComponentType, len(snap.Types))
	for i, name := range snap.Types {
		ct, err := registry.Lookup(name)
		if err != nil {
			return nil, eris.Wrapf(ErrUnknownSerializedType, "component %q: %v", name, err)
		}
		if slices.Contains(types[:i], ct) {
			return nil, eris.Wrapf(ErrDuplicateComponentType, "snapshot lists component %q more than once", name)
		}
		types[i] = ct
	}

	ids := make([]EntityId, 0, len(snap.Entities))
	for id := range snap.Entities {
		if id == NoEntity {
			return nil, eris.New("snapshot contains the zero entity ID")
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)

	w := NewWorld(registry, append([]WorldOption{WithCapacity(len(ids))}, opts...)...)
	for _, id := range ids {
		encoded := snap.Entities[id]
		rec := newEntityRecord(len(encoded))
		for slot, data := range encoded {
			if slot < 0 || slot >= len(types) {
				return nil, eris.Wrapf(ErrUnknownSerializedType, "entity %d references type index %d", id, slot)
			}
			ct := types[slot]
			value, err := deserialize(ct, data)
			if err != nil {
				return nil, eris.Wrapf(err, "deserializing %s of entity %d", ct.name, id)
			}
			rec.put(ct, value)
		}
		w.insert(id, rec)
	}
	if len(ids) > 0 {
		w.nextId = ids[len(ids)-1] + 1
	}
	return w, nil
}

// insert stores a fully built record under id and indexes it.
func (w *World) insert(id EntityId, rec *entityRecord) {
	for ct := range rec.components {
		w.index.set(ct).add(id)
	}
	w.records.Put(id, rec)
	w.alive.add(id)
}

// Encode renders the snapshot as JSON.
func (s *Snapshot) Encode() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, eris.Wrap(err, "encoding snapshot")
	}
	return data, nil
}

// DecodeSnapshot parses JSON produced by Snapshot.Encode.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	snap := &Snapshot{}
	if err := json.Unmarshal(data, snap); err != nil {
		return nil, eris.Wrap(err, "decoding snapshot")
	}
	if snap.Entities == nil {
		snap.Entities = make(map[EntityId]map[int]json.RawMessage)
	}
	return snap, nil
}

func serialize(value any) (json.RawMessage, error) {
	s, ok := value.(Serializer)
	if !ok {
		ptr := reflect.New(reflect.TypeOf(value))
		ptr.Elem().Set(reflect.ValueOf(value))
		s = ptr.Interface().(Serializer)
	}
	out, err := s.Serialize()
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, eris.Wrap(err, "encoding component")
	}
	return data, nil
}

func deserialize(ct *ComponentType, data []byte) (any, error) {
	t := ct.rtype
	if t.Kind() == reflect.Pointer && t.Implements(deserializerType) {
		ptr := reflect.New(t.Elem())
		if err := ptr.Interface().(Deserializer).Deserialize(data); err != nil {
			return nil, err
		}
		return ptr.Interface(), nil
	}
	ptr := reflect.New(t)
	if err := ptr.Interface().(Deserializer).Deserialize(data); err != nil {
		return nil, err
	}
	return ptr.Elem().Interface(), nil
}
