package ecs

import "strconv"

// EntityId identifies an entity within a World. IDs are assigned from a
// per-world counter starting at 1 and are never reused.
type EntityId uint64

// NoEntity is the zero EntityId. It never identifies a live entity.
const NoEntity EntityId = 0

func (e EntityId) String() string {
	return strconv.FormatUint(uint64(e), 10)
}

// entityRecord holds the components of a single entity. The mask always has
// exactly the bits of the types present in components.
type entityRecord struct {
	components map[*ComponentType]any
	mask       Bitmask
}

func newEntityRecord(n int) *entityRecord {
	return &entityRecord{components: make(map[*ComponentType]any, n)}
}

func (r *entityRecord) put(ct *ComponentType, value any) {
	r.components[ct] = value
	r.mask = r.mask.Or(ct.bit)
}

func (r *entityRecord) remove(ct *ComponentType) {
	delete(r.components, ct)
	r.mask = r.mask.AndNot(ct.bit)
}
