package ecs

// appendOnlyIndex assigns each inserted key the next sequential ordinal.
// Keys can be added and looked up, never updated or removed.
type appendOnlyIndex[K comparable, V any] struct {
	ordinals map[K]int
	values   []V
}

func newAppendOnlyIndex[K comparable, V any]() *appendOnlyIndex[K, V] {
	return &appendOnlyIndex[K, V]{ordinals: make(map[K]int)}
}

// add inserts key with the value built from its ordinal. It returns false and
// leaves the index untouched if key is already present.
func (x *appendOnlyIndex[K, V]) add(key K, build func(ordinal int) V) (V, bool) {
	if _, ok := x.ordinals[key]; ok {
		var zero V
		return zero, false
	}
	ordinal := len(x.values)
	v := build(ordinal)
	x.ordinals[key] = ordinal
	x.values = append(x.values, v)
	return v, true
}

func (x *appendOnlyIndex[K, V]) lookup(key K) (V, bool) {
	ordinal, ok := x.ordinals[key]
	if !ok {
		var zero V
		return zero, false
	}
	return x.values[ordinal], true
}

func (x *appendOnlyIndex[K, V]) at(ordinal int) V {
	return x.values[ordinal]
}

func (x *appendOnlyIndex[K, V]) len() int {
	return len(x.values)
}
