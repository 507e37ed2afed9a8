package ecs_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/plus3/maskecs/ecs"
)

func maskOf(bits ...int) ecs.Bitmask {
	var m ecs.Bitmask
	for _, b := range bits {
		m = m.Or(ecs.BitAt(b))
	}
	return m
}

func TestBitmask(t *testing.T) {
	t.Run("zero value is empty", func(t *testing.T) {
		var m ecs.Bitmask
		assert.True(t, m.IsZero())
		assert.Equal(t, 0, m.Count())
		assert.Equal(t, 0, m.Len())
		assert.Equal(t, "0", m.String())
	})

	t.Run("set operations", func(t *testing.T) {
		ab := maskOf(0, 1)
		bc := maskOf(1, 2)

		assert.True(t, ab.Or(bc).Equal(maskOf(0, 1, 2)))
		assert.True(t, ab.And(bc).Equal(maskOf(1)))
		assert.True(t, ab.AndNot(bc).Equal(maskOf(0)))
		assert.True(t, ab.Intersects(bc))
		assert.False(t, maskOf(0).Intersects(maskOf(2)))
		assert.True(t, maskOf(0, 1, 2).ContainsAll(ab))
		assert.False(t, ab.ContainsAll(bc))
		assert.Equal(t, "111", ab.Or(bc).String())
	})

	t.Run("operands are not modified", func(t *testing.T) {
		a := maskOf(3)
		b := maskOf(5)
		_ = a.Or(b)
		_ = a.AndNot(a)
		assert.True(t, a.Equal(maskOf(3)))
		assert.True(t, b.Equal(maskOf(5)))
	})

	t.Run("clearing the top bit", func(t *testing.T) {
		m := maskOf(1, 130).AndNot(maskOf(130))
		assert.True(t, m.Equal(maskOf(1)))
		assert.True(t, maskOf(1).Equal(m))
		assert.False(t, m.Equal(maskOf(1, 130)))
		assert.True(t, m.Or(maskOf(2)).Equal(maskOf(2, 1)))
		assert.Equal(t, 2, m.Len())
		assert.True(t, maskOf(130).AndNot(maskOf(130)).IsZero())
	})

	t.Run("grows past one word", func(t *testing.T) {
		for _, n := range []int{0, 63, 64, 65, 127, 128, 200} {
			t.Run(fmt.Sprintf("bit=%d", n), func(t *testing.T) {
				m := ecs.BitAt(n)
				assert.True(t, m.Has(n))
				assert.False(t, m.Has(n+1))
				assert.Equal(t, 1, m.Count())
				assert.Equal(t, n+1, m.Len())
			})
		}
	})

	t.Run("masked equal", func(t *testing.T) {
		m := maskOf(0, 2, 70)
		assert.True(t, m.MaskedEqual(maskOf(0, 1), maskOf(0)))
		assert.False(t, m.MaskedEqual(maskOf(0, 1), maskOf(0, 1)))
		assert.True(t, m.MaskedEqual(maskOf(70, 71), maskOf(70)))
		assert.True(t, m.MaskedEqual(ecs.Bitmask{}, ecs.Bitmask{}))
		assert.True(t, ecs.Bitmask{}.MaskedEqual(maskOf(90), ecs.Bitmask{}))
	})

	t.Run("for each visits bits in order", func(t *testing.T) {
		var seen []int
		maskOf(64, 3, 0, 129).ForEach(func(n int) {
			seen = append(seen, n)
		})
		assert.Equal(t, []int{0, 3, 64, 129}, seen)
	})
}
