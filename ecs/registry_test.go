package ecs_test

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/maskecs/ecs"
)

type halfSerializer struct{}

func (halfSerializer) Serialize() (any, error) { return nil, nil }

type halfDeserializer struct{}

func (*halfDeserializer) Deserialize([]byte) error { return nil }

type otherSavedName string

func (n otherSavedName) Serialize() (any, error) { return string(n), nil }

func (n *otherSavedName) Deserialize([]byte) error { return nil }

func TestRegisterComponent(t *testing.T) {
	t.Run("assigns bits in registration order", func(t *testing.T) {
		r := newABCRegistry()
		assert.Equal(t, 0, r.a.ID())
		assert.Equal(t, 1, r.b.ID())
		assert.Equal(t, 2, r.c.ID())
		assert.Equal(t, "1", r.a.Bit().String())
		assert.Equal(t, "10", r.b.Bit().String())
		assert.Equal(t, "100", r.c.Bit().String())
		assert.Equal(t, 3, r.Len())
		assert.Equal(t, []*ecs.ComponentType{r.a, r.b, r.c}, r.Types())
	})

	t.Run("rejects duplicate registration", func(t *testing.T) {
		r := newABCRegistry()
		_, err := ecs.RegisterComponent[A](r.ComponentRegistry)
		assert.True(t, eris.Is(err, ecs.ErrDuplicateRegistration))
		assert.Equal(t, 3, r.Len())
	})

	t.Run("value and pointer types are distinct", func(t *testing.T) {
		r := ecs.NewComponentRegistry()
		value := ecs.MustRegisterComponent[Position](r)
		pointer := ecs.MustRegisterComponent[*Position](r)
		assert.NotEqual(t, value.ID(), pointer.ID())
		assert.Equal(t, "*ecs_test.Position", pointer.Name())
	})

	t.Run("rejects asymmetric serialization", func(t *testing.T) {
		for name, register := range map[string]func(*ecs.ComponentRegistry) error{
			"serialize only": func(r *ecs.ComponentRegistry) error {
				_, err := ecs.RegisterComponent[halfSerializer](r)
				return err
			},
			"deserialize only": func(r *ecs.ComponentRegistry) error {
				_, err := ecs.RegisterComponent[halfDeserializer](r)
				return err
			},
		} {
			t.Run(name, func(t *testing.T) {
				r := ecs.NewComponentRegistry()
				err := register(r)
				assert.True(t, eris.Is(err, ecs.ErrAsymmetricSerialization))
				assert.Equal(t, 0, r.Len())
			})
		}
	})

	t.Run("rejects mixed serializability", func(t *testing.T) {
		r := ecs.NewComponentRegistry()
		ecs.MustRegisterComponent[SavedPosition](r)
		_, err := ecs.RegisterComponent[Position](r)
		assert.True(t, eris.Is(err, ecs.ErrInconsistentSerializability))

		r = ecs.NewComponentRegistry()
		ecs.MustRegisterComponent[Position](r)
		_, err = ecs.RegisterComponent[SavedPosition](r)
		assert.True(t, eris.Is(err, ecs.ErrInconsistentSerializability))
		assert.False(t, r.Serializable())
	})

	t.Run("serializable names must be unique", func(t *testing.T) {
		r := ecs.NewComponentRegistry()
		ecs.MustRegisterComponent[SavedName](r)
		_, err := ecs.RegisterComponent[otherSavedName](r, ecs.WithName("SavedName"))
		assert.True(t, eris.Is(err, ecs.ErrDuplicateName))
		assert.True(t, r.Serializable())
	})

	t.Run("non-serializable names may repeat", func(t *testing.T) {
		r := ecs.NewComponentRegistry()
		ecs.MustRegisterComponent[A](r, ecs.WithName("Thing"))
		ecs.MustRegisterComponent[B](r, ecs.WithName("Thing"))
		_, err := r.Lookup("Thing")
		assert.True(t, eris.Is(err, ecs.ErrAmbiguousComponentName))
	})

	t.Run("must register panics on error", func(t *testing.T) {
		r := ecs.NewComponentRegistry()
		ecs.MustRegisterComponent[A](r)
		assert.Panics(t, func() { ecs.MustRegisterComponent[A](r) })
	})
}

func TestRegistryLookup(t *testing.T) {
	r := newTestRegistry()

	ct, err := r.Lookup("Velocity")
	require.NoError(t, err)
	assert.Same(t, r.velocity, ct)

	ct, err = r.Lookup("PositionRef")
	require.NoError(t, err)
	assert.Same(t, r.pos, ct)

	_, err = r.Lookup("Missing")
	assert.True(t, eris.Is(err, ecs.ErrComponentNotRegistered))

	ct, err = r.TypeOf(Score(3))
	require.NoError(t, err)
	assert.Same(t, r.score, ct)

	ct, err = r.TypeOf(&Position{})
	require.NoError(t, err)
	assert.Same(t, r.pos, ct)

	_, err = r.TypeOf(int64(1))
	assert.True(t, eris.Is(err, ecs.ErrComponentNotRegistered))

	_, err = r.TypeOf(nil)
	assert.True(t, eris.Is(err, ecs.ErrComponentNotRegistered))

	ct, err = ecs.TypeFor[Health](r.ComponentRegistry)
	require.NoError(t, err)
	assert.Same(t, r.health, ct)
	assert.Same(t, r.health, r.At(r.health.ID()))
}

func TestIndependentRegistries(t *testing.T) {
	first := ecs.NewComponentRegistry()
	second := ecs.NewComponentRegistry()

	ecs.MustRegisterComponent[A](first)
	b := ecs.MustRegisterComponent[B](second)
	a := ecs.MustRegisterComponent[A](second)

	assert.Equal(t, 0, b.ID())
	assert.Equal(t, 1, a.ID())
	assert.Equal(t, 1, first.Len())
	assert.Same(t, second, a.Registry())
}
