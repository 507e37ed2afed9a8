package main

import (
	"fmt"
	"math/rand"
	"reflect"

	"github.com/goccy/go-json"

	"github.com/plus3/maskecs/ecs"
)

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p *Position) Serialize() (any, error)       { return p, nil }
func (p *Position) Deserialize(data []byte) error { return json.Unmarshal(data, p) }

type Velocity struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

func (v Velocity) Serialize() (any, error)        { return v, nil }
func (v *Velocity) Deserialize(data []byte) error { return json.Unmarshal(data, v) }

type Health struct {
	Current float64 `json:"current"`
	Max     float64 `json:"max"`
}

func (h *Health) Serialize() (any, error)       { return h, nil }
func (h *Health) Deserialize(data []byte) error { return json.Unmarshal(data, h) }

// Lifetime counts down to the entity's expiry.
type Lifetime struct {
	Remaining float64 `json:"remaining"`
}

func (l *Lifetime) Serialize() (any, error)       { return l, nil }
func (l *Lifetime) Deserialize(data []byte) error { return json.Unmarshal(data, l) }

type Frozen struct{}

func (Frozen) Serialize() (any, error)     { return struct{}{}, nil }
func (*Frozen) Deserialize(_ []byte) error { return nil }

// Tag is a zero-size marker. Each instantiation is a distinct component type.
type Tag[T any] struct{}

func (Tag[T]) Serialize() (any, error)     { return struct{}{}, nil }
func (*Tag[T]) Deserialize(_ []byte) error { return nil }

var tagTypes = []reflect.Type{
	reflect.TypeFor[Tag[[0]byte]](),
	reflect.TypeFor[Tag[[1]byte]](),
	reflect.TypeFor[Tag[[2]byte]](),
	reflect.TypeFor[Tag[[3]byte]](),
	reflect.TypeFor[Tag[[4]byte]](),
	reflect.TypeFor[Tag[[5]byte]](),
	reflect.TypeFor[Tag[[6]byte]](),
	reflect.TypeFor[Tag[[7]byte]](),
	reflect.TypeFor[Tag[[8]byte]](),
	reflect.TypeFor[Tag[[9]byte]](),
	reflect.TypeFor[Tag[[10]byte]](),
	reflect.TypeFor[Tag[[11]byte]](),
	reflect.TypeFor[Tag[[12]byte]](),
	reflect.TypeFor[Tag[[13]byte]](),
	reflect.TypeFor[Tag[[14]byte]](),
	reflect.TypeFor[Tag[[15]byte]](),
}

// Components holds the registered types the stress systems work with.
type Components struct {
	Registry *ecs.ComponentRegistry
	Position *ecs.ComponentType
	Velocity *ecs.ComponentType
	Health   *ecs.ComponentType
	Lifetime *ecs.ComponentType
	Frozen   *ecs.ComponentType
	Tags     []*ecs.ComponentType
}

func registerComponents(tags int) (*Components, error) {
	r := ecs.NewComponentRegistry()
	c := &Components{Registry: r}

	var err error
	if c.Position, err = ecs.RegisterComponent[*Position](r, ecs.WithName("Position")); err != nil {
		return nil, err
	}
	if c.Velocity, err = ecs.RegisterComponent[Velocity](r); err != nil {
		return nil, err
	}
	if c.Health, err = ecs.RegisterComponent[*Health](r, ecs.WithName("Health")); err != nil {
		return nil, err
	}
	if c.Lifetime, err = ecs.RegisterComponent[*Lifetime](r, ecs.WithName("Lifetime")); err != nil {
		return nil, err
	}
	if c.Frozen, err = ecs.RegisterComponent[Frozen](r); err != nil {
		return nil, err
	}
	for i := range tags {
		ct, err := r.Register(tagTypes[i], ecs.WithName(fmt.Sprintf("Tag%d", i)))
		if err != nil {
			return nil, err
		}
		c.Tags = append(c.Tags, ct)
	}
	return c, nil
}

// randomComponents builds a component set for a new entity. Every entity
// moves and ages; health, frost and tags are mixed in at random.
func (c *Components) randomComponents(rng *rand.Rand) []any {
	components := []any{
		&Position{X: rng.Float64() * 1000, Y: rng.Float64() * 1000},
		Velocity{DX: rng.Float64()*2 - 1, DY: rng.Float64()*2 - 1},
		&Lifetime{Remaining: 1 + rng.Float64()*4},
	}
	if rng.Intn(2) == 0 {
		components = append(components, &Health{Current: 100, Max: 100})
	}
	if rng.Intn(10) == 0 {
		components = append(components, Frozen{})
	}
	for _, ct := range c.Tags {
		if rng.Intn(4) == 0 {
			components = append(components, reflect.New(ct.Type()).Elem().Interface())
		}
	}
	return components
}
