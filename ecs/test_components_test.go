package ecs_test

import (
	"github.com/goccy/go-json"

	"github.com/plus3/maskecs/ecs"
)

// Common test component types
type Position struct {
	X, Y float32
}

type Velocity struct {
	DX, DY float32
}

type Name struct {
	Value string
}

type Health struct {
	Current int
	Max     int
}

type Frozen struct{}

// Custom primitive types for testing non-struct components
type Score int32
type Tag string

// Components for the presence-table scenarios
type A struct{ N int }
type B struct{ N int }
type C struct{ N int }

type testRegistry struct {
	*ecs.ComponentRegistry
	position *ecs.ComponentType
	velocity *ecs.ComponentType
	name     *ecs.ComponentType
	health   *ecs.ComponentType
	frozen   *ecs.ComponentType
	score    *ecs.ComponentType
	tag      *ecs.ComponentType
	pos      *ecs.ComponentType
}

func newTestRegistry() *testRegistry {
	registry := ecs.NewComponentRegistry()
	return &testRegistry{
		ComponentRegistry: registry,
		position:          ecs.MustRegisterComponent[Position](registry),
		velocity:          ecs.MustRegisterComponent[Velocity](registry),
		name:              ecs.MustRegisterComponent[Name](registry),
		health:            ecs.MustRegisterComponent[Health](registry),
		frozen:            ecs.MustRegisterComponent[Frozen](registry),
		score:             ecs.MustRegisterComponent[Score](registry),
		tag:               ecs.MustRegisterComponent[Tag](registry),
		pos:               ecs.MustRegisterComponent[*Position](registry, ecs.WithName("PositionRef")),
	}
}

type abcRegistry struct {
	*ecs.ComponentRegistry
	a, b, c *ecs.ComponentType
}

func newABCRegistry() *abcRegistry {
	registry := ecs.NewComponentRegistry()
	return &abcRegistry{
		ComponentRegistry: registry,
		a:                 ecs.MustRegisterComponent[A](registry),
		b:                 ecs.MustRegisterComponent[B](registry),
		c:                 ecs.MustRegisterComponent[C](registry),
	}
}

// newABCWorld creates the eight entities {}, {A}, {B}, {A,B}, {C}, {A,C},
// {B,C}, {A,B,C}, which get IDs 1 through 8.
func newABCWorld(r *abcRegistry) *ecs.World {
	world := ecs.NewWorld(r.ComponentRegistry)
	for i := 0; i < 8; i++ {
		var components []any
		if i&1 != 0 {
			components = append(components, A{N: i})
		}
		if i&2 != 0 {
			components = append(components, B{N: i})
		}
		if i&4 != 0 {
			components = append(components, C{N: i})
		}
		if _, err := world.NewEntity(components...); err != nil {
			panic(err)
		}
	}
	return world
}

// Serializable components
type SavedPosition struct {
	X, Y float64
}

func (p SavedPosition) Serialize() (any, error) {
	return []float64{p.X, p.Y}, nil
}

func (p *SavedPosition) Deserialize(data []byte) error {
	var xy [2]float64
	if err := json.Unmarshal(data, &xy); err != nil {
		return err
	}
	p.X, p.Y = xy[0], xy[1]
	return nil
}

type SavedName string

func (n SavedName) Serialize() (any, error) {
	return string(n), nil
}

func (n *SavedName) Deserialize(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*n = SavedName(s)
	return nil
}

type SavedInventory struct {
	Items []string `json:"items"`
	Gold  int      `json:"gold"`
}

func (i *SavedInventory) Serialize() (any, error) {
	return i, nil
}

func (i *SavedInventory) Deserialize(data []byte) error {
	return json.Unmarshal(data, i)
}

type savedRegistry struct {
	*ecs.ComponentRegistry
	position  *ecs.ComponentType
	name      *ecs.ComponentType
	inventory *ecs.ComponentType
}

func newSavedRegistry() *savedRegistry {
	registry := ecs.NewComponentRegistry()
	return &savedRegistry{
		ComponentRegistry: registry,
		position:          ecs.MustRegisterComponent[SavedPosition](registry),
		name:              ecs.MustRegisterComponent[SavedName](registry),
		inventory:         ecs.MustRegisterComponent[*SavedInventory](registry, ecs.WithName("Inventory")),
	}
}
