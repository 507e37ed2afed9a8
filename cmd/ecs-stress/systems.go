package main

import (
	"math/rand"

	"github.com/rotisserie/eris"

	"github.com/plus3/maskecs/ecs"
)

type MovementSystem struct {
	Entities *ecs.Query `ecs:"Position,Velocity"`
}

func (s *MovementSystem) Execute(frame *ecs.UpdateFrame) error {
	for _, row := range s.Entities.Iter() {
		pos, vel := row[0].(*Position), row[1].(Velocity)
		pos.X += vel.DX * frame.DeltaTime
		pos.Y += vel.DY * frame.DeltaTime
	}
	return nil
}

type DamageSystem struct {
	Entities *ecs.Query `ecs:"Health"`
	Rate     float64
}

func (s *DamageSystem) Execute(frame *ecs.UpdateFrame) error {
	for _, row := range s.Entities.Iter() {
		row[0].(*Health).Current -= s.Rate * frame.DeltaTime
	}
	return nil
}

// AgingSystem expires entities whose lifetime has run out and spawns a
// replacement for each, keeping the population steady.
type AgingSystem struct {
	Entities   *ecs.Query `ecs:"Lifetime"`
	Components *Components
	Rng        *rand.Rand
}

func (s *AgingSystem) Execute(frame *ecs.UpdateFrame) error {
	for id, row := range s.Entities.Iter() {
		life := row[0].(*Lifetime)
		life.Remaining -= frame.DeltaTime
		if life.Remaining <= 0 {
			frame.Commands.Delete(id)
			frame.Commands.Spawn(s.Components.randomComponents(s.Rng)...)
		}
	}
	return nil
}

// FreezerSystem toggles the Frozen marker on a random share of entities.
type FreezerSystem struct {
	Entities   *ecs.Query `ecs:"Position"`
	Components *Components
	Rng        *rand.Rand
	Chance     float64
}

func (s *FreezerSystem) Execute(frame *ecs.UpdateFrame) error {
	for id := range s.Entities.Iter() {
		if s.Rng.Float64() >= s.Chance {
			continue
		}
		frozen, err := frame.World.HasComponent(id, s.Components.Frozen)
		if err != nil {
			return err
		}
		if frozen {
			frame.Commands.RemoveComponent(id, s.Components.Frozen)
		} else {
			frame.Commands.AddComponent(id, Frozen{})
		}
	}
	return nil
}

// ReaperSystem schedules entities without health left for deletion as soon
// as they are found. The scheduler removes them at the end of the tick.
type ReaperSystem struct {
	Entities *ecs.CompiledQuery `ecs:"Health"`
	Reaped   int
}

func (s *ReaperSystem) Execute(frame *ecs.UpdateFrame) error {
	for id, row := range s.Entities.Iter() {
		if row[0].(*Health).Current <= 0 {
			frame.World.ScheduleForDeletion(id)
			s.Reaped++
		}
	}
	return nil
}

type systemFactory func(c *Components, rng *rand.Rand, cfg *Config) ecs.System

var systemKinds = map[string]systemFactory{
	"movement": func(*Components, *rand.Rand, *Config) ecs.System { return &MovementSystem{} },
	"damage":   func(*Components, *rand.Rand, *Config) ecs.System { return &DamageSystem{Rate: 10} },
	"aging": func(c *Components, rng *rand.Rand, _ *Config) ecs.System {
		return &AgingSystem{Components: c, Rng: rng}
	},
	"freezer": func(c *Components, rng *rand.Rand, cfg *Config) ecs.System {
		return &FreezerSystem{Components: c, Rng: rng, Chance: cfg.Run.FreezeChance}
	},
	"reaper": func(*Components, *rand.Rand, *Config) ecs.System { return &ReaperSystem{} },
}

// registerSystems creates the configured systems and narrows each one's query
// with its configured filter.
func registerSystems(scheduler *ecs.Scheduler, c *Components, rng *rand.Rand, cfg *Config) error {
	for i, sc := range cfg.Systems {
		system := systemKinds[sc.Kind](c, rng, cfg)
		if err := scheduler.Register(system); err != nil {
			return err
		}
		if sc.Filter == "" {
			continue
		}
		filter, err := ecs.ParseFilter(c.Registry, sc.Filter)
		if err != nil {
			return eris.Wrapf(err, "systems[%d] (%s)", i, sc.Kind)
		}
		if err := narrow(system, scheduler, c, filter); err != nil {
			return eris.Wrapf(err, "systems[%d] (%s)", i, sc.Kind)
		}
	}
	return nil
}

func narrow(system ecs.System, scheduler *ecs.Scheduler, c *Components, filter ecs.Expr) error {
	switch s := system.(type) {
	case *MovementSystem:
		s.Entities.Filter(filter)
	case *DamageSystem:
		s.Entities.Filter(filter)
	case *AgingSystem:
		s.Entities.Filter(filter)
	case *FreezerSystem:
		s.Entities.Filter(filter)
	case *ReaperSystem:
		// Compiled queries cannot be narrowed further
		s.Entities = ecs.NewQuery(scheduler.World(), c.Health).Filter(filter).Compile()
	default:
		return eris.Errorf("system %T does not take a filter", system)
	}
	return nil
}
