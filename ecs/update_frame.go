package ecs

// UpdateFrame is passed to every system during one scheduler tick.
type UpdateFrame struct {
	DeltaTime float64
	Tick      uint64
	Commands  *Commands
	World     *World
}

func newUpdateFrame(dt float64, tick uint64, world *World) *UpdateFrame {
	return &UpdateFrame{
		DeltaTime: dt,
		Tick:      tick,
		Commands:  NewCommands(),
		World:     world,
	}
}
