package ecs

// System represents a behavior that operates on entities with specific components.
// User-defined systems should implement this interface and can include *Query fields
// for accessing entities, as well as custom state fields that persist between frames.
//
// Query fields tagged with `ecs:"..."` are built by the Scheduler on registration,
// and Singleton fields are bound to the scheduler's world.
// The tag lists component names separated by commas, optionally followed by a
// filter after a semicolon:
//
//	type Movement struct {
//		Moving *ecs.Query `ecs:"Position,Velocity;~Frozen"`
//	}
type System interface {
	Execute(frame *UpdateFrame) error
}

// SystemFunc adapts a function to the System interface.
type SystemFunc func(frame *UpdateFrame) error

func (f SystemFunc) Execute(frame *UpdateFrame) error {
	return f(frame)
}
