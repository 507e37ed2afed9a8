package ecs

// WorldStats summarizes the contents of a World.
type WorldStats struct {
	EntityCount     int
	PendingCount    int
	SingletonCount  int
	NextEntityId    EntityId
	ComponentCounts []ComponentCount
}

// ComponentCount is the number of entities carrying one component type.
type ComponentCount struct {
	Name  string
	Count int
}

// CollectStats gathers statistics about the world. Types that no entity has
// are omitted from ComponentCounts.
func (w *World) CollectStats() *WorldStats {
	stats := &WorldStats{
		EntityCount:    w.alive.len(),
		PendingCount:   w.pendingLen(),
		SingletonCount: len(w.singletons),
		NextEntityId:   w.nextId,
	}
	for _, ct := range w.registry.Types() {
		s := w.index.peek(ct)
		if s == nil || s.len() == 0 {
			continue
		}
		stats.ComponentCounts = append(stats.ComponentCounts, ComponentCount{Name: ct.name, Count: s.len()})
	}
	return stats
}
