package ecs

import "github.com/rs/zerolog"

func componentArray(types []*ComponentType) *zerolog.Array {
	arr := zerolog.Arr()
	for _, ct := range types {
		arr = arr.Dict(zerolog.Dict().
			Int("component_id", ct.id).
			Str("component_name", ct.name))
	}
	return arr
}

// LogComponents logs every type registered with r.
func LogComponents(logger *zerolog.Logger, r *ComponentRegistry, level zerolog.Level) {
	types := r.Types()
	logger.WithLevel(level).
		Int("total_components", len(types)).
		Bool("serializable", r.Serializable()).
		Array("components", componentArray(types)).
		Send()
}

// LogEntity logs the components and mask of one entity. Unknown entities are
// logged with exists=false.
func LogEntity(logger *zerolog.Logger, w *World, id EntityId, level zerolog.Level) {
	event := logger.WithLevel(level).Uint64("entity_id", uint64(id))
	view, err := w.EntityComponents(id)
	if err != nil {
		event.Bool("exists", false).Send()
		return
	}
	var types []*ComponentType
	for ct := range view.All() {
		types = append(types, ct)
	}
	event.Bool("exists", true).
		Str("mask", view.Mask().String()).
		Bool("pending_deletion", w.IsPendingDeletion(id)).
		Array("components", componentArray(types)).
		Send()
}

// LogScheduler logs the registered systems and their execution counts.
func LogScheduler(logger *zerolog.Logger, s *Scheduler, level zerolog.Level) {
	stats := s.Stats()
	arr := zerolog.Arr()
	for _, sys := range stats.Systems {
		arr = arr.Dict(zerolog.Dict().
			Str("system", sys.Name).
			Int64("executions", sys.ExecutionCount).
			Dur("avg", sys.AvgDuration))
	}
	logger.WithLevel(level).
		Int("total_systems", stats.SystemCount).
		Uint64("ticks", stats.Ticks).
		Array("systems", arr).
		Send()
}

// LogWorld logs entity and component counts gathered by CollectStats.
func LogWorld(logger *zerolog.Logger, w *World, level zerolog.Level) {
	stats := w.CollectStats()
	counts := zerolog.Dict()
	for _, c := range stats.ComponentCounts {
		counts = counts.Int(c.Name, c.Count)
	}
	logger.WithLevel(level).
		Str("world", w.name).
		Int("entities", stats.EntityCount).
		Int("pending", stats.PendingCount).
		Int("singletons", stats.SingletonCount).
		Dict("components", counts).
		Send()
}
