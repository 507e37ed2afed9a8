package ecs

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// SchedulerStats provides statistics about scheduler execution.
type SchedulerStats struct {
	SystemCount     int
	Ticks           uint64
	TotalExecutions int64
	Deletions       int64
	Systems         []SystemStats
}

// SystemStats provides execution statistics for a single system.
type SystemStats struct {
	Name           string
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

type systemStatsInternal struct {
	name           string
	executionCount int64
	minDuration    time.Duration
	maxDuration    time.Duration
	totalDuration  time.Duration
	lastDuration   time.Duration
}

// Scheduler manages and executes systems in order.
type Scheduler struct {
	world       *World
	logger      zerolog.Logger
	systems     []System
	systemStats []*systemStatsInternal
	ticks       uint64
	deletions   int64
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithSchedulerLogger sets the logger used for tick and system events.
func WithSchedulerLogger(logger zerolog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// NewScheduler creates a new scheduler for the given world.
func NewScheduler(world *World, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		world:   world,
		logger:  zerolog.Nop(),
		systems: make([]System, 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// World returns the world the scheduler runs systems against.
func (s *Scheduler) World() *World { return s.world }

// Register adds a system to the scheduler and initializes its Query and Singleton fields.
func (s *Scheduler) Register(system System) error {
	systemName := systemName(system)
	if err := s.initializeFields(system); err != nil {
		return eris.Wrapf(err, "registering system %s", systemName)
	}
	s.systems = append(s.systems, system)
	s.systemStats = append(s.systemStats, &systemStatsInternal{
		name:        systemName,
		minDuration: time.Duration(1<<63 - 1),
	})
	s.logger.Debug().Str("system", systemName).Msg("system registered")
	return nil
}

func systemName(system System) string {
	systemType := reflect.TypeOf(system)
	if systemType.Kind() == reflect.Ptr {
		systemType = systemType.Elem()
	}
	if name := systemType.Name(); name != "" {
		return name
	}
	return systemType.String()
}

var (
	queryPtrType         = reflect.TypeFor[*Query]()
	compiledQueryPtrType = reflect.TypeFor[*CompiledQuery]()
	worldBinderType      = reflect.TypeFor[worldBinder]()
)

func (s *Scheduler) initializeFields(system System) error {
	systemValue := reflect.ValueOf(system)
	if systemValue.Kind() == reflect.Ptr {
		systemValue = systemValue.Elem()
	}

	if systemValue.Kind() != reflect.Struct {
		return nil
	}

	systemType := systemValue.Type()

	for i := 0; i < systemValue.NumField(); i++ {
		field := systemValue.Field(i)
		fieldType := systemType.Field(i)

		if !field.CanSet() {
			continue
		}

		// Bind Singleton fields
		if binder, ok := field.Addr().Interface().(worldBinder); ok {
			binder.bind(s.world)
			continue
		}
		if field.Kind() == reflect.Ptr && field.Type().Implements(worldBinderType) {
			if field.IsNil() {
				field.Set(reflect.New(field.Type().Elem()))
			}
			field.Interface().(worldBinder).bind(s.world)
			continue
		}

		// Build tagged Query fields
		tag, ok := fieldType.Tag.Lookup("ecs")
		if !ok {
			continue
		}
		if field.Type() != queryPtrType && field.Type() != compiledQueryPtrType {
			continue
		}

		query, err := s.queryFromTag(tag)
		if err != nil {
			return eris.Wrapf(err, "field %s", fieldType.Name)
		}
		if field.Type() == compiledQueryPtrType {
			field.Set(reflect.ValueOf(query.Compile()))
		} else {
			field.Set(reflect.ValueOf(query))
		}
	}
	return nil
}

// queryFromTag builds a query from "Name,Name;filter".
func (s *Scheduler) queryFromTag(tag string) (*Query, error) {
	names, filter, _ := strings.Cut(tag, ";")
	registry := s.world.Registry()

	var types []*ComponentType
	for _, name := range strings.Split(names, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		ct, err := registry.Lookup(name)
		if err != nil {
			return nil, err
		}
		types = append(types, ct)
	}

	query := NewQuery(s.world, types...)
	if strings.TrimSpace(filter) != "" {
		expr, err := ParseFilter(registry, filter)
		if err != nil {
			return nil, err
		}
		query.Filter(expr)
	}
	return query, nil
}

// Once executes all registered systems once with the given delta time, then
// flushes the frame's commands and processes pending deletions. A failing
// system aborts the tick before any commands are applied.
func (s *Scheduler) Once(dt float64) error {
	s.ticks++
	frame := newUpdateFrame(dt, s.ticks, s.world)

	for i, system := range s.systems {
		stats := s.systemStats[i]

		start := time.Now()
		err := system.Execute(frame)
		duration := time.Since(start)

		stats.executionCount++
		stats.lastDuration = duration
		stats.totalDuration += duration

		if duration < stats.minDuration {
			stats.minDuration = duration
		}
		if duration > stats.maxDuration {
			stats.maxDuration = duration
		}

		if err != nil {
			s.logger.Error().Err(err).Str("system", stats.name).Uint64("tick", s.ticks).Msg("system failed")
			return eris.Wrapf(err, "system %s", stats.name)
		}
	}

	queued := frame.Commands.Len()
	if err := frame.Commands.Flush(s.world); err != nil {
		return err
	}
	deleted := s.world.ProcessPendingDeletions()
	s.deletions += int64(deleted)

	s.logger.Trace().
		Uint64("tick", s.ticks).
		Int("commands", queued).
		Int("deleted", deleted).
		Int("entities", s.world.Len()).
		Msg("tick complete")
	return nil
}

// Run executes all systems repeatedly at the given interval until the context
// is cancelled or a tick fails.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			dt := now.Sub(lastTime).Seconds()
			lastTime = now
			if err := s.Once(dt); err != nil {
				return err
			}
		}
	}
}

// Stats returns statistics about system execution.
func (s *Scheduler) Stats() *SchedulerStats {
	stats := &SchedulerStats{
		SystemCount: len(s.systems),
		Ticks:       s.ticks,
		Deletions:   s.deletions,
		Systems:     make([]SystemStats, len(s.systemStats)),
	}

	var totalExecs int64
	for i, internal := range s.systemStats {
		avgDuration := time.Duration(0)
		if internal.executionCount > 0 {
			avgDuration = internal.totalDuration / time.Duration(internal.executionCount)
		}

		minDuration := internal.minDuration
		if internal.executionCount == 0 {
			minDuration = 0
		}

		stats.Systems[i] = SystemStats{
			Name:           internal.name,
			ExecutionCount: internal.executionCount,
			MinDuration:    minDuration,
			MaxDuration:    internal.maxDuration,
			AvgDuration:    avgDuration,
			LastDuration:   internal.lastDuration,
			TotalDuration:  internal.totalDuration,
		}
		totalExecs += internal.executionCount
	}

	stats.TotalExecutions = totalExecs
	return stats
}
