package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"runtime"
	"time"

	"github.com/pkg/profile"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/wI2L/jsondiff"

	"github.com/plus3/maskecs/ecs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, eris.ToString(err, true))
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to a TOML or YAML config file.")
	duration := flag.Duration("duration", 0, "The total duration the test should run for.")
	interval := flag.Duration("interval", 0, "Fixed tick interval; 0 runs ticks back to back.")
	entityCount := flag.Int("entities", 0, "The initial number of entities to create.")
	profileMode := flag.String("profile", "", "Profile the run: cpu or mem.")
	snapshot := flag.Bool("snapshot", false, "Verify a snapshot round trip after the run.")
	gcPauseMetrics := flag.Bool("gc-pause-metrics", false, "Enable detailed GC pause metrics in the report.")
	flag.Parse()

	cfg := defaults()
	if *configPath != "" {
		loaded, err := Load(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if err := cfg.applyEnv(); err != nil {
		return err
	}
	// Flags win over file and environment, but only when given explicitly
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "duration":
			cfg.Run.Duration = *duration
		case "interval":
			cfg.Run.Interval = *interval
		case "entities":
			cfg.Run.Entities = *entityCount
		case "profile":
			cfg.Run.Profile = *profileMode
		case "snapshot":
			cfg.Run.Snapshot = *snapshot
		case "gc-pause-metrics":
			cfg.Run.GCPauseMetrics = *gcPauseMetrics
		}
	})
	if err := cfg.validate(); err != nil {
		return eris.Wrap(err, "invalid config")
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}

	switch cfg.Run.Profile {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(cfg.Run.ProfilePath), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath(cfg.Run.ProfilePath), profile.NoShutdownHook).Stop()
	}

	logger.Info().Msg("Starting ECS stress test...")

	// 1. Setup Registry, World, and Scheduler
	components, err := registerComponents(cfg.Run.Tags)
	if err != nil {
		return eris.Wrap(err, "registering components")
	}
	ecs.LogComponents(&logger, components.Registry, zerolog.DebugLevel)

	world := ecs.NewWorld(components.Registry,
		ecs.WithWorldName("stress"),
		ecs.WithCapacity(cfg.Run.Entities),
		ecs.WithLogger(logger.With().Str("component", "world").Logger().Level(zerolog.WarnLevel)))
	scheduler := ecs.NewScheduler(world, ecs.WithSchedulerLogger(logger.With().Str("component", "scheduler").Logger()))

	rng := rand.New(rand.NewSource(cfg.Run.Seed))
	if err := registerSystems(scheduler, components, rng, cfg); err != nil {
		return eris.Wrap(err, "registering systems")
	}

	// 2. Populate the world with initial entities
	logger.Info().Int("entities", cfg.Run.Entities).Msg("Populating world...")
	for i := 0; i < cfg.Run.Entities; i++ {
		if _, err := world.NewEntity(components.randomComponents(rng)...); err != nil {
			return eris.Wrap(err, "populating world")
		}
	}
	logger.Info().Msg("Population complete.")

	// 3. Run the simulation loop
	report := &Report{
		Duration:       cfg.Run.Duration,
		Entities:       cfg.Run.Entities,
		Components:     components.Registry.Len(),
		Systems:        len(cfg.Systems),
		GCPauseMetrics: cfg.Run.GCPauseMetrics,
		UpdateTime: Stats{
			Samples: make([]time.Duration, 0),
		},
	}
	for _, sc := range cfg.Systems {
		report.Filters = append(report.Filters, fmt.Sprintf("%s: %s", sc.Kind, sc.Filter))
	}

	runtime.ReadMemStats(&report.MemStatsStart)

	logger.Info().Dur("duration", cfg.Run.Duration).Msg("Running simulation...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Run.Duration)
	defer cancel()

	startTime := time.Now()
	if cfg.Run.Interval > 0 {
		if err := scheduler.Run(ctx, cfg.Run.Interval); err != nil {
			return err
		}
	} else if err := loop(ctx, scheduler, report); err != nil {
		return err
	}

	report.TotalTime = time.Since(startTime)
	report.Scheduler = scheduler.Stats()
	report.TotalUpdates = int64(report.Scheduler.Ticks)
	report.UpdateTime.Finalize()
	runtime.ReadMemStats(&report.MemStatsEnd)
	report.World = world.CollectStats()

	logger.Info().Msg("Simulation finished.")
	ecs.LogScheduler(&logger, scheduler, zerolog.DebugLevel)
	ecs.LogWorld(&logger, world, zerolog.DebugLevel)

	if cfg.Run.Snapshot {
		check, err := verifySnapshot(world, components.Registry)
		if err != nil {
			return eris.Wrap(err, "snapshot round trip")
		}
		report.Snapshot = check
	}

	// 4. Generate Report to Console
	fmt.Println("\n\n--- Stress Test Report ---")
	if err := report.Generate(os.Stdout); err != nil {
		return eris.Wrap(err, "generating report")
	}
	fmt.Println("--- End of Report ---")

	logger.Info().Msg("Stress test complete.")
	if report.Snapshot != nil && report.Snapshot.Diff != "" {
		return eris.New("restored world differs from the original")
	}
	return nil
}

// loop runs ticks back to back until ctx is done, sampling each tick's time.
func loop(ctx context.Context, scheduler *ecs.Scheduler, report *Report) error {
	lastFrameTime := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			deltaTime := time.Since(lastFrameTime)
			lastFrameTime = time.Now()

			updateStart := time.Now()
			if err := scheduler.Once(deltaTime.Seconds()); err != nil {
				return err
			}
			report.UpdateTime.Samples = append(report.UpdateTime.Samples, time.Since(updateStart))
		}
	}
}

// verifySnapshot encodes the world, restores it into a new world and checks
// that the restored world encodes to the same document.
func verifySnapshot(world *ecs.World, registry *ecs.ComponentRegistry) (*SnapshotCheck, error) {
	start := time.Now()
	snap, err := world.Snapshot()
	if err != nil {
		return nil, err
	}
	original, err := snap.Encode()
	if err != nil {
		return nil, err
	}
	check := &SnapshotCheck{Bytes: len(original), Entities: len(snap.Entities), Encode: time.Since(start)}

	start = time.Now()
	decoded, err := ecs.DecodeSnapshot(original)
	if err != nil {
		return nil, err
	}
	restored, err := ecs.Restore(registry, decoded, ecs.WithWorldName("restored"))
	if err != nil {
		return nil, err
	}
	check.Restore = time.Since(start)

	again, err := restored.Snapshot()
	if err != nil {
		return nil, err
	}
	encoded, err := again.Encode()
	if err != nil {
		return nil, err
	}
	patch, err := jsondiff.CompareJSON(original, encoded)
	if err != nil {
		return nil, eris.Wrap(err, "diffing snapshots")
	}
	check.Diff = patch.String()
	return check, nil
}

func newLogger(cfg LoggingConfig) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), eris.Wrapf(err, "log level %q", cfg.Level)
	}
	var out io.Writer = os.Stderr
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}
