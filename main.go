package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pthm-cable/biosphere/config"
	"github.com/pthm-cable/biosphere/game"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml or .toml (empty = use defaults)")
	logStats := flag.Bool("log-stats", false, "Output window stats via slog")
	logEvents := flag.Bool("log-events", false, "Log every simulation event at debug level")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	eventLog := flag.String("event-log", "", "Write events to a zstd-compressed JSONL file")
	seed := flag.Int64("seed", 0, "RNG seed (0 = config seed, then time-based)")
	maxTicks := flag.Int64("max-ticks", -1, "Stop after N ticks (0 = unlimited, -1 = use config)")
	tickRate := flag.Float64("tick-rate", -1, "Target ticks per second (0 = unthrottled, -1 = use config)")
	biome := flag.String("biome", "", "Biome preset (empty = use config)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	level := slog.LevelInfo
	if *logEvents {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *maxTicks >= 0 {
		cfg.Simulation.MaxTicks = *maxTicks
	}
	if *tickRate >= 0 {
		cfg.Simulation.TargetTickRate = *tickRate
	}
	if *biome != "" {
		cfg.Environment.Biome = *biome
	}

	sim, err := game.New(cfg, game.Options{
		Seed:      *seed,
		OutputDir: *outputDir,
		EventLog:  *eventLog,
		LogStats:  *logStats,
		Logger:    logger,
	})
	if err != nil {
		slog.Error("failed to create simulation", "error", err)
		os.Exit(1)
	}

	slog.Info("starting simulation",
		"seed", sim.Seed(),
		"biome", cfg.Environment.Biome,
		"initial_population", cfg.Simulation.InitialPopulation,
		"max_ticks", cfg.Simulation.MaxTicks,
		"tick_rate", cfg.Simulation.TargetTickRate,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := sim.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		slog.Error("simulation failed", "error", runErr)
	}

	slog.Info("simulation finished", "summary", sim.Summary())

	if err := sim.Close(); err != nil {
		slog.Error("failed to close outputs", "error", err)
		os.Exit(1)
	}
}
