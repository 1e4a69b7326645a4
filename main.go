package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/pthm-cable/ecosystem/config"
	"github.com/pthm-cable/ecosystem/ecosystem"
	"github.com/pthm-cable/ecosystem/graphics"
	"github.com/pthm-cable/ecosystem/telemetry"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run parses flags, builds the ecosystem and prints the startup summary.
// Returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ecosystem", flag.ContinueOnError)
	fs.SetOutput(stderr)

	// CLI flags
	configPath := fs.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := fs.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := fs.Int("ticks", 0, "Simulate N ticks before printing the summary (with -window: stop after N, 0 = until closed)")
	window := fs.Bool("window", false, "Open a raylib window")
	logStats := fs.Bool("log-stats", false, "Output stats via slog")
	verbose := fs.Bool("v", false, "Debug logging")
	outputDir := fs.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	snapshotPath := fs.String("snapshot", "", "Restore state from a snapshot file instead of initializing")
	saveSnapshot := fs.String("save-snapshot", "", "Directory to write a snapshot of the final state")
	width := fs.Float64("width", 0, "World width (default from config)")
	height := fs.Float64("height", 0, "World height (default from config)")
	capacity := fs.Int("capacity", 0, "Maximum living organisms (default from config)")
	herbivores := fs.Int("herbivores", 0, "Initial herbivores (default from config)")
	carnivores := fs.Int("carnivores", 0, "Initial carnivores (default from config)")
	food := fs.Int("food", 0, "Initial food items (default from config)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	// slog goes to stderr so stdout carries only the summary line
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		logger.Error("failed to load config", "error", err)
		return 1
	}
	cfg := config.Cfg()

	worldW, worldH, worldCap := cfg.World.Width, cfg.World.Height, cfg.World.Capacity
	if set["width"] {
		worldW = *width
	}
	if set["height"] {
		worldH = *height
	}
	if set["capacity"] {
		worldCap = *capacity
	}
	numHerb, numCarn, numFood := cfg.Population.Herbivores, cfg.Population.Carnivores, cfg.Population.Food
	if set["herbivores"] {
		numHerb = *herbivores
	}
	if set["carnivores"] {
		numCarn = *carnivores
	}
	if set["food"] {
		numFood = *food
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	eco, err := ecosystem.New(float32(worldW), float32(worldH), worldCap, ecosystem.Options{
		Seed:      rngSeed,
		Config:    cfg,
		Logger:    logger,
		LogStats:  *logStats,
		OutputDir: *outputDir,
	})
	if err != nil {
		logger.Error("failed to create ecosystem", "error", err)
		return 1
	}
	defer func() {
		if err := eco.Close(); err != nil {
			logger.Error("failed to close output", "error", err)
		}
	}()

	if *snapshotPath != "" {
		snap, err := telemetry.LoadSnapshot(*snapshotPath)
		if err == nil {
			err = eco.Restore(snap)
		}
		if err != nil {
			logger.Error("failed to restore snapshot", "path", *snapshotPath, "error", err)
			return 1
		}
	} else if err := eco.Initialize(numHerb, numCarn, numFood); err != nil {
		logger.Error("failed to initialize ecosystem", "error", err)
		return 1
	}

	logger.Debug("ecosystem ready", "seed", rngSeed, "ticks", *maxTicks, "window", *window)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *window {
		runWindow(ctx, eco, cfg.Window, *maxTicks)
	} else if *maxTicks > 0 {
		if err := eco.Run(ctx, *maxTicks); err != nil {
			logger.Warn("simulation interrupted", "tick", eco.Tick(), "error", err)
		}
	}

	if *saveSnapshot != "" {
		path, err := telemetry.SaveSnapshot(eco.Snapshot(), *saveSnapshot)
		if err != nil {
			logger.Error("failed to save snapshot", "error", err)
			return 1
		}
		logger.Info("snapshot saved", "path", path)
	}

	fmt.Fprintf(stdout, "Simulation démarrée: entités=%d nourriture=%d\n", eco.EntityCount(), eco.FoodCount())
	return 0
}

// runWindow drives the ecosystem from the raylib frame loop.
func runWindow(ctx context.Context, eco *ecosystem.Ecosystem, cfg config.WindowConfig, maxTicks int) {
	w := graphics.Open(eco, cfg)
	defer w.Close()

	start := int(eco.Tick())
	for !w.ShouldClose() && ctx.Err() == nil {
		budget := 0
		if maxTicks > 0 {
			budget = start + maxTicks - int(eco.Tick())
			if budget <= 0 {
				slog.Info("max ticks reached", "tick", eco.Tick())
				return
			}
		}
		w.Frame(eco, budget)
	}
}
