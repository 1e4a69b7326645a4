// Package ecosystem runs the predator/prey simulation on an ark ECS world.
package ecosystem

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/ecosystem/components"
	"github.com/pthm-cable/ecosystem/config"
	"github.com/pthm-cable/ecosystem/neural"
	"github.com/pthm-cable/ecosystem/systems"
	"github.com/pthm-cable/ecosystem/telemetry"
)

var (
	// ErrAlreadyInitialized is returned when Initialize or Restore is called twice.
	ErrAlreadyInitialized = errors.New("ecosystem: already initialized")
	// ErrNotInitialized is returned by Run before Initialize or Restore.
	ErrNotInitialized = errors.New("ecosystem: not initialized")
)

// Options holds configuration for creating an Ecosystem.
type Options struct {
	Seed          int64
	Config        *config.Config // nil = embedded defaults
	Logger        *slog.Logger   // nil = slog.Default()
	LogStats      bool
	OutputDir     string
	StatsCallback func(telemetry.WindowStats)
}

// Ecosystem holds the complete simulation state.
type Ecosystem struct {
	world  *ecs.World
	rng    *rand.Rand
	cfg    *config.Config
	logger *slog.Logger
	seed   int64

	// Organism mapper and filter - the 7 components every organism carries
	orgMapper *ecs.Map7[
		components.Position,
		components.Velocity,
		components.Rotation,
		components.Body,
		components.Energy,
		components.Capabilities,
		components.Organism,
	]
	orgFilter *ecs.Filter7[
		components.Position,
		components.Velocity,
		components.Rotation,
		components.Body,
		components.Energy,
		components.Capabilities,
		components.Organism,
	]

	foodMapper *ecs.Map2[components.Position, components.Food]
	foodFilter *ecs.Filter2[components.Position, components.Food]

	// Individual component mappers for lookups
	posMap    *ecs.Map1[components.Position]
	energyMap *ecs.Map1[components.Energy]
	orgMap    *ecs.Map1[components.Organism]
	foodMap   *ecs.Map1[components.Food]
	lookups   systems.SensorLookups

	// Brain storage (per organism ID)
	brains map[uint32]*neural.FFNN

	// Spatial indices, rebuilt every tick
	orgGrid  *systems.SpatialGrid
	foodGrid *systems.SpatialGrid

	fertility   *systems.FertilityField
	foodBudget  systems.SpawnBudget
	neighborBuf []systems.Neighbor
	foodBuf     []systems.Neighbor

	// Telemetry
	collector     *telemetry.Collector
	perf          *telemetry.PerfCollector
	output        *telemetry.OutputManager
	logStats      bool
	statsCallback func(telemetry.WindowStats)

	// State
	initialized bool
	tick        int32
	nextID      uint32
	numHerb     int
	numCarn     int
	numFood     int
	births      int
	deaths      int

	width, height float32
	capacity      int
}

// New creates an empty ecosystem of the given size that holds at most
// capacity living organisms.
func New(width, height float32, capacity int, opts Options) (*Ecosystem, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("ecosystem: world size must be positive, got %gx%g", width, height)
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("ecosystem: capacity must be positive, got %d", capacity)
	}

	base := opts.Config
	if base == nil {
		var err error
		if base, err = config.Load(""); err != nil {
			return nil, err
		}
	}
	cfg := base.Clone()
	cfg.World.Width = float64(width)
	cfg.World.Height = float64(height)
	cfg.World.Capacity = capacity
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.ComputeDerived()
	for _, name := range []string{"herbivore", "carnivore"} {
		if _, ok := cfg.Derived.ArchetypeIndex[name]; !ok {
			return nil, fmt.Errorf("ecosystem: config has no %q archetype", name)
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	world := ecs.NewWorld()

	e := &Ecosystem{
		world:  world,
		rng:    rand.New(rand.NewSource(opts.Seed)),
		cfg:    cfg,
		logger: logger,
		seed:   opts.Seed,
		brains: make(map[uint32]*neural.FFNN),
		orgMapper: ecs.NewMap7[
			components.Position,
			components.Velocity,
			components.Rotation,
			components.Body,
			components.Energy,
			components.Capabilities,
			components.Organism,
		](world),
		orgFilter: ecs.NewFilter7[
			components.Position,
			components.Velocity,
			components.Rotation,
			components.Body,
			components.Energy,
			components.Capabilities,
			components.Organism,
		](world),
		foodMapper: ecs.NewMap2[components.Position, components.Food](world),
		foodFilter: ecs.NewFilter2[components.Position, components.Food](world),
		posMap:     ecs.NewMap1[components.Position](world),
		energyMap:  ecs.NewMap1[components.Energy](world),
		orgMap:     ecs.NewMap1[components.Organism](world),
		foodMap:    ecs.NewMap1[components.Food](world),
		nextID:     1,
		width:      width,
		height:     height,
		capacity:   capacity,
		logStats:   opts.LogStats,

		statsCallback: opts.StatsCallback,
	}
	e.lookups = systems.SensorLookups{Org: e.orgMap, Energy: e.energyMap, Food: e.foodMap}

	cellSize := float32(cfg.Physics.GridCellSize)
	e.orgGrid = systems.NewSpatialGrid(width, height, cellSize)
	e.foodGrid = systems.NewSpatialGrid(width, height, cellSize)
	e.fertility = systems.NewFertilityField(opts.Seed, width, height, cfg.Food.NoiseScale, cfg.Food.NoiseOctave)

	e.collector = telemetry.NewCollector(cfg.Telemetry.StatsWindow, cfg.Derived.DT32)
	e.perf = telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow)

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	e.output = output
	if err := e.output.WriteConfig(cfg); err != nil {
		e.output.Close()
		return nil, err
	}

	return e, nil
}

// Initialize populates the world with founder organisms and food items.
// Organisms beyond capacity and food beyond food.max_items are dropped with a warning.
func (e *Ecosystem) Initialize(herbivores, carnivores, food int) error {
	if e.initialized {
		return ErrAlreadyInitialized
	}
	if herbivores < 0 || carnivores < 0 || food < 0 {
		return fmt.Errorf("ecosystem: counts must not be negative, got herbivores=%d carnivores=%d food=%d",
			herbivores, carnivores, food)
	}

	if herbivores+carnivores > e.capacity {
		wantH, wantC := herbivores, carnivores
		herbivores = min(herbivores, e.capacity)
		carnivores = min(carnivores, e.capacity-herbivores)
		e.logger.Warn("initial population clamped to capacity",
			"capacity", e.capacity,
			"herbivores", wantH, "carnivores", wantC,
			"kept_herbivores", herbivores, "kept_carnivores", carnivores,
		)
	}
	if maxFood := e.cfg.Food.MaxItems; food > maxFood {
		e.logger.Warn("initial food clamped to max items", "requested", food, "max_items", maxFood)
		food = maxFood
	}

	herbIdx := e.cfg.Derived.ArchetypeIndex["herbivore"]
	carnIdx := e.cfg.Derived.ArchetypeIndex["carnivore"]
	for i := 0; i < herbivores; i++ {
		e.spawnFounder(herbIdx)
	}
	for i := 0; i < carnivores; i++ {
		e.spawnFounder(carnIdx)
	}
	for i := 0; i < food; i++ {
		e.spawnFood()
	}

	e.initialized = true
	e.logger.Debug("ecosystem initialized",
		"herbivores", e.numHerb, "carnivores", e.numCarn, "food", e.numFood,
		"width", e.width, "height", e.height, "capacity", e.capacity,
	)
	return nil
}

// EntityCount returns the number of living organisms.
func (e *Ecosystem) EntityCount() int { return e.numHerb + e.numCarn }

// FoodCount returns the number of food items in the world.
func (e *Ecosystem) FoodCount() int { return e.numFood }

// HerbivoreCount returns the number of living herbivores.
func (e *Ecosystem) HerbivoreCount() int { return e.numHerb }

// CarnivoreCount returns the number of living carnivores.
func (e *Ecosystem) CarnivoreCount() int { return e.numCarn }

// Capacity returns the maximum number of living organisms.
func (e *Ecosystem) Capacity() int { return e.capacity }

// Tick returns the number of steps simulated.
func (e *Ecosystem) Tick() int32 { return e.tick }

// Width returns the world width.
func (e *Ecosystem) Width() float32 { return e.width }

// Height returns the world height.
func (e *Ecosystem) Height() float32 { return e.height }

// Births returns the number of organisms born through reproduction.
func (e *Ecosystem) Births() int { return e.births }

// Deaths returns the number of organisms that have died.
func (e *Ecosystem) Deaths() int { return e.deaths }

// Config returns the effective configuration.
func (e *Ecosystem) Config() *config.Config { return e.cfg }

// Close flushes and closes telemetry output.
func (e *Ecosystem) Close() error {
	return e.output.Close()
}
