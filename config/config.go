// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	World        WorldConfig        `yaml:"world"`
	Population   PopulationConfig   `yaml:"population"`
	Physics      PhysicsConfig      `yaml:"physics"`
	Entity       EntityConfig       `yaml:"entity"`
	Archetypes   []ArchetypeConfig  `yaml:"archetypes"`
	Food         FoodConfig         `yaml:"food"`
	Energy       EnergyConfig       `yaml:"energy"`
	Reproduction ReproductionConfig `yaml:"reproduction"`
	Mutation     MutationConfig     `yaml:"mutation"`
	Telemetry    TelemetryConfig    `yaml:"telemetry"`
	Window       WindowConfig       `yaml:"window"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds simulation world dimensions and the organism budget.
type WorldConfig struct {
	Width    float64 `yaml:"width"`
	Height   float64 `yaml:"height"`
	Capacity int     `yaml:"capacity"` // Maximum number of living organisms
}

// PopulationConfig holds initial counts and respawn rules.
type PopulationConfig struct {
	Herbivores       int `yaml:"herbivores"`
	Carnivores       int `yaml:"carnivores"`
	Food             int `yaml:"food"`
	RespawnThreshold int `yaml:"respawn_threshold"` // Respawn founders when a kind drops below this (0 = off)
	RespawnCount     int `yaml:"respawn_count"`
	RespawnAfterTick int `yaml:"respawn_after_tick"`
}

// PhysicsConfig holds simulation physics parameters.
type PhysicsConfig struct {
	DT           float64 `yaml:"dt"`
	GridCellSize float64 `yaml:"grid_cell_size"`
}

// EntityConfig holds entity creation parameters.
type EntityConfig struct {
	BodyRadius    float64 `yaml:"body_radius"`
	InitialEnergy float64 `yaml:"initial_energy"` // Fraction of max energy for founders
	ChildEnergy   float64 `yaml:"child_energy"`   // Fraction of max energy handed to a newborn
}

// ArchetypeConfig defines a founder template for organisms.
type ArchetypeConfig struct {
	Name        string  `yaml:"name"`
	Diet        float64 `yaml:"diet"` // 0=herbivore, 1=carnivore
	MaxEnergy   float64 `yaml:"max_energy"`
	MaxSpeed    float64 `yaml:"max_speed"`
	MaxAccel    float64 `yaml:"max_accel"`
	MaxTurnRate float64 `yaml:"max_turn_rate"`
	Drag        float64 `yaml:"drag"`
	VisionRange float64 `yaml:"vision_range"`
	BiteRange   float64 `yaml:"bite_range"`
	BaseCost    float64 `yaml:"base_cost"` // Energy drain per second for existing
	MoveCost    float64 `yaml:"move_cost"` // Drain per second at full speed
}

// FoodConfig holds food item parameters.
type FoodConfig struct {
	Energy      float64 `yaml:"energy"`       // Energy of a freshly spawned item
	MaxEnergy   float64 `yaml:"max_energy"`   // Items regrow toward this
	RegrowRate  float64 `yaml:"regrow_rate"`  // Energy per second
	SpawnRate   float64 `yaml:"spawn_rate"`   // New items per second
	MaxItems    int     `yaml:"max_items"`
	Radius      float64 `yaml:"radius"`
	MinFertile  float64 `yaml:"min_fertile"`  // Rejection threshold for spawn sampling
	NoiseScale  float64 `yaml:"noise_scale"`  // Fertility noise frequency (per world unit)
	NoiseOctave int     `yaml:"noise_octaves"`
}

// EnergyConfig holds feeding economics.
type EnergyConfig struct {
	GrazeRate          float64 `yaml:"graze_rate"`          // Energy per second taken from a food item
	BiteDamage         float64 `yaml:"bite_damage"`         // Energy removed per successful bite
	TransferEfficiency float64 `yaml:"transfer_efficiency"` // Fraction of bite converted for the biter
	BiteThreshold      float64 `yaml:"bite_threshold"`      // Brain bite output must exceed this
	DigestFactor       float64 `yaml:"digest_factor"`       // Digest cooldown = gained * factor
}

// ReproductionConfig holds reproduction parameters.
type ReproductionConfig struct {
	Threshold      float64 `yaml:"threshold"` // Energy ratio required to reproduce
	MaturityAge    float64 `yaml:"maturity_age"`
	Cooldown       float64 `yaml:"cooldown"`
	CooldownJitter float64 `yaml:"cooldown_jitter"`
	ParentCost     float64 `yaml:"parent_cost"` // Fraction of max energy the parent pays
	SpawnOffset    float64 `yaml:"spawn_offset"`
	HeadingJitter  float64 `yaml:"heading_jitter"`
}

// MutationConfig holds mutation parameters.
type MutationConfig struct {
	Rate     float64 `yaml:"rate"`
	Sigma    float64 `yaml:"sigma"`
	BigRate  float64 `yaml:"big_rate"`
	BigSigma float64 `yaml:"big_sigma"`
	// InstinctNoise is the weight noise added to freshly seeded founder brains.
	InstinctNoise float64 `yaml:"instinct_noise"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// WindowConfig holds display settings for the optional window.
type WindowConfig struct {
	Title     string `yaml:"title"`
	TargetFPS int    `yaml:"target_fps"`
	MaxSpeed  int    `yaml:"max_speed"` // Upper bound of the steps-per-frame slider
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32           float32          // Physics.DT as float32
	WorldW32       float32          // World.Width as float32
	WorldH32       float32          // World.Height as float32
	ArchetypeIndex map[string]uint8 // name -> index for archetype lookup
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.ComputeDerived()

	return cfg, nil
}

// Validate reports the first structurally invalid value.
func (c *Config) Validate() error {
	switch {
	case c.World.Width <= 0 || c.World.Height <= 0:
		return fmt.Errorf("config: world size must be positive, got %gx%g", c.World.Width, c.World.Height)
	case c.World.Capacity <= 0:
		return fmt.Errorf("config: world capacity must be positive, got %d", c.World.Capacity)
	case c.Physics.DT <= 0:
		return errors.New("config: physics.dt must be positive")
	case c.Physics.GridCellSize <= 0:
		return errors.New("config: physics.grid_cell_size must be positive")
	case c.Food.MaxItems < 0:
		return errors.New("config: food.max_items must not be negative")
	}
	return nil
}

// ComputeDerived calculates values derived from loaded config.
// Call it again after mutating a Config in place.
func (c *Config) ComputeDerived() {
	c.Derived.DT32 = float32(c.Physics.DT)
	c.Derived.WorldW32 = float32(c.World.Width)
	c.Derived.WorldH32 = float32(c.World.Height)

	// Synthesize default archetypes if none specified
	if len(c.Archetypes) == 0 {
		c.Archetypes = []ArchetypeConfig{
			{Name: "herbivore", Diet: 0.0},
			{Name: "carnivore", Diet: 1.0, MaxSpeed: 95, VisionRange: 140},
		}
	}

	for i := range c.Archetypes {
		arch := &c.Archetypes[i]
		if arch.MaxEnergy == 0 {
			arch.MaxEnergy = 1.0
		}
		if arch.MaxSpeed == 0 {
			arch.MaxSpeed = 80
		}
		if arch.MaxAccel == 0 {
			arch.MaxAccel = 300
		}
		if arch.MaxTurnRate == 0 {
			arch.MaxTurnRate = 3.5
		}
		if arch.VisionRange == 0 {
			arch.VisionRange = 100
		}
		if arch.BiteRange == 0 {
			arch.BiteRange = 2 * c.Entity.BodyRadius
		}
	}

	c.Derived.ArchetypeIndex = make(map[string]uint8, len(c.Archetypes))
	for i, arch := range c.Archetypes {
		c.Derived.ArchetypeIndex[arch.Name] = uint8(i)
	}
}

// Clone returns a deep copy that can be mutated independently.
func (c *Config) Clone() *Config {
	out := *c
	out.Archetypes = append([]ArchetypeConfig(nil), c.Archetypes...)
	out.Derived.ArchetypeIndex = make(map[string]uint8, len(c.Derived.ArchetypeIndex))
	for k, v := range c.Derived.ArchetypeIndex {
		out.Derived.ArchetypeIndex[k] = v
	}
	return &out
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
