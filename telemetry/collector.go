// Package telemetry provides windowed ecosystem statistics, performance
// timing, CSV output and snapshots.
package telemetry

import "github.com/pthm-cable/ecosystem/components"

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float32

	// Current window tracking
	windowStartTick int32

	// Event counters for current window
	herbBirths         int
	carnBirths         int
	herbDeaths         int
	carnDeaths         int
	birthsBlocked      int
	bitesAttempted     int
	bitesHit           int
	kills              int
	bitesBlockedDigest int
	foodEaten          float64
	foodSpawned        int
	foodDepleted       int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec float64, dt float32) *Collector {
	ticksPerWindow := int32(windowDurationSec / float64(dt))
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordBiteAttempt records a bite attempt.
func (c *Collector) RecordBiteAttempt() {
	c.bitesAttempted++
}

// RecordBiteHit records a successful bite.
func (c *Collector) RecordBiteHit() {
	c.bitesHit++
}

// RecordKill records a kill.
func (c *Collector) RecordKill() {
	c.kills++
}

// RecordBiteBlockedByDigest records a bite blocked by digestion cooldown.
func (c *Collector) RecordBiteBlockedByDigest() {
	c.bitesBlockedDigest++
}

// RecordGraze records energy taken from food items.
func (c *Collector) RecordGraze(amount float32) {
	c.foodEaten += float64(amount)
}

// RecordFoodSpawned records new food items.
func (c *Collector) RecordFoodSpawned(n int) {
	c.foodSpawned += n
}

// RecordFoodDepleted records food items removed after being emptied.
func (c *Collector) RecordFoodDepleted(n int) {
	c.foodDepleted += n
}

// RecordBirth records a birth event.
func (c *Collector) RecordBirth(kind components.Kind) {
	if kind == components.KindHerbivore {
		c.herbBirths++
	} else {
		c.carnBirths++
	}
}

// RecordBirthBlocked records a reproduction refused because the world was full.
func (c *Collector) RecordBirthBlocked() {
	c.birthsBlocked++
}

// RecordDeath records a death event.
func (c *Collector) RecordDeath(kind components.Kind) {
	if kind == components.KindHerbivore {
		c.herbDeaths++
	} else {
		c.carnDeaths++
	}
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Population is the state sampled at the end of a window.
type Population struct {
	Herbivores    int
	Carnivores    int
	Capacity      int
	HerbEnergies  []float64
	CarnEnergies  []float64
	FoodItems     int
	FoodEnergy    float64
	MaxGeneration uint32
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int32, pop Population) WindowStats {
	var hitRate, killRate float64
	if c.bitesAttempted > 0 {
		hitRate = float64(c.bitesHit) / float64(c.bitesAttempted)
	}
	if c.bitesHit > 0 {
		killRate = float64(c.kills) / float64(c.bitesHit)
	}

	herbMean, herbP10, herbP50, herbP90 := ComputeEnergyStats(pop.HerbEnergies)
	carnMean, carnP10, carnP50, carnP90 := ComputeEnergyStats(pop.CarnEnergies)

	var occupancy float64
	if pop.Capacity > 0 {
		occupancy = float64(pop.Herbivores+pop.Carnivores) / float64(pop.Capacity)
	}

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * float64(c.dt),

		HerbCount: pop.Herbivores,
		CarnCount: pop.Carnivores,
		Occupancy: occupancy,

		HerbBirths:    c.herbBirths,
		CarnBirths:    c.carnBirths,
		HerbDeaths:    c.herbDeaths,
		CarnDeaths:    c.carnDeaths,
		BirthsBlocked: c.birthsBlocked,

		BitesAttempted:     c.bitesAttempted,
		BitesHit:           c.bitesHit,
		Kills:              c.kills,
		BitesBlockedDigest: c.bitesBlockedDigest,
		HitRate:            hitRate,
		KillRate:           killRate,

		HerbEnergyMean: herbMean,
		HerbEnergyP10:  herbP10,
		HerbEnergyP50:  herbP50,
		HerbEnergyP90:  herbP90,

		CarnEnergyMean: carnMean,
		CarnEnergyP10:  carnP10,
		CarnEnergyP50:  carnP50,
		CarnEnergyP90:  carnP90,

		FoodItems:    pop.FoodItems,
		FoodEnergy:   pop.FoodEnergy,
		FoodEaten:    c.foodEaten,
		FoodSpawned:  c.foodSpawned,
		FoodDepleted: c.foodDepleted,

		MaxGeneration: pop.MaxGeneration,
	}

	c.StartWindow(currentTick)

	return stats
}

// StartWindow discards pending counters and opens a new window at tick.
func (c *Collector) StartWindow(tick int32) {
	c.windowStartTick = tick
	c.herbBirths = 0
	c.carnBirths = 0
	c.herbDeaths = 0
	c.carnDeaths = 0
	c.birthsBlocked = 0
	c.bitesAttempted = 0
	c.bitesHit = 0
	c.kills = 0
	c.bitesBlockedDigest = 0
	c.foodEaten = 0
	c.foodSpawned = 0
	c.foodDepleted = 0
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
