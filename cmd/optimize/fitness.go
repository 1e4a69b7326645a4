package main

import (
	"io"
	"log/slog"
	"math"
	"sync"

	"github.com/pthm-cable/ecosystem/config"
	"github.com/pthm-cable/ecosystem/ecosystem"
	"github.com/pthm-cable/ecosystem/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	maxTicks    int32
	seeds       []int64
	baseConfig  *config.Config
	statsWindow float64
	quiet       *slog.Logger

	mu          sync.Mutex
	bestFitness float64
	bestQuality float64
	lastQuality float64 // quality from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int32, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		statsWindow: 10.0,
		quiet:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		bestFitness: math.Inf(1),
	}
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// BestQuality returns the mean quality of the best evaluation so far.
func (fe *FitnessEvaluator) BestQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestQuality
}

// Minimum viable population: if either kind stays below this for
// extinctionGraceSec, it counts as functionally extinct.
const (
	minViablePop       = 3
	extinctionGraceSec = 30.0
	warmupSec          = 5.0
)

// runResult holds the results from a single simulation run.
type runResult struct {
	survivalTicks int32 // ticks before functional extinction (or maxTicks if survived)
	windowStats   []telemetry.WindowStats
}

type seedResult struct {
	fitness float64
	quality float64
}

// Evaluate computes fitness for a parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			result := fe.runSimulation(x, s)
			results[idx] = seedResult{
				fitness: fe.computeFitness(result),
				quality: computeQuality(result.windowStats),
			}
		}(i, seed)
	}
	wg.Wait()

	var totalFitness, totalQuality float64
	for _, r := range results {
		totalFitness += r.fitness
		totalQuality += r.quality
	}
	n := float64(len(fe.seeds))
	avgFitness := totalFitness / n

	fe.mu.Lock()
	fe.lastQuality = totalQuality / n
	if avgFitness < fe.bestFitness {
		fe.bestFitness = avgFitness
		fe.bestQuality = fe.lastQuality
	}
	fe.mu.Unlock()

	return avgFitness
}

// runSimulation executes a single headless simulation run.
// Runs until functional extinction or maxTicks, whichever comes first.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) *runResult {
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, x)
	cfg.Telemetry.StatsWindow = fe.statsWindow

	result := &runResult{}

	eco, err := ecosystem.New(float32(cfg.World.Width), float32(cfg.World.Height), cfg.World.Capacity, ecosystem.Options{
		Seed:   seed,
		Config: cfg,
		Logger: fe.quiet,
		StatsCallback: func(stats telemetry.WindowStats) {
			result.windowStats = append(result.windowStats, stats)
		},
	})
	if err != nil {
		return result
	}
	defer eco.Close()

	if err := eco.Initialize(cfg.Population.Herbivores, cfg.Population.Carnivores, cfg.Population.Food); err != nil {
		return result
	}

	dt := cfg.Physics.DT
	graceTicks := int32(extinctionGraceSec / dt)
	warmupTicks := int32(warmupSec / dt)
	var herbBelow, carnBelow int32

	for eco.Tick() < fe.maxTicks {
		eco.Step()

		tick := eco.Tick()
		if tick < warmupTicks {
			continue
		}

		herb := eco.HerbivoreCount()
		carn := eco.CarnivoreCount()

		// Hard extinction
		if herb == 0 || carn == 0 {
			result.survivalTicks = tick
			return result
		}

		if herb < minViablePop {
			herbBelow++
		} else {
			herbBelow = 0
		}
		if carn < minViablePop {
			carnBelow++
		} else {
			carnBelow = 0
		}

		if herbBelow >= graceTicks || carnBelow >= graceTicks {
			result.survivalTicks = tick
			return result
		}
	}

	result.survivalTicks = fe.maxTicks
	return result
}

// computeFitness calculates the scalar fitness (lower = better).
// Survival dominates; quality adds up to 20% to separate configs that
// survive equally long.
func (fe *FitnessEvaluator) computeFitness(r *runResult) float64 {
	survival := float64(r.survivalTicks)
	quality := computeQuality(r.windowStats)
	return -(survival * (1.0 + 0.2*quality))
}

// Quality component weights.
const (
	qualityWeightRatio     = 0.30
	qualityWeightStability = 0.25
	qualityWeightEnergy    = 0.25
	qualityWeightHunting   = 0.20

	qualityWarmupWindows = 3 // skip first N windows
	qualityMinPop        = 3 // exclude windows where either kind < this
	targetRatio          = 4.0
)

// computeQuality scores ecosystem health in [0, 1] from window stats.
func computeQuality(windows []telemetry.WindowStats) float64 {
	if len(windows) <= qualityWarmupWindows {
		return 0
	}
	valid := windows[qualityWarmupWindows:]

	var ratioSum, energySum, huntSum float64
	var ratioCount, huntCount int
	herbCounts := make([]float64, 0, len(valid))
	carnCounts := make([]float64, 0, len(valid))

	for _, w := range valid {
		if w.HerbCount < qualityMinPop || w.CarnCount < qualityMinPop {
			continue
		}
		herbCounts = append(herbCounts, float64(w.HerbCount))
		carnCounts = append(carnCounts, float64(w.CarnCount))

		ratio := float64(w.HerbCount) / float64(w.CarnCount)
		logErr := math.Log(ratio / targetRatio)
		ratioSum += math.Exp(-logErr * logErr)
		ratioCount++

		herbH := math.Exp(-math.Pow((w.HerbEnergyP50-0.5)/0.2, 2))
		carnH := math.Exp(-math.Pow((w.CarnEnergyP50-0.5)/0.2, 2))
		energySum += (herbH + carnH) / 2

		if w.BitesAttempted > 0 {
			hrScore := math.Exp(-math.Pow((w.HitRate-0.3)/0.2, 2))
			bitesPerCarn := float64(w.BitesAttempted) / float64(w.CarnCount)
			activity := 1 - math.Exp(-bitesPerCarn/3)
			huntSum += 0.6*hrScore + 0.4*activity
			huntCount++
		}
	}

	if ratioCount == 0 {
		return 0
	}

	ratioScore := ratioSum / float64(ratioCount)
	energyScore := energySum / float64(ratioCount)

	stabilityScore := 0.0
	if len(herbCounts) >= 2 {
		cvHerb := cv(herbCounts)
		cvCarn := cv(carnCounts)
		stabilityScore = math.Exp(-(cvHerb*cvHerb + cvCarn*cvCarn))
	}

	huntScore := 0.0
	if huntCount > 0 {
		huntScore = huntSum / float64(huntCount)
	}

	quality := qualityWeightRatio*ratioScore +
		qualityWeightStability*stabilityScore +
		qualityWeightEnergy*energyScore +
		qualityWeightHunting*huntScore

	return min(max(quality, 0), 1)
}

// cv computes the coefficient of variation (std/mean).
func cv(values []float64) float64 {
	mean, std := telemetry.ComputeSpread(values)
	if mean == 0 {
		return 0
	}
	return std / mean
}
