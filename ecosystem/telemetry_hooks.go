package ecosystem

import (
	"github.com/pthm-cable/ecosystem/components"
	"github.com/pthm-cable/ecosystem/telemetry"
)

// flushTelemetry emits a stats window when one is complete.
func (e *Ecosystem) flushTelemetry() {
	if !e.collector.ShouldFlush(e.tick) {
		return
	}

	stats := e.collector.Flush(e.tick, e.samplePopulation())
	perfStats := e.perf.Stats()

	if e.statsCallback != nil {
		e.statsCallback(stats)
	}

	if e.logStats {
		stats.LogStats(e.logger)
		perfStats.LogStats(e.logger)
	}

	if e.output != nil {
		if err := e.output.WriteTelemetry(stats); err != nil {
			e.logger.Error("failed to write telemetry", "error", err)
		}
		if err := e.output.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			e.logger.Error("failed to write perf", "error", err)
		}
	}
}

// samplePopulation collects the end-of-window state for the collector.
func (e *Ecosystem) samplePopulation() telemetry.Population {
	pop := telemetry.Population{
		Herbivores: e.numHerb,
		Carnivores: e.numCarn,
		Capacity:   e.capacity,
		FoodItems:  e.numFood,
	}

	query := e.orgFilter.Query()
	for query.Next() {
		_, _, _, _, energy, _, org := query.Get()
		if !energy.Alive {
			continue
		}
		if org.Kind == components.KindHerbivore {
			pop.HerbEnergies = append(pop.HerbEnergies, float64(energy.Value))
		} else {
			pop.CarnEnergies = append(pop.CarnEnergies, float64(energy.Value))
		}
		pop.MaxGeneration = max(pop.MaxGeneration, org.Generation)
	}

	foodQuery := e.foodFilter.Query()
	for foodQuery.Next() {
		_, food := foodQuery.Get()
		pop.FoodEnergy += float64(food.Energy)
	}

	return pop
}
