package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/ecosystem/components"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.9},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeEnergyStats(t *testing.T) {
	values := []float64{1.0, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 0.1}
	mean, p10, p50, p90 := ComputeEnergyStats(values)

	if math.Abs(mean-0.55) > 0.001 {
		t.Errorf("mean = %v, want 0.55", mean)
	}
	if math.Abs(p10-0.19) > 0.01 {
		t.Errorf("p10 = %v, want ~0.19", p10)
	}
	if math.Abs(p50-0.55) > 0.01 {
		t.Errorf("p50 = %v, want ~0.55", p50)
	}
	if math.Abs(p90-0.91) > 0.01 {
		t.Errorf("p90 = %v, want ~0.91", p90)
	}
	// input must not be reordered
	if values[0] != 1.0 || values[9] != 0.1 {
		t.Error("ComputeEnergyStats sorted the caller's slice")
	}
}

func TestComputeEnergyStatsEmpty(t *testing.T) {
	mean, p10, p50, p90 := ComputeEnergyStats([]float64{})

	if mean != 0 || p10 != 0 || p50 != 0 || p90 != 0 {
		t.Error("empty slice should return all zeros")
	}
}

func TestComputeSpread(t *testing.T) {
	mean, std := ComputeSpread([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if math.Abs(mean-5) > 1e-9 || math.Abs(std-2) > 1e-9 {
		t.Errorf("spread = (%v, %v), want (5, 2)", mean, std)
	}
	if m, s := ComputeSpread(nil); m != 0 || s != 0 {
		t.Error("empty slice should return zeros")
	}
}

func TestCollectorFlush(t *testing.T) {
	c := NewCollector(1.0, 0.125)
	if c.WindowDurationTicks() != 8 {
		t.Fatalf("WindowDurationTicks = %d, want 8", c.WindowDurationTicks())
	}
	if c.ShouldFlush(7) {
		t.Error("window should not be full at tick 7")
	}
	if !c.ShouldFlush(8) {
		t.Error("window should be full at tick 8")
	}

	c.RecordBirth(components.KindHerbivore)
	c.RecordBirth(components.KindCarnivore)
	c.RecordDeath(components.KindHerbivore)
	c.RecordBirthBlocked()
	c.RecordBiteAttempt()
	c.RecordBiteAttempt()
	c.RecordBiteHit()
	c.RecordKill()
	c.RecordGraze(0.25)
	c.RecordFoodSpawned(3)
	c.RecordFoodDepleted(1)

	s := c.Flush(8, Population{
		Herbivores: 3, Carnivores: 1, Capacity: 8,
		HerbEnergies: []float64{0.2, 0.4, 0.6},
		CarnEnergies: []float64{1.0},
		FoodItems:    5,
	})

	if s.HerbBirths != 1 || s.CarnBirths != 1 || s.HerbDeaths != 1 || s.BirthsBlocked != 1 {
		t.Errorf("unexpected event counts: %+v", s)
	}
	if s.HitRate != 0.5 || s.KillRate != 1 {
		t.Errorf("rates = %v / %v, want 0.5 / 1", s.HitRate, s.KillRate)
	}
	if s.Occupancy != 0.5 {
		t.Errorf("occupancy = %v, want 0.5", s.Occupancy)
	}
	if math.Abs(s.HerbEnergyMean-0.4) > 1e-9 || s.CarnEnergyP50 != 1.0 {
		t.Errorf("energy stats = %v / %v", s.HerbEnergyMean, s.CarnEnergyP50)
	}
	if s.FoodSpawned != 3 || s.FoodDepleted != 1 || s.FoodEaten != 0.25 {
		t.Errorf("food stats = %+v", s)
	}
	if math.Abs(s.SimTimeSec-1.0) > 1e-6 {
		t.Errorf("sim time = %v, want 1", s.SimTimeSec)
	}

	next := c.Flush(16, Population{})
	if next.HerbBirths != 0 || next.BitesAttempted != 0 || next.WindowStartTick != 8 {
		t.Errorf("counters not reset: %+v", next)
	}
}

func TestCollectorStartWindow(t *testing.T) {
	c := NewCollector(1.0, 0.125)
	c.RecordKill()
	c.StartWindow(100)

	if c.ShouldFlush(107) {
		t.Error("window opened at 100 should not be full at 107")
	}
	if !c.ShouldFlush(108) {
		t.Error("window opened at 100 should be full at 108")
	}
	s := c.Flush(108, Population{})
	if s.WindowStartTick != 100 || s.Kills != 0 {
		t.Errorf("window start=%d kills=%d, want 100 and 0", s.WindowStartTick, s.Kills)
	}
}
