package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/ecosystem/config"
	"github.com/pthm-cable/ecosystem/telemetry"
)

func healthyWindow() telemetry.WindowStats {
	return telemetry.WindowStats{
		HerbCount:      40,
		CarnCount:      10,
		HerbEnergyP50:  0.5,
		CarnEnergyP50:  0.5,
		BitesAttempted: 30,
		HitRate:        0.3,
	}
}

func TestComputeQualityNeedsWarmup(t *testing.T) {
	windows := make([]telemetry.WindowStats, qualityWarmupWindows)
	for i := range windows {
		windows[i] = healthyWindow()
	}
	if q := computeQuality(windows); q != 0 {
		t.Errorf("quality during warmup = %f, want 0", q)
	}
}

func TestComputeQualityHealthyEcosystem(t *testing.T) {
	windows := make([]telemetry.WindowStats, 10)
	for i := range windows {
		windows[i] = healthyWindow()
	}
	q := computeQuality(windows)
	if q < 0.9 || q > 1 {
		t.Errorf("steady healthy quality = %f, want close to 1", q)
	}
}

func TestComputeQualityIgnoresCollapsedWindows(t *testing.T) {
	windows := make([]telemetry.WindowStats, 10)
	for i := range windows {
		windows[i] = telemetry.WindowStats{HerbCount: 50, CarnCount: 1}
	}
	if q := computeQuality(windows); q != 0 {
		t.Errorf("quality without viable carnivores = %f, want 0", q)
	}
}

func TestCV(t *testing.T) {
	if got := cv([]float64{5, 5, 5}); got != 0 {
		t.Errorf("cv of constant = %f", got)
	}
	if got := cv([]float64{1, 3}); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("cv([1 3]) = %f, want 0.5", got)
	}
	if got := cv(nil); got != 0 {
		t.Errorf("cv(nil) = %f", got)
	}
}

func TestRunSimulationRespectsMaxTicks(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	fe := NewFitnessEvaluator(NewParamVector(), 60, []int64{1}, cfg)
	r := fe.runSimulation(fe.params.DefaultVector(), 1)
	if r.survivalTicks != 60 {
		t.Errorf("survivalTicks = %d, want 60 (warmup prevents early exit)", r.survivalTicks)
	}
}
