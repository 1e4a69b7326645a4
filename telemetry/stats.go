package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population counts at window end
	HerbCount int     `csv:"herbivores"`
	CarnCount int     `csv:"carnivores"`
	Occupancy float64 `csv:"occupancy"` // living organisms / capacity

	// Events during window
	HerbBirths    int `csv:"herb_births"`
	CarnBirths    int `csv:"carn_births"`
	HerbDeaths    int `csv:"herb_deaths"`
	CarnDeaths    int `csv:"carn_deaths"`
	BirthsBlocked int `csv:"births_blocked"`

	// Hunting
	BitesAttempted     int     `csv:"bites_attempted"`
	BitesHit           int     `csv:"bites_hit"`
	Kills              int     `csv:"kills"`
	BitesBlockedDigest int     `csv:"bites_blocked_digest"`
	HitRate            float64 `csv:"hit_rate"`
	KillRate           float64 `csv:"kill_rate"`

	// Energy distribution (sampled at window end)
	HerbEnergyMean float64 `csv:"herb_energy_mean"`
	HerbEnergyP10  float64 `csv:"herb_energy_p10"`
	HerbEnergyP50  float64 `csv:"herb_energy_p50"`
	HerbEnergyP90  float64 `csv:"herb_energy_p90"`

	CarnEnergyMean float64 `csv:"carn_energy_mean"`
	CarnEnergyP10  float64 `csv:"carn_energy_p10"`
	CarnEnergyP50  float64 `csv:"carn_energy_p50"`
	CarnEnergyP90  float64 `csv:"carn_energy_p90"`

	// Food
	FoodItems    int     `csv:"food_items"`
	FoodEnergy   float64 `csv:"food_energy"`
	FoodEaten    float64 `csv:"food_eaten"`
	FoodSpawned  int     `csv:"food_spawned"`
	FoodDepleted int     `csv:"food_depleted"`

	MaxGeneration uint32 `csv:"max_generation"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeEnergyStats calculates mean and percentiles from energy values.
func ComputeEnergyStats(values []float64) (mean, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}

	mean = stat.Mean(values, nil)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, p10, p50, p90
}

// ComputeSpread returns the population mean and standard deviation.
func ComputeSpread(values []float64) (mean, std float64) {
	if len(values) == 0 {
		return 0, 0
	}
	return stat.PopMeanStdDev(values, nil)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("herbivores", s.HerbCount),
		slog.Int("carnivores", s.CarnCount),
		slog.Float64("occupancy", s.Occupancy),
		slog.Int("herb_births", s.HerbBirths),
		slog.Int("carn_births", s.CarnBirths),
		slog.Int("herb_deaths", s.HerbDeaths),
		slog.Int("carn_deaths", s.CarnDeaths),
		slog.Int("births_blocked", s.BirthsBlocked),
		slog.Int("bites_attempted", s.BitesAttempted),
		slog.Int("bites_hit", s.BitesHit),
		slog.Int("kills", s.Kills),
		slog.Int("bites_blocked_digest", s.BitesBlockedDigest),
		slog.Float64("hit_rate", s.HitRate),
		slog.Float64("kill_rate", s.KillRate),
		slog.Float64("herb_energy_mean", s.HerbEnergyMean),
		slog.Float64("herb_energy_p50", s.HerbEnergyP50),
		slog.Float64("carn_energy_mean", s.CarnEnergyMean),
		slog.Float64("carn_energy_p50", s.CarnEnergyP50),
		slog.Int("food_items", s.FoodItems),
		slog.Float64("food_energy", s.FoodEnergy),
		slog.Float64("food_eaten", s.FoodEaten),
		slog.Int("food_spawned", s.FoodSpawned),
		slog.Int("food_depleted", s.FoodDepleted),
		slog.Any("max_generation", s.MaxGeneration),
	)
}

// LogStats logs the window stats on the given logger.
func (s WindowStats) LogStats(logger *slog.Logger) {
	logger.Info("stats", "window", s)
}
