package telemetry

import (
	"log/slog"
	"time"
)

// Phase identifies a timed section of a simulation step.
type Phase uint8

// Step phases in execution order.
const (
	PhaseSpatialGrid Phase = iota
	PhaseBehaviorPhysics
	PhaseFeeding
	PhaseEnergy
	PhaseCooldowns
	PhaseReproduction
	PhaseCleanup
	PhaseFood
	PhaseTelemetry
	NumPhases
)

var phaseNames = [NumPhases]string{
	"spatial_grid", "behavior_physics", "feeding", "energy",
	"cooldowns", "reproduction", "cleanup", "food", "telemetry",
}

func (p Phase) String() string {
	if p < NumPhases {
		return phaseNames[p]
	}
	return "unknown"
}

// tickTiming is one step's wall time split by phase.
type tickTiming struct {
	total  time.Duration
	phases [NumPhases]time.Duration
}

// PerfCollector keeps step timings for the last N ticks and the latest
// frame interval when a window drives the simulation.
type PerfCollector struct {
	ring   []tickTiming
	next   int
	filled int

	current    tickTiming
	tickStart  time.Time
	phaseStart time.Time
	phase      Phase
	inPhase    bool

	lastFrame time.Time
	frame     time.Duration
}

// NewPerfCollector keeps the last window ticks (60 if window < 1).
func NewPerfCollector(window int) *PerfCollector {
	if window < 1 {
		window = 60
	}
	return &PerfCollector{ring: make([]tickTiming, window)}
}

// StartTick begins timing a step.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.current = tickTiming{}
	p.inPhase = false
}

// StartPhase closes the running phase, if any, and starts timing phase.
func (p *PerfCollector) StartPhase(phase Phase) {
	now := time.Now()
	p.closePhase(now)
	p.phase = phase
	p.phaseStart = now
	p.inPhase = phase < NumPhases
}

// EndTick closes the running phase and stores the step in the ring.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.closePhase(now)
	p.current.total = now.Sub(p.tickStart)

	p.ring[p.next] = p.current
	p.next = (p.next + 1) % len(p.ring)
	p.filled = min(p.filled+1, len(p.ring))
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.inPhase {
		p.current.phases[p.phase] += now.Sub(p.phaseStart)
		p.inPhase = false
	}
}

// RecordFrame marks the end of a rendered frame.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrame.IsZero() {
		p.frame = now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// PerfStats summarizes the ticks currently held by a PerfCollector.
type PerfStats struct {
	AvgTick time.Duration
	MinTick time.Duration
	MaxTick time.Duration

	PhaseAvg [NumPhases]time.Duration
	PhasePct [NumPhases]float64 // share of the average tick

	TicksPerSecond float64

	FrameDuration time.Duration
	FPS           float64
}

// Stats aggregates the stored ticks.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{FrameDuration: p.frame}
	if p.frame > 0 {
		s.FPS = float64(time.Second) / float64(p.frame)
	}
	if p.filled == 0 {
		return s
	}

	var total time.Duration
	var phaseSum [NumPhases]time.Duration
	for i, t := range p.ring[:p.filled] {
		total += t.total
		if i == 0 || t.total < s.MinTick {
			s.MinTick = t.total
		}
		s.MaxTick = max(s.MaxTick, t.total)
		for ph, d := range t.phases {
			phaseSum[ph] += d
		}
	}

	n := time.Duration(p.filled)
	s.AvgTick = total / n
	for ph := range phaseSum {
		s.PhaseAvg[ph] = phaseSum[ph] / n
		if s.AvgTick > 0 {
			s.PhasePct[ph] = float64(s.PhaseAvg[ph]) / float64(s.AvgTick) * 100
		}
	}
	if s.AvgTick > 0 {
		s.TicksPerSecond = float64(time.Second) / float64(s.AvgTick)
	}
	return s
}

// LogStats logs the summary as a "perf" group.
func (s PerfStats) LogStats(logger *slog.Logger) {
	logger.Info("perf", "perf", s)
}

// LogValue implements slog.LogValuer. Phases under 0.1% are omitted.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTick.Microseconds()),
		slog.Int64("min_tick_us", s.MinTick.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTick.Microseconds()),
		slog.Int("ticks_per_sec", int(s.TicksPerSecond)),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Int("fps", int(s.FPS)))
	}
	for ph := Phase(0); ph < NumPhases; ph++ {
		if pct := s.PhasePct[ph]; pct > 0.1 {
			attrs = append(attrs, slog.Float64(ph.String()+"_pct", float64(int(pct*10))/10))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one perf.csv row.
type PerfStatsCSV struct {
	WindowEnd          int32   `csv:"window_end"`
	AvgTickUS          int64   `csv:"avg_tick_us"`
	MinTickUS          int64   `csv:"min_tick_us"`
	MaxTickUS          int64   `csv:"max_tick_us"`
	TicksPerSec        float64 `csv:"ticks_per_sec"`
	FPS                float64 `csv:"fps"`
	SpatialGridPct     float64 `csv:"spatial_grid_pct"`
	BehaviorPhysicsPct float64 `csv:"behavior_physics_pct"`
	FeedingPct         float64 `csv:"feeding_pct"`
	EnergyPct          float64 `csv:"energy_pct"`
	CooldownsPct       float64 `csv:"cooldowns_pct"`
	ReproductionPct    float64 `csv:"reproduction_pct"`
	CleanupPct         float64 `csv:"cleanup_pct"`
	FoodPct            float64 `csv:"food_pct"`
	TelemetryPct       float64 `csv:"telemetry_pct"`
}

// ToCSV flattens the summary for a window ending at windowEnd.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:          windowEnd,
		AvgTickUS:          s.AvgTick.Microseconds(),
		MinTickUS:          s.MinTick.Microseconds(),
		MaxTickUS:          s.MaxTick.Microseconds(),
		TicksPerSec:        s.TicksPerSecond,
		FPS:                s.FPS,
		SpatialGridPct:     s.PhasePct[PhaseSpatialGrid],
		BehaviorPhysicsPct: s.PhasePct[PhaseBehaviorPhysics],
		FeedingPct:         s.PhasePct[PhaseFeeding],
		EnergyPct:          s.PhasePct[PhaseEnergy],
		CooldownsPct:       s.PhasePct[PhaseCooldowns],
		ReproductionPct:    s.PhasePct[PhaseReproduction],
		CleanupPct:         s.PhasePct[PhaseCleanup],
		FoodPct:            s.PhasePct[PhaseFood],
		TelemetryPct:       s.PhasePct[PhaseTelemetry],
	}
}
