package telemetry

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"
)

func TestPhaseString(t *testing.T) {
	if PhaseSpatialGrid.String() != "spatial_grid" || PhaseTelemetry.String() != "telemetry" {
		t.Errorf("unexpected names %q / %q", PhaseSpatialGrid, PhaseTelemetry)
	}
	if NumPhases.String() != "unknown" {
		t.Errorf("NumPhases.String() = %q", NumPhases)
	}
}

func TestPerfCollector_PhasesAccumulate(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 3; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseFeeding)
		time.Sleep(50 * time.Microsecond)
		pc.StartPhase(PhaseFood)
		time.Sleep(2 * time.Millisecond)
		pc.EndTick()
	}

	s := pc.Stats()
	if s.AvgTick <= 0 || s.TicksPerSecond <= 0 {
		t.Fatalf("expected positive tick timing, got %+v", s)
	}
	if s.PhaseAvg[PhaseFood] <= s.PhaseAvg[PhaseFeeding] {
		t.Errorf("food (%v) should outweigh feeding (%v)", s.PhaseAvg[PhaseFood], s.PhaseAvg[PhaseFeeding])
	}
	if s.PhaseAvg[PhaseEnergy] != 0 {
		t.Errorf("untimed phase has %v", s.PhaseAvg[PhaseEnergy])
	}
	if s.MinTick > s.AvgTick || s.AvgTick > s.MaxTick {
		t.Errorf("min/avg/max out of order: %v %v %v", s.MinTick, s.AvgTick, s.MaxTick)
	}

	var pct float64
	for _, v := range s.PhasePct {
		pct += v
	}
	if pct > 100.0001 {
		t.Errorf("phase shares sum to %.2f%%", pct)
	}
}

func TestPerfCollector_RingKeepsLastWindow(t *testing.T) {
	pc := NewPerfCollector(4)
	for i := 0; i < 10; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseCleanup)
		pc.EndTick()
	}
	if pc.filled != 4 || pc.next != 10%4 {
		t.Errorf("filled=%d next=%d, want 4 and 2", pc.filled, pc.next)
	}

	if NewPerfCollector(0).Stats().AvgTick != 0 {
		t.Error("empty collector should report zero timing")
	}
	if len(NewPerfCollector(0).ring) != 60 {
		t.Error("window below 1 should default to 60")
	}
}

func TestPerfCollector_FrameTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	pc.RecordFrame()
	if pc.Stats().FPS != 0 {
		t.Error("a single frame has no interval")
	}
	time.Sleep(16 * time.Millisecond)
	pc.RecordFrame()

	s := pc.Stats()
	if s.FrameDuration < 15*time.Millisecond {
		t.Errorf("frame duration = %v, want >= 15ms", s.FrameDuration)
	}
	// Sleep can overshoot, so only the upper bound is meaningful.
	if s.FPS <= 0 || s.FPS > 70 {
		t.Errorf("FPS = %v, want (0, 70]", s.FPS)
	}
}

func TestPerfStats_LogStats(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	var s PerfStats
	s.AvgTick = 250 * time.Microsecond
	s.TicksPerSecond = 4000
	s.PhasePct[PhaseFeeding] = 12.56
	s.PhasePct[PhaseEnergy] = 0.05
	s.LogStats(logger)

	var rec struct {
		Msg  string             `json:"msg"`
		Perf map[string]float64 `json:"perf"`
	}
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decoding %q: %v", buf.String(), err)
	}
	if rec.Msg != "perf" || rec.Perf["avg_tick_us"] != 250 || rec.Perf["ticks_per_sec"] != 4000 {
		t.Errorf("unexpected record %+v", rec)
	}
	if rec.Perf["feeding_pct"] != 12.5 {
		t.Errorf("feeding_pct = %v, want 12.5", rec.Perf["feeding_pct"])
	}
	if _, ok := rec.Perf["energy_pct"]; ok {
		t.Error("phases under 0.1% should be omitted")
	}
	if _, ok := rec.Perf["fps"]; ok {
		t.Error("fps should be omitted without frames")
	}
}

func TestPerfStats_ToCSV(t *testing.T) {
	s := PerfStats{
		AvgTick:        250 * time.Microsecond,
		MinTick:        100 * time.Microsecond,
		MaxTick:        900 * time.Microsecond,
		TicksPerSecond: 4000,
	}
	s.PhasePct[PhaseFeeding] = 12.5
	s.PhasePct[PhaseFood] = 30

	row := s.ToCSV(600)
	if row.WindowEnd != 600 || row.AvgTickUS != 250 || row.MaxTickUS != 900 {
		t.Errorf("unexpected timing columns: %+v", row)
	}
	if row.FeedingPct != 12.5 || row.FoodPct != 30 || row.EnergyPct != 0 {
		t.Errorf("unexpected phase columns: %+v", row)
	}
}
