package systems

import (
	"math"
	"testing"

	"github.com/pthm-cable/ecosystem/components"
)

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-6
}

// ---------- UpdateEnergy ----------

func TestUpdateEnergy_DeadEntityNoOp(t *testing.T) {
	e := components.Energy{Value: 0.5, Max: 1.0, Alive: false}
	cost := UpdateEnergy(&e, components.Velocity{}, testCaps(), 1.0/60)
	if cost != 0 {
		t.Errorf("expected 0 cost for dead entity, got %f", cost)
	}
	if e.Value != 0.5 {
		t.Errorf("dead entity energy should not change, got %f", e.Value)
	}
}

func TestUpdateEnergy_AgeIncreases(t *testing.T) {
	dt := float32(1.0 / 60.0)
	e := components.Energy{Value: 0.5, Max: 1.0, Alive: true, Age: 10.0}

	UpdateEnergy(&e, components.Velocity{}, testCaps(), dt)

	if !approx(e.Age, 10+dt) {
		t.Errorf("expected age %.6f, got %.6f", 10+dt, e.Age)
	}
}

func TestUpdateEnergy_BaseCostApplied(t *testing.T) {
	dt := float32(1.0 / 60.0)
	caps := testCaps()
	e := components.Energy{Value: 0.5, Max: 1.0, Alive: true}

	cost := UpdateEnergy(&e, components.Velocity{}, caps, dt)

	if !approx(cost, caps.BaseCost*dt) {
		t.Errorf("stationary cost = %f, want %f", cost, caps.BaseCost*dt)
	}
	if !approx(0.5-e.Value, cost) {
		t.Errorf("cost (%f) should match energy lost (%f)", cost, 0.5-e.Value)
	}
}

func TestUpdateEnergy_MovementCostIncreasesWithSpeed(t *testing.T) {
	dt := float32(1.0 / 60.0)
	caps := testCaps()

	e1 := components.Energy{Value: 0.5, Max: 1.0, Alive: true}
	cost1 := UpdateEnergy(&e1, components.Velocity{}, caps, dt)

	e2 := components.Energy{Value: 0.5, Max: 1.0, Alive: true}
	cost2 := UpdateEnergy(&e2, components.Velocity{X: caps.MaxSpeed * 0.5}, caps, dt)

	e3 := components.Energy{Value: 0.5, Max: 1.0, Alive: true}
	cost3 := UpdateEnergy(&e3, components.Velocity{X: caps.MaxSpeed}, caps, dt)

	if cost2 <= cost1 {
		t.Errorf("half speed cost (%f) should exceed stationary cost (%f)", cost2, cost1)
	}
	if cost3 <= cost2 {
		t.Errorf("full speed cost (%f) should exceed half speed cost (%f)", cost3, cost2)
	}
}

func TestUpdateEnergy_DeathWhenDepleted(t *testing.T) {
	e := components.Energy{Value: 0.0001, Max: 1.0, Alive: true}
	cost := UpdateEnergy(&e, components.Velocity{}, testCaps(), 1.0)

	if e.Alive {
		t.Error("entity should die when energy runs out")
	}
	if e.Value != 0 {
		t.Errorf("dead entity energy = %f, want 0", e.Value)
	}
	if !approx(cost, 0.0001) {
		t.Errorf("cost should be capped at remaining energy, got %f", cost)
	}
}

// ---------- TransferEnergy ----------

func TestTransferEnergy_PartialBite(t *testing.T) {
	biter := components.Energy{Value: 0.2, Max: 1.0, Alive: true}
	target := components.Energy{Value: 0.6, Max: 1.0, Alive: true}

	x := TransferEnergy(&biter, &target, 0.3, 0.5)

	if !approx(x.Removed, 0.3) || !approx(x.Gained, 0.15) {
		t.Errorf("transfer = %+v, want removed 0.3 gained 0.15", x)
	}
	if x.Killed || !target.Alive {
		t.Error("target should survive a partial bite")
	}
	if !approx(biter.Value, 0.35) || !approx(target.Value, 0.3) {
		t.Errorf("energies = %f / %f", biter.Value, target.Value)
	}
}

func TestTransferEnergy_Kill(t *testing.T) {
	biter := components.Energy{Value: 0.2, Max: 1.0, Alive: true}
	target := components.Energy{Value: 0.1, Max: 1.0, Alive: true}

	x := TransferEnergy(&biter, &target, 0.3, 1.0)

	if !x.Killed || target.Alive {
		t.Error("bite larger than remaining energy should kill")
	}
	if !approx(x.Removed, 0.1) {
		t.Errorf("removed = %f, want 0.1", x.Removed)
	}
}

func TestTransferEnergy_CapsAtMax(t *testing.T) {
	biter := components.Energy{Value: 0.95, Max: 1.0, Alive: true}
	target := components.Energy{Value: 0.5, Max: 1.0, Alive: true}

	x := TransferEnergy(&biter, &target, 0.3, 1.0)

	if !approx(biter.Value, 1.0) {
		t.Errorf("biter should be capped at max, got %f", biter.Value)
	}
	if !approx(x.Gained, 0.05) {
		t.Errorf("gained = %f, want 0.05", x.Gained)
	}
}

func TestTransferEnergy_DeadParticipants(t *testing.T) {
	biter := components.Energy{Value: 0.5, Max: 1.0, Alive: true}
	target := components.Energy{Value: 0.5, Max: 1.0, Alive: false}

	if x := TransferEnergy(&biter, &target, 0.3, 1.0); x.Removed != 0 {
		t.Error("dead target should not be bitten")
	}
}

// ---------- GrazeFood ----------

func TestGrazeFood(t *testing.T) {
	e := components.Energy{Value: 0.5, Max: 1.0, Alive: true}
	f := components.Food{Energy: 0.4, MaxEnergy: 0.6}

	eaten := GrazeFood(&e, &f, 0.6, 0.5)

	if !approx(eaten, 0.3) {
		t.Errorf("eaten = %f, want 0.3", eaten)
	}
	if !approx(f.Energy, 0.1) || !approx(e.Value, 0.8) {
		t.Errorf("after grazing food=%f energy=%f", f.Energy, e.Value)
	}
}

func TestGrazeFood_LimitedByRoomAndSupply(t *testing.T) {
	full := components.Energy{Value: 0.95, Max: 1.0, Alive: true}
	f := components.Food{Energy: 0.4, MaxEnergy: 0.6}
	if eaten := GrazeFood(&full, &f, 10, 1); !approx(eaten, 0.05) {
		t.Errorf("room-limited graze = %f, want 0.05", eaten)
	}

	hungry := components.Energy{Value: 0.1, Max: 1.0, Alive: true}
	small := components.Food{Energy: 0.02, MaxEnergy: 0.6}
	if eaten := GrazeFood(&hungry, &small, 10, 1); !approx(eaten, 0.02) {
		t.Errorf("supply-limited graze = %f, want 0.02", eaten)
	}
	if small.Energy != 0 {
		t.Errorf("food should be emptied, got %f", small.Energy)
	}
}
