package systems

import (
	"github.com/pthm-cable/ecosystem/components"
)

// UpdateEnergy ages the organism, applies base and movement costs, and marks it
// dead when energy runs out. Returns the energy actually spent.
func UpdateEnergy(energy *components.Energy, vel components.Velocity, caps components.Capabilities, dt float32) float32 {
	if !energy.Alive {
		return 0
	}

	energy.Age += dt

	cost := caps.BaseCost * dt

	// Movement cost: proportional to (speed/maxSpeed)^2
	maxSpeedSq := caps.MaxSpeed * caps.MaxSpeed
	if maxSpeedSq > 0 {
		speedSq := vel.X*vel.X + vel.Y*vel.Y
		cost += caps.MoveCost * (speedSq / maxSpeedSq) * dt
	}

	if cost >= energy.Value {
		cost = energy.Value
		energy.Value = 0
		energy.Alive = false
		return cost
	}

	energy.Value -= cost
	return cost
}

// Transfer describes the outcome of a bite.
type Transfer struct {
	Removed float32 // taken from the target
	Gained  float32 // added to the biter
	Killed  bool
}

// TransferEnergy moves up to amount of energy from target to biter, scaled by
// efficiency. The biter is capped at its max; the surplus is lost.
func TransferEnergy(biter, target *components.Energy, amount, efficiency float32) Transfer {
	if !biter.Alive || !target.Alive || amount <= 0 {
		return Transfer{}
	}

	actual := min(amount, target.Value)
	target.Value -= actual

	gained := min(actual*efficiency, max(biter.Max-biter.Value, 0))
	biter.Value += gained

	xfer := Transfer{Removed: actual, Gained: gained}
	if target.Value <= 0 {
		target.Value = 0
		target.Alive = false
		xfer.Killed = true
	}
	return xfer
}

// GrazeFood moves energy from a food item into a herbivore at rate per second,
// limited by what the item holds and the room left in the herbivore.
// Returns the amount eaten.
func GrazeFood(energy *components.Energy, food *components.Food, rate, dt float32) float32 {
	if !energy.Alive || food.Energy <= 0 {
		return 0
	}
	take := min(rate*dt, food.Energy, max(energy.Max-energy.Value, 0))
	if take <= 0 {
		return 0
	}
	food.Energy -= take
	energy.Value += take
	return take
}
