package systems

import (
	"math"

	"github.com/pthm-cable/ecosystem/components"
)

// minTurnThrottle keeps some steering authority at zero thrust so organisms
// can still line up on food while grazing.
const minTurnThrottle = 0.3

// ApplyControl integrates one tick of brain output into heading, velocity and
// position. turn is in [-1,1], thrust in [0,1]. Position wraps toroidally.
func ApplyControl(
	pos *components.Position,
	vel *components.Velocity,
	rot *components.Rotation,
	caps components.Capabilities,
	turn, thrust, dt, width, height float32,
) {
	turn = clampSigned(turn)
	thrust = clamp01(thrust)

	// Heading-as-state
	rot.AngVel = turn * caps.MaxTurnRate * max(thrust, minTurnThrottle)
	rot.Heading = NormalizeAngle(rot.Heading + rot.AngVel*dt)

	// Steer velocity toward the desired vector, bounded by MaxAccel
	targetSpeed := thrust * caps.MaxSpeed
	desiredX := float32(math.Cos(float64(rot.Heading))) * targetSpeed
	desiredY := float32(math.Sin(float64(rot.Heading))) * targetSpeed
	dvx := desiredX - vel.X
	dvy := desiredY - vel.Y
	dv := float32(math.Sqrt(float64(dvx*dvx + dvy*dvy)))
	if maxDv := caps.MaxAccel * dt; dv > maxDv && dv > 0 {
		scale := maxDv / dv
		dvx *= scale
		dvy *= scale
	}
	vel.X += dvx
	vel.Y += dvy

	// Drag
	dragFactor := float32(math.Exp(-float64(caps.Drag * dt)))
	vel.X *= dragFactor
	vel.Y *= dragFactor

	// Clamp speed
	speed := float32(math.Sqrt(float64(vel.X*vel.X + vel.Y*vel.Y)))
	if speed > caps.MaxSpeed && speed > 0 {
		scale := caps.MaxSpeed / speed
		vel.X *= scale
		vel.Y *= scale
	}

	pos.X = Wrap(pos.X+vel.X*dt, width)
	pos.Y = Wrap(pos.Y+vel.Y*dt, height)
}

// Wrap maps v into [0, size).
func Wrap(v, size float32) float32 {
	w := float32(math.Mod(float64(v), float64(size)))
	if w < 0 {
		w += size
	}
	// float32 rounding can land exactly on size
	if w >= size {
		w = 0
	}
	return w
}

func clampSigned(x float32) float32 {
	if x < -1 {
		return -1
	}
	if x > 1 {
		return 1
	}
	return x
}
