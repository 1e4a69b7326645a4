package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/ecosystem/components"
	"github.com/pthm-cable/ecosystem/neural"
)

// SensorInputs holds the computed sensor values for one organism.
// Bearings are expressed relative to the organism's heading.
type SensorInputs struct {
	TargetSin, TargetCos, TargetProx float32
	ThreatSin, ThreatCos, ThreatProx float32
	Energy                           float32 // self energy ratio [0,1]
	Speed                            float32 // self speed normalized [0,1]

	// Target is the nearest food item (herbivores) or prey (carnivores).
	Target    ecs.Entity
	HasTarget bool
}

// AsArray returns the inputs in neural input slot order.
func (s *SensorInputs) AsArray() [neural.NumInputs]float32 {
	var a [neural.NumInputs]float32
	a[neural.InTargetSin] = s.TargetSin
	a[neural.InTargetCos] = s.TargetCos
	a[neural.InTargetProx] = s.TargetProx
	a[neural.InThreatSin] = s.ThreatSin
	a[neural.InThreatCos] = s.ThreatCos
	a[neural.InThreatProx] = s.ThreatProx
	a[neural.InEnergy] = s.Energy
	a[neural.InSpeed] = s.Speed
	return a
}

// SensorLookups bundles the component mappers sensors read from.
type SensorLookups struct {
	Org    *ecs.Map1[components.Organism]
	Energy *ecs.Map1[components.Energy]
	Food   *ecs.Map1[components.Food]
}

// ComputeSensors finds the nearest target and threat among pre-queried neighbors.
// organisms and food must already be limited to the caller's vision range.
// Herbivores target food and fear carnivores; carnivores target herbivores.
func ComputeSensors(
	rot components.Rotation,
	vel components.Velocity,
	energy components.Energy,
	caps components.Capabilities,
	kind components.Kind,
	organisms []Neighbor,
	food []Neighbor,
	lk SensorLookups,
) SensorInputs {
	var in SensorInputs

	speed := float32(math.Sqrt(float64(vel.X*vel.X + vel.Y*vel.Y)))
	if caps.MaxSpeed > 0 {
		in.Speed = clamp01(speed / caps.MaxSpeed)
	}
	in.Energy = clamp01(energy.Ratio())

	var target, threat *Neighbor

	if kind == components.KindHerbivore {
		for i := range food {
			n := &food[i]
			f := lk.Food.Get(n.E)
			if f == nil || f.Energy <= 0 {
				continue
			}
			if target == nil || n.DistSq < target.DistSq {
				target = n
			}
		}
	}

	for i := range organisms {
		n := &organisms[i]
		org := lk.Org.Get(n.E)
		e := lk.Energy.Get(n.E)
		if org == nil || e == nil || !e.Alive {
			continue
		}
		switch {
		case kind == components.KindHerbivore && org.Kind == components.KindCarnivore:
			if threat == nil || n.DistSq < threat.DistSq {
				threat = n
			}
		case kind == components.KindCarnivore && org.Kind == components.KindHerbivore:
			if target == nil || n.DistSq < target.DistSq {
				target = n
			}
		}
	}

	if target != nil {
		in.TargetSin, in.TargetCos, in.TargetProx = bearing(*target, rot.Heading, caps.VisionRange)
		in.Target = target.E
		in.HasTarget = true
	}
	if threat != nil {
		in.ThreatSin, in.ThreatCos, in.ThreatProx = bearing(*threat, rot.Heading, caps.VisionRange)
	}

	return in
}

// bearing returns sin/cos of the angle to n relative to heading, and a
// proximity signal that is 1 at contact and 0 at the edge of vision.
func bearing(n Neighbor, heading, visionRange float32) (sin, cos, prox float32) {
	dist := float32(math.Sqrt(float64(n.DistSq)))
	if dist < 1e-3 {
		return 0, 1, 1
	}
	rel := float64(NormalizeAngle(float32(math.Atan2(float64(n.DY), float64(n.DX))) - heading))
	if visionRange > 0 {
		prox = clamp01(1 - dist/visionRange)
	}
	return float32(math.Sin(rel)), float32(math.Cos(rel)), prox
}

// NormalizeAngle wraps an angle to [-pi, pi]. Non-finite input returns 0.
func NormalizeAngle(a float32) float32 {
	r := math.Remainder(float64(a), 2*math.Pi)
	if math.IsNaN(r) {
		return 0
	}
	return float32(r)
}

func clamp01(x float32) float32 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
