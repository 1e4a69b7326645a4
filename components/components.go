// Package components defines ECS components for the simulation.
package components

import (
	"fmt"

	"github.com/pthm-cable/ecosystem/config"
)

// Kind identifies which trophic level an organism belongs to.
type Kind uint8

const (
	KindHerbivore Kind = iota
	KindCarnivore
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindHerbivore:
		return "herbivore"
	case KindCarnivore:
		return "carnivore"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// MarshalText implements encoding.TextMarshaler so snapshots stay readable.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "herbivore":
		*k = KindHerbivore
	case "carnivore":
		*k = KindCarnivore
	default:
		return fmt.Errorf("unknown kind %q", b)
	}
	return nil
}

// KindFromDiet maps a diet value to its kind bucket.
func KindFromDiet(diet float32) Kind {
	if diet >= 0.5 {
		return KindCarnivore
	}
	return KindHerbivore
}

// Position represents an entity's world position.
type Position struct {
	X, Y float32
}

// Velocity represents an entity's velocity in world units per second.
type Velocity struct {
	X, Y float32
}

// Rotation holds heading state.
type Rotation struct {
	Heading float32 // radians, [-pi, pi]
	AngVel  float32 // last applied turn rate (radians per second)
}

// Body holds physical extent.
type Body struct {
	Radius float32
}

// Energy holds the metabolic state of an organism.
type Energy struct {
	Value      float32
	Max        float32
	Age        float32 // seconds
	Alive      bool
	LastThrust float32
	LastBite   float32
}

// Ratio returns Value/Max, or 0 for a zero-capacity body.
func (e *Energy) Ratio() float32 {
	if e.Max <= 0 {
		return 0
	}
	return e.Value / e.Max
}

// Capabilities holds per-organism movement and perception limits.
type Capabilities struct {
	MaxSpeed    float32
	MaxAccel    float32
	MaxTurnRate float32
	Drag        float32
	VisionRange float32
	BiteRange   float32
	BaseCost    float32
	MoveCost    float32
}

// CapabilitiesFromArchetype copies an archetype's limits into a component.
func CapabilitiesFromArchetype(arch *config.ArchetypeConfig) Capabilities {
	return Capabilities{
		MaxSpeed:    float32(arch.MaxSpeed),
		MaxAccel:    float32(arch.MaxAccel),
		MaxTurnRate: float32(arch.MaxTurnRate),
		Drag:        float32(arch.Drag),
		VisionRange: float32(arch.VisionRange),
		BiteRange:   float32(arch.BiteRange),
		BaseCost:    float32(arch.BaseCost),
		MoveCost:    float32(arch.MoveCost),
	}
}

// Organism holds identity and lifecycle timers.
type Organism struct {
	ID             uint32
	ParentID       uint32 // 0 for founders
	Kind           Kind
	ArchetypeID    uint8
	Diet           float32
	Generation     uint32
	ReproCooldown  float32 // seconds
	DigestCooldown float32 // seconds
}

// Food is a grazable item. Items regrow toward MaxEnergy and disappear when emptied.
type Food struct {
	Energy    float32
	MaxEnergy float32
	Radius    float32
	Age       float32
}
