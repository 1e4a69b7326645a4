package systems

import (
	"math/rand"

	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/ecosystem/components"
)

// spawnAttempts bounds rejection sampling in SpawnPoint.
const spawnAttempts = 32

// FertilityField is a static fBm map in [0,1] that biases where food appears.
type FertilityField struct {
	noise   opensimplex.Noise
	scale   float64
	octaves int
	width   float32
	height  float32
}

// NewFertilityField builds a field for a world of the given size.
// scale is the base noise frequency in cycles per world unit.
func NewFertilityField(seed int64, width, height float32, scale float64, octaves int) *FertilityField {
	if octaves < 1 {
		octaves = 1
	}
	return &FertilityField{
		noise:   opensimplex.NewNormalized(seed),
		scale:   scale,
		octaves: octaves,
		width:   width,
		height:  height,
	}
}

// Sample returns fertility at a world position.
func (f *FertilityField) Sample(x, y float32) float32 {
	freq := f.scale
	amp := 1.0
	var sum, norm float64
	for i := 0; i < f.octaves; i++ {
		sum += amp * f.noise.Eval2(float64(x)*freq, float64(y)*freq)
		norm += amp
		freq *= 2
		amp *= 0.5
	}
	return clamp01(float32(sum / norm))
}

// SpawnPoint picks a random position whose fertility is at least minFertile.
// If no sample passes, the most fertile candidate seen is returned.
func (f *FertilityField) SpawnPoint(rng *rand.Rand, minFertile float32) (x, y float32) {
	var best float32 = -1
	for i := 0; i < spawnAttempts; i++ {
		cx := rng.Float32() * f.width
		cy := rng.Float32() * f.height
		v := f.Sample(cx, cy)
		if v >= minFertile {
			return cx, cy
		}
		if v > best {
			best, x, y = v, cx, cy
		}
	}
	return x, y
}

// RegrowFood ages a food item and regrows it toward its max.
func RegrowFood(food *components.Food, rate, dt float32) {
	food.Age += dt
	if food.Energy < food.MaxEnergy {
		food.Energy = min(food.Energy+rate*dt, food.MaxEnergy)
	}
}

// SpawnBudget accumulates fractional spawns so low rates still produce items.
type SpawnBudget struct {
	acc float32
}

// Take adds rate*dt to the budget and returns how many whole items may spawn,
// never more than room.
func (b *SpawnBudget) Take(rate, dt float32, room int) int {
	b.acc += rate * dt
	n := int(b.acc)
	if n > room {
		n = max(room, 0)
		// excess is dropped, not banked
		b.acc = 0
		return n
	}
	b.acc -= float32(n)
	return n
}
