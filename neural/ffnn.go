// Package neural provides feedforward neural network brains for organisms.
package neural

import (
	"math"
	"math/rand"
)

// Network dimensions (compile-time constants for array sizing).
const (
	NumInputs  = 8 // target sin/cos/proximity, threat sin/cos/proximity, energy, speed
	NumHidden  = 12
	NumOutputs = 3 // turn, thrust, bite
)

// Input slots, in the order produced by systems.SensorInputs.AsSlice.
const (
	InTargetSin = iota
	InTargetCos
	InTargetProx
	InThreatSin
	InThreatCos
	InThreatProx
	InEnergy
	InSpeed
)

// Hidden units wired by NewInstinctFFNN. The remaining units start as pure noise.
const (
	hTargetBearing = iota
	hThreatBearing
	hThreatNear
	hTargetNear
)

// FFNN is a simple two-layer feedforward neural network.
type FFNN struct {
	W1 [NumHidden][NumInputs]float32  // input -> hidden weights
	B1 [NumHidden]float32             // hidden biases
	W2 [NumOutputs][NumHidden]float32 // hidden -> output weights
	B2 [NumOutputs]float32            // output biases
}

// NewFFNN creates a randomly initialized network (Xavier scaling).
func NewFFNN(rng *rand.Rand) *FFNN {
	nn := &FFNN{}
	scale1 := float32(math.Sqrt(2.0 / float64(NumInputs)))
	scale2 := float32(math.Sqrt(2.0 / float64(NumHidden)))

	for i := range nn.W1 {
		for j := range nn.W1[i] {
			nn.W1[i][j] = float32(rng.NormFloat64()) * scale1
		}
	}
	for i := range nn.W2 {
		for j := range nn.W2[i] {
			nn.W2[i][j] = float32(rng.NormFloat64()) * scale2
		}
	}

	// The output activation is saturate01(raw*0.5 + 0.5), so raw=0 maps to 0.5.
	nn.B2[2] = -2.0 // bite: biased toward 0

	return nn
}

// NewInstinctFFNN returns a founder brain with a seek-target / flee-threat reflex
// plus Gaussian weight noise of the given strength. Carnivores speed up as they
// close on a target, herbivores slow down to graze.
func NewInstinctFFNN(rng *rand.Rand, diet, noise float32) *FFNN {
	nn := &FFNN{}

	nn.W1[hTargetBearing][InTargetSin] = 3
	nn.W1[hThreatBearing][InThreatSin] = 3
	nn.W1[hThreatNear][InThreatProx] = 2
	nn.W1[hTargetNear][InTargetProx] = 2

	// turn toward target, away from threat
	nn.W2[0][hTargetBearing] = 2.5
	nn.W2[0][hThreatBearing] = -2.5

	// thrust
	nn.B2[1] = 0.4
	nn.W2[1][hThreatNear] = 1.5
	if diet >= 0.5 {
		nn.W2[1][hTargetNear] = 0.5
	} else {
		nn.W2[1][hTargetNear] = -1.0
	}

	// bite when the target is close
	nn.B2[2] = -1
	nn.W2[2][hTargetNear] = 3

	if noise > 0 {
		nn.Mutate(rng, noise)
	}
	return nn
}

// Forward computes the network output.
// Returns: turn [-1,1], thrust [0,1], bite [0,1]
func (nn *FFNN) Forward(inputs []float32) (turn, thrust, bite float32) {
	var hidden [NumHidden]float32
	for i := 0; i < NumHidden; i++ {
		sum := nn.B1[i]
		for j := 0; j < NumInputs && j < len(inputs); j++ {
			sum += nn.W1[i][j] * inputs[j]
		}
		hidden[i] = tanh(sum)
	}

	var outputs [NumOutputs]float32
	for i := 0; i < NumOutputs; i++ {
		sum := nn.B2[i]
		for j := 0; j < NumHidden; j++ {
			sum += nn.W2[i][j] * hidden[j]
		}
		outputs[i] = sum
	}

	turn = tanh(outputs[0])
	thrust = saturate01(outputs[1]*0.5 + 0.5)
	bite = saturate01(outputs[2]*0.5 + 0.5)

	return turn, thrust, bite
}

// saturate01 clamps x to [0, 1].
func saturate01(x float32) float32 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}
	return x
}

// Mutate perturbs every weight and bias with Gaussian noise.
func (nn *FFNN) Mutate(rng *rand.Rand, strength float32) {
	for i := range nn.W1 {
		for j := range nn.W1[i] {
			nn.W1[i][j] += float32(rng.NormFloat64()) * strength
		}
		nn.B1[i] += float32(rng.NormFloat64()) * strength
	}

	for i := range nn.W2 {
		for j := range nn.W2[i] {
			nn.W2[i][j] += float32(rng.NormFloat64()) * strength
		}
		nn.B2[i] += float32(rng.NormFloat64()) * strength
	}
}

// MutateSparse applies sparse per-weight mutation for stable lineages.
// rate: probability each weight mutates (e.g., 0.05)
// sigma: standard deviation of normal perturbation (e.g., 0.08)
// bigRate: probability of a large mutation (e.g., 0.01)
// bigSigma: sigma for large mutations (e.g., 0.4)
// Returns the average absolute delta of all applied mutations.
func (nn *FFNN) MutateSparse(rng *rand.Rand, rate, sigma, bigRate, bigSigma float32) float32 {
	biasRate := rate * 0.5 // biases mutate at half the rate

	var totalDelta float32
	var count int

	perturb := func(w *float32, p float32) {
		if rng.Float32() >= p {
			return
		}
		var delta float32
		if rng.Float32() < bigRate {
			delta = float32(rng.NormFloat64()) * bigSigma
		} else {
			delta = float32(rng.NormFloat64()) * sigma
		}
		*w += delta
		totalDelta += abs32(delta)
		count++
	}

	for i := range nn.W1 {
		for j := range nn.W1[i] {
			perturb(&nn.W1[i][j], rate)
		}
		perturb(&nn.B1[i], biasRate)
	}
	for i := range nn.W2 {
		for j := range nn.W2[i] {
			perturb(&nn.W2[i][j], rate)
		}
		perturb(&nn.B2[i], biasRate)
	}

	if count == 0 {
		return 0
	}
	return totalDelta / float32(count)
}

// abs32 returns the absolute value of x.
func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// Clone creates a deep copy of the network.
func (nn *FFNN) Clone() *FFNN {
	clone := *nn
	return &clone
}

// tanh uses a fast rational approximation avoiding float64 conversion.
func tanh(x float32) float32 {
	if x > 4 {
		return 1
	}
	if x < -4 {
		return -1
	}
	x2 := x * x
	return x * (27 + x2) / (27 + 9*x2)
}

// BrainWeights holds flattened network weights for serialization.
type BrainWeights struct {
	W1 []float32 `json:"w1"` // [NumHidden * NumInputs]
	B1 []float32 `json:"b1"` // [NumHidden]
	W2 []float32 `json:"w2"` // [NumOutputs * NumHidden]
	B2 []float32 `json:"b2"` // [NumOutputs]
}

// MarshalWeights flattens the network weights for JSON serialization.
func (nn *FFNN) MarshalWeights() BrainWeights {
	bw := BrainWeights{
		W1: make([]float32, NumHidden*NumInputs),
		B1: make([]float32, NumHidden),
		W2: make([]float32, NumOutputs*NumHidden),
		B2: make([]float32, NumOutputs),
	}

	for i := 0; i < NumHidden; i++ {
		copy(bw.W1[i*NumInputs:(i+1)*NumInputs], nn.W1[i][:])
	}
	copy(bw.B1, nn.B1[:])
	for i := 0; i < NumOutputs; i++ {
		copy(bw.W2[i*NumHidden:(i+1)*NumHidden], nn.W2[i][:])
	}
	copy(bw.B2, nn.B2[:])

	return bw
}

// UnmarshalWeights restores network weights from flattened form.
// Short slices leave the remaining weights untouched.
func (nn *FFNN) UnmarshalWeights(bw BrainWeights) {
	for i := 0; i < NumHidden; i++ {
		for j := 0; j < NumInputs; j++ {
			if i*NumInputs+j < len(bw.W1) {
				nn.W1[i][j] = bw.W1[i*NumInputs+j]
			}
		}
	}
	for i := 0; i < NumHidden && i < len(bw.B1); i++ {
		nn.B1[i] = bw.B1[i]
	}
	for i := 0; i < NumOutputs; i++ {
		for j := 0; j < NumHidden; j++ {
			if i*NumHidden+j < len(bw.W2) {
				nn.W2[i][j] = bw.W2[i*NumHidden+j]
			}
		}
	}
	for i := 0; i < NumOutputs && i < len(bw.B2); i++ {
		nn.B2[i] = bw.B2[i]
	}
}
