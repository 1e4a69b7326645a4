package neural

import (
	"math/rand"
	"testing"
)

func TestNewFFNN(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	nn := NewFFNN(rng)

	if nn == nil {
		t.Fatal("NewFFNN returned nil")
	}
	if len(nn.W1) != NumHidden {
		t.Errorf("W1 has wrong dimensions: got %d, want %d", len(nn.W1), NumHidden)
	}
	if len(nn.W1[0]) != NumInputs {
		t.Errorf("W1[0] has wrong dimensions: got %d, want %d", len(nn.W1[0]), NumInputs)
	}
	if len(nn.W2) != NumOutputs {
		t.Errorf("W2 has wrong dimensions: got %d, want %d", len(nn.W2), NumOutputs)
	}
}

func TestForwardRanges(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	nn := NewFFNN(rng)

	inputs := make([]float32, NumInputs)
	for i := range inputs {
		inputs[i] = 0.5
	}

	turn, thrust, bite := nn.Forward(inputs)
	if turn < -1 || turn > 1 {
		t.Errorf("turn out of range [-1,1]: %f", turn)
	}
	if thrust < 0 || thrust > 1 {
		t.Errorf("thrust out of range [0,1]: %f", thrust)
	}
	if bite < 0 || bite > 1 {
		t.Errorf("bite out of range [0,1]: %f", bite)
	}
}

func TestForwardDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	nn := NewFFNN(rng)

	inputs := make([]float32, NumInputs)
	for i := range inputs {
		inputs[i] = float32(i) / float32(NumInputs)
	}

	turn1, thrust1, bite1 := nn.Forward(inputs)
	turn2, thrust2, bite2 := nn.Forward(inputs)

	if turn1 != turn2 || thrust1 != thrust2 || bite1 != bite2 {
		t.Error("Forward is not deterministic")
	}
}

func TestInstinctTurnsTowardTarget(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	nn := NewInstinctFFNN(rng, 0, 0)

	left := make([]float32, NumInputs)
	left[InTargetSin] = 0.8
	left[InTargetCos] = 0.6
	left[InTargetProx] = 0.3

	right := make([]float32, NumInputs)
	right[InTargetSin] = -0.8
	right[InTargetCos] = 0.6
	right[InTargetProx] = 0.3

	turnLeft, _, _ := nn.Forward(left)
	turnRight, _, _ := nn.Forward(right)

	if turnLeft <= 0 {
		t.Errorf("target on positive side should turn positive, got %f", turnLeft)
	}
	if turnRight >= 0 {
		t.Errorf("target on negative side should turn negative, got %f", turnRight)
	}
}

func TestInstinctTurnsAwayFromThreat(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	nn := NewInstinctFFNN(rng, 0, 0)

	inputs := make([]float32, NumInputs)
	inputs[InThreatSin] = 0.7
	inputs[InThreatProx] = 0.5

	turn, thrust, _ := nn.Forward(inputs)
	if turn >= 0 {
		t.Errorf("threat on positive side should turn negative, got %f", turn)
	}

	calm := make([]float32, NumInputs)
	_, calmThrust, _ := nn.Forward(calm)
	if thrust <= calmThrust {
		t.Errorf("nearby threat should raise thrust: %f <= %f", thrust, calmThrust)
	}
}

func TestInstinctBitesWhenClose(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	nn := NewInstinctFFNN(rng, 1, 0)

	far := make([]float32, NumInputs)
	near := make([]float32, NumInputs)
	near[InTargetProx] = 0.9
	near[InTargetCos] = 1

	_, _, biteFar := nn.Forward(far)
	_, _, biteNear := nn.Forward(near)

	if biteFar >= 0.5 {
		t.Errorf("no target should not bite, got %f", biteFar)
	}
	if biteNear <= 0.5 {
		t.Errorf("close target should bite, got %f", biteNear)
	}
}

func TestMutate(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	nn := NewFFNN(rng)
	original := nn.W1[0][0]

	nn.Mutate(rng, 0.1)

	if nn.W1[0][0] == original {
		t.Error("Mutate did not change weights")
	}
}

func TestMutateSparseReturnsDelta(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	nn := NewFFNN(rng)

	if d := nn.MutateSparse(rng, 0, 0.1, 0, 0.4); d != 0 {
		t.Errorf("zero rate should report zero delta, got %f", d)
	}

	d := nn.MutateSparse(rng, 1, 0.1, 0, 0.4)
	if d <= 0 {
		t.Errorf("full rate should report positive delta, got %f", d)
	}
}

func TestClone(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	nn := NewFFNN(rng)
	clone := nn.Clone()

	if clone.W1[0][0] != nn.W1[0][0] {
		t.Error("Clone did not copy weights")
	}

	clone.W1[0][0] = 999
	if nn.W1[0][0] == 999 {
		t.Error("Clone is not a deep copy")
	}
}

func TestWeightsRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	nn := NewFFNN(rng)

	restored := &FFNN{}
	restored.UnmarshalWeights(nn.MarshalWeights())

	if *restored != *nn {
		t.Error("weights differ after marshal/unmarshal")
	}
}
