package systems

import (
	"math"
	"testing"

	"github.com/pthm-cable/ecosystem/components"
)

func TestWrap(t *testing.T) {
	tests := []struct {
		v, size, want float32
	}{
		{50, 100, 50},
		{-1, 100, 99},
		{100, 100, 0},
		{250, 100, 50},
		{-250, 100, 50},
	}
	for _, tt := range tests {
		if got := Wrap(tt.v, tt.size); !approx(got, tt.want) {
			t.Errorf("Wrap(%v, %v) = %v, want %v", tt.v, tt.size, got, tt.want)
		}
	}
}

func TestApplyControl_IdleStaysPut(t *testing.T) {
	pos := components.Position{X: 10, Y: 20}
	vel := components.Velocity{}
	rot := components.Rotation{}

	ApplyControl(&pos, &vel, &rot, testCaps(), 0, 0, 1.0/60, 100, 100)

	if pos.X != 10 || pos.Y != 20 {
		t.Errorf("idle organism moved to (%f,%f)", pos.X, pos.Y)
	}
	if vel.X != 0 || vel.Y != 0 {
		t.Errorf("idle velocity = (%f,%f)", vel.X, vel.Y)
	}
}

func TestApplyControl_AccelerationBounded(t *testing.T) {
	caps := testCaps()
	dt := float32(1.0 / 60)
	pos := components.Position{X: 50, Y: 50}
	vel := components.Velocity{}
	rot := components.Rotation{}

	ApplyControl(&pos, &vel, &rot, caps, 0, 1, dt, 100, 100)

	speed := float32(math.Hypot(float64(vel.X), float64(vel.Y)))
	if speed <= 0 {
		t.Fatal("full thrust should accelerate")
	}
	if speed > caps.MaxAccel*dt+1e-4 {
		t.Errorf("speed after one tick = %f, exceeds MaxAccel*dt = %f", speed, caps.MaxAccel*dt)
	}
	if math.Abs(float64(vel.Y)) > 1e-4 {
		t.Errorf("heading 0 should move along +X, vel.Y = %f", vel.Y)
	}
	if pos.X <= 50 {
		t.Errorf("position should advance, got X=%f", pos.X)
	}
}

func TestApplyControl_SpeedClampedAndWrapped(t *testing.T) {
	caps := testCaps()
	dt := float32(1.0 / 60)
	pos := components.Position{X: 50, Y: 50}
	vel := components.Velocity{}
	rot := components.Rotation{}

	for i := 0; i < 600; i++ {
		ApplyControl(&pos, &vel, &rot, caps, 0, 1, dt, 100, 100)
		speed := float32(math.Hypot(float64(vel.X), float64(vel.Y)))
		if speed > caps.MaxSpeed+1e-3 {
			t.Fatalf("tick %d: speed %f exceeds max %f", i, speed, caps.MaxSpeed)
		}
		if pos.X < 0 || pos.X >= 100 || pos.Y < 0 || pos.Y >= 100 {
			t.Fatalf("tick %d: position (%f,%f) outside world", i, pos.X, pos.Y)
		}
	}
}

func TestApplyControl_TurnWithoutThrust(t *testing.T) {
	caps := testCaps()
	dt := float32(0.1)
	rot := components.Rotation{}

	ApplyControl(&components.Position{}, &components.Velocity{}, &rot, caps, 1, 0, dt, 100, 100)

	want := caps.MaxTurnRate * minTurnThrottle * dt
	if !approx(rot.Heading, want) {
		t.Errorf("heading = %f, want %f", rot.Heading, want)
	}

	// Out-of-range turn is clamped
	rot2 := components.Rotation{}
	ApplyControl(&components.Position{}, &components.Velocity{}, &rot2, caps, 5, 0, dt, 100, 100)
	if !approx(rot2.Heading, want) {
		t.Errorf("clamped heading = %f, want %f", rot2.Heading, want)
	}
}
