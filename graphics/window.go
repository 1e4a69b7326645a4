package graphics

import (
	"fmt"
	"math"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/ecosystem/components"
	"github.com/pthm-cable/ecosystem/config"
	"github.com/pthm-cable/ecosystem/ecosystem"
	"github.com/pthm-cable/ecosystem/telemetry"
)

// Largest window the view opens; bigger worlds are scaled down to fit.
const (
	maxWindowW = 1280
	maxWindowH = 800
	hudHeight  = 40
)

var (
	backgroundColor = rl.NewColor(14, 22, 30, 255)
	herbivoreColor  = rl.NewColor(120, 220, 120, 255)
	carnivoreColor  = rl.NewColor(235, 90, 80, 255)
	foodColor       = rl.NewColor(200, 180, 60, 255)
	hudColor        = rl.NewColor(0, 0, 0, 180)
)

// Window renders an ecosystem and lets the user pause, change speed, pan and zoom.
type Window struct {
	cam      *Camera
	perf     *telemetry.PerfCollector
	paused   bool
	speed    float32 // simulation steps per frame
	maxSpeed float32
	width    int32
	height   int32
}

// Open creates the raylib window sized to the ecosystem's world.
func Open(eco *ecosystem.Ecosystem, cfg config.WindowConfig) *Window {
	scale := min(1, float32(maxWindowW)/eco.Width(), float32(maxWindowH)/eco.Height())
	w := int32(eco.Width() * scale)
	h := int32(eco.Height() * scale)

	rl.SetConfigFlags(rl.FlagMsaa4xHint)
	rl.InitWindow(w, h+hudHeight, cfg.Title)
	rl.SetTargetFPS(int32(cfg.TargetFPS))

	return &Window{
		cam:      NewCamera(float32(w), float32(h), eco.Width(), eco.Height()),
		perf:     telemetry.NewPerfCollector(60),
		speed:    1,
		maxSpeed: float32(max(cfg.MaxSpeed, 1)),
		width:    w,
		height:   h,
	}
}

// ShouldClose reports whether the user asked to close the window.
func (w *Window) ShouldClose() bool {
	return rl.WindowShouldClose()
}

// Frame handles input, advances the simulation and draws one frame.
// At most budget steps are taken (budget <= 0 means no limit).
func (w *Window) Frame(eco *ecosystem.Ecosystem, budget int) {
	w.handleInput()

	for range stepsThisFrame(w.paused, w.speed, budget) {
		eco.Step()
	}
	w.perf.RecordFrame()

	rl.BeginDrawing()
	rl.ClearBackground(backgroundColor)
	w.drawWorld(eco)
	w.drawHUD(eco)
	rl.EndDrawing()
}

// stepsThisFrame is the number of simulation steps for one frame.
func stepsThisFrame(paused bool, speed float32, budget int) int {
	if paused {
		return 0
	}
	n := max(int(speed), 1)
	if budget > 0 {
		n = min(n, budget)
	}
	return n
}

// Close closes the raylib window.
func (w *Window) Close() {
	rl.CloseWindow()
}

func (w *Window) handleInput() {
	if rl.IsKeyPressed(rl.KeySpace) {
		w.paused = !w.paused
	}
	if rl.IsKeyPressed(rl.KeyR) {
		w.cam.Fit()
	}
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		w.cam.ZoomBy(float32(math.Pow(1.1, float64(wheel))))
	}
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		d := rl.GetMouseDelta()
		w.cam.Pan(-d.X, -d.Y)
	}
}

func (w *Window) drawWorld(eco *ecosystem.Ecosystem) {
	zoom := w.cam.Zoom

	eco.ForEachFood(func(f ecosystem.FoodView) {
		if !w.cam.IsVisible(f.X, f.Y, f.Radius) {
			return
		}
		sx, sy := w.cam.WorldToScreen(f.X, f.Y)
		rl.DrawCircleV(rl.NewVector2(sx, sy), max(f.Radius*zoom, 1), rl.Fade(foodColor, 0.3+0.7*f.Fill))
	})

	eco.ForEachOrganism(func(o ecosystem.OrganismView) {
		if !w.cam.IsVisible(o.X, o.Y, o.Radius) {
			return
		}
		sx, sy := w.cam.WorldToScreen(o.X, o.Y)
		center := rl.NewVector2(sx, sy)
		r := max(o.Radius*zoom, 2)

		color := herbivoreColor
		if o.Kind == components.KindCarnivore {
			color = carnivoreColor
		}
		color = rl.Fade(color, 0.35+0.65*o.Energy)

		deg := o.Heading * rl.Rad2deg
		rl.DrawPoly(center, 3, r, deg, color)
		tip := rl.NewVector2(
			sx+float32(math.Cos(float64(o.Heading)))*r*1.4,
			sy+float32(math.Sin(float64(o.Heading)))*r*1.4,
		)
		rl.DrawLineV(center, tip, color)
	})
}

func (w *Window) drawHUD(eco *ecosystem.Ecosystem) {
	y := float32(w.height)
	rl.DrawRectangle(0, w.height, w.width, hudHeight, hudColor)

	w.paused = gui.Toggle(rl.Rectangle{X: 10, Y: y + 8, Width: 80, Height: 24}, "Pause", w.paused)

	w.speed = gui.SliderBar(
		rl.Rectangle{X: 150, Y: y + 10, Width: 160, Height: 20},
		"Speed", fmt.Sprintf("%dx", int(w.speed)),
		w.speed, 1, w.maxSpeed,
	)
	w.speed = float32(math.Round(float64(w.speed)))

	status := fmt.Sprintf("tick %d  herbivores %d  carnivores %d  food %d  births %d  deaths %d  fps %d",
		eco.Tick(), eco.HerbivoreCount(), eco.CarnivoreCount(), eco.FoodCount(),
		eco.Births(), eco.Deaths(), int(w.perf.Stats().FPS))
	rl.DrawText(status, 360, int32(y)+12, 16, rl.RayWhite)
}
