package ecosystem

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/pthm-cable/ecosystem/components"
	"github.com/pthm-cable/ecosystem/neural"
	"github.com/pthm-cable/ecosystem/systems"
	"github.com/pthm-cable/ecosystem/telemetry"
)

// Snapshot captures the simulation state. The RNG stream is not captured;
// Restore reseeds from the seed and tick instead.
func (e *Ecosystem) Snapshot() *telemetry.Snapshot {
	snap := &telemetry.Snapshot{
		Version:     telemetry.SnapshotVersion,
		RNGSeed:     e.seed,
		WorldWidth:  e.width,
		WorldHeight: e.height,
		Capacity:    e.capacity,
		Tick:        e.tick,
		NextID:      e.nextID,
		Births:      e.births,
		Deaths:      e.deaths,
	}

	query := e.orgFilter.Query()
	for query.Next() {
		pos, vel, rot, _, energy, _, org := query.Get()
		if !energy.Alive {
			continue
		}
		state := telemetry.OrganismState{
			ID:             org.ID,
			ParentID:       org.ParentID,
			Kind:           org.Kind,
			ArchetypeID:    org.ArchetypeID,
			Generation:     org.Generation,
			X:              pos.X,
			Y:              pos.Y,
			VelX:           vel.X,
			VelY:           vel.Y,
			Heading:        rot.Heading,
			Energy:         energy.Value,
			Age:            energy.Age,
			ReproCooldown:  org.ReproCooldown,
			DigestCooldown: org.DigestCooldown,
		}
		if brain, ok := e.brains[org.ID]; ok {
			state.Brain = brain.MarshalWeights()
		}
		snap.Organisms = append(snap.Organisms, state)
	}

	foodQuery := e.foodFilter.Query()
	for foodQuery.Next() {
		pos, food := foodQuery.Get()
		snap.Food = append(snap.Food, telemetry.FoodState{
			X: pos.X, Y: pos.Y,
			Energy: food.Energy, MaxEnergy: food.MaxEnergy, Age: food.Age,
		})
	}

	return snap
}

// Restore loads a snapshot into an ecosystem that has not been initialized.
// The snapshot must match the world size and fit the capacity.
func (e *Ecosystem) Restore(snap *telemetry.Snapshot) error {
	if e.initialized {
		return ErrAlreadyInitialized
	}
	if snap.Version != telemetry.SnapshotVersion {
		return fmt.Errorf("ecosystem: snapshot version %d not supported", snap.Version)
	}
	if snap.WorldWidth != e.width || snap.WorldHeight != e.height {
		return fmt.Errorf("ecosystem: snapshot world %gx%g does not match %gx%g",
			snap.WorldWidth, snap.WorldHeight, e.width, e.height)
	}
	if len(snap.Organisms) > e.capacity {
		return fmt.Errorf("ecosystem: snapshot holds %d organisms, capacity is %d", len(snap.Organisms), e.capacity)
	}
	if len(snap.Food) > e.cfg.Food.MaxItems {
		return fmt.Errorf("ecosystem: snapshot holds %d food items, food.max_items is %d", len(snap.Food), e.cfg.Food.MaxItems)
	}
	if err := e.validateSnapshot(snap); err != nil {
		return err
	}

	for _, s := range snap.Organisms {
		arch := &e.cfg.Archetypes[s.ArchetypeID]
		pos := components.Position{X: systems.Wrap(s.X, e.width), Y: systems.Wrap(s.Y, e.height)}
		vel := components.Velocity{X: s.VelX, Y: s.VelY}
		rot := components.Rotation{Heading: systems.NormalizeAngle(s.Heading)}
		body := components.Body{Radius: float32(e.cfg.Entity.BodyRadius)}
		energy := components.Energy{Value: s.Energy, Max: float32(arch.MaxEnergy), Age: s.Age, Alive: true}
		caps := components.CapabilitiesFromArchetype(arch)
		org := components.Organism{
			ID:             s.ID,
			ParentID:       s.ParentID,
			Kind:           s.Kind,
			ArchetypeID:    s.ArchetypeID,
			Diet:           float32(arch.Diet),
			Generation:     s.Generation,
			ReproCooldown:  s.ReproCooldown,
			DigestCooldown: s.DigestCooldown,
		}

		brain := &neural.FFNN{}
		brain.UnmarshalWeights(s.Brain)
		e.brains[s.ID] = brain

		e.orgMapper.NewEntity(&pos, &vel, &rot, &body, &energy, &caps, &org)
		e.countOrganism(s.Kind, 1)
		e.nextID = max(e.nextID, s.ID+1)
	}

	for _, s := range snap.Food {
		pos := components.Position{X: systems.Wrap(s.X, e.width), Y: systems.Wrap(s.Y, e.height)}
		food := components.Food{Energy: s.Energy, MaxEnergy: s.MaxEnergy, Radius: float32(e.cfg.Food.Radius), Age: s.Age}
		e.foodMapper.NewEntity(&pos, &food)
		e.numFood++
	}

	e.tick = snap.Tick
	e.collector.StartWindow(snap.Tick)
	e.nextID = max(e.nextID, snap.NextID)
	e.births = snap.Births
	e.deaths = snap.Deaths
	e.seed = snap.RNGSeed
	e.rng = rand.New(rand.NewSource(snap.RNGSeed + int64(snap.Tick)))
	e.initialized = true

	e.logger.Info("snapshot restored",
		"tick", e.tick, "organisms", e.EntityCount(), "food", e.numFood)
	return nil
}

// validateSnapshot rejects organisms and food that would corrupt the world:
// duplicate IDs, kinds that disagree with their archetype, and non-finite values.
func (e *Ecosystem) validateSnapshot(snap *telemetry.Snapshot) error {
	seen := make(map[uint32]bool, len(snap.Organisms))
	for _, s := range snap.Organisms {
		if int(s.ArchetypeID) >= len(e.cfg.Archetypes) {
			return fmt.Errorf("ecosystem: organism %d has unknown archetype %d", s.ID, s.ArchetypeID)
		}
		if seen[s.ID] {
			return fmt.Errorf("ecosystem: duplicate organism id %d", s.ID)
		}
		seen[s.ID] = true

		arch := &e.cfg.Archetypes[s.ArchetypeID]
		if want := components.KindFromDiet(float32(arch.Diet)); s.Kind != want {
			return fmt.Errorf("ecosystem: organism %d is %s but archetype %q is %s", s.ID, s.Kind, arch.Name, want)
		}
		if !finite(s.X, s.Y, s.VelX, s.VelY, s.Heading, s.Energy, s.Age, s.ReproCooldown, s.DigestCooldown) {
			return fmt.Errorf("ecosystem: organism %d has a non-finite value", s.ID)
		}
	}
	for i, f := range snap.Food {
		if !finite(f.X, f.Y, f.Energy, f.MaxEnergy, f.Age) {
			return fmt.Errorf("ecosystem: food item %d has a non-finite value", i)
		}
	}
	return nil
}

func finite(vals ...float32) bool {
	for _, v := range vals {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return false
		}
	}
	return true
}
