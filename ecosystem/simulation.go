package ecosystem

import (
	"context"
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/ecosystem/components"
	"github.com/pthm-cable/ecosystem/systems"
	"github.com/pthm-cable/ecosystem/telemetry"
)

// Step advances the simulation by one tick.
func (e *Ecosystem) Step() {
	e.perf.StartTick()

	// 1. Rebuild spatial indices
	e.perf.StartPhase(telemetry.PhaseSpatialGrid)
	e.updateSpatialGrids()

	// 2. Sensors, brains and movement
	e.perf.StartPhase(telemetry.PhaseBehaviorPhysics)
	e.updateBehaviorAndPhysics()

	// 3. Grazing and predation
	e.perf.StartPhase(telemetry.PhaseFeeding)
	e.updateFeeding()

	// 4. Metabolic costs and deaths
	e.perf.StartPhase(telemetry.PhaseEnergy)
	e.updateEnergy()

	// 5. Timers
	e.perf.StartPhase(telemetry.PhaseCooldowns)
	e.updateCooldowns()

	// 6. Births, bounded by capacity
	e.perf.StartPhase(telemetry.PhaseReproduction)
	e.updateReproduction()

	// 7. Remove the dead, reseed if configured
	e.perf.StartPhase(telemetry.PhaseCleanup)
	e.cleanupDead()

	// 8. Food regrowth, depletion and spawning
	e.perf.StartPhase(telemetry.PhaseFood)
	e.updateFood()

	e.tick++

	e.perf.StartPhase(telemetry.PhaseTelemetry)
	e.flushTelemetry()

	e.perf.EndTick()
}

// Run steps until maxTicks have elapsed (0 = unbounded) or ctx is done.
// Returns ctx.Err() on cancellation.
func (e *Ecosystem) Run(ctx context.Context, maxTicks int) error {
	if !e.initialized {
		return ErrNotInitialized
	}
	for i := 0; maxTicks <= 0 || i < maxTicks; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.Step()
	}
	return nil
}

// updateSpatialGrids rebuilds the organism and food indices.
func (e *Ecosystem) updateSpatialGrids() {
	e.orgGrid.Clear()
	query := e.orgFilter.Query()
	for query.Next() {
		pos, _, _, _, energy, _, _ := query.Get()
		if energy.Alive {
			e.orgGrid.Insert(query.Entity(), pos.X, pos.Y)
		}
	}

	e.foodGrid.Clear()
	foodQuery := e.foodFilter.Query()
	for foodQuery.Next() {
		pos, food := foodQuery.Get()
		if food.Energy > 0 {
			e.foodGrid.Insert(foodQuery.Entity(), pos.X, pos.Y)
		}
	}
}

// updateBehaviorAndPhysics runs brains and applies movement.
func (e *Ecosystem) updateBehaviorAndPhysics() {
	dt := e.cfg.Derived.DT32

	query := e.orgFilter.Query()
	for query.Next() {
		entity := query.Entity()
		pos, vel, rot, _, energy, caps, org := query.Get()

		if !energy.Alive {
			continue
		}
		brain, ok := e.brains[org.ID]
		if !ok {
			continue
		}

		e.neighborBuf = e.orgGrid.QueryRadiusInto(e.neighborBuf[:0], pos.X, pos.Y, caps.VisionRange, entity, e.posMap)
		e.foodBuf = e.foodBuf[:0]
		if org.Kind == components.KindHerbivore {
			e.foodBuf = e.foodGrid.QueryRadiusInto(e.foodBuf, pos.X, pos.Y, caps.VisionRange, ecs.Entity{}, e.posMap)
		}

		in := systems.ComputeSensors(*rot, *vel, *energy, *caps, org.Kind, e.neighborBuf, e.foodBuf, e.lookups)
		inputs := in.AsArray()
		turn, thrust, bite := brain.Forward(inputs[:])

		energy.LastThrust = thrust
		energy.LastBite = bite

		systems.ApplyControl(pos, vel, rot, *caps, turn, thrust, dt, e.width, e.height)
	}
}

// updateFeeding lets herbivores graze the nearest food item in reach and
// carnivores bite the nearest herbivore in reach. One meal per organism per tick.
func (e *Ecosystem) updateFeeding() {
	cfg := e.cfg
	dt := cfg.Derived.DT32
	grazeRate := float32(cfg.Energy.GrazeRate)
	biteDamage := float32(cfg.Energy.BiteDamage)
	efficiency := float32(cfg.Energy.TransferEfficiency)
	biteThreshold := float32(cfg.Energy.BiteThreshold)
	digestFactor := float32(cfg.Energy.DigestFactor)
	foodRadius := float32(cfg.Food.Radius)

	query := e.orgFilter.Query()
	for query.Next() {
		entity := query.Entity()
		pos, _, _, _, energy, caps, org := query.Get()

		if !energy.Alive {
			continue
		}

		if org.Kind == components.KindHerbivore {
			e.foodBuf = e.foodGrid.QueryRadiusInto(e.foodBuf[:0], pos.X, pos.Y, caps.BiteRange+foodRadius, ecs.Entity{}, e.posMap)
			var best *components.Food
			bestDist := float32(math.MaxFloat32)
			for _, n := range e.foodBuf {
				f := e.foodMap.Get(n.E)
				if f.Energy > 0 && n.DistSq < bestDist {
					best, bestDist = f, n.DistSq
				}
			}
			if best != nil {
				if eaten := systems.GrazeFood(energy, best, grazeRate, dt); eaten > 0 {
					e.collector.RecordGraze(eaten)
				}
			}
			continue
		}

		// Carnivores only bite when the brain asks for it
		if energy.LastBite <= biteThreshold {
			continue
		}
		if org.DigestCooldown > 0 {
			e.collector.RecordBiteBlockedByDigest()
			continue
		}

		e.neighborBuf = e.orgGrid.QueryRadiusInto(e.neighborBuf[:0], pos.X, pos.Y, caps.BiteRange, entity, e.posMap)
		var prey *components.Energy
		bestDist := float32(math.MaxFloat32)
		for _, n := range e.neighborBuf {
			nOrg := e.orgMap.Get(n.E)
			if nOrg.Kind != components.KindHerbivore {
				continue
			}
			nEnergy := e.energyMap.Get(n.E)
			if nEnergy.Alive && n.DistSq < bestDist {
				prey, bestDist = nEnergy, n.DistSq
			}
		}
		if prey == nil {
			continue
		}

		e.collector.RecordBiteAttempt()
		xfer := systems.TransferEnergy(energy, prey, biteDamage, efficiency)
		if xfer.Removed <= 0 {
			continue
		}
		e.collector.RecordBiteHit()
		if digest := xfer.Gained * digestFactor; digest > org.DigestCooldown {
			org.DigestCooldown = digest
		}
		if xfer.Killed {
			e.collector.RecordKill()
		}
	}
}

// updateEnergy applies metabolic costs.
func (e *Ecosystem) updateEnergy() {
	dt := e.cfg.Derived.DT32
	query := e.orgFilter.Query()
	for query.Next() {
		_, vel, _, _, energy, caps, _ := query.Get()
		systems.UpdateEnergy(energy, *vel, *caps, dt)
	}
}

// updateCooldowns decrements reproduction and digestion cooldowns.
func (e *Ecosystem) updateCooldowns() {
	dt := e.cfg.Derived.DT32
	query := e.orgFilter.Query()
	for query.Next() {
		_, _, _, _, energy, _, org := query.Get()
		if !energy.Alive {
			continue
		}
		org.ReproCooldown = max(org.ReproCooldown-dt, 0)
		org.DigestCooldown = max(org.DigestCooldown-dt, 0)
	}
}

// updateReproduction handles asexual reproduction with mutation.
// The parent pays parent_cost of its max energy; the child receives at most that.
func (e *Ecosystem) updateReproduction() {
	cfg := e.cfg
	repro := &cfg.Reproduction
	mutation := &cfg.Mutation

	type parentInfo struct {
		entity  ecs.Entity
		x, y    float32
		heading float32
	}
	var parents []parentInfo

	query := e.orgFilter.Query()
	for query.Next() {
		pos, _, rot, _, energy, _, org := query.Get()
		if !energy.Alive || org.ReproCooldown > 0 {
			continue
		}
		if energy.Age < float32(repro.MaturityAge) || energy.Ratio() < float32(repro.Threshold) {
			continue
		}
		parents = append(parents, parentInfo{entity: query.Entity(), x: pos.X, y: pos.Y, heading: rot.Heading})
	}

	for _, p := range parents {
		if e.EntityCount() >= e.capacity {
			e.collector.RecordBirthBlocked()
			continue
		}

		energy := e.energyMap.Get(p.entity)
		org := e.orgMap.Get(p.entity)
		parentBrain, ok := e.brains[org.ID]
		if !ok {
			continue
		}

		paid := float32(repro.ParentCost) * energy.Max
		if paid >= energy.Value {
			continue
		}
		energy.Value -= paid
		childEnergy := min(float32(cfg.Entity.ChildEnergy)*energy.Max, paid)

		jitter := (e.rng.Float32()*2 - 1) * float32(repro.CooldownJitter)
		org.ReproCooldown = max(float32(repro.Cooldown)+jitter, 0)

		angle := e.rng.Float64() * 2 * math.Pi
		offset := float32(repro.SpawnOffset)
		x := systems.Wrap(p.x+float32(math.Cos(angle))*offset, e.width)
		y := systems.Wrap(p.y+float32(math.Sin(angle))*offset, e.height)
		heading := p.heading + (e.rng.Float32()*2-1)*float32(repro.HeadingJitter)

		brain := parentBrain.Clone()
		brain.MutateSparse(e.rng,
			float32(mutation.Rate), float32(mutation.Sigma),
			float32(mutation.BigRate), float32(mutation.BigSigma),
		)

		parentOrg := *org
		if _, ok := e.spawnOrganism(x, y, heading, org.ArchetypeID, brain, childEnergy, &parentOrg); ok {
			e.births++
			e.collector.RecordBirth(parentOrg.Kind)
		}
	}
}
