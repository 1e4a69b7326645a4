package ecosystem

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/ecosystem/components"
	"github.com/pthm-cable/ecosystem/neural"
	"github.com/pthm-cable/ecosystem/systems"
)

// spawnFounder places a new organism with an instinct-seeded brain at a random position.
func (e *Ecosystem) spawnFounder(archetypeID uint8) (ecs.Entity, bool) {
	arch := &e.cfg.Archetypes[archetypeID]
	x := systems.Wrap(e.rng.Float32()*e.width, e.width)
	y := systems.Wrap(e.rng.Float32()*e.height, e.height)
	heading := e.rng.Float32()*2*math.Pi - math.Pi

	brain := neural.NewInstinctFFNN(e.rng, float32(arch.Diet), float32(e.cfg.Mutation.InstinctNoise))
	energy := float32(e.cfg.Entity.InitialEnergy * arch.MaxEnergy)

	return e.spawnOrganism(x, y, heading, archetypeID, brain, energy, nil)
}

// spawnOrganism creates an organism if there is room. parent is nil for founders.
func (e *Ecosystem) spawnOrganism(
	x, y, heading float32,
	archetypeID uint8,
	brain *neural.FFNN,
	energyValue float32,
	parent *components.Organism,
) (ecs.Entity, bool) {
	if e.EntityCount() >= e.capacity {
		return ecs.Entity{}, false
	}

	cfg := e.cfg
	arch := &cfg.Archetypes[archetypeID]
	diet := float32(arch.Diet)
	kind := components.KindFromDiet(diet)

	id := e.nextID
	e.nextID++

	pos := components.Position{X: x, Y: y}
	vel := components.Velocity{}
	rot := components.Rotation{Heading: heading}
	body := components.Body{Radius: float32(cfg.Entity.BodyRadius)}
	energy := components.Energy{
		Value: min(energyValue, float32(arch.MaxEnergy)),
		Max:   float32(arch.MaxEnergy),
		Alive: true,
	}
	caps := components.CapabilitiesFromArchetype(arch)

	// Add jitter to desync reproduction across the population
	jitter := (e.rng.Float32()*2 - 1) * float32(cfg.Reproduction.CooldownJitter)
	org := components.Organism{
		ID:            id,
		Kind:          kind,
		ArchetypeID:   archetypeID,
		Diet:          diet,
		ReproCooldown: max(float32(cfg.Reproduction.MaturityAge)+jitter, 0),
	}
	if parent != nil {
		org.ParentID = parent.ID
		org.Generation = parent.Generation + 1
	}

	e.brains[id] = brain
	entity := e.orgMapper.NewEntity(&pos, &vel, &rot, &body, &energy, &caps, &org)
	e.countOrganism(kind, 1)

	return entity, true
}

func (e *Ecosystem) countOrganism(kind components.Kind, delta int) {
	if kind == components.KindHerbivore {
		e.numHerb += delta
	} else {
		e.numCarn += delta
	}
}

// spawnFood places a fresh food item at a fertile point. Reports false when
// the world already holds food.max_items.
func (e *Ecosystem) spawnFood() bool {
	if e.numFood >= e.cfg.Food.MaxItems {
		return false
	}
	x, y := e.fertility.SpawnPoint(e.rng, float32(e.cfg.Food.MinFertile))
	pos := components.Position{X: systems.Wrap(x, e.width), Y: systems.Wrap(y, e.height)}
	food := components.Food{
		Energy:    float32(e.cfg.Food.Energy),
		MaxEnergy: float32(e.cfg.Food.MaxEnergy),
		Radius:    float32(e.cfg.Food.Radius),
	}
	e.foodMapper.NewEntity(&pos, &food)
	e.numFood++
	return true
}

// cleanupDead removes dead organisms and their brains.
func (e *Ecosystem) cleanupDead() {
	type deadInfo struct {
		entity ecs.Entity
		id     uint32
		kind   components.Kind
	}
	var toRemove []deadInfo

	// Collect first: the world is locked while a query is open
	query := e.orgFilter.Query()
	for query.Next() {
		_, _, _, _, energy, _, org := query.Get()
		if !energy.Alive {
			toRemove = append(toRemove, deadInfo{entity: query.Entity(), id: org.ID, kind: org.Kind})
		}
	}

	for _, dead := range toRemove {
		e.collector.RecordDeath(dead.kind)
		e.world.RemoveEntity(dead.entity)
		delete(e.brains, dead.id)
		e.countOrganism(dead.kind, -1)
		e.deaths++
	}

	e.respawnIfNeeded()
}

// respawnIfNeeded reseeds a kind with fresh founders when it drops below the
// configured threshold. A threshold of 0 disables respawning.
func (e *Ecosystem) respawnIfNeeded() {
	pop := &e.cfg.Population
	if pop.RespawnThreshold <= 0 || int(e.tick) < pop.RespawnAfterTick {
		return
	}

	reseed := func(name string, count int) {
		if count >= pop.RespawnThreshold {
			return
		}
		idx := e.cfg.Derived.ArchetypeIndex[name]
		spawned := 0
		for i := 0; i < pop.RespawnCount; i++ {
			if _, ok := e.spawnFounder(idx); !ok {
				break
			}
			spawned++
		}
		if spawned > 0 {
			e.logger.Info("respawned founders", "archetype", name, "count", spawned, "tick", e.tick)
		}
	}
	reseed("herbivore", e.numHerb)
	reseed("carnivore", e.numCarn)
}
