package ecosystem

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/ecosystem/systems"
)

// updateFood removes emptied items, regrows the rest and spawns new items at
// fertile points up to food.max_items.
func (e *Ecosystem) updateFood() {
	cfg := e.cfg
	dt := cfg.Derived.DT32
	regrow := float32(cfg.Food.RegrowRate)

	var depleted []ecs.Entity
	query := e.foodFilter.Query()
	for query.Next() {
		_, food := query.Get()
		if food.Energy <= 0 {
			depleted = append(depleted, query.Entity())
			continue
		}
		systems.RegrowFood(food, regrow, dt)
	}

	for _, entity := range depleted {
		e.world.RemoveEntity(entity)
		e.numFood--
	}
	if len(depleted) > 0 {
		e.collector.RecordFoodDepleted(len(depleted))
	}

	n := e.foodBudget.Take(float32(cfg.Food.SpawnRate), dt, cfg.Food.MaxItems-e.numFood)
	spawned := 0
	for i := 0; i < n; i++ {
		if !e.spawnFood() {
			break
		}
		spawned++
	}
	if spawned > 0 {
		e.collector.RecordFoodSpawned(spawned)
	}
}
