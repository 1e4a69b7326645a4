package ecosystem

import "github.com/pthm-cable/ecosystem/components"

// OrganismView is a read-only copy of an organism for rendering.
type OrganismView struct {
	X, Y    float32
	Heading float32
	Radius  float32
	Kind    components.Kind
	Energy  float32 // fraction of max
}

// FoodView is a read-only copy of a food item for rendering.
type FoodView struct {
	X, Y   float32
	Radius float32
	Fill   float32 // energy / max energy
}

// ForEachOrganism calls fn for every living organism.
func (e *Ecosystem) ForEachOrganism(fn func(OrganismView)) {
	query := e.orgFilter.Query()
	for query.Next() {
		pos, _, rot, body, energy, _, org := query.Get()
		if !energy.Alive {
			continue
		}
		fn(OrganismView{
			X: pos.X, Y: pos.Y,
			Heading: rot.Heading,
			Radius:  body.Radius,
			Kind:    org.Kind,
			Energy:  energy.Ratio(),
		})
	}
}

// ForEachFood calls fn for every food item.
func (e *Ecosystem) ForEachFood(fn func(FoodView)) {
	query := e.foodFilter.Query()
	for query.Next() {
		pos, food := query.Get()
		var fill float32
		if food.MaxEnergy > 0 {
			fill = food.Energy / food.MaxEnergy
		}
		fn(FoodView{X: pos.X, Y: pos.Y, Radius: food.Radius, Fill: fill})
	}
}
