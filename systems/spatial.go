// Package systems provides the per-tick simulation rules: spatial indexing,
// sensing, movement, energy accounting and food dynamics.
package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/ecosystem/components"
)

// Neighbor holds a nearby entity with precomputed spatial data.
type Neighbor struct {
	E      ecs.Entity
	DX, DY float32 // Toroidal delta from query origin
	DistSq float32
}

// SpatialGrid buckets entities into cells over a toroidal world.
// One grid is built per entity family (organisms, food) each tick.
type SpatialGrid struct {
	cellW  float32
	cellH  float32
	cols   int
	rows   int
	width  float32
	height float32
	cells  [][]ecs.Entity
	count  int
}

// NewSpatialGrid creates a spatial grid covering the given world size.
// Cells are shrunk so that a whole number of them tiles each axis exactly,
// which keeps wrap-around neighborhoods symmetric.
func NewSpatialGrid(width, height, cellSize float32) *SpatialGrid {
	cols := max(1, int(math.Ceil(float64(width/cellSize))))
	rows := max(1, int(math.Ceil(float64(height/cellSize))))

	cells := make([][]ecs.Entity, cols*rows)
	for i := range cells {
		cells[i] = make([]ecs.Entity, 0, 8)
	}

	return &SpatialGrid{
		cellW:  width / float32(cols),
		cellH:  height / float32(rows),
		cols:   cols,
		rows:   rows,
		width:  width,
		height: height,
		cells:  cells,
	}
}

// Clear removes all entities from the grid, keeping bucket capacity.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
	g.count = 0
}

// Insert adds an entity to the grid at the given position.
func (g *SpatialGrid) Insert(e ecs.Entity, x, y float32) {
	idx := g.cellIndex(x, y)
	g.cells[idx] = append(g.cells[idx], e)
	g.count++
}

// Len returns the number of inserted entities.
func (g *SpatialGrid) Len() int {
	return g.count
}

// MaxQueryResults caps the number of neighbors returned by spatial queries.
// This prevents density spikes from causing unbounded work.
const MaxQueryResults = 128

// QueryRadiusInto finds entities within radius and appends them to dst (up to MaxQueryResults).
// Reuse dst across calls to avoid allocations.
func (g *SpatialGrid) QueryRadiusInto(dst []Neighbor, x, y, radius float32, exclude ecs.Entity, posMap *ecs.Map1[components.Position]) []Neighbor {
	centerCol, centerRow := g.cellCoords(x, y)
	colStart, colCount := spanRange(centerCol, int(radius/g.cellW)+1, g.cols)
	rowStart, rowCount := spanRange(centerRow, int(radius/g.cellH)+1, g.rows)
	radiusSq := radius * radius

	for i := 0; i < colCount; i++ {
		col := wrapIndex(colStart+i, g.cols)
		for j := 0; j < rowCount; j++ {
			row := wrapIndex(rowStart+j, g.rows)

			for _, e := range g.cells[row*g.cols+col] {
				if e == exclude {
					continue
				}
				pos := posMap.Get(e)
				if pos == nil {
					continue
				}

				dx, dy := ToroidalDelta(x, y, pos.X, pos.Y, g.width, g.height)
				distSq := dx*dx + dy*dy
				if distSq > radiusSq {
					continue
				}

				dst = append(dst, Neighbor{E: e, DX: dx, DY: dy, DistSq: distSq})
				if len(dst) >= MaxQueryResults {
					return dst
				}
			}
		}
	}

	return dst
}

// cellCoords returns the wrapped column and row for a world position.
func (g *SpatialGrid) cellCoords(x, y float32) (int, int) {
	col := wrapIndex(int(math.Floor(float64(x/g.cellW))), g.cols)
	row := wrapIndex(int(math.Floor(float64(y/g.cellH))), g.rows)
	return col, row
}

// cellIndex returns the flat index for a world position.
func (g *SpatialGrid) cellIndex(x, y float32) int {
	col, row := g.cellCoords(x, y)
	return row*g.cols + col
}

// spanRange returns the first cell and number of cells to visit around center.
// A span covering the whole axis visits every cell exactly once.
func spanRange(center, span, n int) (start, count int) {
	if 2*span+1 >= n {
		return 0, n
	}
	return center - span, 2*span + 1
}

func wrapIndex(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// ToroidalDelta returns the shortest path delta from (x1,y1) to (x2,y2).
func ToroidalDelta(x1, y1, x2, y2, w, h float32) (dx, dy float32) {
	dx = x2 - x1
	dy = y2 - y1

	if dx > w/2 {
		dx -= w
	} else if dx < -w/2 {
		dx += w
	}
	if dy > h/2 {
		dy -= h
	} else if dy < -h/2 {
		dy += h
	}

	return dx, dy
}
