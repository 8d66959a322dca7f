// Package spatial provides the uniform hash grid used for broad-phase
// collision candidate queries.
//
// Cells are addressed by integer (x,y,z) keys derived from world positions.
// The grid is rebuilt from scratch every simulation step; cell slices keep
// their capacity across Clear calls so a rebuild only allocates when a cell
// grows past its previous high-water mark.
package spatial

import (
	"math"
)

// DefaultCellSize is tuned so the largest expected body radius stays small
// relative to one cell edge. Bodies larger than half a cell can slip past
// the 3x3x3 neighborhood scan.
const DefaultCellSize = 500.0

// CellKey identifies one grid cell by its integer coordinates.
type CellKey struct {
	X, Y, Z int
}

// Grid is a uniform hash grid over unbounded 3D space.
// Entries are caller-owned indices (not pointers) for GC efficiency,
// matching the index-based entity storage of the physics world.
//
// Not safe for concurrent use; the simulation step is single-threaded.
type Grid struct {
	cellSize    float64
	invCellSize float64 // 1/cellSize for faster division
	cells       map[CellKey][]uint32
	scratch     []uint32 // reusable buffer for neighborhood queries
}

// NewGrid creates a grid with the given cell edge length.
// A cellSize <= 0 falls back to DefaultCellSize.
func NewGrid(cellSize float64) *Grid {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	return &Grid{
		cellSize:    cellSize,
		invCellSize: 1.0 / cellSize,
		cells:       make(map[CellKey][]uint32, 64),
		scratch:     make([]uint32, 0, 64),
	}
}

// CellSize returns the cell edge length.
func (g *Grid) CellSize() float64 {
	return g.cellSize
}

// KeyFor computes the cell key for a world position (floored per axis).
func (g *Grid) KeyFor(x, y, z float64) CellKey {
	return CellKey{
		X: int(math.Floor(x * g.invCellSize)),
		Y: int(math.Floor(y * g.invCellSize)),
		Z: int(math.Floor(z * g.invCellSize)),
	}
}

// Clear resets all cells without releasing their backing arrays.
// Cell slices are truncated in place so the next rebuild reuses them.
func (g *Grid) Clear() {
	for key, cell := range g.cells {
		g.cells[key] = cell[:0]
	}
}

// Insert adds an entity index at the given world position and returns the
// cell key it landed in. The caller stores the key for later Neighborhood
// queries so it is computed only once per step.
func (g *Grid) Insert(id uint32, x, y, z float64) CellKey {
	key := g.KeyFor(x, y, z)
	g.cells[key] = append(g.cells[key], id)
	return key
}

// Neighborhood returns all entity indices in the cell for key plus its 26
// adjacent cells. Any pair of entities separated by less than one cell
// width on every axis is guaranteed to appear in each other's neighborhood.
//
// The returned slice is an internal scratch buffer reused on subsequent
// calls; copy it if it must outlive the next query.
func (g *Grid) Neighborhood(key CellKey) []uint32 {
	g.scratch = g.scratch[:0]
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for dz := -1; dz <= 1; dz++ {
				k := CellKey{X: key.X + dx, Y: key.Y + dy, Z: key.Z + dz}
				if cell, ok := g.cells[k]; ok {
					g.scratch = append(g.scratch, cell...)
				}
			}
		}
	}
	return g.scratch
}

// Stats contains grid occupancy statistics for debugging and metrics.
type Stats struct {
	TotalCells     int
	NonEmptyCells  int
	TotalEntities  int
	MaxInCell      int
	AvgPerNonEmpty float64
}

// GridStats returns occupancy statistics for the current contents.
func (g *Grid) GridStats() Stats {
	var total, maxInCell, nonEmpty int
	for _, cell := range g.cells {
		n := len(cell)
		total += n
		if n > maxInCell {
			maxInCell = n
		}
		if n > 0 {
			nonEmpty++
		}
	}

	avg := 0.0
	if nonEmpty > 0 {
		avg = float64(total) / float64(nonEmpty)
	}

	return Stats{
		TotalCells:     len(g.cells),
		NonEmptyCells:  nonEmpty,
		TotalEntities:  total,
		MaxInCell:      maxInCell,
		AvgPerNonEmpty: avg,
	}
}
