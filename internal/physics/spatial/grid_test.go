package spatial

import (
	"math/rand"
	"testing"
)

// TestKeyFor verifies floor-division cell keys, including negative axes.
func TestKeyFor(t *testing.T) {
	g := NewGrid(500)

	tests := []struct {
		name    string
		x, y, z float64
		want    CellKey
	}{
		{"origin", 0, 0, 0, CellKey{0, 0, 0}},
		{"inside first cell", 499.9, 250, 1, CellKey{0, 0, 0}},
		{"cell boundary", 500, 0, 0, CellKey{1, 0, 0}},
		{"negative floors down", -0.5, -500, -499.9, CellKey{-1, -1, -1}},
		{"mixed", 1200, -1200, 600, CellKey{2, -3, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.KeyFor(tt.x, tt.y, tt.z); got != tt.want {
				t.Errorf("KeyFor(%v,%v,%v) = %+v, want %+v", tt.x, tt.y, tt.z, got, tt.want)
			}
		})
	}
}

// TestNeighborhoodAdjacent verifies entities one cell over are returned.
func TestNeighborhoodAdjacent(t *testing.T) {
	g := NewGrid(500)

	keyA := g.Insert(0, 499, 0, 0)
	g.Insert(1, 501, 0, 0) // next cell on X
	g.Insert(2, 499, 501, -499)

	got := g.Neighborhood(keyA)
	if len(got) != 3 {
		t.Fatalf("expected 3 candidates in neighborhood, got %d (%v)", len(got), got)
	}

	seen := map[uint32]bool{}
	for _, id := range got {
		seen[id] = true
	}
	for id := uint32(0); id < 3; id++ {
		if !seen[id] {
			t.Errorf("entity %d missing from neighborhood", id)
		}
	}
}

// TestNeighborhoodExcludesDistant verifies entities two or more cells away
// never appear as candidates.
func TestNeighborhoodExcludesDistant(t *testing.T) {
	g := NewGrid(500)

	keyA := g.Insert(0, 0, 0, 0)
	g.Insert(1, 1001, 0, 0) // two cells over
	g.Insert(2, 0, 0, 5000)

	got := g.Neighborhood(keyA)
	if len(got) != 1 || got[0] != 0 {
		t.Errorf("expected only the querying entity, got %v", got)
	}
}

// TestClearKeepsCapacity verifies Clear empties cells without dropping them.
func TestClearKeepsCapacity(t *testing.T) {
	g := NewGrid(500)

	for i := uint32(0); i < 10; i++ {
		g.Insert(i, float64(i)*400, 0, 0)
	}

	before := g.GridStats()
	if before.TotalEntities != 10 {
		t.Fatalf("expected 10 entities before Clear, got %d", before.TotalEntities)
	}

	g.Clear()

	after := g.GridStats()
	if after.TotalEntities != 0 {
		t.Errorf("expected 0 entities after Clear, got %d", after.TotalEntities)
	}
	if after.TotalCells != before.TotalCells {
		t.Errorf("Clear should keep cell storage: %d cells before, %d after",
			before.TotalCells, after.TotalCells)
	}
}

// TestDefaultCellSize verifies the fallback for non-positive sizes.
func TestDefaultCellSize(t *testing.T) {
	if got := NewGrid(0).CellSize(); got != DefaultCellSize {
		t.Errorf("NewGrid(0).CellSize() = %v, want %v", got, DefaultCellSize)
	}
	if got := NewGrid(-10).CellSize(); got != DefaultCellSize {
		t.Errorf("NewGrid(-10).CellSize() = %v, want %v", got, DefaultCellSize)
	}
}

// TestStats verifies occupancy accounting.
func TestStats(t *testing.T) {
	g := NewGrid(500)
	g.Insert(0, 0, 0, 0)
	g.Insert(1, 1, 1, 1) // same cell
	g.Insert(2, 5000, 0, 0)

	s := g.GridStats()
	if s.NonEmptyCells != 2 {
		t.Errorf("NonEmptyCells = %d, want 2", s.NonEmptyCells)
	}
	if s.MaxInCell != 2 {
		t.Errorf("MaxInCell = %d, want 2", s.MaxInCell)
	}
	if s.TotalEntities != 3 {
		t.Errorf("TotalEntities = %d, want 3", s.TotalEntities)
	}
}

// BenchmarkRebuild measures the per-tick Clear+Insert cycle at asteroid-field
// scale. Steady state should not allocate once cell storage has warmed up.
func BenchmarkRebuild(b *testing.B) {
	rng := rand.New(rand.NewSource(42))
	g := NewGrid(500)

	type point struct{ x, y, z float64 }
	points := make([]point, 500)
	for i := range points {
		points[i] = point{
			x: rng.Float64()*20000 - 10000,
			y: rng.Float64()*4000 - 2000,
			z: rng.Float64()*20000 - 10000,
		}
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g.Clear()
		for id, p := range points {
			g.Insert(uint32(id), p.x, p.y, p.z)
		}
	}
}
