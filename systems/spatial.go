// Package systems provides the spatial index, world bounds and the rule
// formulas the environment applies each tick.
package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/biosphere/components"
)

// Bucket selects one of the three per-cell entity lists.
type Bucket uint8

const (
	BucketCreatures Bucket = iota
	BucketFood             // food and carrion
	BucketEnvironmental
	numBuckets
)

// BucketMask selects a set of buckets.
type BucketMask uint8

const (
	MaskCreatures     BucketMask = 1 << BucketCreatures
	MaskFood          BucketMask = 1 << BucketFood
	MaskEnvironmental BucketMask = 1 << BucketEnvironmental
	MaskAll                      = MaskCreatures | MaskFood | MaskEnvironmental
)

// Has reports whether b is selected.
func (m BucketMask) Has(b Bucket) bool { return m&(1<<b) != 0 }

// BucketOf maps an entity kind to the bucket it is stored in.
func BucketOf(kind components.EntityKind) Bucket {
	switch {
	case kind == components.KindCreature:
		return BucketCreatures
	case kind.IsFeature():
		return BucketEnvironmental
	default:
		return BucketFood
	}
}

// Occupant is a grid entry: an entity handle with its kind and the
// position it had when inserted.
type Occupant struct {
	E    ecs.Entity
	Kind components.EntityKind
	Pos  components.Vec2
}

// Neighbor holds a nearby entity with its distance from the query origin.
type Neighbor struct {
	Occupant
	Dist float64
}

// CellKey identifies a grid cell: (floor(x/cellSize), floor(y/cellSize)).
type CellKey struct {
	X, Y int
}

// Cell holds the entities whose position falls inside one grid cell.
type Cell struct {
	buckets [numBuckets][]Occupant
}

// Entries returns the occupants of one bucket.
func (c *Cell) Entries(b Bucket) []Occupant { return c.buckets[b] }

// GridStats counts grid work since the last ResetCounters.
type GridStats struct {
	Queries        int
	CellsScanned   int
	DistanceChecks int
}

// SpatialGrid is a uniform grid keyed by cell coordinates. Cells are
// created on demand, so the grid has no fixed extent and negative
// coordinates are valid.
type SpatialGrid struct {
	cellSize float64
	cells    map[CellKey]*Cell
	count    int
	stats    GridStats
}

// NewSpatialGrid creates an empty grid. cellSize must be positive.
func NewSpatialGrid(cellSize float64) *SpatialGrid {
	if cellSize <= 0 {
		panic("systems: spatial grid cell size must be positive")
	}
	return &SpatialGrid{
		cellSize: cellSize,
		cells:    make(map[CellKey]*Cell),
	}
}

// CellSize returns the edge length of a cell.
func (g *SpatialGrid) CellSize() float64 { return g.cellSize }

// KeyFor returns the cell containing p. Floor division keeps negative
// coordinates in the correct cell.
func (g *SpatialGrid) KeyFor(p components.Vec2) CellKey {
	return CellKey{
		X: int(math.Floor(p.X / g.cellSize)),
		Y: int(math.Floor(p.Y / g.cellSize)),
	}
}

// Clear removes all entries. Cell storage is kept for reuse.
func (g *SpatialGrid) Clear() {
	for _, c := range g.cells {
		for b := range c.buckets {
			c.buckets[b] = c.buckets[b][:0]
		}
	}
	g.count = 0
}

// Insert adds an occupant to the cell matching its position.
func (g *SpatialGrid) Insert(o Occupant) {
	key := g.KeyFor(o.Pos)
	c := g.cells[key]
	if c == nil {
		c = &Cell{}
		g.cells[key] = c
	}
	b := BucketOf(o.Kind)
	c.buckets[b] = append(c.buckets[b], o)
	g.count++
}

// Remove deletes an entity that was inserted at pos. Returns false if it
// was not found in that cell.
func (g *SpatialGrid) Remove(e ecs.Entity, kind components.EntityKind, pos components.Vec2) bool {
	c := g.cells[g.KeyFor(pos)]
	if c == nil {
		return false
	}
	b := BucketOf(kind)
	list := c.buckets[b]
	for i := range list {
		if list[i].E == e {
			c.buckets[b] = append(list[:i], list[i+1:]...)
			g.count--
			return true
		}
	}
	return false
}

// Len returns the number of entries in the grid.
func (g *SpatialGrid) Len() int { return g.count }

// Cell returns the cell at key, or nil.
func (g *SpatialGrid) Cell(key CellKey) *Cell { return g.cells[key] }

// Visit calls fn for every occupant in the selected buckets of cells
// intersecting the bounding box of the circle (center, radius). Occupants
// are candidates only: fn must do its own distance test. Visiting stops
// when fn returns false.
func (g *SpatialGrid) Visit(center components.Vec2, radius float64, mask BucketMask, fn func(o *Occupant) bool) {
	g.stats.Queries++
	lo := g.KeyFor(components.Vec2{X: center.X - radius, Y: center.Y - radius})
	hi := g.KeyFor(components.Vec2{X: center.X + radius, Y: center.Y + radius})

	for cy := lo.Y; cy <= hi.Y; cy++ {
		for cx := lo.X; cx <= hi.X; cx++ {
			c := g.cells[CellKey{cx, cy}]
			if c == nil {
				continue
			}
			g.stats.CellsScanned++
			for b := Bucket(0); b < numBuckets; b++ {
				if !mask.Has(b) {
					continue
				}
				list := c.buckets[b]
				for i := range list {
					g.stats.DistanceChecks++
					if !fn(&list[i]) {
						return
					}
				}
			}
		}
	}
}

// QueryRadiusInto appends every occupant whose stored position lies within
// radius of center, skipping exclude. Reuse dst across calls to avoid
// allocations.
func (g *SpatialGrid) QueryRadiusInto(dst []Neighbor, center components.Vec2, radius float64, mask BucketMask, exclude ecs.Entity) []Neighbor {
	radiusSq := radius * radius
	g.Visit(center, radius, mask, func(o *Occupant) bool {
		if o.E == exclude {
			return true
		}
		if d := o.Pos.DistSq(center); d <= radiusSq {
			dst = append(dst, Neighbor{Occupant: *o, Dist: math.Sqrt(d)})
		}
		return true
	})
	return dst
}

// CountRadius counts occupants within radius of center, skipping exclude.
func (g *SpatialGrid) CountRadius(center components.Vec2, radius float64, mask BucketMask, exclude ecs.Entity) int {
	n := 0
	radiusSq := radius * radius
	g.Visit(center, radius, mask, func(o *Occupant) bool {
		if o.E != exclude && o.Pos.DistSq(center) <= radiusSq {
			n++
		}
		return true
	})
	return n
}

// Stats returns the work counters since the last reset.
func (g *SpatialGrid) Stats() GridStats { return g.stats }

// ResetCounters zeroes the work counters.
func (g *SpatialGrid) ResetCounters() { g.stats = GridStats{} }
