package cube

import "math"

// Grid is the global geometry mapping ground coordinates (east, north) in
// metres to grid indices. Immutable after construction.
type Grid struct {
	Rows        int
	Cols        int
	NodeSpacing float64
	OriginEast  float64
	OriginNorth float64
}

// NewGrid constructs a Grid from a validated Config. Callers should go
// through NewContainer rather than calling this directly, since a bare
// Grid carries no backing store.
func NewGrid(cfg *Config) *Grid {
	return &Grid{
		Rows:        cfg.Rows,
		Cols:        cfg.Cols,
		NodeSpacing: cfg.Spacing,
		OriginEast:  cfg.OriginEast,
		OriginNorth: cfg.OriginNorth,
	}
}

// ToIndex maps a ground position to the nearest grid node, rounding to the
// closest node rather than truncating. ok is false when the position lies
// outside [0, Rows) x [0, Cols).
func (g *Grid) ToIndex(east, north float64) (row, col int, ok bool) {
	col = int(math.Round((east - g.OriginEast) / g.NodeSpacing))
	row = int(math.Round((north - g.OriginNorth) / g.NodeSpacing))

	if row < 0 || row >= g.Rows || col < 0 || col >= g.Cols {
		return 0, 0, false
	}

	return row, col, true
}

// ToGround maps a grid index back to its ground position, the node's
// nominal centre.
func (g *Grid) ToGround(row, col int) (east, north float64) {
	east = g.OriginEast + float64(col)*g.NodeSpacing
	north = g.OriginNorth + float64(row)*g.NodeSpacing

	return east, north
}

// Contains reports whether (row, col) is a valid node index on this grid.
func (g *Grid) Contains(row, col int) bool {
	return row >= 0 && row < g.Rows && col >= 0 && col < g.Cols
}
