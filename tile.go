package cube

import "time"

// tileVersion is the wire-format version byte written to every persisted
// tile.
const tileVersion uint8 = 1

// Tile is a fixed-size rectangular block of nodes. A tile is
// either resident (in RAM) or persisted (on disk in the backing store) —
// never both authoritative.
type Tile struct {
	RowOrigin int // grid row of the NW corner
	ColOrigin int // grid col of the NW corner
	Size      int // nodes per side

	Nodes []Node // row-major, len == Size*Size

	Dirty    bool
	LastUsed time.Time
}

// newTile allocates an empty tile at the given tile-grid position. Nodes
// are zero-valued (untouched) until first written.
func newTile(rowOrigin, colOrigin, size int) *Tile {
	return &Tile{
		RowOrigin: rowOrigin,
		ColOrigin: colOrigin,
		Size:      size,
		Nodes:     make([]Node, size*size),
	}
}

// localIndex converts a global grid position known to fall within this
// tile into a row-major offset into Nodes.
func (t *Tile) localIndex(row, col int) int {
	return (row-t.RowOrigin)*t.Size + (col - t.ColOrigin)
}

// node returns a pointer to the node at the given global grid position.
// The caller is responsible for having verified the position falls
// within this tile.
func (t *Tile) node(row, col int) *Node {
	return &t.Nodes[t.localIndex(row, col)]
}

// touch bumps the tile's last-used timestamp and, when dirty is true,
// marks the tile dirty. now is
// passed in explicitly rather than read from time.Now() so the cache can
// keep a single, consistent clock reading per operation.
func (t *Tile) touch(now time.Time, dirty bool) {
	t.LastUsed = now
	if dirty {
		t.Dirty = true
	}
}
