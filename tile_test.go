package cube

import (
	"testing"
	"time"
)

func TestNewTileIsUntouched(t *testing.T) {
	tile := newTile(16, 32, 8)

	if tile.RowOrigin != 16 || tile.ColOrigin != 32 || tile.Size != 8 {
		t.Fatalf("got origin=(%d,%d) size=%d, want (16,32) size=8", tile.RowOrigin, tile.ColOrigin, tile.Size)
	}
	if len(tile.Nodes) != 64 {
		t.Fatalf("got %d nodes, want 64", len(tile.Nodes))
	}
	for i := range tile.Nodes {
		if tile.Nodes[i].Touched() {
			t.Fatalf("node %d is touched in a freshly allocated tile", i)
		}
	}
}

func TestTileLocalIndexAndNode(t *testing.T) {
	tile := newTile(16, 32, 8)

	if got := tile.localIndex(16, 32); got != 0 {
		t.Errorf("localIndex(16,32) = %d, want 0", got)
	}
	if got := tile.localIndex(17, 33); got != 9 {
		t.Errorf("localIndex(17,33) = %d, want 9", got)
	}

	n := tile.node(17, 33)
	n.Hypotheses = append(n.Hypotheses, &Hypothesis{})

	if &tile.Nodes[9] != n {
		t.Errorf("node(17,33) did not return a pointer into Nodes[9]")
	}
}

func TestTileTouchMarksDirtyOnlyWhenRequested(t *testing.T) {
	tile := newTile(0, 0, 4)
	now := time.Now()

	tile.touch(now, false)
	if tile.Dirty {
		t.Errorf("touch(dirty=false) marked the tile dirty")
	}
	if !tile.LastUsed.Equal(now) {
		t.Errorf("LastUsed not updated by a read-only touch")
	}

	tile.touch(now, true)
	if !tile.Dirty {
		t.Errorf("touch(dirty=true) did not mark the tile dirty")
	}
}
