package cube

import (
	"path/filepath"
	"testing"
)

func newTestContainer(t *testing.T, rows, cols int) *Container {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Rows, cfg.Cols = rows, cols
	cfg.Spacing = 1.0
	cfg.TileSize = 16
	cfg.CacheCapacity = 64

	uri := filepath.Join(t.TempDir(), "grid")

	c, err := NewContainer(uri, "", cfg)
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}
	t.Cleanup(func() { _ = c.Finalise() })

	return c
}

func TestAssimilateSingleSoundingDepth(t *testing.T) {
	c := newTestContainer(t, 10, 10)

	stats, err := c.Assimilate([]Sounding{
		{East: 5.0, North: 5.0, Depth: -20.0, HzUncert: 0.1, VtUncert: 0.5},
	})
	if err != nil {
		t.Fatalf("Assimilate: %v", err)
	}
	if stats.Accepted != 1 {
		t.Fatalf("Accepted = %d, want 1", stats.Accepted)
	}

	surface, err := c.ReadSurface(SurfaceDepth)
	if err != nil {
		t.Fatalf("ReadSurface: %v", err)
	}

	row, col, ok := c.Grid.ToIndex(5.0, 5.0)
	if !ok {
		t.Fatalf("(5,5) should be inside the grid")
	}
	got := surface[row*c.Grid.Cols+col]
	if !approxEqual(float64(got), -20.0, 1e-3) {
		t.Errorf("depth at (5,5) = %v, want -20.0", got)
	}

	uncertainty, err := c.ReadSurface(SurfaceUncertainty)
	if err != nil {
		t.Fatalf("ReadSurface(uncertainty): %v", err)
	}
	gotU := uncertainty[row*c.Grid.Cols+col]
	if !approxEqual(float64(gotU), 0.98, 1e-3) {
		t.Errorf("uncertainty at (5,5) = %v, want 0.98", gotU)
	}

	for r := 0; r < c.Grid.Rows; r++ {
		for cc := 0; cc < c.Grid.Cols; cc++ {
			if r == row && cc == col {
				continue
			}
			if v := surface[r*c.Grid.Cols+cc]; !IsNoDataF32(v) {
				t.Errorf("(%d,%d) = %v, want no-data", r, cc, v)
			}
		}
	}
}

func TestAssimilateRejectsOutsideGrid(t *testing.T) {
	c := newTestContainer(t, 10, 10)

	stats, err := c.Assimilate([]Sounding{
		{East: 500.0, North: 500.0, Depth: -20.0, HzUncert: 0.1, VtUncert: 0.5},
	})
	if err != nil {
		t.Fatalf("Assimilate: %v", err)
	}
	if stats.OutsideGrid != 1 || stats.Accepted != 0 {
		t.Errorf("stats = %+v, want OutsideGrid=1 Accepted=0", stats)
	}
}

func TestAssimilatePersistenceRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rows, cfg.Cols = 10, 10
	cfg.Spacing = 1.0
	cfg.TileSize = 16
	cfg.CacheCapacity = 64

	uri := filepath.Join(t.TempDir(), "grid")

	c, err := NewContainer(uri, "", cfg)
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}

	if _, err := c.Assimilate([]Sounding{
		{East: 5.0, North: 5.0, Depth: -20.0, HzUncert: 0.1, VtUncert: 0.5},
		{East: 5.0, North: 5.0, Depth: -20.4, HzUncert: 0.1, VtUncert: 0.5},
	}); err != nil {
		t.Fatalf("Assimilate: %v", err)
	}

	if err := c.Finalise(); err != nil {
		t.Fatalf("Finalise: %v", err)
	}

	reopened, err := OpenContainer(uri, "")
	if err != nil {
		t.Fatalf("OpenContainer: %v", err)
	}
	defer reopened.Finalise()

	surface, err := reopened.ReadSurface(SurfaceDepth)
	if err != nil {
		t.Fatalf("ReadSurface: %v", err)
	}

	row, col, _ := reopened.Grid.ToIndex(5.0, 5.0)
	got := surface[row*reopened.Grid.Cols+col]
	if !approxEqual(float64(got), -20.2, 1e-3) {
		t.Errorf("depth at (5,5) after reopen = %v, want -20.2", got)
	}
}

func TestAssimilateTileEvictionWritesToBackingStore(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rows, cfg.Cols = 64, 64
	cfg.Spacing = 1.0
	cfg.TileSize = 16
	cfg.CacheCapacity = 2

	uri := filepath.Join(t.TempDir(), "grid")

	c, err := NewContainer(uri, "", cfg)
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}
	defer c.Finalise()

	var batch []Sounding
	for tr := 0; tr*16 < 64; tr++ {
		for tcol := 0; tcol*16 < 64; tcol++ {
			east, north := c.Grid.ToGround(tr*16+8, tcol*16+8)
			batch = append(batch, Sounding{East: east, North: north, Depth: -10.0, HzUncert: 0.1, VtUncert: 0.5})
		}
	}

	stats, err := c.Assimilate(batch)
	if err != nil {
		t.Fatalf("Assimilate: %v", err)
	}
	if stats.Accepted != len(batch) {
		t.Fatalf("Accepted = %d, want %d", stats.Accepted, len(batch))
	}

	writes := 0
	for tr := 0; tr*16 < 64; tr++ {
		for tcol := 0; tcol*16 < 64; tcol++ {
			if c.Cache.store.tileExists(tr*16, tcol*16) {
				writes++
			}
		}
	}

	if writes < 16-2 {
		t.Errorf("got %d tiles written to the backing store, want at least %d", writes, 16-2)
	}
}
