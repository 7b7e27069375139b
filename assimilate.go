package cube

import (
	"errors"

	"github.com/samber/lo"
)

// BatchStats accumulates the input-domain error counters from one
// Assimilate call, reported at batch completion rather than raised.
type BatchStats struct {
	Accepted       int
	OutsideGrid    int
	BadUncert      int
	NonFiniteDepth int
	EmptyFootprint int // no grid node lay within the footprint radius
}

// Container bundles a Grid, its Config and the TileCache fronting its
// backing store — the object an assimilation batch is driven against.
// Grounded on the corpus's GsfFile (file.go), which similarly bundles
// geometry/config state with the handle used to read it.
type Container struct {
	Grid   *Grid
	Config *Config
	Cache  *TileCache
}

// NewContainer validates cfg and constructs a fresh backing store plus
// grid/cache trio.
func NewContainer(uri, configURI string, cfg Config) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	g := NewGrid(&cfg)

	store, err := CreateBackingStore(uri, configURI, g, &cfg)
	if err != nil {
		return nil, err
	}

	return &Container{
		Grid:   g,
		Config: &cfg,
		Cache:  NewTileCache(g, &cfg, store),
	}, nil
}

// OpenContainer reopens a container previously created by NewContainer.
func OpenContainer(uri, configURI string) (*Container, error) {
	store, g, cfg, err := OpenBackingStore(uri, configURI)
	if err != nil {
		return nil, err
	}

	return &Container{
		Grid:   g,
		Config: cfg,
		Cache:  NewTileCache(g, cfg, store),
	}, nil
}

// Assimilate drives one batch of soundings through the propagator and the
// node tracker, honouring the tile cache. Sounding order
// within the batch is preserved for any single node's updates, since that
// order matters for change-point detection; soundings touching disjoint
// nodes may be processed in any relative order without changing the
// result.
//
// Updates are grouped by containing tile purely for I/O locality — the
// original per-sounding order is preserved within any one node's update
// sequence, which is all correctness requires.
func (c *Container) Assimilate(batch []Sounding) (BatchStats, error) {
	var stats BatchStats

	type ordered struct {
		update NodeUpdate
		seq    int
	}

	byTile := make(map[tileKey][]ordered)
	seq := 0

	for i := range batch {
		s := &batch[i]

		if err := s.Validate(c.Grid); err != nil {
			switch {
			case errors.Is(err, ErrOutsideGrid):
				stats.OutsideGrid++
			case errors.Is(err, ErrNonPositiveUncertainty):
				stats.BadUncert++
			case errors.Is(err, ErrNonFiniteDepth):
				stats.NonFiniteDepth++
			default:
				stats.NonFiniteDepth++
			}
			continue
		}

		updates := Propagate(c.Grid, c.Config, s)
		if len(updates) == 0 {
			stats.EmptyFootprint++
			continue
		}

		stats.Accepted++

		for _, u := range updates {
			k := c.Cache.tileKeyFor(u.Row, u.Col)
			byTile[k] = append(byTile[k], ordered{update: u, seq: seq})
		}
		seq++
	}

	tileKeys := lo.Keys(byTile)
	for _, k := range tileKeys {
		updates := byTile[k]

		// Stable order within the tile preserves per-node sounding
		// order without needing a full cross-tile global sort.
		for i := 1; i < len(updates); i++ {
			for j := i; j > 0 && updates[j].seq < updates[j-1].seq; j-- {
				updates[j], updates[j-1] = updates[j-1], updates[j]
			}
		}

		for _, ou := range updates {
			u := ou.update
			node, err := c.Cache.GetNode(u.Row, u.Col, true)
			if err != nil {
				_ = c.Cache.Flush()
				return stats, errors.Join(ErrTileRead, err)
			}

			if !node.HasNominalDepth {
				node.NominalDepth = u.ObservedDepth
				node.HasNominalDepth = true
			}

			Update(node, c.Config, u.ObservedDepth, u.ObservedVariance, u.Weight)
		}
	}

	if err := c.Cache.Flush(); err != nil {
		return stats, errors.Join(ErrTileWrite, err)
	}

	return stats, nil
}

// Finalise flushes the cache and closes the backing store.
func (c *Container) Finalise() error {
	return c.Cache.Finalise()
}
