package cube

import "math"

// SurfaceKind selects which readback surface ReadSurface produces.
type SurfaceKind int

const (
	SurfaceDepth SurfaceKind = iota
	SurfaceUncertainty
	SurfaceHypothesisCount
	SurfaceHypothesisStrength
)

// ConfidenceFactor converts a 1-sigma variance into the 95% confidence
// interval reported on the uncertainty surface (1.96 sigma).
const ConfidenceFactor = 1.96

// ReadSurface produces a rectangular, row-major f32 array for the
// requested surface kind. Nodes never touched are filled
// with the no-data sentinel (NoDataF32 for floating surfaces, NoDataCount
// for the hypothesis-count surface, still returned here as float32 zero
// so every surface shares one return type). Grounded on the corpus's
// dense-array fill pattern in nulls.go (padDense/beamArrayNulls), which
// likewise walks every cell of a fixed-size array inserting a sentinel
// for missing data.
func (c *Container) ReadSurface(kind SurfaceKind) ([]float32, error) {
	rows, cols := c.Grid.Rows, c.Grid.Cols
	out := make([]float32, rows*cols)

	tileSize := c.Config.TileSize

	for tr := 0; tr*tileSize < rows; tr++ {
		for tcol := 0; tcol*tileSize < cols; tcol++ {
			rowOrigin := tr * tileSize
			colOrigin := tcol * tileSize

			tile, err := c.Cache.GetTile(rowOrigin, colOrigin)
			if err != nil {
				return nil, err
			}

			for r := rowOrigin; r < rowOrigin+tileSize && r < rows; r++ {
				for col := colOrigin; col < colOrigin+tileSize && col < cols; col++ {
					node := tile.node(r, col)
					out[r*cols+col] = readbackValue(kind, node, c.Config)
				}
			}
		}
	}

	return out, nil
}

func readbackValue(kind SurfaceKind, n *Node, cfg *Config) float32 {
	if !n.Touched() {
		if kind == SurfaceHypothesisCount {
			return float32(NoDataCount)
		}
		return NoDataF32
	}

	chosen := selectHypothesis(n, cfg)

	switch kind {
	case SurfaceDepth:
		return float32(chosen.CurrentMean)
	case SurfaceUncertainty:
		return float32(ConfidenceFactor * sqrtNonNegative(chosen.CurrentVariance))
	case SurfaceHypothesisCount:
		return float32(len(n.Hypotheses))
	case SurfaceHypothesisStrength:
		return float32(hypothesisStrength(chosen, n))
	default:
		return NoDataF32
	}
}

func sqrtNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return math.Sqrt(v)
}
