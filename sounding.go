package cube

import "math"

// Sounding is a single positioned depth measurement with its associated
// horizontal and vertical uncertainty. Immutable once
// constructed; Meta is opaque to the core and forwarded verbatim to any
// downstream consumer.
type Sounding struct {
	East     float64
	North    float64
	Depth    float64 // metres, negative down
	HzUncert float32 // 1-sigma, metres
	VtUncert float32 // 1-sigma, metres
	Meta     []byte
}

// Validate classifies a Sounding against the input-domain error kinds:
// non-finite depth, non-positive uncertainty, or a position outside the
// grid. These are never raised to the caller; Assimilate accumulates
// them into BatchStats instead.
func (s *Sounding) Validate(g *Grid) error {
	if math.IsNaN(s.Depth) || math.IsInf(s.Depth, 0) {
		return ErrNonFiniteDepth
	}
	if s.HzUncert <= 0 || s.VtUncert <= 0 {
		return ErrNonPositiveUncertainty
	}
	if _, _, ok := g.ToIndex(s.East, s.North); !ok {
		return ErrOutsideGrid
	}

	return nil
}
