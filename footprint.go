package cube

import (
	"math"

	"github.com/samber/lo"
)

// NodeUpdate is one (node, weight, observed depth, observed variance)
// tuple emitted by Propagate for a single sounding.
type NodeUpdate struct {
	Row              int
	Col              int
	Weight           float64
	ObservedDepth    float64
	ObservedVariance float64
}

// Propagate maps a sounding's uncertainty footprint to the weighted set
// of nodes it influences. Nodes entirely outside the grid are skipped
// silently; if the footprint lies entirely outside the grid, updates is
// empty. Weights are normalised so they sum to 1 across the returned set.
func Propagate(g *Grid, cfg *Config, s *Sounding) []NodeUpdate {
	radius := cfg.FootprintRadiusMultiplier * float64(s.HzUncert)
	nodeSpan := int(math.Ceil(radius/g.NodeSpacing)) + 1

	centreRow, centreCol, _ := g.ToIndex(s.East, s.North)

	type candidate struct {
		row, col int
		r        float64
		w        float64
	}
	candidates := make([]candidate, 0, (2*nodeSpan+1)*(2*nodeSpan+1))

	for dr := -nodeSpan; dr <= nodeSpan; dr++ {
		row := centreRow + dr
		if row < 0 || row >= g.Rows {
			continue
		}
		for dc := -nodeSpan; dc <= nodeSpan; dc++ {
			col := centreCol + dc
			if col < 0 || col >= g.Cols {
				continue
			}

			east, north := g.ToGround(row, col)
			dx := east - s.East
			dy := north - s.North
			r := math.Sqrt(dx*dx + dy*dy)

			if r > radius {
				continue
			}

			w := math.Exp(-(r * r) / (2 * float64(s.HzUncert) * float64(s.HzUncert)))
			candidates = append(candidates, candidate{row, col, r, w})
		}
	}

	if len(candidates) == 0 {
		return nil
	}

	total := lo.Reduce(candidates, func(acc float64, c candidate, _ int) float64 {
		return acc + c.w
	}, 0.0)

	updates := make([]NodeUpdate, len(candidates))
	for i, c := range candidates {
		slopeTerm := c.r * cfg.LocalSlope
		updates[i] = NodeUpdate{
			Row:              c.row,
			Col:              c.col,
			Weight:           c.w / total,
			ObservedDepth:    s.Depth,
			ObservedVariance: float64(s.VtUncert)*float64(s.VtUncert) + slopeTerm*slopeTerm,
		}
	}

	return updates
}
