package cube

import (
	"math"

	"github.com/samber/lo"
)

// selectHypothesis chooses one hypothesis per node at readback time,
// according to cfg.Disambiguator. Ties break on insertion order (lower index wins),
// which lo.MaxBy already guarantees since it keeps the first maximal
// element it encounters when scanning in order.
func selectHypothesis(n *Node, cfg *Config) *Hypothesis {
	switch cfg.Disambiguator {
	case PriorProximity:
		return lo.MinBy(n.Hypotheses, func(a, b *Hypothesis) bool {
			return math.Abs(a.CurrentMean-n.NominalDepth) < math.Abs(b.CurrentMean-n.NominalDepth)
		})
	case Likelihood:
		return lo.MaxBy(n.Hypotheses, func(a, b *Hypothesis) bool {
			return a.NUpdates > b.NUpdates
		})
	case Posterior:
		return lo.MaxBy(n.Hypotheses, func(a, b *Hypothesis) bool {
			return posteriorScore(a) > posteriorScore(b)
		})
	case PriorWeightedPosterior:
		return lo.MaxBy(n.Hypotheses, func(a, b *Hypothesis) bool {
			return priorWeightedScore(a, n, cfg) > priorWeightedScore(b, n, cfg)
		})
	default:
		return n.Hypotheses[0]
	}
}

func posteriorScore(h *Hypothesis) float64 {
	return float64(h.NUpdates) / h.CurrentVariance
}

func priorWeightedScore(h *Hypothesis, n *Node, cfg *Config) float64 {
	d := h.CurrentMean - n.NominalDepth
	prior := math.Exp(-(d * d) / (2 * cfg.PriorVariance))
	return posteriorScore(h) * prior
}

// hypothesisStrength is the ratio of the chosen hypothesis's posterior
// score to the sum over all hypotheses at that node:
// 1.0 means unambiguous, near-zero means highly ambiguous.
func hypothesisStrength(chosen *Hypothesis, n *Node) float64 {
	total := 0.0
	for _, h := range n.Hypotheses {
		total += posteriorScore(h)
	}
	if total == 0 {
		return 0
	}

	return posteriorScore(chosen) / total
}
