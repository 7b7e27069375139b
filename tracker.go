package cube

import "math"

// Update evolves a node's hypothesis set with one weighted observation
// already reduced to this node by the propagator. weight
// is the propagator's distance-attenuation factor in (0, 1]. There is no
// error return; failure to allocate a new hypothesis is a fatal condition
// handled the same way the rest of the corpus treats out-of-memory: it
// panics, since Go gives no other way to signal allocation failure and
// this condition is treated as fatal rather than recoverable.
func Update(n *Node, cfg *Config, observedDepth, observedVariance float64, weight float64) {
	scaledVariance := observedVariance / weight

	// Step 1: no existing hypotheses, seed the first one.
	if len(n.Hypotheses) == 0 {
		h := newHypothesis(observedDepth, scaledVariance)
		if h == nil {
			panic(ErrAlloc)
		}
		n.Hypotheses = append(n.Hypotheses, h)
		return
	}

	// Step 2: innovation and normalised squared innovation per hypothesis.
	bestIdx := -1
	bestD2 := math.Inf(1)
	bestV := 0.0
	bestS := 0.0

	for i, h := range n.Hypotheses {
		v := observedDepth - h.PredictedMean
		s := h.PredictedVariance + scaledVariance
		d2 := v * v / s

		// Ties break on insertion order (lower index wins); strict '<'
		// preserves that since hypotheses are visited in order.
		if d2 < bestD2 {
			bestD2 = d2
			bestIdx = i
			bestV = v
			bestS = s
		}
	}

	// Step 3: selection against the match threshold.
	if bestD2 > cfg.TMatch*cfg.TMatch {
		h := newHypothesis(observedDepth, scaledVariance)
		if h == nil {
			panic(ErrAlloc)
		}
		n.Hypotheses = append(n.Hypotheses, h)
		return
	}

	matched := n.Hypotheses[bestIdx]

	// Step 4: Kalman update of the matched hypothesis.
	gain := matched.PredictedVariance / bestS
	matched.CurrentMean = matched.PredictedMean + gain*bestV
	matched.CurrentVariance = (1 - gain) * matched.PredictedVariance
	matched.NUpdates++

	// Step 5: intervention (change-point) detection.
	e := bestV / math.Sqrt(bestS)
	n.pushMonitor(e)

	cusum := 0.0
	peak := 0.0
	for _, et := range n.MonitorQueue {
		cusum = math.Max(0, cusum+et-cfg.InterventionBias)
		if math.Abs(cusum) > peak {
			peak = math.Abs(cusum)
		}
	}
	matched.CumulativeScore = peak

	if peak > cfg.TIntervention {
		matched.frozen = true
		h := newHypothesis(observedDepth, scaledVariance)
		if h == nil {
			panic(ErrAlloc)
		}
		n.Hypotheses = append(n.Hypotheses, h)
		n.resetMonitor()
		return
	}

	// Step 6: prediction step for the next observation.
	matched.predict(cfg.ProcessNoise)
}
