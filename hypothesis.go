package cube

// Hypothesis is one candidate depth estimate at one node.
// Created when a sounding does not match any existing hypothesis at a
// node; mutated by subsequent updates; destroyed only when its
// containing node is destroyed.
type Hypothesis struct {
	CurrentMean     float64
	CurrentVariance float64

	// PredictedMean/PredictedVariance are the one-step-ahead Kalman prior
	// computed by the prediction step.
	PredictedMean     float64
	PredictedVariance float64

	// CumulativeScore is the running CUSUM statistic used for
	// change-point detection.
	CumulativeScore float64

	NUpdates uint32

	// frozen marks a hypothesis that triggered an intervention: its
	// identity is preserved (readback may still select it, its history
	// stands) but it is not a candidate for further merges during the
	// update that froze it.
	frozen bool
}

// newHypothesis seeds a fresh hypothesis from a single observation.
func newHypothesis(observedDepth, observedVariance float64) *Hypothesis {
	h := &Hypothesis{
		CurrentMean:     observedDepth,
		CurrentVariance: observedVariance,
		NUpdates:        1,
	}
	h.predict(0)

	return h
}

// predict runs the random-walk prediction step:
// the mean carries forward unchanged and the variance grows by the
// process noise Q.
func (h *Hypothesis) predict(processNoise float64) {
	h.PredictedMean = h.CurrentMean
	h.PredictedVariance = h.CurrentVariance + processNoise
}
