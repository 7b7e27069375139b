package cube

import (
	"math"
	"testing"
)

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.Rows, cfg.Cols = 10, 10
	cfg.Spacing = 1.0
	return &cfg
}

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestUpdateSingleSoundingIdentity(t *testing.T) {
	cfg := testConfig()
	n := &Node{}

	Update(n, cfg, -20.0, 0.25, 1.0)

	if len(n.Hypotheses) != 1 {
		t.Fatalf("got %d hypotheses, want 1", len(n.Hypotheses))
	}
	h := n.Hypotheses[0]
	if h.CurrentMean != -20.0 {
		t.Errorf("CurrentMean = %v, want -20.0", h.CurrentMean)
	}
	if h.CurrentVariance != 0.25 {
		t.Errorf("CurrentVariance = %v, want 0.25", h.CurrentVariance)
	}
}

func TestUpdateTwoMatchingSoundingsMerge(t *testing.T) {
	cfg := testConfig()
	n := &Node{}

	Update(n, cfg, -20.0, 0.25, 1.0)
	Update(n, cfg, -20.4, 0.25, 1.0)

	if len(n.Hypotheses) != 1 {
		t.Fatalf("got %d hypotheses, want 1", len(n.Hypotheses))
	}
	h := n.Hypotheses[0]
	if !approxEqual(h.CurrentMean, -20.2, 1e-9) {
		t.Errorf("CurrentMean = %v, want -20.2", h.CurrentMean)
	}
	if !approxEqual(h.CurrentVariance, 0.125, 1e-9) {
		t.Errorf("CurrentVariance = %v, want 0.125", h.CurrentVariance)
	}
}

func TestUpdateTwoMatchingSoundingsOrderInvariant(t *testing.T) {
	cfg := testConfig()

	a := &Node{}
	Update(a, cfg, -20.0, 0.25, 1.0)
	Update(a, cfg, -20.4, 0.25, 1.0)

	b := &Node{}
	Update(b, cfg, -20.4, 0.25, 1.0)
	Update(b, cfg, -20.0, 0.25, 1.0)

	if !approxEqual(a.Hypotheses[0].CurrentMean, b.Hypotheses[0].CurrentMean, 1e-9) {
		t.Errorf("CurrentMean differs by order: %v vs %v", a.Hypotheses[0].CurrentMean, b.Hypotheses[0].CurrentMean)
	}
	if !approxEqual(a.Hypotheses[0].CurrentVariance, b.Hypotheses[0].CurrentVariance, 1e-9) {
		t.Errorf("CurrentVariance differs by order: %v vs %v", a.Hypotheses[0].CurrentVariance, b.Hypotheses[0].CurrentVariance)
	}
}

func TestUpdateFarSoundingStartsSecondHypothesis(t *testing.T) {
	cfg := testConfig()
	n := &Node{}

	Update(n, cfg, -20.0, 0.25, 1.0)
	Update(n, cfg, -40.0, 0.25, 1.0)

	if len(n.Hypotheses) != 2 {
		t.Fatalf("got %d hypotheses, want 2", len(n.Hypotheses))
	}
}

func TestUpdateChangePointStartsSecondHypothesis(t *testing.T) {
	cfg := testConfig()
	n := &Node{}

	const vtUncert = 1.0
	const variance = vtUncert * vtUncert

	for i := 0; i < 5; i++ {
		Update(n, cfg, 10.0, variance, 1.0)
	}
	if len(n.Hypotheses) != 1 {
		t.Fatalf("setup: got %d hypotheses after identical soundings, want 1", len(n.Hypotheses))
	}

	Update(n, cfg, 10.0+6*vtUncert, variance, 1.0)

	if len(n.Hypotheses) != 2 {
		t.Fatalf("got %d hypotheses after change-point sounding, want 2", len(n.Hypotheses))
	}
}
