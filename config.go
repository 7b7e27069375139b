package cube

import "errors"

// DisambiguationPolicy selects among the competing per-node hypotheses at
// readback time.
type DisambiguationPolicy int

const (
	// PriorProximity chooses the hypothesis whose Current_mean is closest
	// to the node's Nominal_depth.
	PriorProximity DisambiguationPolicy = iota
	// Likelihood chooses the hypothesis with the largest N_updates.
	Likelihood
	// Posterior chooses the hypothesis maximising N_updates / Current_variance.
	Posterior
	// PriorWeightedPosterior is Posterior scaled by a Gaussian prior
	// centred on Nominal_depth.
	PriorWeightedPosterior
)

// MonitorQueueSize is the fixed compile-time length of a node's
// change-point monitoring queue.
const MonitorQueueSize = 5

// Config carries every tunable parameter for a Grid. None of the CUBE
// magic constants are hardcoded inside tracker.go/footprint.go; they
// all live here.
type Config struct {
	// Grid geometry.
	OriginEast  float64
	OriginNorth float64
	Spacing     float64 // metres, equal on both axes
	Rows        int
	Cols        int

	// TileSize is the power-of-two node count per side of a tile.
	// Default 256.
	TileSize int

	// CacheCapacity is the maximum number of tiles resident in RAM at
	// once.
	CacheCapacity int

	// BackgroundWriters, when > 0, sizes a pond.Pool used to persist
	// evicted dirty tiles off the assimilation hot path. Zero means tile eviction writes
	// synchronously on the assimilating goroutine.
	BackgroundWriters int

	// Disambiguator selects the readback policy.
	Disambiguator DisambiguationPolicy
	// PriorVariance is only used by PriorWeightedPosterior.
	PriorVariance float64

	// TMatch is the Mahalanobis-distance threshold above which an
	// observation starts a new hypothesis instead of matching an
	// existing one. Default 2.0 (T_match, not
	// squared — squared internally against d²).
	TMatch float64
	// TIntervention is the cumulative-score threshold that triggers a
	// change-point. Default 3.0.
	TIntervention float64
	// InterventionBias (δ) is subtracted from each normalised innovation
	// before accumulating the CUSUM statistic. Default 0.5.
	InterventionBias float64
	// ProcessNoise (Q) is added to the predicted variance each update
	// cycle. Default 0.0 (time-invariant depth).
	ProcessNoise float64

	// FootprintRadiusMultiplier (k) scales hz_uncert to the footprint
	// radius R = k * hz_uncert. Default 2.5.
	FootprintRadiusMultiplier float64
	// LocalSlope (s) is the assumed local slope used to inflate the
	// observed variance with distance from the footprint centre.
	// Default 0.01.
	LocalSlope float64
}

// DefaultConfig returns a Config populated with every documented
// default, leaving only grid geometry for the caller to fill in.
func DefaultConfig() Config {
	return Config{
		TileSize:                  256,
		CacheCapacity:             64,
		Disambiguator:             Posterior,
		PriorVariance:             1.0,
		TMatch:                    2.0,
		TIntervention:             3.0,
		InterventionBias:          0.5,
		ProcessNoise:              0.0,
		FootprintRadiusMultiplier: 2.5,
		LocalSlope:                0.01,
	}
}

// isPowerOfTwo reports whether n is a positive power of two.
func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Validate detects configuration errors at construction time. No grid
// is created when this returns an error.
func (c *Config) Validate() error {
	if c.Spacing <= 0 {
		return ErrGridSpacing
	}
	if c.Rows <= 0 || c.Cols <= 0 {
		return ErrGridExtent
	}
	if !isPowerOfTwo(c.TileSize) {
		return ErrTileSize
	}
	if c.CacheCapacity < 1 {
		return ErrCacheCapacity
	}
	switch c.Disambiguator {
	case PriorProximity, Likelihood, Posterior, PriorWeightedPosterior:
	default:
		return ErrDisambiguator
	}
	if c.TMatch <= 0 {
		return errors.New("Error T_match Must Be Positive")
	}
	if c.TIntervention <= 0 {
		return errors.New("Error T_int Must Be Positive")
	}
	if c.FootprintRadiusMultiplier <= 0 {
		return errors.New("Error Footprint Radius Multiplier Must Be Positive")
	}
	if c.ProcessNoise < 0 {
		return errors.New("Error Process Noise Must Be Non-Negative")
	}

	return nil
}
