package cube

import "math"

// NoDataF32 is the sentinel used across all floating-point readback
// surfaces (depth, uncertainty, hypothesis strength) for nodes never
// touched by an assimilated sounding. External grid writers should
// treat it as "no estimate" rather than a valid zero.
var NoDataF32 = float32(math.NaN())

// NoDataCount is the sentinel for the integer hypothesis-count surface.
// Zero doubles as both "no data" and "zero hypotheses", which is fine
// because a touched node always carries at least one hypothesis
// (the Node.hypotheses invariant).
const NoDataCount uint32 = 0

// IsNoDataF32 reports whether v is the no-data sentinel. NaN != NaN under
// IEEE 754, so a direct equality check would never match; this is the
// query API external readers are expected to use.
func IsNoDataF32(v float32) bool {
	return math.IsNaN(float64(v))
}
