package pipeline

import "errors"

// errStallAtWB is the invariant violation for StallAt(WB): there is no
// stage downstream of WB to receive the shifted bubble.
var errStallAtWB = errors.New("pipeline: stall at WB is illegal")
