package allocation

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// step is the granularity of values coming from continuous controls (sliders).
const step = 0.01

// Set assigns a weight to one bucket, clamped to the headroom left by the
// other buckets. The clamp is asymmetric: pushing a bucket past the
// remaining budget truncates that bucket and leaves its siblings
// untouched; nothing is ever rebalanced implicitly.
//
// Unknown buckets and values outside [0,1] (including NaN/Inf) are
// rejected by returning the input state unchanged.
func Set(st State, bucket string, value float64) State {
	i, ok := st.schema.index[bucket]
	if !ok {
		return st
	}
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 || value > 1 {
		return st
	}

	otherTotal := st.Sum() - st.weights[i]
	maxAllowable := math.Max(0, 1-otherTotal)

	out := st.clone()
	out.weights[i] = math.Min(value, maxAllowable)
	return out
}

// SetStepped is Set for values originating from a continuous control: the
// raw value is first rounded to the nearest 1% step. Direct numeric entry
// should use Set, which accepts arbitrary precision.
func SetStepped(st State, bucket string, value float64) State {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return st
	}
	return Set(st, bucket, math.Round(value/step)*step)
}

// Normalize proportionally rescales all buckets so they sum to 1.0, but
// only when the total is meaningfully off (|Σ−1| > CompleteTolerance).
// An all-zero state is returned unchanged; callers that need to detect
// that case must check Sum() themselves. Normalize is idempotent.
func Normalize(st State) State {
	sum := st.Sum()
	if sum == 0 {
		return st
	}
	if math.Abs(sum-1) <= CompleteTolerance {
		return st
	}
	out := st.clone()
	floats.Scale(1/sum, out.weights)
	return out
}

// Reset returns the all-zero allocation for a schema.
func Reset(schema *Schema) State {
	return NewState(schema)
}
