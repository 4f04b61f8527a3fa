package allocation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// CompleteTolerance is how far the total may drift from 1.0 before an
// allocation stops being submittable.
const CompleteTolerance = 0.01

// Schema is an ordered, immutable set of bucket names partitioning a unit
// budget. The engine is generic over schemas and never hard-codes bucket
// names; the two instances below are the only ones the product uses.
type Schema struct {
	name    string
	buckets []string
	index   map[string]int
}

// Portfolio is the top-level asset class split.
var Portfolio = NewSchema("portfolio", "stocks", "bonds", "alternatives", "cash")

// Alternatives is the breakdown of the "alternatives" bucket. It is a
// separate partition: editing it never rescales the parent fraction.
var Alternatives = NewSchema("alternatives", "crypto", "reits", "commodities", "privateEquity")

// NewSchema creates a schema from an ordered bucket list.
func NewSchema(name string, buckets ...string) *Schema {
	idx := make(map[string]int, len(buckets))
	for i, b := range buckets {
		idx[b] = i
	}
	return &Schema{name: name, buckets: buckets, index: idx}
}

// Name returns the schema name.
func (s *Schema) Name() string { return s.name }

// Buckets returns the bucket names in schema order.
func (s *Schema) Buckets() []string {
	out := make([]string, len(s.buckets))
	copy(out, s.buckets)
	return out
}

// Contains reports whether the schema has the named bucket.
func (s *Schema) Contains(bucket string) bool {
	_, ok := s.index[bucket]
	return ok
}

// SchemaByName resolves the well-known schemas by name.
func SchemaByName(name string) (*Schema, bool) {
	switch name {
	case Portfolio.name:
		return Portfolio, true
	case Alternatives.name:
		return Alternatives, true
	}
	return nil, false
}

// State assigns a weight in [0,1] to every bucket of a schema. It has
// value semantics: every operation returns a new state and never mutates
// its input, so states can be passed around freely.
type State struct {
	schema  *Schema
	weights []float64 // parallel to schema.buckets
}

// NewState returns the all-zero state for a schema.
func NewState(schema *Schema) State {
	return State{schema: schema, weights: make([]float64, len(schema.buckets))}
}

// FromMap builds a state from bucket weights. Unknown buckets or weights
// outside [0,1] are rejected; missing buckets default to zero.
func FromMap(schema *Schema, weights map[string]float64) (State, error) {
	st := NewState(schema)
	for bucket, w := range weights {
		i, ok := schema.index[bucket]
		if !ok {
			return State{}, fmt.Errorf("unknown bucket %q for schema %q", bucket, schema.name)
		}
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 || w > 1 {
			return State{}, fmt.Errorf("weight %v for bucket %q out of range [0,1]", w, bucket)
		}
		st.weights[i] = w
	}
	return st, nil
}

// Schema returns the schema this state is defined over.
func (st State) Schema() *Schema { return st.schema }

// Get returns the weight of a bucket, or 0 for an unknown bucket.
func (st State) Get(bucket string) float64 {
	i, ok := st.schema.index[bucket]
	if !ok {
		return 0
	}
	return st.weights[i]
}

// Weights returns the state as a bucket→weight map.
func (st State) Weights() map[string]float64 {
	out := make(map[string]float64, len(st.weights))
	for i, b := range st.schema.buckets {
		out[b] = st.weights[i]
	}
	return out
}

// Sum returns the total of all bucket weights.
func (st State) Sum() float64 {
	return floats.Sum(st.weights)
}

// Complete reports whether the allocation is submittable: its total is
// within CompleteTolerance of 1.0.
func (st State) Complete() bool {
	return math.Abs(st.Sum()-1) <= CompleteTolerance
}

// Equal reports whether two states share a schema and have identical weights.
func (st State) Equal(other State) bool {
	if st.schema != other.schema {
		return false
	}
	return floats.Equal(st.weights, other.weights)
}

func (st State) clone() State {
	out := State{schema: st.schema, weights: make([]float64, len(st.weights))}
	copy(out.weights, st.weights)
	return out
}
