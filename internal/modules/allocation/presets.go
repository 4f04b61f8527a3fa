package allocation

// Canonical portfolio presets. The table is immutable for the process
// lifetime; Preset hands out copies so callers can edit freely.
var presets = map[string]map[string]float64{
	"conservative": {"stocks": 0.30, "bonds": 0.50, "alternatives": 0.05, "cash": 0.15},
	"balanced":     {"stocks": 0.60, "bonds": 0.30, "alternatives": 0.10, "cash": 0.00},
	"aggressive":   {"stocks": 0.80, "bonds": 0.05, "alternatives": 0.15, "cash": 0.00},
	"income":       {"stocks": 0.30, "bonds": 0.55, "alternatives": 0.05, "cash": 0.10},
}

// presetOrder fixes the listing order for the API.
var presetOrder = []string{"conservative", "balanced", "aggressive", "income"}

// Preset returns a copy of the named canonical allocation over the
// Portfolio schema. Prior state is never consulted or merged.
func Preset(name string) (State, bool) {
	weights, ok := presets[name]
	if !ok {
		return State{}, false
	}
	st := NewState(Portfolio)
	for bucket, w := range weights {
		st.weights[Portfolio.index[bucket]] = w
	}
	return st, true
}

// PresetNames returns the available preset names in display order.
func PresetNames() []string {
	out := make([]string, len(presetOrder))
	copy(out, presetOrder)
	return out
}
