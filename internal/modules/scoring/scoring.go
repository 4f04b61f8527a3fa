package scoring

import (
	"math"

	"github.com/foliocore/foliocore/internal/domain"
	"github.com/foliocore/foliocore/internal/modules/allocation"
)

// Score rates a finished allocation against its externally computed risk
// metrics and the user's preferences. It is pure, deterministic and total:
// identical inputs always produce the identical result, and no well-typed
// input can make it fail.
//
// The score is the sum of six independently capped factors, adjusted by a
// set of penalties, clamped to [0,100] and rounded to the nearest integer.
// The Factors list is populated by threshold checks made during the same
// pass; its order follows the factor table, then the penalty table.
func Score(st allocation.State, metrics domain.RiskMetrics, prefs domain.Preferences) domain.PortfolioScore {
	in := newInputs(st, metrics, prefs)

	total := 0.0
	notes := []string{}
	for _, f := range factors {
		pts, fnotes := f.eval(in)
		total += pts
		notes = append(notes, fnotes...)
	}
	for _, p := range penalties {
		if p.applies(in) {
			total += p.points
			notes = append(notes, p.note)
		}
	}

	score := int(math.Round(math.Max(0, math.Min(100, total))))
	grade, description := GradeFor(score)

	return domain.PortfolioScore{
		Score:            score,
		Grade:            grade,
		GradeDescription: description,
		Factors:          notes,
	}
}

// inputs pre-computes the percent views of the allocation that every
// factor rule is written in terms of.
type inputs struct {
	stocksPct float64
	bondsPct  float64
	altPct    float64
	cashPct   float64
	totalPct  float64
	metrics   domain.RiskMetrics
	prefs     domain.Preferences
}

func newInputs(st allocation.State, metrics domain.RiskMetrics, prefs domain.Preferences) inputs {
	return inputs{
		stocksPct: st.Get("stocks") * 100,
		bondsPct:  st.Get("bonds") * 100,
		altPct:    st.Get("alternatives") * 100,
		cashPct:   st.Get("cash") * 100,
		totalPct:  st.Sum() * 100,
		metrics:   metrics,
		prefs:     prefs,
	}
}

// targetReturnPct converts the preference's fractional target to the
// percent units the metrics arrive in.
func (in inputs) targetReturnPct() float64 {
	return in.prefs.TargetReturn * 100
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
