package scoring

import (
	"math"

	"github.com/foliocore/foliocore/internal/domain"
)

// factor is one row of the scoring table. Rows are evaluated in order and
// each contributes an independently capped number of points plus any
// diagnostic notes its thresholds produce.
type factor struct {
	name string
	eval func(in inputs) (points float64, notes []string)
}

// factors is the scoring table. Order matters: it fixes the order of the
// Factors list on the result.
var factors = []factor{
	{"risk-adjusted efficiency", scoreEfficiency},
	{"risk tolerance alignment", scoreToleranceAlignment},
	{"goal alignment", scoreGoalAlignment},
	{"diversification", scoreDiversification},
	{"cash drag", scoreCashDrag},
	{"advanced preferences", scoreAdvancedPreferences},
}

// penalty is one row of the post-adjustment table. The single-bucket rows
// are mutually exclusive today but are checked independently so a future
// multi-bucket extension keeps working.
type penalty struct {
	note    string
	points  float64
	applies func(in inputs) bool
}

var penalties = []penalty{
	{
		note:    "Allocation does not sum to 100%",
		points:  -5,
		applies: func(in inputs) bool { return math.Abs(in.totalPct-100) > 0.1 },
	},
	{
		note:    "Excessive concentration risk",
		points:  -8,
		applies: func(in inputs) bool { return in.stocksPct == 100 },
	},
	{
		note:    "Excessive concentration in bonds",
		points:  -5,
		applies: func(in inputs) bool { return in.bondsPct == 100 },
	},
	{
		note:    "Portfolio held entirely in cash",
		points:  -15,
		applies: func(in inputs) bool { return in.cashPct == 100 },
	},
}

// scoreEfficiency: 0–25, linear in the Sharpe ratio. Zero at sharpe<=0,
// full marks at sharpe>=2.5.
func scoreEfficiency(in inputs) (float64, []string) {
	pts := clamp01(in.metrics.SharpeRatio/2.5) * 25

	var notes []string
	if pts < 10 {
		notes = append(notes, "Poor risk-adjusted returns")
	}
	return pts, notes
}

// efficiencyPoints is scoreEfficiency without the notes, for reuse by the
// sharpe optimization goal.
func efficiencyPoints(in inputs) float64 {
	return clamp01(in.metrics.SharpeRatio/2.5) * 25
}

// scoreToleranceAlignment: 0–20 from tolerance-specific bands over the
// stock weight, plus up to 5 bonus points for complementary weights.
func scoreToleranceAlignment(in inputs) (float64, []string) {
	s := in.stocksPct
	var base, bonus float64

	switch in.prefs.RiskTolerance {
	case domain.ToleranceLow:
		switch {
		case s <= 30:
			base = 20
		case s <= 50:
			base = 15
		case s <= 70:
			base = 8
		default:
			base = 2
		}
		if in.bondsPct >= 40 {
			bonus += 3
		}
		if in.cashPct >= 10 {
			bonus += 2
		}

	case domain.ToleranceHigh:
		switch {
		case s >= 70:
			base = 20
		case s >= 55:
			base = 12
		default:
			base = 5
		}
		if in.altPct >= 10 {
			bonus += 3
		}
		if in.cashPct <= 5 {
			bonus += 2
		}

	default: // medium: sweet spot is 40–75% stocks
		switch {
		case s >= 40 && s <= 75:
			base = 20
		case s >= 30 && s <= 85:
			base = 12
		default:
			base = 5
		}
		if in.bondsPct >= 15 {
			bonus += 3
		}
		if in.altPct >= 5 {
			bonus += 2
		}
	}

	bonus = math.Min(bonus, 5)

	var notes []string
	if base < 10 {
		notes = append(notes, "Allocation misaligned with risk tolerance")
	}
	return base + bonus, notes
}

// scoreGoalAlignment: 0–15, rule depends on the optimization goal.
func scoreGoalAlignment(in inputs) (float64, []string) {
	var pts float64

	switch in.prefs.OptimizationGoal {
	case domain.GoalSharpe:
		pts = 0.6 * efficiencyPoints(in)

	case domain.GoalReturn:
		gap := math.Abs(in.metrics.ExpectedReturn - in.targetReturnPct())
		pts = math.Max(0, 15-2*gap)

	case domain.GoalRisk:
		switch v := in.metrics.Volatility; {
		case v <= 8:
			pts = 15
		case v <= 12:
			pts = 12
		case v <= 16:
			pts = 8
		default:
			pts = 3
		}

	case domain.GoalIncome:
		switch {
		case in.bondsPct >= 40:
			pts = 15
		case in.bondsPct >= 25:
			pts = 10
		default:
			pts = 5
		}
	}

	var notes []string
	if pts < 8 {
		notes = append(notes, "Allocation drifts from optimization goal")
	}
	return pts, notes
}

// scoreDiversification: 0–15, linear in the external diversification score.
func scoreDiversification(in inputs) (float64, []string) {
	pts := clamp01(in.metrics.DiversificationScore/100) * 15

	var notes []string
	if in.metrics.DiversificationScore < 60 {
		notes = append(notes, "Low diversification across asset classes")
	}
	return pts, notes
}

// scoreCashDrag: 0–10, banded on the cash weight. Note the observed
// quirk: a zero-cash portfolio (cash < 2%) scores 8, below the 10 awarded
// to a small 2–5% cash position. Preserved as-is.
func scoreCashDrag(in inputs) (float64, []string) {
	var pts float64
	switch c := in.cashPct; {
	case c > 25:
		pts = 2
	case c > 15:
		pts = 5
	case c > 10:
		pts = 7
	case c > 5:
		pts = 9
	case c >= 2:
		pts = 10
	default:
		pts = 8
	}

	var notes []string
	if in.cashPct > 15 {
		notes = append(notes, "Excessive cash drag")
	}
	return pts, notes
}

// scoreAdvancedPreferences: additive bonuses and penalties from the
// optional ESG/tax/sector preferences and the AI-optimization flag,
// clamped to [0,15].
func scoreAdvancedPreferences(in inputs) (float64, []string) {
	pts := 0.0
	var notes []string

	if esg := in.prefs.ESG; esg != nil && esg.OverallImportance > 0.3 {
		if in.altPct >= 5 {
			pts += 3
		}
		if in.stocksPct <= 70 {
			pts += 2
		}
	}

	if tax := in.prefs.Tax; tax != nil {
		if tax.AccountType.TaxAdvantaged() {
			pts += 3
		} else if tax.AccountType == domain.AccountTaxable {
			if tax.PreferTaxEfficient {
				if in.bondsPct <= 30 {
					pts += 3
				}
				if in.altPct >= 5 {
					pts += 2
				}
			}
			if tax.Bracket > 0.32 && in.bondsPct > 40 {
				pts -= 3
				notes = append(notes, "Tax-inefficient bond weight for a taxable account")
			}
		}
	}

	if sector := in.prefs.Sector; sector != nil && sector.MaxSectorConcentration <= 0.25 {
		pts += 3
	}

	if in.prefs.UseAIOptimization {
		pts += 2
	}

	return math.Max(0, math.Min(15, pts)), notes
}
