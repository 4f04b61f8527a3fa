package explain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliocore/foliocore/internal/domain"
	"github.com/foliocore/foliocore/internal/modules/allocation"
	"github.com/foliocore/foliocore/internal/modules/scoring"
)

func state(t *testing.T, weights map[string]float64) allocation.State {
	t.Helper()
	st, err := allocation.FromMap(allocation.Portfolio, weights)
	require.NoError(t, err)
	return st
}

func generate(t *testing.T, weights map[string]float64, metrics domain.RiskMetrics, prefs domain.Preferences) Explanation {
	t.Helper()
	st := state(t, weights)
	score := scoring.Score(st, metrics, prefs)
	return Generate(st, metrics, prefs, score)
}

func healthyMetrics() domain.RiskMetrics {
	return domain.RiskMetrics{
		ExpectedReturn:       7,
		Volatility:           11,
		SharpeRatio:          1.3,
		DiversificationScore: 80,
	}
}

func mediumPrefs() domain.Preferences {
	return domain.Preferences{
		RiskTolerance:    domain.ToleranceMedium,
		TargetReturn:     0.07,
		OptimizationGoal: domain.GoalSharpe,
	}
}

func TestGenerateDeterministic(t *testing.T) {
	weights := map[string]float64{"stocks": 0.6, "bonds": 0.3, "alternatives": 0.1}

	first := generate(t, weights, healthyMetrics(), mediumPrefs())
	second := generate(t, weights, healthyMetrics(), mediumPrefs())

	assert.Equal(t, first, second)
}

func TestCompositionMentionsSmallBucketsOnlyAboveThreshold(t *testing.T) {
	ex := generate(t, map[string]float64{"stocks": 0.6, "bonds": 0.39, "alternatives": 0.01}, healthyMetrics(), mediumPrefs())
	assert.NotContains(t, ex.Narrative, "alternatives")
	assert.NotContains(t, ex.Narrative, "cash")

	ex = generate(t, map[string]float64{"stocks": 0.5, "bonds": 0.3, "alternatives": 0.1, "cash": 0.1}, healthyMetrics(), mediumPrefs())
	assert.Contains(t, ex.Narrative, "10% alternatives")
	assert.Contains(t, ex.Narrative, "10% cash")
}

func TestVolatilityBands(t *testing.T) {
	weights := map[string]float64{"stocks": 0.6, "bonds": 0.4}

	tests := []struct {
		name       string
		volatility float64
		wantPhrase string
		wantSwing  string
	}{
		{"aggressive", 20, "aggressive mix", "20,000"},
		{"moderate", 14, "moderate territory", "14,000"},
		{"calm uses reduced multiplier", 10, "calm portfolio", "8,000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := healthyMetrics()
			metrics.Volatility = tt.volatility
			ex := generate(t, weights, metrics, mediumPrefs())
			assert.Contains(t, ex.Narrative, tt.wantPhrase)
			assert.Contains(t, ex.Narrative, tt.wantSwing)
		})
	}
}

func TestSharpeClauseBinary(t *testing.T) {
	weights := map[string]float64{"stocks": 0.6, "bonds": 0.4}

	metrics := healthyMetrics()
	metrics.SharpeRatio = 1.4
	ex := generate(t, weights, metrics, mediumPrefs())
	assert.Contains(t, ex.Narrative, "well compensated")

	metrics.SharpeRatio = 0.6
	ex = generate(t, weights, metrics, mediumPrefs())
	assert.Contains(t, ex.Narrative, "not being fully rewarded")
}

func TestCashTakesPriorityOverDiversification(t *testing.T) {
	weights := map[string]float64{"stocks": 0.5, "bonds": 0.3, "cash": 0.2}
	metrics := healthyMetrics()
	metrics.DiversificationScore = 40

	ex := generate(t, weights, metrics, mediumPrefs())

	assert.Contains(t, ex.Narrative, "sitting in cash")
	assert.NotContains(t, ex.Narrative, "indicates returns depend heavily")
}

func TestDiversificationClauseWhenCashModest(t *testing.T) {
	weights := map[string]float64{"stocks": 0.7, "bonds": 0.3}
	metrics := healthyMetrics()
	metrics.DiversificationScore = 40

	ex := generate(t, weights, metrics, mediumPrefs())
	assert.Contains(t, ex.Narrative, "indicates returns depend heavily")
}

func TestReturnGapClause(t *testing.T) {
	weights := map[string]float64{"stocks": 0.6, "bonds": 0.4}

	metrics := healthyMetrics()
	metrics.ExpectedReturn = 7
	ex := generate(t, weights, metrics, mediumPrefs())
	assert.NotContains(t, ex.Narrative, "target")

	metrics.ExpectedReturn = 10
	ex = generate(t, weights, metrics, mediumPrefs())
	assert.Contains(t, ex.Narrative, "above your 7.0% target")

	metrics.ExpectedReturn = 4
	ex = generate(t, weights, metrics, mediumPrefs())
	assert.Contains(t, ex.Narrative, "below your 7.0% target")
}

func TestToleranceClauseBranches(t *testing.T) {
	metrics := healthyMetrics()

	low := mediumPrefs()
	low.RiskTolerance = domain.ToleranceLow
	ex := generate(t, map[string]float64{"stocks": 0.8, "bonds": 0.2}, metrics, low)
	assert.Contains(t, ex.Narrative, "heavier than your low risk tolerance")

	high := mediumPrefs()
	high.RiskTolerance = domain.ToleranceHigh
	ex = generate(t, map[string]float64{"stocks": 0.3, "bonds": 0.7}, metrics, high)
	assert.Contains(t, ex.Narrative, "conservative side")

	ex = generate(t, map[string]float64{"stocks": 0.8, "bonds": 0.1, "alternatives": 0.1}, metrics, high)
	assert.Contains(t, ex.Narrative, "well aligned with your risk tolerance")
}

func TestPreferenceClauses(t *testing.T) {
	weights := map[string]float64{"stocks": 0.5, "bonds": 0.45, "cash": 0.05}

	prefs := mediumPrefs()
	prefs.ESG = &domain.ESGPreferences{OverallImportance: 0.8}
	prefs.Tax = &domain.TaxPreferences{AccountType: domain.AccountTaxable, Bracket: 0.37}
	prefs.Sector = &domain.SectorPreferences{MaxSectorConcentration: 0.15}

	ex := generate(t, weights, healthyMetrics(), prefs)

	assert.Contains(t, ex.Narrative, "ESG factors")
	assert.Contains(t, ex.Narrative, "taxed as ordinary income")
	assert.Contains(t, ex.Narrative, "at or below 15%")
}

func TestTaxAdvantagedClause(t *testing.T) {
	weights := map[string]float64{"stocks": 0.6, "bonds": 0.4}
	prefs := mediumPrefs()
	prefs.Tax = &domain.TaxPreferences{AccountType: domain.AccountRoth}

	ex := generate(t, weights, healthyMetrics(), prefs)
	assert.Contains(t, ex.Narrative, "no immediate tax cost")
}

func TestNarrativeSentencesJoinedBySpace(t *testing.T) {
	ex := generate(t, map[string]float64{"stocks": 0.6, "bonds": 0.4}, healthyMetrics(), mediumPrefs())

	assert.False(t, strings.Contains(ex.Narrative, "  "), "narrative has double spaces: %q", ex.Narrative)
	assert.True(t, strings.HasSuffix(ex.Narrative, "."))
}

func TestFAQAlwaysIncludesGenericWhenRoom(t *testing.T) {
	// healthy metrics trigger no candidates, leaving only the generic entry
	ex := generate(t, map[string]float64{"stocks": 0.6, "bonds": 0.4}, healthyMetrics(), mediumPrefs())

	require.Len(t, ex.FAQ, 1)
	assert.Equal(t, "What does expected return mean?", ex.FAQ[0].Question)
}

func TestFAQLengthIsQualifyingPlusGeneric(t *testing.T) {
	metrics := healthyMetrics()
	metrics.SharpeRatio = 0.5 // one qualifying candidate

	ex := generate(t, map[string]float64{"stocks": 0.6, "bonds": 0.4}, metrics, mediumPrefs())

	require.Len(t, ex.FAQ, 2)
	assert.Equal(t, "Why is my risk-adjusted return low?", ex.FAQ[0].Question)
	assert.Equal(t, "What does expected return mean?", ex.FAQ[1].Question)
}

func TestFAQTruncatesInPriorityOrder(t *testing.T) {
	// all four candidates qualify; only the top three survive
	metrics := domain.RiskMetrics{
		ExpectedReturn:       5,
		Volatility:           22,
		SharpeRatio:          0.4,
		DiversificationScore: 40,
	}
	weights := map[string]float64{"stocks": 0.4, "bonds": 0.3, "cash": 0.3}

	ex := generate(t, weights, metrics, mediumPrefs())

	require.Len(t, ex.FAQ, 3)
	assert.Equal(t, "Why is my risk-adjusted return low?", ex.FAQ[0].Question)
	assert.Equal(t, "How much could my portfolio drop in a bad year?", ex.FAQ[1].Question)
	assert.Equal(t, "Is holding this much cash a problem?", ex.FAQ[2].Question)
}
