package explain

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/foliocore/foliocore/internal/domain"
	"github.com/foliocore/foliocore/internal/modules/allocation"
)

// QA is one FAQ entry.
type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Explanation is the narrative text plus the prioritized FAQ shown under
// an analysis result.
type Explanation struct {
	Narrative string `json:"narrative"`
	FAQ       []QA   `json:"faq"`
}

// maxFAQ caps the FAQ list. The generic expected-return entry is always
// appended before truncation, so the list holds min(3, qualifying+1) items.
const maxFAQ = 3

// Generate assembles the explanation for a scored allocation. It is pure
// and template driven: every sentence is selected by a threshold rule, so
// the output is fully reproducible from its inputs.
func Generate(st allocation.State, metrics domain.RiskMetrics, prefs domain.Preferences, score domain.PortfolioScore) Explanation {
	in := inputs{
		stocksPct: st.Get("stocks") * 100,
		bondsPct:  st.Get("bonds") * 100,
		altPct:    st.Get("alternatives") * 100,
		cashPct:   st.Get("cash") * 100,
		metrics:   metrics,
		prefs:     prefs,
		score:     score,
	}

	var sentences []string
	for _, c := range clauses {
		if sentence, ok := c(in); ok {
			sentences = append(sentences, sentence)
		}
	}

	return Explanation{
		Narrative: strings.Join(sentences, " "),
		FAQ:       buildFAQ(in),
	}
}

type inputs struct {
	stocksPct float64
	bondsPct  float64
	altPct    float64
	cashPct   float64
	metrics   domain.RiskMetrics
	prefs     domain.Preferences
	score     domain.PortfolioScore
}

func (in inputs) targetReturnPct() float64 {
	return in.prefs.TargetReturn * 100
}

// clause is one conditional sentence of the narrative. Clauses run in
// order; each decides for itself whether it applies.
type clause func(in inputs) (string, bool)

// clauses is the narrative assembly table. Order is fixed and observable.
var clauses = []clause{
	compositionClause,
	volatilityClause,
	expectedReturnClause,
	sharpeClause,
	cashOrDiversificationClause,
	returnGapClause,
	toleranceClause,
	esgClause,
	taxClause,
	sectorClause,
}

// compositionClause always applies; alternatives and cash are only
// mentioned when they carry at least 2% weight.
func compositionClause(in inputs) (string, bool) {
	s := fmt.Sprintf("Your portfolio holds %.0f%% stocks and %.0f%% bonds", in.stocksPct, in.bondsPct)
	if in.altPct >= 2 {
		s += fmt.Sprintf(", %.0f%% alternatives", in.altPct)
	}
	if in.cashPct >= 2 {
		s += fmt.Sprintf(", %.0f%% cash", in.cashPct)
	}
	return s + ".", true
}

// volatilityClause picks one of three bands and estimates the dollar
// swing on a $100,000 balance: volatility x 1000, or x 800 in the calm band.
func volatilityClause(in inputs) (string, bool) {
	v := in.metrics.Volatility
	switch {
	case v > 18:
		return fmt.Sprintf("At %.1f%% volatility this is an aggressive mix: in a typical year your balance could swing by roughly $%s on every $100,000 invested.",
			v, dollars(v*1000)), true
	case v > 12:
		return fmt.Sprintf("Volatility of %.1f%% puts this in moderate territory, with swings around $%s on a $100,000 balance in a normal year.",
			v, dollars(v*1000)), true
	default:
		return fmt.Sprintf("With volatility of just %.1f%%, this is a calm portfolio; typical moves stay near $%s on every $100,000 invested.",
			v, dollars(v*800)), true
	}
}

// expectedReturnClause projects compound growth of $100,000 over 20 years.
func expectedReturnClause(in inputs) (string, bool) {
	r := in.metrics.ExpectedReturn
	growth := 100000 * math.Pow(1+r/100, 20)
	switch {
	case r > 9:
		return fmt.Sprintf("The expected return of %.1f%% is strong: $100,000 invested today could grow to about $%s over 20 years.",
			r, dollars(growth)), true
	case r > 6:
		return fmt.Sprintf("An expected return of %.1f%% is healthy, turning $100,000 into roughly $%s over 20 years.",
			r, dollars(growth)), true
	default:
		return fmt.Sprintf("The expected return of %.1f%% is modest; $100,000 would grow to around $%s over 20 years.",
			r, dollars(growth)), true
	}
}

func sharpeClause(in inputs) (string, bool) {
	if in.metrics.SharpeRatio > 1.0 {
		return fmt.Sprintf("A Sharpe ratio of %.2f means you are being well compensated for the risk you are taking.",
			in.metrics.SharpeRatio), true
	}
	return fmt.Sprintf("A Sharpe ratio of %.2f suggests the risk you are taking is not being fully rewarded.",
		in.metrics.SharpeRatio), true
}

// cashOrDiversificationClause: excess cash takes priority over weak
// diversification; first match wins, at most one sentence appears.
func cashOrDiversificationClause(in inputs) (string, bool) {
	if in.cashPct > 15 {
		return fmt.Sprintf("With %.0f%% sitting in cash, a meaningful share of the portfolio is earning very little; consider putting more of it to work.",
			in.cashPct), true
	}
	if in.metrics.DiversificationScore < 60 {
		return fmt.Sprintf("A diversification score of %.0f indicates returns depend heavily on a few asset classes.",
			in.metrics.DiversificationScore), true
	}
	return "", false
}

// returnGapClause appears only when the projection misses the target by
// more than 2 percentage points in either direction.
func returnGapClause(in inputs) (string, bool) {
	gap := in.metrics.ExpectedReturn - in.targetReturnPct()
	if math.Abs(gap) <= 2 {
		return "", false
	}
	if gap > 0 {
		return fmt.Sprintf("Expected return runs %.1f points above your %.1f%% target, which usually comes with extra risk.",
			gap, in.targetReturnPct()), true
	}
	return fmt.Sprintf("Expected return sits %.1f points below your %.1f%% target; closing that gap would take more growth exposure.",
		-gap, in.targetReturnPct()), true
}

func toleranceClause(in inputs) (string, bool) {
	switch {
	case in.stocksPct > 60 && in.prefs.RiskTolerance == domain.ToleranceLow:
		return "This stock weighting is heavier than your low risk tolerance suggests; expect larger drawdowns than you may be comfortable with.", true
	case in.stocksPct < 50 && in.prefs.RiskTolerance == domain.ToleranceHigh:
		return "For a high risk tolerance this mix is on the conservative side; you have room to take more equity risk.", true
	default:
		return "Overall, the mix is well aligned with your risk tolerance.", true
	}
}

func esgClause(in inputs) (string, bool) {
	if in.prefs.ESG == nil || in.prefs.ESG.OverallImportance <= 0.5 {
		return "", false
	}
	return "Given how much you weight ESG factors, favor screened funds within each asset class so the allocation reflects them.", true
}

func taxClause(in inputs) (string, bool) {
	tax := in.prefs.Tax
	if tax == nil {
		return "", false
	}
	if tax.AccountType == domain.AccountTaxable {
		if tax.Bracket > 0.32 && in.bondsPct > 30 {
			return "In your tax bracket, bond interest held in a taxable account is taxed as ordinary income; municipal bonds or relocating bonds to sheltered accounts could help.", true
		}
		return "", false
	}
	return "Because this account is tax-advantaged, rebalancing carries no immediate tax cost.", true
}

func sectorClause(in inputs) (string, bool) {
	if in.prefs.Sector == nil || in.prefs.Sector.MaxSectorConcentration > 0.2 {
		return "", false
	}
	return fmt.Sprintf("Your sector cap keeps any single sector at or below %.0f%% of the portfolio, limiting single-industry shocks.",
		in.prefs.Sector.MaxSectorConcentration*100), true
}

// dollars renders a dollar amount with thousands separators, no cents.
func dollars(v float64) string {
	return humanize.Commaf(math.Round(v))
}
