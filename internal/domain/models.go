package domain

import "fmt"

// RiskTolerance is the investor's self-reported appetite for volatility.
type RiskTolerance string

const (
	ToleranceLow    RiskTolerance = "low"
	ToleranceMedium RiskTolerance = "medium"
	ToleranceHigh   RiskTolerance = "high"
)

// Valid reports whether the tolerance is one of the known values.
func (t RiskTolerance) Valid() bool {
	switch t {
	case ToleranceLow, ToleranceMedium, ToleranceHigh:
		return true
	}
	return false
}

// OptimizationGoal selects which objective the optimizer (and the goal
// alignment scoring factor) targets.
type OptimizationGoal string

const (
	GoalSharpe OptimizationGoal = "sharpe"
	GoalRisk   OptimizationGoal = "risk"
	GoalReturn OptimizationGoal = "return"
	GoalIncome OptimizationGoal = "income"
)

// Valid reports whether the goal is one of the known values.
func (g OptimizationGoal) Valid() bool {
	switch g {
	case GoalSharpe, GoalRisk, GoalReturn, GoalIncome:
		return true
	}
	return false
}

// AccountType is the tax treatment of the account holding the portfolio.
type AccountType string

const (
	AccountTaxable AccountType = "taxable"
	AccountIRA     AccountType = "ira"
	Account401k    AccountType = "401k"
	AccountRoth    AccountType = "roth"
)

// TaxAdvantaged reports whether the account shelters gains from current taxation.
func (a AccountType) TaxAdvantaged() bool {
	switch a {
	case AccountIRA, Account401k, AccountRoth:
		return true
	}
	return false
}

// RiskMetrics are the externally computed portfolio statistics. The
// optimization service produces them; this service only reads them.
// ExpectedReturn, Volatility and DiversificationScore are percent figures
// (e.g. 9 means 9%); SharpeRatio is a plain ratio.
type RiskMetrics struct {
	ExpectedReturn       float64 `json:"expectedReturn"`
	Volatility           float64 `json:"volatility"`
	SharpeRatio          float64 `json:"sharpeRatio"`
	DiversificationScore float64 `json:"diversificationScore"`
}

// ESGPreferences captures how much the investor cares about
// environmental/social/governance factors, each in [0,1].
type ESGPreferences struct {
	Environmental     float64 `json:"environmental"`
	Social            float64 `json:"social"`
	Governance        float64 `json:"governance"`
	OverallImportance float64 `json:"overallImportance"`
}

// TaxPreferences captures the investor's tax situation.
type TaxPreferences struct {
	Bracket            float64     `json:"bracket"` // marginal rate as a fraction
	PreferTaxEfficient bool        `json:"preferTaxEfficient"`
	AccountType        AccountType `json:"accountType"`
}

// SectorPreferences captures sector concentration limits.
type SectorPreferences struct {
	MaxSectorConcentration float64 `json:"maxSectorConcentration"`
}

// Preferences bundles everything the user configures about how their
// portfolio should be analyzed. TargetReturn is an annual fraction
// (0.07 means 7%).
type Preferences struct {
	RiskTolerance     RiskTolerance      `json:"riskTolerance"`
	OptimizationGoal  OptimizationGoal   `json:"optimizationGoal"`
	TargetReturn      float64            `json:"targetReturn"`
	ESG               *ESGPreferences    `json:"esgPreferences,omitempty"`
	Tax               *TaxPreferences    `json:"taxPreferences,omitempty"`
	Sector            *SectorPreferences `json:"sectorPreferences,omitempty"`
	UseAIOptimization bool               `json:"useAiOptimization"`
}

// Validate checks the enum fields and ranges.
func (p Preferences) Validate() error {
	if !p.RiskTolerance.Valid() {
		return fmt.Errorf("invalid risk tolerance %q", p.RiskTolerance)
	}
	if !p.OptimizationGoal.Valid() {
		return fmt.Errorf("invalid optimization goal %q", p.OptimizationGoal)
	}
	if p.TargetReturn < 0 || p.TargetReturn > 1 {
		return fmt.Errorf("target return %v out of range [0,1]", p.TargetReturn)
	}
	if p.Tax != nil {
		switch p.Tax.AccountType {
		case AccountTaxable, AccountIRA, Account401k, AccountRoth:
		default:
			return fmt.Errorf("invalid account type %q", p.Tax.AccountType)
		}
	}
	return nil
}

// Grade is the letter grade attached to a portfolio score.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// PortfolioScore is the deterministic result of scoring an allocation
// against its risk metrics and the user's preferences. It is created
// fresh on every scoring call and never persisted as-is.
type PortfolioScore struct {
	Score            int      `json:"score"`
	Grade            Grade    `json:"grade"`
	GradeDescription string   `json:"gradeDescription"`
	Factors          []string `json:"factors"`
}
