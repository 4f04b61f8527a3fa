package explain

import "fmt"

// faqCandidate is one threshold-gated FAQ entry. Candidates are evaluated
// in fixed priority order; the generic expected-return entry is always
// appended last, then the list is truncated to maxFAQ.
type faqCandidate struct {
	applies func(in inputs) bool
	build   func(in inputs) QA
}

var faqCandidates = []faqCandidate{
	{
		applies: func(in inputs) bool { return in.metrics.SharpeRatio < 1.0 },
		build: func(in inputs) QA {
			return QA{
				Question: "Why is my risk-adjusted return low?",
				Answer: fmt.Sprintf("Your Sharpe ratio of %.2f means the portfolio earns less than one unit of return per unit of risk. Trimming the most volatile holdings or adding diversifiers usually improves it.",
					in.metrics.SharpeRatio),
			}
		},
	},
	{
		applies: func(in inputs) bool { return in.metrics.Volatility > 18 },
		build: func(in inputs) QA {
			return QA{
				Question: "How much could my portfolio drop in a bad year?",
				Answer: fmt.Sprintf("With volatility around %.0f%%, a rough year could plausibly cut the portfolio by %.0f%% or more. Make sure you can hold through a drawdown of that size before keeping this mix.",
					in.metrics.Volatility, 2*in.metrics.Volatility),
			}
		},
	},
	{
		applies: func(in inputs) bool { return in.cashPct > 15 },
		build: func(in inputs) QA {
			return QA{
				Question: "Is holding this much cash a problem?",
				Answer: fmt.Sprintf("Cash is %.0f%% of the portfolio. Beyond an emergency buffer it mostly loses ground to inflation, so consider moving the excess into bonds or stocks.",
					in.cashPct),
			}
		},
	},
	{
		applies: func(in inputs) bool { return in.metrics.DiversificationScore < 60 },
		build: func(in inputs) QA {
			return QA{
				Question: "How can I improve diversification?",
				Answer: fmt.Sprintf("A diversification score of %.0f suggests returns lean on a few asset classes. Spreading weight across more buckets, including alternatives, reduces the damage any single market can do.",
					in.metrics.DiversificationScore),
			}
		},
	},
}

func genericExpectedReturnQA(in inputs) QA {
	return QA{
		Question: "What does expected return mean?",
		Answer: fmt.Sprintf("Expected return is the average annual growth the analysis projects for this mix, %.1f%% here. It is a long-run estimate, not a guarantee; any single year can land far from it.",
			in.metrics.ExpectedReturn),
	}
}

func buildFAQ(in inputs) []QA {
	var out []QA
	for _, c := range faqCandidates {
		if c.applies(in) {
			out = append(out, c.build(in))
		}
	}
	out = append(out, genericExpectedReturnQA(in))
	if len(out) > maxFAQ {
		out = out[:maxFAQ]
	}
	return out
}
