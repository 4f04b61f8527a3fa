package scoring

import "github.com/foliocore/foliocore/internal/domain"

// GradeFor maps a final score to its letter grade and the fixed
// one-sentence description shown with it. Boundaries are exact: 85 is an
// A, 84 is a B.
func GradeFor(score int) (domain.Grade, string) {
	switch {
	case score >= 85:
		return domain.GradeA, "Excellent. This allocation is well tuned to your goals and risk profile."
	case score >= 75:
		return domain.GradeB, "Good. A solid allocation with minor room for improvement."
	case score >= 65:
		return domain.GradeC, "Fair. A reasonable allocation, but several factors could be improved."
	case score >= 50:
		return domain.GradeD, "Weak. This allocation has significant issues worth addressing."
	default:
		return domain.GradeF, "Poor. This allocation needs rework before it fits your profile."
	}
}
