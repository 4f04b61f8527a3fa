package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/foliocore/foliocore/internal/database/repositories"
	"github.com/foliocore/foliocore/internal/domain"
	"github.com/foliocore/foliocore/internal/modules/allocation"
	"github.com/foliocore/foliocore/internal/modules/explain"
	"github.com/foliocore/foliocore/internal/modules/scoring"
)

// ErrIncompleteAllocation rejects submissions whose buckets do not sum to
// 100% within tolerance. Raised before any network call; a user-input
// problem, not a system failure.
var ErrIncompleteAllocation = errors.New("allocation must sum to 100% before analysis")

// ErrInvalidPreferences marks preference validation failures so handlers
// can answer them as bad input rather than an upstream outage.
var ErrInvalidPreferences = errors.New("invalid analysis preferences")

// Result is the full outcome of one analysis: the optimizer's output plus
// the local score and explanation computed from the *current* metrics.
type Result struct {
	Score               domain.PortfolioScore `json:"score" msgpack:"score"`
	Explanation         explain.Explanation   `json:"explanation" msgpack:"explanation"`
	CurrentMetrics      domain.RiskMetrics    `json:"currentMetrics" msgpack:"currentMetrics"`
	OptimizedAllocation map[string]float64    `json:"optimizedAllocation" msgpack:"optimizedAllocation"`
	OptimizedMetrics    domain.RiskMetrics    `json:"optimizedMetrics" msgpack:"optimizedMetrics"`
	Recommendations     []string              `json:"recommendations" msgpack:"recommendations"`
}

// Service orchestrates one analysis round trip: validate, call the
// optimizer through the coordinator, score and explain the current
// metrics, and persist a snapshot.
type Service struct {
	coordinator *Coordinator
	snapshots   *repositories.AnalysisRepository
	log         zerolog.Logger
}

// NewService creates an analysis service. snapshots may be nil to disable
// history persistence.
func NewService(coordinator *Coordinator, snapshots *repositories.AnalysisRepository, log zerolog.Logger) *Service {
	return &Service{
		coordinator: coordinator,
		snapshots:   snapshots,
		log:         log.With().Str("service", "analysis").Logger(),
	}
}

// Analyze runs the full pipeline for a finished allocation.
func (s *Service) Analyze(ctx context.Context, st allocation.State, prefs domain.Preferences) (*Result, error) {
	if !st.Complete() {
		return nil, ErrIncompleteAllocation
	}
	if err := prefs.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPreferences, err)
	}

	req := Request{
		Allocation:        st.Weights(),
		RiskTolerance:     prefs.RiskTolerance,
		TargetReturn:      prefs.TargetReturn,
		OptimizationGoal:  prefs.OptimizationGoal,
		ESGPreferences:    prefs.ESG,
		TaxPreferences:    prefs.Tax,
		SectorPreferences: prefs.Sector,
		UseAIOptimization: prefs.UseAIOptimization,
	}

	resp, err := s.coordinator.Analyze(ctx, req)
	if err != nil {
		return nil, err
	}

	// Score and narrate the portfolio as it stands today; the optimized
	// metrics are advisory output for the client, never scored here.
	score := scoring.Score(st, resp.CurrentMetrics, prefs)
	explanation := explain.Generate(st, resp.CurrentMetrics, prefs, score)

	result := &Result{
		Score:               score,
		Explanation:         explanation,
		CurrentMetrics:      resp.CurrentMetrics,
		OptimizedAllocation: resp.OptimizedAllocation,
		OptimizedMetrics:    resp.OptimizedMetrics,
		Recommendations:     resp.Recommendations,
	}

	s.persistSnapshot(result)
	return result, nil
}

// persistSnapshot stores the result for the history endpoint. Persistence
// failures are logged and swallowed: the analysis already succeeded.
func (s *Service) persistSnapshot(result *Result) {
	if s.snapshots == nil {
		return
	}

	payload, err := msgpack.Marshal(result)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to encode analysis snapshot")
		return
	}

	snapshot := repositories.AnalysisSnapshot{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Score:     result.Score.Score,
		Grade:     string(result.Score.Grade),
		Payload:   payload,
	}
	if err := s.snapshots.Save(snapshot); err != nil {
		s.log.Error().Err(err).Msg("Failed to persist analysis snapshot")
	}
}
