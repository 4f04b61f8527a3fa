package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliocore/foliocore/internal/domain"
	"github.com/foliocore/foliocore/internal/modules/explain"
)

func newTestRouter() *chi.Mux {
	r := chi.NewRouter()
	NewHandler(zerolog.Nop()).Register(r)
	return r
}

func validBody(t *testing.T) []byte {
	t.Helper()
	payload, err := json.Marshal(scoreRequest{
		Allocation: map[string]float64{"stocks": 0.6, "bonds": 0.3, "alternatives": 0.1},
		Metrics: domain.RiskMetrics{
			ExpectedReturn:       7.5,
			Volatility:           11,
			SharpeRatio:          1.2,
			DiversificationScore: 78,
		},
		Preferences: domain.Preferences{
			RiskTolerance:    domain.ToleranceMedium,
			TargetReturn:     0.07,
			OptimizationGoal: domain.GoalSharpe,
		},
	})
	require.NoError(t, err)
	return payload
}

func TestHandleScore(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/score", bytes.NewReader(validBody(t)))
	w := httptest.NewRecorder()
	newTestRouter().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var score domain.PortfolioScore
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &score))
	assert.GreaterOrEqual(t, score.Score, 0)
	assert.LessOrEqual(t, score.Score, 100)
	assert.NotEmpty(t, score.Grade)
	assert.NotEmpty(t, score.GradeDescription)
}

func TestHandleExplain(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/explain", bytes.NewReader(validBody(t)))
	w := httptest.NewRecorder()
	newTestRouter().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Score       domain.PortfolioScore `json:"score"`
		Explanation explain.Explanation   `json:"explanation"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Explanation.Narrative)
	assert.NotEmpty(t, resp.Explanation.FAQ)

	// the two endpoints must agree on the score for identical input
	req = httptest.NewRequest(http.MethodPost, "/score", bytes.NewReader(validBody(t)))
	w = httptest.NewRecorder()
	newTestRouter().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var score domain.PortfolioScore
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &score))
	assert.Equal(t, score.Score, resp.Score.Score)
}

func TestHandleScoreRejectsUnknownBucket(t *testing.T) {
	payload, err := json.Marshal(scoreRequest{
		Allocation: map[string]float64{"gold": 1},
		Preferences: domain.Preferences{
			RiskTolerance:    domain.ToleranceMedium,
			OptimizationGoal: domain.GoalSharpe,
		},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/score", bytes.NewReader(payload))
	w := httptest.NewRecorder()
	newTestRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleScoreRejectsInvalidPreferences(t *testing.T) {
	payload, err := json.Marshal(scoreRequest{
		Allocation: map[string]float64{"stocks": 1},
		Preferences: domain.Preferences{
			RiskTolerance:    "bold",
			OptimizationGoal: domain.GoalSharpe,
		},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/score", bytes.NewReader(payload))
	w := httptest.NewRecorder()
	newTestRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleScoreInvalidBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/score", bytes.NewReader([]byte("nope")))
	w := httptest.NewRecorder()
	newTestRouter().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
