package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliocore/foliocore/internal/domain"
	"github.com/foliocore/foliocore/internal/modules/allocation"
)

func stateFor(t *testing.T, weights map[string]float64) allocation.State {
	t.Helper()
	st, err := allocation.FromMap(allocation.Portfolio, weights)
	require.NoError(t, err)
	return st
}

func newTestHandler(client Analyzer) *Handler {
	coordinator := NewCoordinator(client, time.Minute, zerolog.Nop())
	coordinator.retryDelay = time.Millisecond
	service := NewService(coordinator, nil, zerolog.Nop())
	return NewHandler(service, nil, zerolog.Nop())
}

func newTestServer(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func analyzeBody(t *testing.T, weights map[string]float64) *bytes.Reader {
	t.Helper()
	payload, err := json.Marshal(map[string]interface{}{
		"allocation": weights,
		"preferences": domain.Preferences{
			RiskTolerance:    domain.ToleranceMedium,
			TargetReturn:     0.07,
			OptimizationGoal: domain.GoalSharpe,
		},
	})
	require.NoError(t, err)
	return bytes.NewReader(payload)
}

func TestHandleAnalyzeSuccess(t *testing.T) {
	client := analyzerFunc(func(ctx context.Context, req Request) (*Response, error) {
		return testResponse(), nil
	})
	router := newTestServer(newTestHandler(client))

	req := httptest.NewRequest(http.MethodPost, "/", analyzeBody(t, map[string]float64{
		"stocks": 0.6, "bonds": 0.3, "alternatives": 0.1,
	}))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var result Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Greater(t, result.Score.Score, 0)
	assert.NotEmpty(t, result.Score.Grade)
	assert.NotEmpty(t, result.Explanation.Narrative)
	assert.NotEmpty(t, result.Explanation.FAQ)
}

func TestHandleAnalyzeIncompleteAllocation(t *testing.T) {
	client := analyzerFunc(func(ctx context.Context, req Request) (*Response, error) {
		t.Fatal("optimizer must not be called for an incomplete allocation")
		return nil, nil
	})
	router := newTestServer(newTestHandler(client))

	req := httptest.NewRequest(http.MethodPost, "/", analyzeBody(t, map[string]float64{
		"stocks": 0.5, "bonds": 0.2,
	}))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "sum to 100%")
}

func TestHandleAnalyzeInvalidBody(t *testing.T) {
	router := newTestServer(newTestHandler(analyzerFunc(func(ctx context.Context, req Request) (*Response, error) {
		return testResponse(), nil
	})))

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("{broken")))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleAnalyzeUnknownBucket(t *testing.T) {
	router := newTestServer(newTestHandler(analyzerFunc(func(ctx context.Context, req Request) (*Response, error) {
		return testResponse(), nil
	})))

	req := httptest.NewRequest(http.MethodPost, "/", analyzeBody(t, map[string]float64{
		"stocks": 0.5, "gold": 0.5,
	}))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleAnalyzeInvalidPreferences(t *testing.T) {
	client := analyzerFunc(func(ctx context.Context, req Request) (*Response, error) {
		t.Fatal("optimizer must not be called for invalid preferences")
		return nil, nil
	})
	router := newTestServer(newTestHandler(client))

	payload, err := json.Marshal(map[string]interface{}{
		"allocation": map[string]float64{"stocks": 0.6, "bonds": 0.4},
		"preferences": map[string]interface{}{
			"riskTolerance":    "reckless",
			"optimizationGoal": "sharpe",
		},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(payload))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "risk tolerance")
}

func TestHandleAnalyzeOptimizerRejection(t *testing.T) {
	client := analyzerFunc(func(ctx context.Context, req Request) (*Response, error) {
		return nil, &StatusError{Code: 422, Body: "bad input"}
	})
	router := newTestServer(newTestHandler(client))

	req := httptest.NewRequest(http.MethodPost, "/", analyzeBody(t, map[string]float64{
		"stocks": 0.6, "bonds": 0.4,
	}))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "rejected")
}

func TestHandleAnalyzeOptimizerDown(t *testing.T) {
	client := analyzerFunc(func(ctx context.Context, req Request) (*Response, error) {
		return nil, &StatusError{Code: 503, Body: "down"}
	})
	router := newTestServer(newTestHandler(client))

	req := httptest.NewRequest(http.MethodPost, "/", analyzeBody(t, map[string]float64{
		"stocks": 0.6, "bonds": 0.4,
	}))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "try again")
}

func TestHandleAnalyzeBusyGuard(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	client := analyzerFunc(func(ctx context.Context, req Request) (*Response, error) {
		close(started)
		<-release
		return testResponse(), nil
	})
	handler := newTestHandler(client)
	router := newTestServer(handler)

	var wg sync.WaitGroup
	wg.Add(1)
	first := httptest.NewRecorder()
	go func() {
		defer wg.Done()
		req := httptest.NewRequest(http.MethodPost, "/", analyzeBody(t, map[string]float64{
			"stocks": 0.6, "bonds": 0.4,
		}))
		router.ServeHTTP(first, req)
	}()

	<-started

	second := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", analyzeBody(t, map[string]float64{
		"stocks": 0.6, "bonds": 0.4,
	}))
	router.ServeHTTP(second, req)

	assert.Equal(t, http.StatusConflict, second.Code)
	assert.Contains(t, second.Body.String(), "already in progress")

	close(release)
	wg.Wait()
	assert.Equal(t, http.StatusOK, first.Code)
}

func TestHandleHistoryWithoutPersistence(t *testing.T) {
	router := newTestServer(newTestHandler(analyzerFunc(func(ctx context.Context, req Request) (*Response, error) {
		return testResponse(), nil
	})))

	req := httptest.NewRequest(http.MethodGet, "/history", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Snapshots []json.RawMessage `json:"snapshots"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Snapshots)
}

func TestServiceRejectsInvalidPreferences(t *testing.T) {
	client := analyzerFunc(func(ctx context.Context, req Request) (*Response, error) {
		return testResponse(), nil
	})
	coordinator := NewCoordinator(client, time.Minute, zerolog.Nop())
	service := NewService(coordinator, nil, zerolog.Nop())

	st := stateFor(t, map[string]float64{"stocks": 0.6, "bonds": 0.4})
	_, err := service.Analyze(context.Background(), st, domain.Preferences{
		RiskTolerance:    "reckless",
		OptimizationGoal: domain.GoalSharpe,
	})
	assert.ErrorIs(t, err, ErrInvalidPreferences)
}
