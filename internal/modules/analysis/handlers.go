package analysis

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/foliocore/foliocore/internal/database/repositories"
	"github.com/foliocore/foliocore/internal/domain"
	"github.com/foliocore/foliocore/internal/modules/allocation"
)

// Handler handles analysis HTTP requests
type Handler struct {
	service   *Service
	snapshots *repositories.AnalysisRepository
	log       zerolog.Logger

	// busy is the call-site "already loading" guard: a second analysis
	// trigger while one is outstanding is rejected here. This is policy
	// at the API edge, deliberately separate from the coordinator's
	// request deduplication.
	busy atomic.Bool
}

// NewHandler creates a new analysis handler
func NewHandler(service *Service, snapshots *repositories.AnalysisRepository, log zerolog.Logger) *Handler {
	return &Handler{
		service:   service,
		snapshots: snapshots,
		log:       log.With().Str("handler", "analysis").Logger(),
	}
}

// Register mounts the analysis routes on a router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/", h.HandleAnalyze)
	r.Get("/history", h.HandleHistory)
}

type analyzeRequest struct {
	Allocation  map[string]float64 `json:"allocation"`
	Preferences domain.Preferences `json:"preferences"`
}

// HandleAnalyze runs the analysis pipeline for a submitted allocation.
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	if !h.busy.CompareAndSwap(false, true) {
		h.writeError(w, http.StatusConflict, "Analysis already in progress")
		return
	}
	defer h.busy.Store(false)

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	st, err := allocation.FromMap(allocation.Portfolio, req.Allocation)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.Analyze(r.Context(), st, req.Preferences)
	switch {
	case errors.Is(err, ErrIncompleteAllocation):
		h.writeError(w, http.StatusBadRequest, "Allocation must sum to 100% before it can be analyzed")
		return
	case errors.Is(err, ErrInvalidPreferences):
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		var statusErr *StatusError
		if errors.As(err, &statusErr) && !statusErr.Transient() {
			h.log.Warn().Err(err).Msg("Optimizer rejected analysis request")
			h.writeError(w, http.StatusBadGateway, "Analysis request was rejected by the optimization service")
			return
		}
		h.log.Error().Err(err).Msg("Analysis failed")
		h.writeError(w, http.StatusBadGateway, "Analysis service unavailable, please try again")
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleHistory returns recent analysis snapshots, newest first.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if h.snapshots == nil {
		h.writeJSON(w, http.StatusOK, map[string]interface{}{"snapshots": []repositories.AnalysisSnapshot{}})
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}

	snapshots, err := h.snapshots.Recent(limit)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if snapshots == nil {
		snapshots = []repositories.AnalysisSnapshot{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"snapshots": snapshots})
}

// Helper methods

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
