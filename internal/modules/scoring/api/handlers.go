package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/foliocore/foliocore/internal/domain"
	"github.com/foliocore/foliocore/internal/modules/allocation"
	"github.com/foliocore/foliocore/internal/modules/explain"
	"github.com/foliocore/foliocore/internal/modules/scoring"
)

// Handler exposes the pure scoring and explanation engines over HTTP for
// clients that already hold risk metrics and do not need a fresh
// optimizer round trip.
type Handler struct {
	log zerolog.Logger
}

// NewHandler creates a new scoring handler
func NewHandler(log zerolog.Logger) *Handler {
	return &Handler{
		log: log.With().Str("handler", "scoring").Logger(),
	}
}

// Register mounts the scoring routes on a router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/score", h.HandleScore)
	r.Post("/explain", h.HandleExplain)
}

type scoreRequest struct {
	Allocation  map[string]float64 `json:"allocation"`
	Metrics     domain.RiskMetrics `json:"metrics"`
	Preferences domain.Preferences `json:"preferences"`
}

// HandleScore scores an allocation against supplied metrics.
func (h *Handler) HandleScore(w http.ResponseWriter, r *http.Request) {
	req, st, ok := h.decode(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, scoring.Score(st, req.Metrics, req.Preferences))
}

// HandleExplain scores an allocation and returns the score together with
// its narrative and FAQ.
func (h *Handler) HandleExplain(w http.ResponseWriter, r *http.Request) {
	req, st, ok := h.decode(w, r)
	if !ok {
		return
	}

	score := scoring.Score(st, req.Metrics, req.Preferences)
	explanation := explain.Generate(st, req.Metrics, req.Preferences, score)

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"score":       score,
		"explanation": explanation,
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (scoreRequest, allocation.State, bool) {
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return req, allocation.State{}, false
	}

	st, err := allocation.FromMap(allocation.Portfolio, req.Allocation)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return req, allocation.State{}, false
	}

	if err := req.Preferences.Validate(); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return req, allocation.State{}, false
	}

	return req, st, true
}

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
