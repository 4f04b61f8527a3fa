package allocation

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler exposes the constraint engine over HTTP. Every endpoint is a
// thin JSON wrapper over the pure operations: the client sends the state
// it holds and receives the next state back.
type Handler struct {
	log zerolog.Logger
}

// NewHandler creates a new allocation handler
func NewHandler(log zerolog.Logger) *Handler {
	return &Handler{
		log: log.With().Str("handler", "allocation").Logger(),
	}
}

// Register mounts the allocation routes on a router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/schemas", h.HandleSchemas)
	r.Get("/presets", h.HandlePresets)
	r.Get("/presets/{name}", h.HandlePreset)
	r.Post("/set", h.HandleSet)
	r.Post("/normalize", h.HandleNormalize)
	r.Post("/reset", h.HandleReset)
}

// stateRequest is the shared request shape: a schema name plus the
// client's current weights.
type stateRequest struct {
	Schema  string             `json:"schema"`
	Weights map[string]float64 `json:"weights"`
}

type setRequest struct {
	stateRequest
	Bucket string `json:"bucket"`
	// Exactly one of Value (fraction, direct numeric entry) or Percent
	// (user-typed percentage string) should be present. Stepped marks
	// values from a continuous control, which are rounded to 1% steps.
	Value   *float64 `json:"value,omitempty"`
	Percent *string  `json:"percent,omitempty"`
	Stepped bool     `json:"stepped"`
}

type stateResponse struct {
	Schema   string             `json:"schema"`
	Weights  map[string]float64 `json:"weights"`
	Sum      float64            `json:"sum"`
	Complete bool               `json:"complete"`
}

// HandleSchemas lists the known bucket schemas.
func (h *Handler) HandleSchemas(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string][]string{
		Portfolio.Name():    Portfolio.Buckets(),
		Alternatives.Name(): Alternatives.Buckets(),
	})
}

// HandlePresets lists all canonical presets.
func (h *Handler) HandlePresets(w http.ResponseWriter, r *http.Request) {
	out := make([]map[string]interface{}, 0, len(PresetNames()))
	for _, name := range PresetNames() {
		st, _ := Preset(name)
		out = append(out, map[string]interface{}{
			"name":    name,
			"weights": st.Weights(),
		})
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"presets": out})
}

// HandlePreset returns one preset by name.
func (h *Handler) HandlePreset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	st, ok := Preset(name)
	if !ok {
		h.writeError(w, http.StatusNotFound, "Unknown preset")
		return
	}
	h.writeState(w, st)
}

// HandleSet applies a single bucket edit and returns the clamped state.
func (h *Handler) HandleSet(w http.ResponseWriter, r *http.Request) {
	var req setRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	st, err := h.decodeState(req.stateRequest)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var value float64
	switch {
	case req.Percent != nil:
		value, err = ParsePercent(*req.Percent)
		if err != nil {
			// Reject, don't partial-apply: the client keeps its prior value.
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	case req.Value != nil:
		value = *req.Value
	default:
		h.writeError(w, http.StatusBadRequest, "Either value or percent is required")
		return
	}

	if !st.Schema().Contains(req.Bucket) {
		h.writeError(w, http.StatusBadRequest, "Unknown bucket")
		return
	}

	if req.Stepped {
		st = SetStepped(st, req.Bucket, value)
	} else {
		st = Set(st, req.Bucket, value)
	}
	h.writeState(w, st)
}

// HandleNormalize rescales the state so it sums to 1.0.
func (h *Handler) HandleNormalize(w http.ResponseWriter, r *http.Request) {
	var req stateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	st, err := h.decodeState(req)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.writeState(w, Normalize(st))
}

// HandleReset returns the all-zero state for a schema.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Schema string `json:"schema"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	schema, ok := SchemaByName(req.Schema)
	if !ok {
		h.writeError(w, http.StatusBadRequest, "Unknown schema")
		return
	}
	h.writeState(w, Reset(schema))
}

// Helper methods

func (h *Handler) decodeState(req stateRequest) (State, error) {
	schema := Portfolio
	if req.Schema != "" {
		named, ok := SchemaByName(req.Schema)
		if !ok {
			return State{}, fmt.Errorf("unknown schema %q", req.Schema)
		}
		schema = named
	}
	return FromMap(schema, req.Weights)
}

func (h *Handler) writeState(w http.ResponseWriter, st State) {
	h.writeJSON(w, http.StatusOK, stateResponse{
		Schema:   st.Schema().Name(),
		Weights:  st.Weights(),
		Sum:      st.Sum(),
		Complete: st.Complete(),
	})
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
