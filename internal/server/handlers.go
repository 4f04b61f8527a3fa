package server

import (
	"encoding/json"
	"net/http"
	"time"
)

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

// SystemStatusResponse represents the system status response
type SystemStatusResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Database      string  `json:"database"`
	SnapshotCount int     `json:"snapshot_count"`
}

// handleSystemStatus reports uptime, database health and stored snapshot
// count.
func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	response := SystemStatusResponse{
		Status:        "ok",
		UptimeSeconds: time.Since(s.started).Seconds(),
		Database:      "ok",
	}

	if err := s.db.Conn().Ping(); err != nil {
		s.log.Error().Err(err).Msg("Database ping failed")
		response.Status = "degraded"
		response.Database = "unreachable"
	} else {
		var count int
		if err := s.db.Conn().QueryRow(`SELECT COUNT(*) FROM analysis_snapshots`).Scan(&count); err == nil {
			response.SnapshotCount = count
		}
	}

	s.writeJSON(w, response)
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
