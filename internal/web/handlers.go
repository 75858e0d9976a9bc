package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/kozaktomas/attendance-tracker/internal/attendance"
	"github.com/kozaktomas/attendance-tracker/internal/library"
)

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// HealthResponse is returned by GET /api/v1/health.
type HealthResponse struct {
	Status     string `json:"status"`
	Uptime     string `json:"uptime"`
	Identities int    `json:"identities"`
	Logged     int    `json:"logged"`
}

// AttendanceResponse is returned by GET /api/v1/attendance.
type AttendanceResponse struct {
	Count   int                `json:"count"`
	Entries []attendance.Entry `json:"entries"`
}

// LibraryResponse is returned by GET /api/v1/library.
type LibraryResponse struct {
	Count      int                       `json:"count"`
	Identities []library.IdentitySummary `json:"identities"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:     "ok",
		Uptime:     time.Since(s.startedAt).Round(time.Second).String(),
		Identities: len(s.identities),
		Logged:     s.ledger.Count(),
	})
}

func (s *Server) handleAttendance(w http.ResponseWriter, r *http.Request) {
	entries := s.ledger.Entries()
	respondJSON(w, http.StatusOK, AttendanceResponse{Count: len(entries), Entries: entries})
}

func (s *Server) handleLibrary(w http.ResponseWriter, r *http.Request) {
	identities := s.identities
	if identities == nil {
		identities = []library.IdentitySummary{}
	}
	respondJSON(w, http.StatusOK, LibraryResponse{Count: len(identities), Identities: identities})
}
