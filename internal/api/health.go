package api

import (
	"context"
	"net/http"
	"time"
)

// HealthResponse is the JSON response structure for health checks.
type HealthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store,omitempty"`
	Error  string `json:"error,omitempty"`
}

// healthCheck handles GET /healthz requests.
// Returns 200 OK if the store is reachable, 503 Service Unavailable otherwise.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.records.Ping(ctx); err != nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, HealthResponse{
			Status: "unhealthy",
			Store:  "disconnected",
			Error:  err.Error(),
		})
		return
	}

	writeJSONResponse(w, http.StatusOK, HealthResponse{Status: "healthy", Store: "connected"})
}
