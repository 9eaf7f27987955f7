package handler

import (
	"net/http"
	"time"

	"orgsite-client/internal/middleware"
)

// Counter reports record counts per collection.
type Counter interface {
	Counts() map[string]int
}

// HealthResponse is the body of GET /.
type HealthResponse struct {
	Status      string         `json:"status"`
	Timestamp   string         `json:"timestamp"`
	Collections map[string]int `json:"collections,omitempty"`
}

// Health answers the root path. Clients treat any 2xx as healthy.
func Health(store Counter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status:    "ok",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}
		if store != nil {
			resp.Collections = store.Counts()
		}
		middleware.WriteJSON(w, http.StatusOK, resp)
	}
}
