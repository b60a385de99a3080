package health

import (
	"encoding/json"
	"net/http"

	"github.com/mennan0809/medtik-portal/internal/platform/logging"
)

// Response is the payload for the health endpoint.
type Response struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// Handler returns a plain HTTP handler for the health check endpoint.
func Handler(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Response{
			Status:  "healthy",
			Service: logging.ServiceName,
			Version: version,
		})
	}
}
