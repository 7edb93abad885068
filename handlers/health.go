// ABOUTME: Health endpoint for load balancers and the CLI
// ABOUTME: Reports process liveness and whether an upstream address is configured

package handlers

import (
	"net/http"

	"github.com/communityforum/bff/models"
)

// Health returns service status. It never calls the upstream API.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := models.HealthResponse{
		Status:   "ok",
		Upstream: "not_configured",
	}
	if h.gateway.Configured() {
		resp.Upstream = "configured"
	}

	h.writeJSON(w, http.StatusOK, resp)
}
