// ABOUTME: HTTP handlers for the forum BFF API
// ABOUTME: Wires the session manager and proxy gateway and provides response helpers

package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/communityforum/bff/config"
	"github.com/communityforum/bff/metrics"
	"github.com/communityforum/bff/models"
	"github.com/communityforum/bff/services"
)

// maxRequestBodySize bounds JSON and text request bodies
const maxRequestBodySize = 1 << 20

type Handler struct {
	cfg            *config.Config
	sessions       *services.SessionManager
	gateway        *services.Gateway
	cookieSecure   bool
	maxUploadBytes int64
}

// NewHandler builds the handler set. cfg and m may be nil (tests); the
// upstream is then unconfigured and metrics are not recorded.
func NewHandler(cfg *config.Config, m *metrics.Metrics) *Handler {
	h := &Handler{
		cfg:            cfg,
		maxUploadBytes: 10 << 20,
	}

	base := ""
	if cfg != nil {
		base = cfg.UpstreamAPIBase
		h.cookieSecure = cfg.CookieSecure
		h.maxUploadBytes = int64(cfg.MaxUploadMB) << 20
	}
	if base == "" {
		slog.Warn("Upstream API base address is not configured; API requests will fail with 500")
	}

	client := services.NewUpstreamClient(cfg)
	h.gateway = services.NewGateway(base, client, m)
	h.sessions = services.NewSessionManager(services.NewAuthClient(base, client, m), m)

	return h
}

// store returns the cookie-backed session store for this request
func (h *Handler) store(w http.ResponseWriter, r *http.Request) services.Store {
	return services.NewCookieStore(w, r, h.cookieSecure)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	h.writeJSON(w, code, models.ErrorResponse{Detail: message})
}

// writeForward relays a gateway response as-is
func (h *Handler) writeForward(w http.ResponseWriter, resp *services.ForwardResponse) {
	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	}
	w.WriteHeader(resp.StatusCode)
	if len(resp.Body) > 0 {
		w.Write(resp.Body)
	}
}
