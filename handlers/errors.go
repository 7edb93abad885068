// ABOUTME: Maps service errors onto HTTP responses
// ABOUTME: Config 500, unauthenticated 401, upstream relayed verbatim, transport and shape 502

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/communityforum/bff/services"
)

const (
	detailUnauthenticated = "Authentication credentials were not provided."
	detailSessionExpired  = "Session expired"
	detailUnexpected      = "unexpected upstream response"
)

// writeServiceError translates err into a response. fallback replaces an
// upstream error body that is not JSON; an empty fallback relays it raw.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error, fallback string) {
	var upErr *services.UpstreamError
	var tErr *services.TransportError

	switch {
	case errors.Is(err, services.ErrNotConfigured):
		h.writeError(w, services.NotConfiguredDetail, http.StatusInternalServerError)

	case errors.Is(err, services.ErrSessionExpired):
		h.writeError(w, detailSessionExpired, http.StatusUnauthorized)

	case errors.Is(err, services.ErrUnauthenticated):
		h.writeError(w, detailUnauthenticated, http.StatusUnauthorized)

	case errors.As(err, &upErr):
		h.relayUpstreamError(w, upErr, fallback)

	case errors.As(err, &tErr):
		h.writeError(w, services.TransportDetail, http.StatusBadGateway)

	case errors.Is(err, services.ErrUnexpectedResponse):
		slog.Error("Unexpected upstream response", "error", err)
		h.writeError(w, detailUnexpected, http.StatusBadGateway)

	default:
		slog.Error("Unhandled service error", "error", err)
		h.writeError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) relayUpstreamError(w http.ResponseWriter, upErr *services.UpstreamError, fallback string) {
	if fallback != "" && !services.ValidJSON(upErr.Body) {
		h.writeError(w, fallback, upErr.StatusCode)
		return
	}

	contentType := upErr.ContentType
	if contentType == "" && len(upErr.Body) > 0 {
		contentType = "application/json"
	}
	h.writeForward(w, &services.ForwardResponse{
		StatusCode:  upErr.StatusCode,
		ContentType: contentType,
		Body:        upErr.Body,
	})
}

// withJSONFallback swaps a non-JSON error body for {"detail": fallback},
// keeping the upstream status
func withJSONFallback(resp *services.ForwardResponse, fallback string) *services.ForwardResponse {
	if fallback == "" || resp.OK() || len(resp.Body) == 0 || services.ValidJSON(resp.Body) {
		return resp
	}
	return services.DetailResponse(resp.StatusCode, fallback)
}
