// ABOUTME: Media proxy streaming upstream files under the BFF origin
// ABOUTME: Hides the upstream host from image URLs rendered by the client

package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/communityforum/bff/services"
)

// relayed response headers for media files
var mediaHeaders = []string{
	"Content-Type",
	"Content-Length",
	"Cache-Control",
	"ETag",
	"Last-Modified",
}

// Media streams GET /api/media/{path...} from the upstream /media/{path}
func (h *Handler) Media(w http.ResponseWriter, r *http.Request) {
	upstreamPath, ok := mediaPath(r.PathValue("path"))
	if !ok {
		h.writeError(w, "Invalid media path", http.StatusBadRequest)
		return
	}

	resp, err := h.gateway.Open(r.Context(), services.ForwardRequest{
		Name:   "media",
		Method: http.MethodGet,
		Path:   upstreamPath,
		Header: http.Header{},
	})
	if err != nil {
		h.writeServiceError(w, err, "")
		return
	}
	defer resp.Body.Close()

	for _, name := range mediaHeaders {
		if value := resp.Header.Get(name); value != "" {
			w.Header().Set(name, value)
		}
	}
	w.WriteHeader(resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil {
		slog.Debug("Media stream interrupted", "path", upstreamPath, "error", err)
	}
}

// mediaPath escapes each segment of rel and rejects traversal
func mediaPath(rel string) (string, bool) {
	if rel == "" {
		return "", false
	}
	segments := strings.Split(rel, "/")
	for i, segment := range segments {
		if segment == "" || segment == "." || segment == ".." {
			return "", false
		}
		segments[i] = url.PathEscape(segment)
	}
	return "/media/" + strings.Join(segments, "/"), true
}
