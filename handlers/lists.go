// ABOUTME: Endpoints that reshape upstream payloads for infinite-scroll widgets
// ABOUTME: Community load-more, comment threads, comment creation, and post votes

package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/communityforum/bff/models"
	"github.com/communityforum/bff/services"
)

// LoadMoreCommunities returns one page of communities as {"items","next"}.
// The optional next parameter is a cursor from a previous page.
func (h *Handler) LoadMoreCommunities(w http.ResponseWriter, r *http.Request) {
	path, query := "/api/communities/", url.Values{}
	if raw := r.URL.Query().Get("next"); raw != "" {
		next, err := services.NormalizeNext(raw)
		if err != nil {
			h.writeError(w, "Invalid next cursor", http.StatusBadRequest)
			return
		}
		path, query = services.SplitNext(next)
	}

	h.forwardItems(w, r, services.ForwardRequest{
		Name:   "communities.loadmore",
		Method: http.MethodGet,
		Path:   path,
		Query:  query,
	}, authFallback, "Failed to load communities")
}

// ListThreadComments returns top-level comments of a post as {"items","next"}.
// Either postId or a next cursor is required.
func (h *Handler) ListThreadComments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	postID, rawNext := strings.TrimSpace(q.Get("postId")), q.Get("next")
	if postID == "" && rawNext == "" {
		h.writeError(w, "postId or next is required", http.StatusBadRequest)
		return
	}

	fr := services.ForwardRequest{Name: "comments.thread", Method: http.MethodGet}
	if rawNext != "" {
		next, err := services.NormalizeNext(rawNext)
		if err != nil {
			h.writeError(w, "Invalid next cursor", http.StatusBadRequest)
			return
		}
		fr.Path, fr.Query = services.SplitNext(next)
	} else {
		fr.Path = services.ExpandPath("/api/posts/{id}/comments/", map[string]string{"id": postID})
		fr.Query = url.Values{"parent": {"null"}}
	}

	h.forwardItems(w, r, fr, authHeader, "Failed to load comments")
}

// forwardItems performs a list call and flattens a 2xx answer into the items envelope
func (h *Handler) forwardItems(w http.ResponseWriter, r *http.Request, fr services.ForwardRequest, mode authMode, fallback string) {
	if !h.gateway.Configured() {
		h.writeError(w, services.NotConfiguredDetail, http.StatusInternalServerError)
		return
	}

	token, ok := h.bearer(w, r, mode)
	if !ok {
		h.writeError(w, detailUnauthenticated, http.StatusUnauthorized)
		return
	}
	fr.Header = http.Header{}
	if token != "" {
		fr.Header.Set("Authorization", token)
	}

	resp, err := h.gateway.Forward(r.Context(), fr)
	if err != nil {
		h.writeForward(w, resp)
		return
	}
	if !resp.OK() {
		slog.Warn("Upstream list call failed", "operation", fr.Name, "status", resp.StatusCode)
		h.writeForward(w, withJSONFallback(resp, fallback))
		return
	}

	envelope, err := services.ItemsEnvelope(resp.Body, services.StripOrigin)
	if err != nil {
		h.writeServiceError(w, err, "")
		return
	}
	h.writeForward(w, &services.ForwardResponse{
		StatusCode:  http.StatusOK,
		ContentType: "application/json",
		Body:        envelope,
	})
}

// CreateComment posts a comment (or reply) to a post
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	var req models.CommentCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	postID := strings.TrimSpace(req.PostID.String())
	if postID == "" || postID == "0" {
		h.writeError(w, "postId is required", http.StatusBadRequest)
		return
	}
	text := strings.TrimSpace(req.Body)
	if text == "" {
		h.writeError(w, "Comment body must not be empty", http.StatusBadRequest)
		return
	}

	payload, err := json.Marshal(models.CommentCreateUpstream{Body: text, Parent: req.Parent})
	if err != nil {
		h.writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.forwardJSON(w, r, services.ForwardRequest{
		Name:   "comments.create",
		Method: http.MethodPost,
		Path:   services.ExpandPath("/api/posts/{id}/comments/", map[string]string{"id": postID}),
		Body:   payload,
	}, "Failed to create comment")
}

// Vote casts or changes the caller's vote on a post
func (h *Handler) Vote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	var req models.VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	postID := strings.TrimSpace(req.PostID.String())
	if postID == "" || postID == "0" || req.Value == nil {
		h.writeError(w, "postId and value are required", http.StatusBadRequest)
		return
	}

	payload, err := json.Marshal(map[string]int{"value": *req.Value})
	if err != nil {
		h.writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.forwardJSON(w, r, services.ForwardRequest{
		Name:   "posts.vote",
		Method: http.MethodPost,
		Path:   services.ExpandPath("/api/posts/{id}/vote/", map[string]string{"id": postID}),
		Body:   payload,
	}, "")
}

// forwardJSON sends a BFF-built JSON body with the inbound Authorization header
func (h *Handler) forwardJSON(w http.ResponseWriter, r *http.Request, fr services.ForwardRequest, fallback string) {
	fr.Header = http.Header{}
	fr.Header.Set("Content-Type", "application/json")
	if auth := r.Header.Get("Authorization"); auth != "" {
		fr.Header.Set("Authorization", auth)
	}

	resp, err := h.gateway.Forward(r.Context(), fr)
	if err != nil {
		h.writeForward(w, resp)
		return
	}
	h.writeForward(w, withJSONFallback(resp, fallback))
}
