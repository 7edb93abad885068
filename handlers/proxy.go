// ABOUTME: Declarative proxy routes forwarding resource endpoints to the upstream API
// ABOUTME: One forwarding path for params, query, auth header, JSON and multipart bodies

package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/communityforum/bff/services"
)

// authMode selects where the upstream bearer token comes from
type authMode int

const (
	authHeader   authMode = iota // inbound Authorization header only
	authFallback                 // header, else the access cookie
	authSession                  // access cookie only; 401 without one
)

// proxyRoute describes how one inbound endpoint maps onto the upstream API
type proxyRoute struct {
	name      string
	upstream  string   // path template with {param} placeholders
	params    []string // path values substituted into upstream
	auth      authMode
	multipart bool

	// query adjusts the copied inbound query before forwarding
	query func(r *http.Request, q url.Values)

	// cursors enables next/previous rewriting on 2xx list payloads
	cursors func(r *http.Request) services.CursorRewriter

	// fallback replaces a non-JSON upstream error body
	fallback string

	// onSuccess runs before a 2xx response is written
	onSuccess func(w http.ResponseWriter, r *http.Request)
}

// stripOrigin is the cursors option for plain list endpoints
func stripOrigin(*http.Request) services.CursorRewriter {
	return services.StripOrigin
}

// proxy returns the handler forwarding requests for route
func (h *Handler) proxy(route proxyRoute) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.gateway.Configured() {
			h.writeError(w, services.NotConfiguredDetail, http.StatusInternalServerError)
			return
		}

		fr, ok := h.forwardRequest(w, r, route)
		if !ok {
			return
		}
		if fr.Form != nil {
			defer fr.Form.RemoveAll()
		}

		resp, err := h.gateway.Forward(r.Context(), fr)
		if err != nil {
			h.writeForward(w, resp)
			return
		}

		if resp.OK() {
			if route.cursors != nil {
				resp.Body = services.RewritePageCursors(resp.Body, route.cursors(r))
			}
			if route.onSuccess != nil {
				route.onSuccess(w, r)
			}
		}

		h.writeForward(w, withJSONFallback(resp, route.fallback))
	}
}

// forwardRequest builds the upstream request. It writes the error response
// itself and returns false when the inbound request cannot be forwarded.
func (h *Handler) forwardRequest(w http.ResponseWriter, r *http.Request, route proxyRoute) (services.ForwardRequest, bool) {
	fr := services.ForwardRequest{
		Name:   route.name,
		Method: r.Method,
		Query:  r.URL.Query(),
		Header: http.Header{},
	}

	params := make(map[string]string, len(route.params))
	for _, name := range route.params {
		value := r.PathValue(name)
		if value == "" {
			h.writeError(w, "Missing path parameter: "+name, http.StatusBadRequest)
			return fr, false
		}
		params[name] = value
	}
	fr.Path = services.ExpandPath(route.upstream, params)

	if route.query != nil {
		route.query(r, fr.Query)
	}

	token, ok := h.bearer(w, r, route.auth)
	if !ok {
		h.writeError(w, detailUnauthenticated, http.StatusUnauthorized)
		return fr, false
	}
	if token != "" {
		fr.Header.Set("Authorization", token)
	}

	if route.multipart {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
		if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				h.writeError(w, "Request body too large", http.StatusRequestEntityTooLarge)
				return fr, false
			}
			slog.Debug("Invalid multipart body", "route", route.name, "error", err)
			h.writeError(w, "Invalid multipart form data", http.StatusBadRequest)
			return fr, false
		}
		fr.Form = r.MultipartForm
		return fr, true
	}

	body, err := readBody(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, "Request body too large", http.StatusRequestEntityTooLarge)
		} else {
			h.writeError(w, "Invalid request body", http.StatusBadRequest)
		}
		return fr, false
	}
	if len(body) > 0 {
		fr.Body = body
		fr.Header.Set("Content-Type", r.Header.Get("Content-Type"))
	}
	return fr, true
}

// bearer resolves the Authorization value for mode. The second result is
// false only when a session is required and absent.
func (h *Handler) bearer(w http.ResponseWriter, r *http.Request, mode authMode) (string, bool) {
	header := r.Header.Get("Authorization")

	switch mode {
	case authFallback:
		if header != "" {
			return header, true
		}
		if access, ok := h.sessions.AccessToken(h.store(w, r)); ok {
			return "Bearer " + access, true
		}
		return "", true

	case authSession:
		access, ok := h.sessions.AccessToken(h.store(w, r))
		if !ok {
			return "", false
		}
		return "Bearer " + access, true

	default:
		return header, true
	}
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	return io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
}
