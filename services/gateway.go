// ABOUTME: Proxy gateway forwarding one inbound request to the upstream API
// ABOUTME: Relays status, content-type, and body verbatim; synthesizes 500/502 only on its own failures

package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/sjson"

	"github.com/communityforum/bff/metrics"
)

// Fixed details of the only responses the gateway invents
const (
	NotConfiguredDetail = "upstream API base address is not configured"
	TransportDetail     = "upstream API request failed"
)

// ForwardRequest describes one upstream call. Path is the expanded upstream
// path; only Authorization and Content-Type are taken from Header.
type ForwardRequest struct {
	Name   string
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
	Form   *multipart.Form
}

// ForwardResponse is the upstream answer as it is relayed to the client
type ForwardResponse struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// OK reports whether the upstream answered 2xx
func (r *ForwardResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode <= 299
}

// Gateway forwards requests to the upstream API. It holds no per-request state.
type Gateway struct {
	baseURL string
	client  *http.Client
	metrics *metrics.Metrics
}

// NewGateway creates a gateway for baseURL. An empty baseURL is accepted;
// every Forward then answers with the configuration error.
func NewGateway(baseURL string, client *http.Client, m *metrics.Metrics) *Gateway {
	if client == nil {
		client = NewUpstreamClient(nil)
	}
	return &Gateway{baseURL: baseURL, client: client, metrics: m}
}

// Configured returns true if an upstream base address is set
func (g *Gateway) Configured() bool {
	return g.baseURL != ""
}

// Forward performs exactly one upstream call. The returned response is never
// nil: on ErrNotConfigured it is a 500 and on *TransportError a 502, both
// with a {"detail": ...} body.
func (g *Gateway) Forward(ctx context.Context, fr ForwardRequest) (*ForwardResponse, error) {
	resp, err := g.Open(ctx, fr)
	if err != nil {
		return failureResponse(err), err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		tErr := &TransportError{Op: fr.Name, Err: err}
		slog.Error("Upstream response read failed", "operation", fr.Name, "error", err)
		return failureResponse(tErr), tErr
	}

	return relayResponse(resp.StatusCode, resp.Header.Get("Content-Type"), body), nil
}

// Open performs the upstream call and hands back the unread response for
// streaming. The caller must close the body.
func (g *Gateway) Open(ctx context.Context, fr ForwardRequest) (*http.Response, error) {
	if !g.Configured() {
		return nil, ErrNotConfigured
	}

	req, err := g.newRequest(ctx, fr)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		g.metrics.TransportFailure(fr.Name)
		slog.Error("Upstream request failed", "operation", fr.Name, "method", fr.Method, "path", fr.Path, "error", err)
		return nil, &TransportError{Op: fr.Name, Err: err}
	}
	g.metrics.ObserveUpstream(fr.Name, resp.StatusCode, time.Since(start))
	slog.Debug("Upstream request completed", "operation", fr.Name, "status", resp.StatusCode, "duration", time.Since(start))

	return resp, nil
}

func (g *Gateway) newRequest(ctx context.Context, fr ForwardRequest) (*http.Request, error) {
	target := g.baseURL + fr.Path
	if encoded := fr.Query.Encode(); encoded != "" {
		target += "?" + encoded
	}

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case fr.Form != nil:
		encoded, ct, err := encodeMultipart(fr.Form)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fr.Name, err)
		}
		body, contentType = encoded, ct
	case len(fr.Body) > 0:
		body = bytes.NewReader(fr.Body)
		contentType = fr.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/json"
		}
	}

	req, err := http.NewRequestWithContext(ctx, fr.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request: %w", fr.Name, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if auth := fr.Header.Get("Authorization"); auth != "" {
		req.Header.Set("Authorization", auth)
	}
	return req, nil
}

// relayResponse applies the pass-through rules: bodiless statuses carry no
// body, and a non-empty body without a content-type is labelled JSON.
func relayResponse(status int, contentType string, body []byte) *ForwardResponse {
	switch status {
	case http.StatusNoContent, http.StatusResetContent, http.StatusNotModified:
		return &ForwardResponse{StatusCode: status}
	}
	if contentType == "" && len(body) > 0 {
		contentType = "application/json"
	}
	return &ForwardResponse{StatusCode: status, ContentType: contentType, Body: body}
}

func failureResponse(err error) *ForwardResponse {
	var tErr *TransportError
	switch {
	case errors.Is(err, ErrNotConfigured):
		return DetailResponse(http.StatusInternalServerError, NotConfiguredDetail)
	case errors.As(err, &tErr):
		return DetailResponse(http.StatusBadGateway, TransportDetail)
	}
	return DetailResponse(http.StatusInternalServerError, "internal error")
}

// DetailResponse builds a JSON {"detail": msg} response
func DetailResponse(status int, msg string) *ForwardResponse {
	body, _ := sjson.SetBytes([]byte(`{}`), "detail", msg)
	return &ForwardResponse{StatusCode: status, ContentType: "application/json", Body: body}
}

// ExpandPath substitutes {name} placeholders with percent-encoded values
func ExpandPath(template string, params map[string]string) string {
	if len(params) == 0 {
		return template
	}
	pairs := make([]string, 0, len(params)*2)
	for name, value := range params {
		pairs = append(pairs, "{"+name+"}", url.PathEscape(value))
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
