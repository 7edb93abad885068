// ABOUTME: Handler for serving the BFF's OpenAPI description
// ABOUTME: Embeds openapi.yaml at compile time for frontend tooling and Swagger UI

package handlers

import (
	_ "embed"
	"net/http"
)

//go:embed openapi.yaml
var openapiSpec []byte

// OpenAPISpec serves the embedded OpenAPI document.
func (h *Handler) OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.Write(openapiSpec)
}
