// ABOUTME: Shared API response models for the forum BFF
// ABOUTME: JSON-serializable structures matching frontend expectations

package models

import "encoding/json"

// ErrorResponse is the error body shape used by every BFF-generated error
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// HealthResponse is returned by GET /api/health
type HealthResponse struct {
	Status   string `json:"status"`
	Upstream string `json:"upstream"`
}

// VoteRequest is the inbound body of POST /api/posts/vote
type VoteRequest struct {
	PostID json.Number `json:"postId"`
	Value  *int        `json:"value"`
}

// CommentCreateRequest is the inbound body of POST /api/posts/comments
type CommentCreateRequest struct {
	PostID json.Number `json:"postId"`
	Body   string      `json:"body"`
	Parent *int64      `json:"parent"`
}

// CommentCreateUpstream is the body forwarded to the upstream comments endpoint
type CommentCreateUpstream struct {
	Body   string `json:"body"`
	Parent *int64 `json:"parent"`
}
