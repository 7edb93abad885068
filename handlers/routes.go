// ABOUTME: Declarative route table for the forum BFF API
// ABOUTME: Maps every inbound /api/ endpoint to its handler or upstream proxy route

package handlers

import (
	"net/http"
	"net/url"

	"github.com/communityforum/bff/services"
)

// Rate limit tiers
const (
	TierDefault = ""
	TierAuth    = "auth"
)

// Route defines an API endpoint with its HTTP method and handler.
type Route struct {
	Method    string           // HTTP method (GET, POST, etc.)
	Path      string           // ServeMux pattern path (e.g., "/api/posts/{id}")
	Handler   http.HandlerFunc // Handler function
	RateLimit string           // rate limit tier; empty means default
}

// Routes returns all API routes for registration.
func (h *Handler) Routes() []Route {
	return []Route{
		// Health and API description
		{Method: http.MethodGet, Path: "/api/health", Handler: h.Health},
		{Method: http.MethodGet, Path: "/api/openapi.yaml", Handler: h.OpenAPISpec},

		// Session
		{Method: http.MethodPost, Path: "/api/auth/login", Handler: h.Login, RateLimit: TierAuth},
		{Method: http.MethodPost, Path: "/api/auth/register", Handler: h.proxy(proxyRoute{
			name: "auth.register", upstream: "/api/auth/register/", fallback: "Registration failed",
		}), RateLimit: TierAuth},
		{Method: http.MethodGet, Path: "/api/auth/me", Handler: h.Me},
		{Method: http.MethodPost, Path: "/api/auth/logout", Handler: h.Logout},

		// Account
		{Method: http.MethodGet, Path: "/api/account/me", Handler: h.proxy(proxyRoute{
			name: "account.get", upstream: "/api/auth/me/",
		})},
		{Method: http.MethodPatch, Path: "/api/account/me", Handler: h.proxy(proxyRoute{
			name: "account.update", upstream: "/api/auth/me/", multipart: true,
		})},
		{Method: http.MethodPost, Path: "/api/account/change-password", Handler: h.proxy(proxyRoute{
			name: "account.change_password", upstream: "/api/auth/change-password/",
		}), RateLimit: TierAuth},
		{Method: http.MethodDelete, Path: "/api/account", Handler: h.proxy(proxyRoute{
			name: "account.delete", upstream: "/api/auth/delete-account/", auth: authFallback,
			onSuccess: h.expireSession,
		})},

		// Communities
		{Method: http.MethodGet, Path: "/api/communities", Handler: h.proxy(proxyRoute{
			name: "communities.list", upstream: "/api/communities/", cursors: stripOrigin,
		})},
		{Method: http.MethodPost, Path: "/api/communities", Handler: h.proxy(proxyRoute{
			name: "communities.create", upstream: "/api/communities/", auth: authFallback,
			fallback: "Community could not be created",
		})},
		{Method: http.MethodGet, Path: "/api/communities/manage", Handler: h.proxy(proxyRoute{
			name: "communities.manage", upstream: "/api/communities/manage/", auth: authSession,
		})},
		{Method: http.MethodGet, Path: "/api/communities/loadmore", Handler: h.LoadMoreCommunities},
		{Method: http.MethodGet, Path: "/api/communities/{slug}", Handler: h.community("communities.get", "/")},
		{Method: http.MethodPatch, Path: "/api/communities/{slug}", Handler: h.community("communities.update", "/")},
		{Method: http.MethodDelete, Path: "/api/communities/{slug}", Handler: h.community("communities.delete", "/")},
		{Method: http.MethodGet, Path: "/api/communities/{slug}/posts", Handler: h.proxy(proxyRoute{
			name: "communities.posts", upstream: "/api/communities/{slug}/posts/", params: []string{"slug"},
			cursors: stripOrigin,
		})},
		{Method: http.MethodPost, Path: "/api/communities/{slug}/posts", Handler: h.community("communities.create_post", "/posts/")},

		// Membership
		{Method: http.MethodGet, Path: "/api/communities/{slug}/members", Handler: h.community("members.list", "/members/")},
		{Method: http.MethodGet, Path: "/api/communities/{slug}/members_pending", Handler: h.community("members.pending", "/members_pending/")},
		{Method: http.MethodPost, Path: "/api/communities/{slug}/join", Handler: h.community("members.join", "/join/")},
		{Method: http.MethodPost, Path: "/api/communities/{slug}/leave", Handler: h.community("members.leave", "/leave/")},
		{Method: http.MethodPost, Path: "/api/communities/{slug}/members_approve", Handler: h.community("members.approve", "/members_approve/")},
		{Method: http.MethodPost, Path: "/api/communities/{slug}/members_decline", Handler: h.community("members.decline", "/members_decline/")},
		{Method: http.MethodPost, Path: "/api/communities/{slug}/members_promote", Handler: h.community("members.promote", "/members_promote/")},
		{Method: http.MethodPost, Path: "/api/communities/{slug}/members_demote", Handler: h.community("members.demote", "/members_demote/")},
		{Method: http.MethodPost, Path: "/api/communities/{slug}/members_remove", Handler: h.community("members.remove", "/members_remove/")},

		// Posts
		{Method: http.MethodGet, Path: "/api/posts", Handler: h.proxy(proxyRoute{
			name: "posts.list", upstream: "/api/posts/", cursors: stripOrigin,
		})},
		{Method: http.MethodPatch, Path: "/api/posts/{id}", Handler: h.post("posts.update", "/")},
		{Method: http.MethodDelete, Path: "/api/posts/{id}", Handler: h.post("posts.delete", "/")},
		{Method: http.MethodPost, Path: "/api/posts/{id}/restore", Handler: h.post("posts.restore", "/restore/")},
		{Method: http.MethodPost, Path: "/api/posts/vote", Handler: h.Vote},

		// Comments
		{Method: http.MethodGet, Path: "/api/posts/{id}/comments", Handler: h.proxy(proxyRoute{
			name: "comments.by_post", upstream: "/api/comments/", params: []string{"id"},
			query:   forcePostFilter,
			cursors: postCommentsCursor,
		})},
		{Method: http.MethodGet, Path: "/api/posts/comments", Handler: h.ListThreadComments},
		{Method: http.MethodPost, Path: "/api/posts/comments", Handler: h.CreateComment},
		{Method: http.MethodDelete, Path: "/api/comments/{id}", Handler: h.proxy(proxyRoute{
			name: "comments.delete", upstream: "/api/comments/{id}/", params: []string{"id"},
		})},

		// Uploads
		{Method: http.MethodPost, Path: "/api/uploads/post-images", Handler: h.upload("uploads.post_images", "/api/upload_post_images/")},
		{Method: http.MethodPost, Path: "/api/upload_post_images", Handler: h.upload("uploads.post_images", "/api/upload_post_images/")},
		{Method: http.MethodPost, Path: "/api/uploads/community-image", Handler: h.upload("uploads.community_image", "/api/uploads/community-image/")},

		// Media
		{Method: http.MethodGet, Path: "/api/media/{path...}", Handler: h.Media},
	}
}

// community proxies a /api/communities/{slug}<suffix> endpoint
func (h *Handler) community(name, suffix string) http.HandlerFunc {
	return h.proxy(proxyRoute{
		name:     name,
		upstream: "/api/communities/{slug}" + suffix,
		params:   []string{"slug"},
	})
}

// post proxies a /api/posts/{id}<suffix> endpoint
func (h *Handler) post(name, suffix string) http.HandlerFunc {
	return h.proxy(proxyRoute{
		name:     name,
		upstream: "/api/posts/{id}" + suffix,
		params:   []string{"id"},
	})
}

// upload proxies a multipart upload endpoint
func (h *Handler) upload(name, upstream string) http.HandlerFunc {
	return h.proxy(proxyRoute{
		name:      name,
		upstream:  upstream,
		multipart: true,
	})
}

// forcePostFilter replaces any inbound post filter with the path's post id
func forcePostFilter(r *http.Request, q url.Values) {
	q.Set("post", r.PathValue("id"))
}

// postCommentsCursor points comment page cursors back at /api/posts/{id}/comments
func postCommentsCursor(r *http.Request) services.CursorRewriter {
	return services.ReplacePath("/api/posts/" + url.PathEscape(r.PathValue("id")) + "/comments")
}
