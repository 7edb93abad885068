// ABOUTME: Auth request/response models for the session cookie flow
// ABOUTME: Defines token pair, identity, and login/me API contracts

package models

import "errors"

// LoginRequest represents credentials for authentication
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenPair is the upstream login result. Both tokens are required.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Validate rejects token pairs missing either token
func (p TokenPair) Validate() error {
	if p.Access == "" || p.Refresh == "" {
		return errors.New("token pair is missing access or refresh token")
	}
	return nil
}

// AccessToken is the upstream refresh result
type AccessToken struct {
	Access string `json:"access"`
}

// RefreshRequest is sent to the upstream refresh and logout endpoints
type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

// Identity is the current user as reported by the upstream "who am I" call.
// Resolved on demand and never cached.
type Identity struct {
	ID        int64   `json:"id"`
	Email     string  `json:"email"`
	Username  string  `json:"username"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	ImageURL  *string `json:"image_url"`
}

// Validate rejects identities without an id or any account name
func (i Identity) Validate() error {
	if i.ID == 0 {
		return errors.New("identity is missing id")
	}
	if i.Email == "" && i.Username == "" {
		return errors.New("identity has neither email nor username")
	}
	return nil
}

// IdentityResponse is returned by GET /api/auth/me
type IdentityResponse struct {
	User   Identity `json:"user"`
	Access string   `json:"access"`
}

// SuccessResponse is returned by login and logout
type SuccessResponse struct {
	Success bool `json:"success"`
}
