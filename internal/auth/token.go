package auth

import (
	"net/http"
	"strings"
)

// SessionCookie carries the access token for browser-based UI shells.
const SessionCookie = "posflow_token"

// ExtractAccessToken reads a bearer token from the Authorization header, then
// from the session cookie. Terminals send the header; the cookie is the
// fallback for browser shells.
func ExtractAccessToken(r *http.Request) string {
	if scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " "); ok && strings.EqualFold(scheme, "Bearer") {
		if token = strings.TrimSpace(token); token != "" {
			return token
		}
	}

	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	return ""
}
