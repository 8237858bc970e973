// internal/handlers/session.go
package handlers

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/tablespin/tablespin/internal/auth"
)

const sessionCookieName = "session_token"

// EnsureSession returns the caller's session ID, minting a fresh anonymous
// session (uuid + signed cookie) when the request carries no token or an
// invalid one. Sessions carry no account; the ID is only a stable identity
// for lobby membership and host checks.
func EnsureSession(w http.ResponseWriter, r *http.Request) (uuid.UUID, error) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if sub, err := auth.AuthenticateSessionToken(cookie.Value); err == nil {
			if id, err := uuid.Parse(sub); err == nil {
				return id, nil
			}
		}
		// Bad or stale token: fall through and mint a replacement.
	}

	id := uuid.New()
	token, err := auth.CreateSessionToken(id.String())
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create session token: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		HttpOnly: true,
		Path:     "/",
	})
	return id, nil
}
