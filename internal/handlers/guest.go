// internal/handlers/guest.go
package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/wildfour/uno/internal/auth"
)

// guestCookieName carries the signed guest token between page loads.
const guestCookieName = "uno_session"

// EnsureGuest resolves the connection's player identity. A valid session
// cookie is honored; otherwise a fresh guest ID is minted and the signed
// token set before the websocket upgrade writes the response.
func EnsureGuest(w http.ResponseWriter, r *http.Request) (uuid.UUID, error) {
	if cookie, err := r.Cookie(guestCookieName); err == nil {
		if sub, err := auth.AuthenticateToken(cookie.Value); err == nil {
			if playerID, err := uuid.Parse(sub); err == nil {
				return playerID, nil
			}
		}
		// Fall through and reissue on any parse/verify failure.
	}

	playerID := uuid.New()
	token, err := auth.CreateGuestToken(playerID.String())
	if err != nil {
		return uuid.Nil, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     guestCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return playerID, nil
}
