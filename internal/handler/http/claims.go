package http

import (
	"net/http"

	"github.com/cybercafe-ops/cafe-backend-go/internal/domain/auth"
	"github.com/go-chi/jwtauth/v5"
)

// userIDFromRequest pulls the authenticated user's ID out of the verified
// token. The auth middleware guarantees the token is present and valid.
func userIDFromRequest(r *http.Request) (string, error) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return "", auth.ErrInvalidToken
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", auth.ErrInvalidToken
	}

	return userID, nil
}
