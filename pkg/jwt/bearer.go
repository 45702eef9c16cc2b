package jwt

import (
	"net/http"
	"strings"
)

// BearerToken extracts a token from an "Authorization: Bearer <token>" header
// per RFC 6750. Returns ErrInvalidToken when the header is missing or malformed.
func BearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrInvalidToken
	}

	scheme, token, found := strings.Cut(authHeader, " ")
	if !found || scheme != "Bearer" || token == "" {
		return "", ErrInvalidToken
	}
	return token, nil
}
