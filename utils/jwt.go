package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the identity the server baked into the session token.
type TokenClaims struct {
	UserID    string
	ExpiresAt time.Time
}

// ExtractClaims reads identity claims out of a token without verifying the
// signature. The client has no signing secret; these values are for display
// only and the server remains the authority on token validity.
func ExtractClaims(tokenStr string) (TokenClaims, error) {
	if tokenStr == "" {
		return TokenClaims{}, errors.New("token is empty")
	}

	token, _, err := jwt.NewParser().ParseUnverified(tokenStr, jwt.MapClaims{})
	if err != nil {
		return TokenClaims{}, errors.New("malformed token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return TokenClaims{}, errors.New("invalid claims")
	}

	var out TokenClaims
	for _, key := range []string{"user_id", "uname", "sub"} {
		if v, ok := claims[key].(string); ok && v != "" {
			out.UserID = v
			break
		}
	}
	if out.UserID == "" {
		return TokenClaims{}, errors.New("no user identity in claims")
	}

	if exp, ok := claims["exp"].(float64); ok {
		out.ExpiresAt = time.Unix(int64(exp), 0)
	}
	return out, nil
}
