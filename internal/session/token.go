package session

import (
	"errors"
	"time"

	"workflow_portal_backend/platform/apperr"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ParseAccessToken verifies an access token locally against the auth service's
// JWT secret and reconstructs the session it describes, without a network
// round trip. Used on the middleware path where per-request remote validation
// would be prohibitive.
func ParseAccessToken(rawToken, secret string) (*Session, error) {
	claims, err := verifyClaims(rawToken, secret)
	if err != nil {
		return nil, apperr.Unauthorized("session token is not valid")
	}

	sub, _ := claims["sub"].(string)
	id, err := parseUserUUID(sub)
	if err != nil {
		return nil, apperr.Unauthorized("session token carries no user id")
	}

	email, _ := claims["email"].(string)

	requiresChange := false
	var metadata map[string]any
	if md, ok := claims["user_metadata"].(map[string]any); ok {
		metadata = md
		requiresChange, _ = md["requires_password_change"].(bool)
	}

	var expiresAt time.Time
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt = exp.Time
	}

	return &Session{
		AccessToken: rawToken,
		ExpiresAt:   expiresAt,
		User: User{
			ID:                     id,
			Email:                  email,
			RequiresPasswordChange: requiresChange,
			Metadata:               metadata,
		},
	}, nil
}

func tokenExpiry(rawToken, secret string) (time.Time, error) {
	claims, err := verifyClaims(rawToken, secret)
	if err != nil {
		return time.Time{}, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, errors.New("token has no expiry")
	}
	return exp.Time, nil
}

func verifyClaims(rawToken, secret string) (jwt.MapClaims, error) {
	parsed, err := jwt.Parse(rawToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

func parseUserUUID(raw string) (uuid.UUID, error) {
	return uuid.Parse(raw)
}
