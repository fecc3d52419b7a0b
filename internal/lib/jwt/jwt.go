package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// NewAdminToken issues an HS256 session token for the admin panel. The jti
// claim keys the Redis allowlist so logout revokes the token before expiry.
func NewAdminToken(secret string, duration time.Duration) (token string, jti string, err error) {
	t := jwt.New(jwt.SigningMethodHS256)

	jti = uuid.NewString()
	claims := t.Claims.(jwt.MapClaims)
	claims["sub"] = "admin"
	claims["jti"] = jti
	claims["exp"] = time.Now().Add(duration).Unix()

	token, err = t.SignedString([]byte(secret))
	if err != nil {
		return "", "", err
	}

	return token, jti, nil
}

// ParseAdminToken validates signature and expiry and returns the jti claim.
func ParseAdminToken(secret, token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return "", fmt.Errorf("invalid token claims")
	}

	jti, ok := claims["jti"].(string)
	if !ok || jti == "" {
		return "", fmt.Errorf("token has no jti claim")
	}

	return jti, nil
}
