package utils

import (
	"fmt"
	"os"
	"time"

	userModel "pickabook/models/user"

	"github.com/golang-jwt/jwt/v5"
)

// TokenValidity is how long a minted session token remains usable.
const TokenValidity = 7 * 24 * time.Hour

func jwtSecret() ([]byte, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is not set")
	}
	return []byte(secret), nil
}

// GenerateToken mints an HS256 session token embedding the user's
// identifier, valid for seven days.
func GenerateToken(u *userModel.User) (string, error) {
	secret, err := jwtSecret()
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"userId": u.ID,
		"uuid":   u.Uuid,
		"iat":    now.Unix(),
		"exp":    now.Add(TokenValidity).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseToken verifies signature and expiry and returns the claims.
func ParseToken(tokenString string) (jwt.MapClaims, error) {
	secret, err := jwtSecret()
	if err != nil {
		return nil, err
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWT: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid JWT token")
	}
	return claims, nil
}

// UserIDFromClaims extracts the embedded user identifier. JSON numbers
// decode as float64, so the claim needs converting back.
func UserIDFromClaims(claims jwt.MapClaims) (uint, error) {
	raw, ok := claims["userId"]
	if !ok {
		return 0, fmt.Errorf("userId not found in token")
	}
	id, ok := raw.(float64)
	if !ok || id < 1 {
		return 0, fmt.Errorf("invalid userId claim")
	}
	return uint(id), nil
}
