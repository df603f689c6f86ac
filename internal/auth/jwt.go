package auth

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const refreshScope = "refresh_token"

func secret() []byte {
	if s := os.Getenv("JWT_SECRET"); s != "" {
		return []byte(s)
	}
	// Matches the config default so tokens verify when no env is set
	return []byte("supersecretkey")
}

func GenerateToken(userID string) (string, error) {
	expiryHours, _ := strconv.Atoi(os.Getenv("JWT_EXPIRY_HOURS"))
	if expiryHours == 0 {
		expiryHours = 24
	}
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Duration(expiryHours) * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret())
}

func GenerateRefreshToken(userID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"scope":   refreshScope,
		"exp":     time.Now().Add(7 * 24 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret())
}

func ParseToken(tokenStr string) (string, error) {
	claims, err := parse(tokenStr)
	if err != nil {
		return "", err
	}
	if claims["scope"] == refreshScope {
		return "", errors.New("invalid token")
	}
	return claims["user_id"].(string), nil
}

// ParseRefreshToken accepts only tokens carrying the refresh scope.
func ParseRefreshToken(tokenStr string) (string, error) {
	claims, err := parse(tokenStr)
	if err != nil {
		return "", err
	}
	if claims["scope"] != refreshScope {
		return "", errors.New("invalid token scope")
	}
	return claims["user_id"].(string), nil
}

func parse(tokenStr string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		return secret(), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["user_id"] == nil {
		return nil, errors.New("invalid claims")
	}
	if _, ok := claims["user_id"].(string); !ok {
		return nil, errors.New("invalid claims")
	}
	return claims, nil
}
