package utils

import (
	"errors"
	"fmt"
	"time"

	"slotbook/config"

	"github.com/golang-jwt/jwt"
)

// GenerateActorToken issues a bearer token for a customer or provider actor.
// Token issuance lives in the identity system; this helper exists for tooling
// and tests.
func GenerateActorToken(actorID, role string) (string, error) {
	if role != "customer" && role != "provider" {
		return "", fmt.Errorf("unknown actor role %q", role)
	}
	claims := jwt.MapClaims{
		"sub":  actorID,
		"role": role,
		"exp":  time.Now().Add(24 * time.Hour).Unix(),
		"iat":  time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}

// ExtractActorFromToken validates a bearer token and returns the actor ID and role.
func ExtractActorFromToken(tokenString string) (string, string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(config.AppConfig.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return "", "", errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", errors.New("invalid token claims")
	}
	actorID, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	if actorID == "" || role == "" {
		return "", "", errors.New("token missing actor identity")
	}
	return actorID, role, nil
}
