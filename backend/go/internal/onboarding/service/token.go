package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

const tokenIssuer = "onboarding_buddy"

// IssueAdminToken signs a dashboard token for an administrator.
func (s *Service) IssueAdminToken(adminID int64, ttl time.Duration) (string, error) {
	if !s.cfg.IsAdmin(adminID) {
		return "", ErrNotAdmin
	}
	if s.cfg.Auth.JwtSecret == "" {
		return "", errors.New("jwt secret is not configured")
	}
	if ttl <= 0 {
		ttl = time.Duration(s.cfg.Auth.TokenTTL) * time.Second
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": adminID,
		"iss": tokenIssuer,
		"exp": now.Add(ttl).Unix(),
		"iat": now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.Auth.JwtSecret))
}

// ParseAdminToken validates a dashboard token and returns the admin id. Tokens
// of users removed from the admin list are rejected.
func (s *Service) ParseAdminToken(tokenString string) (int64, error) {
	if s.cfg.Auth.JwtSecret == "" {
		return 0, errors.New("jwt secret is not configured")
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(s.cfg.Auth.JwtSecret), nil
	})
	if err != nil {
		return 0, fmt.Errorf("invalid token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, errors.New("invalid token")
	}
	sub, ok := claims["sub"].(float64) // numbers decode as float64
	if !ok {
		return 0, errors.New("invalid token claims")
	}
	adminID := int64(sub)
	if !s.cfg.IsAdmin(adminID) {
		return 0, ErrNotAdmin
	}
	return adminID, nil
}
