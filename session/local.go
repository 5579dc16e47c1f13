package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// LocalVerifier valida tokens HS256 assinados com um segredo compartilhado.
// Usado em desenvolvimento (AUTH_MODE=local) no lugar do Firebase Auth.
type LocalVerifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewLocalVerifier(secret string) *LocalVerifier {
	return &LocalVerifier{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
}

func (v *LocalVerifier) Verify(_ context.Context, token string) (Session, error) {
	parsed, err := v.parser.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("método de assinatura inválido")
		}
		return v.secret, nil
	})
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Session{}, fmt.Errorf("%w: claims inválidas", ErrUnauthenticated)
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return Session{}, fmt.Errorf("%w: sub ausente", ErrUnauthenticated)
	}
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	return Session{UserID: sub, Email: email, DisplayName: name}, nil
}

// IssueLocalToken gera um token aceito pelo LocalVerifier
func IssueLocalToken(secret string, s Session, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": s.UserID,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	if s.Email != "" {
		claims["email"] = s.Email
	}
	if s.DisplayName != "" {
		claims["name"] = s.DisplayName
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
