package session

import (
	"context"
	"errors"
	"strings"
)

// ErrUnauthenticated é devolvido quando não há token ou ele não é válido
var ErrUnauthenticated = errors.New("não autenticado")

// Session identifica o usuário autenticado da requisição. É passada explicitamente
// para as operações do quadro em vez de ficar num estado global.
type Session struct {
	UserID      string `json:"userId"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// Verifier valida um token de identidade e devolve a sessão correspondente
type Verifier interface {
	Verify(ctx context.Context, token string) (Session, error)
}

// Revoker é implementado por verificadores que conseguem encerrar as sessões de um usuário
type Revoker interface {
	Revoke(ctx context.Context, userID string) error
}

type ctxKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext é o currentUser(): devolve a sessão ou false se ninguém estiver logado
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	if !ok || s.UserID == "" {
		return Session{}, false
	}
	return s, true
}

// BearerToken extrai o token do header Authorization
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrUnauthenticated
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", ErrUnauthenticated
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", ErrUnauthenticated
	}
	return token, nil
}
