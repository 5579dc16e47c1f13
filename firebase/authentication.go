package firebase

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/auth"

	"quadro-kanban/session"
	"quadro-kanban/utilities"
)

// Verifier valida ID tokens do Firebase Auth
type Verifier struct {
	client *auth.Client
}

func NewVerifier(client *auth.Client) *Verifier {
	return &Verifier{client: client}
}

// Verify confere assinatura, expiração e revogação do token
func (v *Verifier) Verify(ctx context.Context, token string) (session.Session, error) {
	verified, err := v.client.VerifyIDTokenAndCheckRevoked(ctx, token)
	if err != nil {
		return session.Session{}, fmt.Errorf("%w: erro ao verificar token: %v", session.ErrUnauthenticated, err)
	}
	email, _ := verified.Claims["email"].(string)
	name, _ := verified.Claims["name"].(string)
	utilities.LogDebug("Token verificado com sucesso para UID: %s", verified.UID)
	return session.Session{UserID: verified.UID, Email: email, DisplayName: name}, nil
}

// Revoke revoga os refresh tokens do usuário (logout em todos os dispositivos)
func (v *Verifier) Revoke(ctx context.Context, uid string) error {
	if err := v.client.RevokeRefreshTokens(ctx, uid); err != nil {
		return fmt.Errorf("erro ao revogar tokens: %w", err)
	}
	utilities.LogInfo("Tokens revogados para UID: %s", uid)
	return nil
}
