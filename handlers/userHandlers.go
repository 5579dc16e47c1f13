package handlers

import (
	"net/http"
	"strings"

	"quadro-kanban/session"
	"quadro-kanban/utilities"
)

type SocialLoginInput struct {
	IDToken string `json:"idToken"`
}

// SocialLoginResponse define a estrutura da resposta de sucesso
type SocialLoginResponse struct {
	Message     string `json:"message"`
	FirebaseUID string `json:"firebaseUid"`
}

// FinalizeFirebaseLoginHandler verifica o ID Token (login social ou outro)
// e sincroniza o usuário com o banco local
func (s *Server) FinalizeFirebaseLoginHandler(w http.ResponseWriter, r *http.Request) {
	utilities.LogInfo("Recebida requisição para finalizar login com ID Token.")

	var input SocialLoginInput
	if err := decodeJSON(r, &input); err != nil {
		utilities.LogError(err, "Erro ao decodificar corpo da requisição para finalizar login")
		http.Error(w, "Corpo da requisição inválido", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(input.IDToken) == "" {
		utilities.LogError(nil, "ID Token não fornecido no corpo da requisição")
		http.Error(w, "ID Token é obrigatório", http.StatusBadRequest)
		return
	}

	// Log apenas uma parte do token
	tokenLoggablePart := input.IDToken
	if len(tokenLoggablePart) > 15 {
		tokenLoggablePart = tokenLoggablePart[:15] + "..."
	}
	utilities.LogDebug("Verificando ID Token: %s", tokenLoggablePart)

	sess, err := s.Verifier.Verify(r.Context(), input.IDToken)
	if err != nil {
		utilities.LogError(err, "Falha ao verificar ID Token")
		http.Error(w, "Token inválido ou falha na verificação", http.StatusUnauthorized)
		return
	}

	user, err := s.Users.CheckOrCreateUser(r.Context(), sess)
	if err != nil {
		utilities.LogError(err, "Erro ao sincronizar usuário com banco de dados local")
		http.Error(w, "Erro interno do servidor ao processar usuário", http.StatusInternalServerError)
		return
	}
	utilities.LogInfo("Usuário (UID: %s) sincronizado com sucesso no banco de dados local.", user.FirebaseUID)

	writeJSON(w, http.StatusOK, SocialLoginResponse{
		Message:     "Login finalizado e usuário sincronizado com sucesso.",
		FirebaseUID: user.FirebaseUID,
	})
}

// UserHandler retorna informações do usuário atual
func (s *Server) UserHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	user, err := s.Users.GetUser(r.Context(), sess.UserID)
	if err != nil {
		writeError(w, err, "Erro ao buscar usuário")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateUserHandler atualiza o nome de exibição do usuário
func (s *Server) UpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	var updateData struct {
		DisplayName string `json:"display_name"`
	}
	if err := decodeJSON(r, &updateData); err != nil {
		utilities.LogError(err, "Erro ao decodificar dados de atualização")
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if err := s.Users.UpdateDisplayName(r.Context(), sess.UserID, strings.TrimSpace(updateData.DisplayName)); err != nil {
		writeError(w, err, "Erro ao atualizar usuário")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User updated successfully"})
}

// LogoutHandler descarta os quadros abertos da sessão e, com Firebase, revoga os refresh tokens
func (s *Server) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}

	s.Registry.Logout(sess.UserID)

	if revoker, ok := s.Verifier.(session.Revoker); ok {
		if err := revoker.Revoke(r.Context(), sess.UserID); err != nil {
			utilities.LogError(err, "Erro ao revogar tokens")
			http.Error(w, "Erro ao fazer logout", http.StatusInternalServerError)
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "session",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logout efetuado com sucesso"})
}
