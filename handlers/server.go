package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"quadro-kanban/database"
	"quadro-kanban/gateway"
	"quadro-kanban/kanban"
	"quadro-kanban/models"
	"quadro-kanban/session"
	"quadro-kanban/utilities"
)

// Server reúne as dependências dos handlers HTTP
type Server struct {
	Registry *kanban.Registry
	Verifier session.Verifier
	Users    *database.UserStore
}

func NewServer(registry *kanban.Registry, verifier session.Verifier, users *database.UserStore) *Server {
	return &Server{Registry: registry, Verifier: verifier, Users: users}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		utilities.LogError(err, "Erro ao codificar resposta JSON")
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// statusFor traduz os erros do domínio para códigos HTTP
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, gateway.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, gateway.ErrNotFound),
		errors.Is(err, kanban.ErrTaskNotFound),
		errors.Is(err, kanban.ErrBoardNotFound),
		errors.Is(err, database.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, kanban.ErrViewNotFound),
		errors.Is(err, kanban.ErrViewClosed),
		errors.Is(err, kanban.ErrGestureInProgress),
		errors.Is(err, kanban.ErrNoGesture):
		return http.StatusConflict
	case errors.Is(err, models.ErrTitleRequired),
		errors.Is(err, models.ErrNameRequired),
		errors.Is(err, models.ErrInvalidStatus),
		errors.Is(err, models.ErrInvalidPriority):
		return http.StatusBadRequest
	case errors.Is(err, kanban.ErrCreateFailed),
		errors.Is(err, kanban.ErrBoardCreateFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeError responde com o código do erro. Erros internos não vazam detalhes para o cliente.
func writeError(w http.ResponseWriter, err error, context string) {
	code := statusFor(err)
	utilities.LogError(err, context)
	msg := err.Error()
	if code == http.StatusInternalServerError || code == http.StatusBadGateway {
		msg = http.StatusText(code)
	}
	http.Error(w, msg, code)
}
