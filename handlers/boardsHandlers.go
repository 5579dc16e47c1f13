package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"quadro-kanban/kanban"
	"quadro-kanban/models"
	"quadro-kanban/utilities"
)

// BoardResponse é o estado de um quadro aberto: as colunas já particionadas
type BoardResponse struct {
	Board   models.Board    `json:"board"`
	Loading bool            `json:"loading"`
	Columns []kanban.Column `json:"columns"`
}

func boardResponse(v *kanban.BoardView) BoardResponse {
	return BoardResponse{Board: v.Board(), Loading: v.Loading(), Columns: v.Columns()}
}

// ListBoardsHandler recarrega e lista os quadros do usuário
func (s *Server) ListBoardsHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	utilities.LogDebug("Listando quadros do usuário %s", sess.UserID)

	d, err := s.Registry.ReloadDashboard(r.Context(), sess)
	if err != nil {
		writeError(w, err, "Erro ao buscar quadros")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"boards":  d.Boards(),
		"loading": d.Loading(),
	})
}

// CreateBoardHandler cria um quadro novo para o usuário
func (s *Server) CreateBoardHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}

	var input models.BoardInput
	if err := decodeJSON(r, &input); err != nil {
		utilities.LogError(err, "Erro ao decodificar JSON do quadro")
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	d, err := s.Registry.Dashboard(r.Context(), sess)
	if err != nil {
		writeError(w, err, "Erro ao buscar quadros")
		return
	}
	board, err := d.CreateBoard(r.Context(), input)
	if err != nil {
		writeError(w, err, "Erro ao criar quadro")
		return
	}
	writeJSON(w, http.StatusCreated, board)
}

// DeleteBoardHandler remove o quadro e, em segundo plano, todas as tarefas dele
func (s *Server) DeleteBoardHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	boardID := mux.Vars(r)["board_id"]
	utilities.LogDebug("Deletando quadro %s", boardID)

	if err := s.Registry.DeleteBoard(r.Context(), sess, boardID); err != nil {
		writeError(w, err, "Erro ao deletar quadro")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"message": "Quadro removido"})
}

// OpenBoardHandler cria o estado do quadro ao entrar na tela
func (s *Server) OpenBoardHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	boardID := mux.Vars(r)["board_id"]

	v, err := s.Registry.OpenBoard(r.Context(), sess, boardID)
	if err != nil {
		writeError(w, err, "Erro ao abrir quadro")
		return
	}
	writeJSON(w, http.StatusOK, boardResponse(v))
}

// CloseBoardHandler descarta o estado do quadro ao sair da tela
func (s *Server) CloseBoardHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	boardID := mux.Vars(r)["board_id"]

	if !s.Registry.CloseBoard(sess, boardID) {
		http.Error(w, kanban.ErrViewNotFound.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
