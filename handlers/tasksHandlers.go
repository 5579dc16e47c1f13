package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"quadro-kanban/kanban"
	"quadro-kanban/models"
	"quadro-kanban/utilities"
)

// boardView devolve o quadro aberto da sessão, abrindo se ainda não estiver
func (s *Server) boardView(w http.ResponseWriter, r *http.Request) (*kanban.BoardView, bool) {
	sess, ok := currentSession(w, r)
	if !ok {
		return nil, false
	}
	boardID := mux.Vars(r)["board_id"]
	v, err := s.Registry.BoardOrOpen(r.Context(), sess, boardID)
	if err != nil {
		writeError(w, err, "Erro ao acessar quadro "+boardID)
		return nil, false
	}
	return v, true
}

// ListTasksHandler devolve as colunas do quadro
func (s *Server) ListTasksHandler(w http.ResponseWriter, r *http.Request) {
	v, ok := s.boardView(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, boardResponse(v))
}

// GetTaskHandler devolve uma tarefa do quadro
func (s *Server) GetTaskHandler(w http.ResponseWriter, r *http.Request) {
	v, ok := s.boardView(w, r)
	if !ok {
		return
	}
	taskID := mux.Vars(r)["task_id"]
	task, found := v.Task(taskID)
	if !found {
		http.Error(w, kanban.ErrTaskNotFound.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// RefreshTasksHandler busca tudo de novo no gateway
func (s *Server) RefreshTasksHandler(w http.ResponseWriter, r *http.Request) {
	v, ok := s.boardView(w, r)
	if !ok {
		return
	}
	if err := v.Refresh(r.Context()); err != nil {
		utilities.LogError(err, "Erro ao recarregar tarefas")
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, boardResponse(v))
}

// CreateTaskHandler cria uma tarefa no quadro. Status e prioridade vazios viram todo e medium.
func (s *Server) CreateTaskHandler(w http.ResponseWriter, r *http.Request) {
	v, ok := s.boardView(w, r)
	if !ok {
		return
	}

	var input models.TaskInput
	if err := decodeJSON(r, &input); err != nil {
		utilities.LogError(err, "Erro ao decodificar JSON da tarefa")
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	task, err := v.CreateTask(r.Context(), input)
	if err != nil {
		writeError(w, err, "Erro ao criar tarefa")
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// UpdateTaskHandler aplica um patch na tarefa. A resposta sai antes da escrita terminar.
func (s *Server) UpdateTaskHandler(w http.ResponseWriter, r *http.Request) {
	v, ok := s.boardView(w, r)
	if !ok {
		return
	}
	taskID := mux.Vars(r)["task_id"]

	var patch models.TaskPatch
	if err := decodeJSON(r, &patch); err != nil {
		utilities.LogError(err, "Erro ao decodificar JSON da atualização")
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if err := v.EditTask(r.Context(), taskID, patch); err != nil {
		writeError(w, err, "Erro ao atualizar tarefa "+taskID)
		return
	}
	task, _ := v.Task(taskID)
	writeJSON(w, http.StatusAccepted, task)
}

// DeleteTaskHandler tira a tarefa do quadro na hora e deleta em segundo plano
func (s *Server) DeleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	v, ok := s.boardView(w, r)
	if !ok {
		return
	}
	taskID := mux.Vars(r)["task_id"]

	if err := v.DeleteTask(r.Context(), taskID); err != nil {
		writeError(w, err, "Erro ao deletar tarefa "+taskID)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"message": "Tarefa removida"})
}
