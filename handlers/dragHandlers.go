package handlers

import (
	"net/http"

	"quadro-kanban/kanban"
	"quadro-kanban/utilities"
)

type dragStartInput struct {
	ItemID string        `json:"itemId"`
	Point  *kanban.Point `json:"point"`
}

type dragEndInput struct {
	ItemID string `json:"itemId"`
	// Column vazio significa que o item foi solto fora de qualquer coluna
	Column string `json:"column"`
}

// DragStartHandler começa um gesto. Com point o drag só ativa depois do limiar;
// sem point o cliente já reconheceu o drag.
func (s *Server) DragStartHandler(w http.ResponseWriter, r *http.Request) {
	v, ok := s.boardView(w, r)
	if !ok {
		return
	}
	var input dragStartInput
	if err := decodeJSON(r, &input); err != nil || input.ItemID == "" {
		http.Error(w, "itemId é obrigatório", http.StatusBadRequest)
		return
	}

	var err error
	if input.Point != nil {
		err = v.PointerDown(input.ItemID, *input.Point)
	} else {
		err = v.BeginDrag(input.ItemID)
	}
	if err != nil {
		writeError(w, err, "Erro ao iniciar drag")
		return
	}
	_, dragging := v.ActiveDrag()
	writeJSON(w, http.StatusOK, map[string]interface{}{"itemId": input.ItemID, "dragging": dragging})
}

// DragMoveHandler informa a posição atual do ponteiro
func (s *Server) DragMoveHandler(w http.ResponseWriter, r *http.Request) {
	v, ok := s.boardView(w, r)
	if !ok {
		return
	}
	var at kanban.Point
	if err := decodeJSON(r, &at); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	dragging, err := v.PointerMove(at)
	if err != nil {
		writeError(w, err, "Erro ao mover drag")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"dragging": dragging})
}

// DragEndHandler solta o item. 202 quando a mudança de status foi aplicada.
func (s *Server) DragEndHandler(w http.ResponseWriter, r *http.Request) {
	v, ok := s.boardView(w, r)
	if !ok {
		return
	}
	var input dragEndInput
	if err := decodeJSON(r, &input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	var (
		res kanban.DragResult
		err error
	)
	if input.ItemID == "" {
		res, err = v.PointerUp(r.Context(), input.Column)
	} else {
		res, err = v.EndDrag(r.Context(), input.ItemID, input.Column)
	}
	if err != nil {
		writeError(w, err, "Erro ao finalizar drag")
		return
	}

	status := http.StatusOK
	if res.Applied {
		status = http.StatusAccepted
		utilities.LogDebug("Tarefa %s movida de %s para %s", res.Event.ItemID, res.Event.FromStatus, res.Event.ToStatus)
	}
	writeJSON(w, status, res)
}

// DragCancelHandler descarta o gesto atual
func (s *Server) DragCancelHandler(w http.ResponseWriter, r *http.Request) {
	v, ok := s.boardView(w, r)
	if !ok {
		return
	}
	v.CancelDrag()
	w.WriteHeader(http.StatusNoContent)
}
