package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status define a coluna do quadro em que a tarefa aparece
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

// Statuses lista as colunas na ordem de exibição
var Statuses = []Status{StatusTodo, StatusInProgress, StatusDone}

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// ParseStatus valida um status vindo de fora (rota, JSON, documento)
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return s, nil
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

func ParsePriority(raw string) (Priority, error) {
	p := Priority(raw)
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPriority, raw)
	}
	return p, nil
}

var (
	ErrInvalidStatus   = errors.New("status inválido")
	ErrInvalidPriority = errors.New("prioridade inválida")
	ErrTitleRequired   = errors.New("título é obrigatório")
	ErrNameRequired    = errors.New("nome do quadro é obrigatório")
)

type Task struct {
	ID          string     `json:"id"`
	BoardID     string     `json:"boardId"`
	OwnerID     string     `json:"userId"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Overdue indica se a data de entrega já passou
func (t Task) Overdue(now time.Time) bool {
	return t.DueDate != nil && now.After(*t.DueDate)
}

// TaskInput é o payload de criação e de edição completa vindo do modal
type TaskInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
}

// Validate normaliza o título e aplica os valores padrão do modal (todo / medium)
func (in *TaskInput) Validate() error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return ErrTitleRequired
	}
	if in.Status == "" {
		in.Status = StatusTodo
	}
	if !in.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, in.Status)
	}
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	if !in.Priority.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, in.Priority)
	}
	return nil
}

// NewTask monta a tarefa que será enviada ao gateway; o ID ainda não existe
func NewTask(ownerID, boardID string, in TaskInput, now time.Time) Task {
	return Task{
		BoardID:     boardID,
		OwnerID:     ownerID,
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		CreatedAt:   now,
	}
}

// TaskPatch é uma atualização parcial. Campos nil não mudam.
type TaskPatch struct {
	Title        *string    `json:"title,omitempty"`
	Description  *string    `json:"description,omitempty"`
	Status       *Status    `json:"status,omitempty"`
	Priority     *Priority  `json:"priority,omitempty"`
	DueDate      *time.Time `json:"dueDate,omitempty"`
	ClearDueDate bool       `json:"clearDueDate,omitempty"`
}

// PatchFromInput converte uma edição completa (como o modal envia) em patch
func PatchFromInput(in TaskInput) TaskPatch {
	p := TaskPatch{
		Title:       &in.Title,
		Description: &in.Description,
		Status:      &in.Status,
		Priority:    &in.Priority,
	}
	if in.DueDate != nil {
		p.DueDate = in.DueDate
	} else {
		p.ClearDueDate = true
	}
	return p
}

// StatusPatch é o patch de um único campo emitido por um drag
func StatusPatch(s Status) TaskPatch {
	return TaskPatch{Status: &s}
}

func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil &&
		p.Priority == nil && p.DueDate == nil && !p.ClearDueDate
}

// Normalize limpa os campos de texto uma vez, antes do patch ser aplicado e gravado
func (p *TaskPatch) Normalize() {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		p.Title = &title
	}
}

func (p TaskPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return ErrTitleRequired
	}
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, *p.Status)
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, *p.Priority)
	}
	return nil
}

// Apply devolve uma cópia da tarefa com o patch aplicado. ID, BoardID, OwnerID e CreatedAt não mudam.
func (t Task) Apply(p TaskPatch) Task {
	out := t
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.Priority != nil {
		out.Priority = *p.Priority
	}
	if p.ClearDueDate {
		out.DueDate = nil
	} else if p.DueDate != nil {
		d := *p.DueDate
		out.DueDate = &d
	}
	return out
}
