package models

import (
	"strings"
	"time"
)

// Board é um quadro de tarefas de um único usuário
type Board struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	OwnerID     string    `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
}

type BoardInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (in *BoardInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return ErrNameRequired
	}
	in.Description = strings.TrimSpace(in.Description)
	return nil
}

func NewBoard(ownerID string, in BoardInput, now time.Time) Board {
	return Board{
		Name:        in.Name,
		Description: in.Description,
		OwnerID:     ownerID,
		CreatedAt:   now,
	}
}
