// Package gateway define o contrato de persistência dos quadros e tarefas.
// Toda leitura filtra pelo dono e toda operação por ID confere o dono do documento
// guardado antes de escrever.
package gateway

import (
	"context"
	"errors"

	"quadro-kanban/models"
)

var (
	ErrNotFound  = errors.New("documento não encontrado")
	ErrForbidden = errors.New("documento pertence a outro usuário")
)

// DeleteBatchSize é o limite de operações por batch de deleção em cascata
const DeleteBatchSize = 500

type Gateway interface {
	ListBoards(ctx context.Context, ownerID string) ([]models.Board, error)
	GetBoard(ctx context.Context, ownerID, boardID string) (models.Board, error)
	CreateBoard(ctx context.Context, board models.Board) (models.Board, error)
	// DeleteBoard remove o quadro e todas as tarefas dele
	DeleteBoard(ctx context.Context, ownerID, boardID string) error

	ListTasks(ctx context.Context, ownerID, boardID string) ([]models.Task, error)
	CreateTask(ctx context.Context, task models.Task) (models.Task, error)
	UpdateTask(ctx context.Context, ownerID, boardID, taskID string, patch models.TaskPatch) error
	DeleteTask(ctx context.Context, ownerID, boardID, taskID string) error
}

// CheckOwner compara o dono gravado no documento com o usuário da sessão
func CheckOwner(storedOwner, ownerID string) error {
	if storedOwner != ownerID {
		return ErrForbidden
	}
	return nil
}
