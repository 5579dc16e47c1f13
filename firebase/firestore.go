package firebase

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"quadro-kanban/gateway"
	"quadro-kanban/models"
	"quadro-kanban/utilities"
)

const (
	boardsCollection = "boards"
	tasksCollection  = "tasks"
)

// FirestoreGateway implementa gateway.Gateway sobre as coleções "boards" e "tasks"
type FirestoreGateway struct {
	client *firestore.Client
}

func NewFirestoreGateway(client *firestore.Client) *FirestoreGateway {
	return &FirestoreGateway{client: client}
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func (g *FirestoreGateway) ListBoards(ctx context.Context, ownerID string) ([]models.Board, error) {
	iter := g.client.Collection(boardsCollection).Where(models.FieldOwnerID, "==", ownerID).Documents(ctx)
	defer iter.Stop()

	boards := []models.Board{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("erro ao buscar quadros do usuário %s: %w", ownerID, err)
		}
		b, err := models.DecodeBoard(doc.Ref.ID, doc.Data())
		if err != nil {
			// documento malformado não derruba a listagem
			utilities.LogError(err, fmt.Sprintf("ListBoards: quadro ignorado (Doc ID: %s)", doc.Ref.ID))
			continue
		}
		boards = append(boards, b)
	}
	return boards, nil
}

func (g *FirestoreGateway) GetBoard(ctx context.Context, ownerID, boardID string) (models.Board, error) {
	snap, err := g.client.Collection(boardsCollection).Doc(boardID).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return models.Board{}, fmt.Errorf("quadro %s: %w", boardID, gateway.ErrNotFound)
		}
		return models.Board{}, fmt.Errorf("erro ao buscar quadro %s: %w", boardID, err)
	}
	b, err := models.DecodeBoard(snap.Ref.ID, snap.Data())
	if err != nil {
		return models.Board{}, err
	}
	if err := gateway.CheckOwner(b.OwnerID, ownerID); err != nil {
		return models.Board{}, fmt.Errorf("quadro %s: %w", boardID, err)
	}
	return b, nil
}

func (g *FirestoreGateway) CreateBoard(ctx context.Context, board models.Board) (models.Board, error) {
	ref, _, err := g.client.Collection(boardsCollection).Add(ctx, board.Document())
	if err != nil {
		return models.Board{}, fmt.Errorf("erro ao criar quadro: %w", err)
	}
	board.ID = ref.ID
	return board, nil
}

// DeleteBoard deleta as tarefas do quadro em batches e depois o documento do quadro.
// O Firestore não apaga documentos relacionados sozinho.
func (g *FirestoreGateway) DeleteBoard(ctx context.Context, ownerID, boardID string) error {
	if _, err := g.GetBoard(ctx, ownerID, boardID); err != nil {
		return err
	}

	tasksQuery := g.client.Collection(tasksCollection).
		Where(models.FieldBoardID, "==", boardID).
		Where(models.FieldOwnerID, "==", ownerID)

	for {
		iter := tasksQuery.Limit(gateway.DeleteBatchSize).Documents(ctx)
		numDeleted := 0

		batch := g.client.Batch()
		for {
			doc, err := iter.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				iter.Stop()
				return fmt.Errorf("erro ao iterar tarefas para deleção no quadro %s: %w", boardID, err)
			}
			batch.Delete(doc.Ref)
			numDeleted++
		}
		iter.Stop()

		if numDeleted == 0 {
			break
		}

		if _, err := batch.Commit(ctx); err != nil {
			return fmt.Errorf("erro ao deletar batch de tarefas no quadro %s: %w", boardID, err)
		}
		utilities.LogDebug("Deletadas %d tarefas do quadro %s no Firestore", numDeleted, boardID)
	}

	if _, err := g.client.Collection(boardsCollection).Doc(boardID).Delete(ctx); err != nil {
		return fmt.Errorf("erro ao deletar documento do quadro %s do Firestore: %w", boardID, err)
	}
	return nil
}

func (g *FirestoreGateway) ListTasks(ctx context.Context, ownerID, boardID string) ([]models.Task, error) {
	iter := g.client.Collection(tasksCollection).
		Where(models.FieldBoardID, "==", boardID).
		Where(models.FieldOwnerID, "==", ownerID).
		Documents(ctx)
	defer iter.Stop()

	tasks := []models.Task{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("erro ao buscar tarefas do quadro %s: %w", boardID, err)
		}
		t, err := models.DecodeTask(doc.Ref.ID, doc.Data())
		if err != nil {
			utilities.LogError(err, fmt.Sprintf("ListTasks: tarefa em quarentena (Doc ID: %s, Path: %s)", doc.Ref.ID, doc.Ref.Path))
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func (g *FirestoreGateway) CreateTask(ctx context.Context, task models.Task) (models.Task, error) {
	if _, err := g.GetBoard(ctx, task.OwnerID, task.BoardID); err != nil {
		return models.Task{}, err
	}
	ref, _, err := g.client.Collection(tasksCollection).Add(ctx, task.Document())
	if err != nil {
		return models.Task{}, fmt.Errorf("erro ao criar tarefa no quadro %s: %w", task.BoardID, err)
	}
	task.ID = ref.ID
	return task, nil
}

// checkTask lê a tarefa dentro da transação e confere dono e quadro
func checkTask(tx *firestore.Transaction, ref *firestore.DocumentRef, ownerID, boardID string) error {
	snap, err := tx.Get(ref)
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("tarefa %s: %w", ref.ID, gateway.ErrNotFound)
		}
		return err
	}
	t, err := models.DecodeTask(ref.ID, snap.Data())
	if err != nil {
		return err
	}
	if err := gateway.CheckOwner(t.OwnerID, ownerID); err != nil {
		return fmt.Errorf("tarefa %s: %w", ref.ID, err)
	}
	if t.BoardID != boardID {
		return fmt.Errorf("tarefa %s no quadro %s: %w", ref.ID, boardID, gateway.ErrNotFound)
	}
	return nil
}

func (g *FirestoreGateway) UpdateTask(ctx context.Context, ownerID, boardID, taskID string, patch models.TaskPatch) error {
	fields := patch.Fields()
	if len(fields) == 0 {
		return nil
	}
	updates := make([]firestore.Update, 0, len(fields))
	for path, value := range fields {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}

	ref := g.client.Collection(tasksCollection).Doc(taskID)
	return g.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := checkTask(tx, ref, ownerID, boardID); err != nil {
			return err
		}
		return tx.Update(ref, updates)
	})
}

func (g *FirestoreGateway) DeleteTask(ctx context.Context, ownerID, boardID, taskID string) error {
	ref := g.client.Collection(tasksCollection).Doc(taskID)
	return g.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := checkTask(tx, ref, ownerID, boardID); err != nil {
			return err
		}
		return tx.Delete(ref)
	})
}

var _ gateway.Gateway = (*FirestoreGateway)(nil)
