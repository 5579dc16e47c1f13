package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"quadro-kanban/models"
	"quadro-kanban/utilities"
)

// Op identifica uma chamada ao gateway (usado pelos hooks e contadores do Memory)
type Op string

const (
	OpListBoards  Op = "listBoards"
	OpGetBoard    Op = "getBoard"
	OpCreateBoard Op = "createBoard"
	OpDeleteBoard Op = "deleteBoard"
	OpListTasks   Op = "listTasks"
	OpCreateTask  Op = "createTask"
	OpUpdateTask  Op = "updateTask"
	OpDeleteTask  Op = "deleteTask"
)

type collection struct {
	docs  map[string]map[string]interface{}
	order []string
}

func newCollection() *collection {
	return &collection{docs: map[string]map[string]interface{}{}}
}

func (c *collection) put(id string, doc map[string]interface{}) {
	if _, ok := c.docs[id]; !ok {
		c.order = append(c.order, id)
	}
	c.docs[id] = doc
}

func (c *collection) remove(id string) {
	if _, ok := c.docs[id]; !ok {
		return
	}
	delete(c.docs, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Memory é um gateway em memória sem esquema: guarda os documentos como mapas
// e decodifica na leitura, igual ao Firestore. Serve para desenvolvimento local e testes.
type Memory struct {
	mu     sync.Mutex
	boards *collection
	tasks  *collection
	calls  map[Op]int

	// Hook, se definido, roda antes de cada operação. Um erro devolvido faz a operação falhar.
	Hook func(ctx context.Context, op Op, id string) error
}

func NewMemory() *Memory {
	return &Memory{
		boards: newCollection(),
		tasks:  newCollection(),
		calls:  map[Op]int{},
	}
}

// Calls devolve quantas vezes a operação foi chamada
func (m *Memory) Calls(op Op) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *Memory) enter(ctx context.Context, op Op, id string) error {
	m.mu.Lock()
	m.calls[op]++
	hook := m.Hook
	m.mu.Unlock()
	if hook != nil {
		if err := hook(ctx, op, id); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// PutRawTask grava um documento de tarefa sem validação, como faria outro cliente do banco
func (m *Memory) PutRawTask(id string, doc map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks.put(id, copyDoc(doc))
}

func copyDoc(doc map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}

func (m *Memory) ListBoards(ctx context.Context, ownerID string) ([]models.Board, error) {
	if err := m.enter(ctx, OpListBoards, ownerID); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	boards := []models.Board{}
	for _, id := range m.boards.order {
		doc := m.boards.docs[id]
		if doc[models.FieldOwnerID] != ownerID {
			continue
		}
		b, err := models.DecodeBoard(id, doc)
		if err != nil {
			utilities.LogError(err, "ListBoards: documento de quadro ignorado")
			continue
		}
		boards = append(boards, b)
	}
	return boards, nil
}

func (m *Memory) GetBoard(ctx context.Context, ownerID, boardID string) (models.Board, error) {
	if err := m.enter(ctx, OpGetBoard, boardID); err != nil {
		return models.Board{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.boardLocked(ownerID, boardID)
}

func (m *Memory) boardLocked(ownerID, boardID string) (models.Board, error) {
	doc, ok := m.boards.docs[boardID]
	if !ok {
		return models.Board{}, fmt.Errorf("quadro %s: %w", boardID, ErrNotFound)
	}
	b, err := models.DecodeBoard(boardID, doc)
	if err != nil {
		return models.Board{}, err
	}
	if err := CheckOwner(b.OwnerID, ownerID); err != nil {
		return models.Board{}, fmt.Errorf("quadro %s: %w", boardID, err)
	}
	return b, nil
}

func (m *Memory) CreateBoard(ctx context.Context, board models.Board) (models.Board, error) {
	if err := m.enter(ctx, OpCreateBoard, ""); err != nil {
		return models.Board{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	board.ID = uuid.NewString()
	m.boards.put(board.ID, board.Document())
	return board, nil
}

func (m *Memory) DeleteBoard(ctx context.Context, ownerID, boardID string) error {
	if err := m.enter(ctx, OpDeleteBoard, boardID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.boardLocked(ownerID, boardID); err != nil {
		return err
	}
	for _, id := range append([]string(nil), m.tasks.order...) {
		if m.tasks.docs[id][models.FieldBoardID] == boardID {
			m.tasks.remove(id)
		}
	}
	m.boards.remove(boardID)
	return nil
}

func (m *Memory) ListTasks(ctx context.Context, ownerID, boardID string) ([]models.Task, error) {
	if err := m.enter(ctx, OpListTasks, boardID); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tasks := []models.Task{}
	for _, id := range m.tasks.order {
		doc := m.tasks.docs[id]
		if doc[models.FieldBoardID] != boardID || doc[models.FieldOwnerID] != ownerID {
			continue
		}
		t, err := models.DecodeTask(id, doc)
		if err != nil {
			utilities.LogError(err, "ListTasks: documento de tarefa em quarentena")
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func (m *Memory) CreateTask(ctx context.Context, task models.Task) (models.Task, error) {
	if err := m.enter(ctx, OpCreateTask, ""); err != nil {
		return models.Task{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.boardLocked(task.OwnerID, task.BoardID); err != nil {
		return models.Task{}, err
	}
	task.ID = uuid.NewString()
	m.tasks.put(task.ID, task.Document())
	return task, nil
}

func (m *Memory) taskLocked(ownerID, boardID, taskID string) (models.Task, error) {
	doc, ok := m.tasks.docs[taskID]
	if !ok {
		return models.Task{}, fmt.Errorf("tarefa %s: %w", taskID, ErrNotFound)
	}
	t, err := models.DecodeTask(taskID, doc)
	if err != nil {
		return models.Task{}, err
	}
	if err := CheckOwner(t.OwnerID, ownerID); err != nil {
		return models.Task{}, fmt.Errorf("tarefa %s: %w", taskID, err)
	}
	if t.BoardID != boardID {
		return models.Task{}, fmt.Errorf("tarefa %s no quadro %s: %w", taskID, boardID, ErrNotFound)
	}
	return t, nil
}

func (m *Memory) UpdateTask(ctx context.Context, ownerID, boardID, taskID string, patch models.TaskPatch) error {
	if err := m.enter(ctx, OpUpdateTask, taskID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.taskLocked(ownerID, boardID, taskID); err != nil {
		return err
	}
	doc := copyDoc(m.tasks.docs[taskID])
	for k, v := range patch.Fields() {
		doc[k] = v
	}
	m.tasks.put(taskID, doc)
	return nil
}

func (m *Memory) DeleteTask(ctx context.Context, ownerID, boardID, taskID string) error {
	if err := m.enter(ctx, OpDeleteTask, taskID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.taskLocked(ownerID, boardID, taskID); err != nil {
		return err
	}
	m.tasks.remove(taskID)
	return nil
}
