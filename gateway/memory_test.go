package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"quadro-kanban/models"
)

func seedBoard(t *testing.T, m *Memory, owner, name string) models.Board {
	t.Helper()
	b, err := m.CreateBoard(context.Background(), models.NewBoard(owner, models.BoardInput{Name: name}, time.Now()))
	if err != nil {
		t.Fatalf("create board: %v", err)
	}
	return b
}

func seedTask(t *testing.T, m *Memory, owner, boardID, title string) models.Task {
	t.Helper()
	in := models.TaskInput{Title: title}
	if err := in.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	task, err := m.CreateTask(context.Background(), models.NewTask(owner, boardID, in, time.Now()))
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task
}

func TestMemoryTasksScopedByBoard(t *testing.T) {
	m := NewMemory()
	alpha := seedBoard(t, m, "u1", "Alpha")
	beta := seedBoard(t, m, "u1", "Beta")
	seedTask(t, m, "u1", beta.ID, "só no beta")

	tasks, err := m.ListTasks(context.Background(), "u1", alpha.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("expected no tasks in Alpha, got %+v", tasks)
	}
	tasks, _ = m.ListTasks(context.Background(), "u1", beta.ID)
	if len(tasks) != 1 {
		t.Fatalf("expected one task in Beta, got %d", len(tasks))
	}
}

func TestMemoryEnforcesOwnership(t *testing.T) {
	m := NewMemory()
	b := seedBoard(t, m, "u1", "Alpha")
	task := seedTask(t, m, "u1", b.ID, "privada")
	ctx := context.Background()

	if _, err := m.GetBoard(ctx, "intruso", b.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden on GetBoard, got %v", err)
	}
	done := models.StatusDone
	if err := m.UpdateTask(ctx, "intruso", b.ID, task.ID, models.TaskPatch{Status: &done}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden on UpdateTask, got %v", err)
	}
	if err := m.DeleteTask(ctx, "intruso", b.ID, task.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden on DeleteTask, got %v", err)
	}
	if _, err := m.CreateTask(ctx, models.Task{OwnerID: "intruso", BoardID: b.ID, Title: "x", Status: models.StatusTodo, Priority: models.PriorityLow}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden on CreateTask, got %v", err)
	}
	if err := m.UpdateTask(ctx, "u1", "outro-quadro", task.ID, models.TaskPatch{Status: &done}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for wrong board, got %v", err)
	}
	if tasks, _ := m.ListTasks(ctx, "intruso", b.ID); len(tasks) != 0 {
		t.Fatalf("foreign owner must not list tasks")
	}
}

func TestMemoryUpdatePatchesFields(t *testing.T) {
	m := NewMemory()
	b := seedBoard(t, m, "u1", "Alpha")
	task := seedTask(t, m, "u1", b.ID, "mover")
	done := models.StatusDone
	if err := m.UpdateTask(context.Background(), "u1", b.ID, task.ID, models.TaskPatch{Status: &done}); err != nil {
		t.Fatalf("update: %v", err)
	}
	tasks, _ := m.ListTasks(context.Background(), "u1", b.ID)
	if len(tasks) != 1 || tasks[0].Status != models.StatusDone || tasks[0].Title != "mover" {
		t.Fatalf("unexpected tasks after update: %+v", tasks)
	}
}

func TestMemoryDeleteBoardCascades(t *testing.T) {
	m := NewMemory()
	b := seedBoard(t, m, "u1", "Alpha")
	other := seedBoard(t, m, "u1", "Beta")
	seedTask(t, m, "u1", b.ID, "a")
	seedTask(t, m, "u1", b.ID, "b")
	keep := seedTask(t, m, "u1", other.ID, "c")

	if err := m.DeleteBoard(context.Background(), "u1", b.ID); err != nil {
		t.Fatalf("delete board: %v", err)
	}
	if _, err := m.GetBoard(context.Background(), "u1", b.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected board gone, got %v", err)
	}
	tasks, _ := m.ListTasks(context.Background(), "u1", other.ID)
	if len(tasks) != 1 || tasks[0].ID != keep.ID {
		t.Fatalf("cascade removed unrelated tasks: %+v", tasks)
	}
	if len(m.tasks.docs) != 1 {
		t.Fatalf("expected only one stored task, got %d", len(m.tasks.docs))
	}
}

func TestMemoryQuarantinesMalformedTasks(t *testing.T) {
	m := NewMemory()
	b := seedBoard(t, m, "u1", "Alpha")
	seedTask(t, m, "u1", b.ID, "boa")
	m.PutRawTask("ruim", map[string]interface{}{
		models.FieldBoardID:  b.ID,
		models.FieldOwnerID:  "u1",
		models.FieldTitle:    "sem status válido",
		models.FieldStatus:   "blocked",
		models.FieldPriority: "low",
	})
	tasks, err := m.ListTasks(context.Background(), "u1", b.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "boa" {
		t.Fatalf("malformed record leaked: %+v", tasks)
	}
}

func TestMemoryHookFailsOperation(t *testing.T) {
	m := NewMemory()
	boom := errors.New("indisponível")
	m.Hook = func(_ context.Context, op Op, _ string) error {
		if op == OpListBoards {
			return boom
		}
		return nil
	}
	if _, err := m.ListBoards(context.Background(), "u1"); !errors.Is(err, boom) {
		t.Fatalf("expected hook error, got %v", err)
	}
	if m.Calls(OpListBoards) != 1 {
		t.Fatalf("expected call counted")
	}
}
