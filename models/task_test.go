package models

import (
	"errors"
	"testing"
	"time"
)

func TestTaskInputValidateDefaults(t *testing.T) {
	in := TaskInput{Title: "  Revisar PR  "}
	if err := in.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if in.Title != "Revisar PR" || in.Status != StatusTodo || in.Priority != PriorityMedium {
		t.Fatalf("unexpected normalized input: %+v", in)
	}
}

func TestTaskInputValidateErrors(t *testing.T) {
	in := TaskInput{Title: " "}
	if err := in.Validate(); !errors.Is(err, ErrTitleRequired) {
		t.Fatalf("expected ErrTitleRequired, got %v", err)
	}
	in = TaskInput{Title: "x", Status: "pending"}
	if err := in.Validate(); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	in = TaskInput{Title: "x", Priority: "urgent"}
	if err := in.Validate(); !errors.Is(err, ErrInvalidPriority) {
		t.Fatalf("expected ErrInvalidPriority, got %v", err)
	}
}

func TestApplyKeepsIdentity(t *testing.T) {
	due := time.Now().Add(24 * time.Hour)
	task := Task{ID: "t1", BoardID: "b1", OwnerID: "u1", Title: "a", Status: StatusTodo, Priority: PriorityLow, DueDate: &due}
	title := "b"
	got := task.Apply(TaskPatch{Title: &title, ClearDueDate: true})
	if got.ID != "t1" || got.BoardID != "b1" || got.OwnerID != "u1" {
		t.Fatalf("identity changed: %+v", got)
	}
	if got.Title != "b" || got.DueDate != nil {
		t.Fatalf("patch not applied: %+v", got)
	}
	if task.DueDate == nil {
		t.Fatalf("original task mutated")
	}
}

func TestNormalizeTrimsTitleForApplyAndFields(t *testing.T) {
	title := "  novo  "
	p := TaskPatch{Title: &title}
	p.Normalize()
	if title != "  novo  " {
		t.Fatalf("normalize must not write through the caller's string")
	}
	if got := (Task{Title: "velho"}).Apply(p).Title; got != "novo" {
		t.Fatalf("apply saw %q", got)
	}
	if got := p.Fields()[FieldTitle]; got != "novo" {
		t.Fatalf("fields saw %q", got)
	}

	var empty TaskPatch
	empty.Normalize()
	if !empty.Empty() {
		t.Fatalf("normalize should not add fields: %+v", empty)
	}
}

func TestPatchFromInputClearsMissingDueDate(t *testing.T) {
	p := PatchFromInput(TaskInput{Title: "x", Status: StatusDone, Priority: PriorityHigh})
	if !p.ClearDueDate || p.Status == nil || *p.Status != StatusDone {
		t.Fatalf("unexpected patch: %+v", p)
	}
}

func TestOverdue(t *testing.T) {
	now := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	if !(Task{DueDate: &past}).Overdue(now) {
		t.Fatalf("expected overdue")
	}
	if (Task{}).Overdue(now) {
		t.Fatalf("task without due date is never overdue")
	}
}
