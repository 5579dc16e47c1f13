package models

import (
	"errors"
	"testing"
	"time"
)

func validTaskDoc() map[string]interface{} {
	return map[string]interface{}{
		FieldBoardID:   "b1",
		FieldOwnerID:   "u1",
		FieldTitle:     "Escrever testes",
		FieldStatus:    "in-progress",
		FieldPriority:  "high",
		FieldCreatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestDecodeTaskValid(t *testing.T) {
	due := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	doc := validTaskDoc()
	doc[FieldDueDate] = due
	doc[FieldDescription] = "cobrir o decode"

	task, err := DecodeTask("t1", doc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if task.ID != "t1" || task.BoardID != "b1" || task.OwnerID != "u1" {
		t.Fatalf("unexpected identity fields: %+v", task)
	}
	if task.Status != StatusInProgress || task.Priority != PriorityHigh {
		t.Fatalf("unexpected enums: %s %s", task.Status, task.Priority)
	}
	if task.DueDate == nil || !task.DueDate.Equal(due) {
		t.Fatalf("unexpected due date: %v", task.DueDate)
	}
	if task.Description != "cobrir o decode" {
		t.Fatalf("unexpected description: %q", task.Description)
	}
}

func TestDecodeTaskMissingCreatedAtDefaultsToNow(t *testing.T) {
	doc := validTaskDoc()
	delete(doc, FieldCreatedAt)
	before := time.Now()
	task, err := DecodeTask("t1", doc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if task.CreatedAt.Before(before) {
		t.Fatalf("expected createdAt defaulted to now, got %v", task.CreatedAt)
	}
}

func TestDecodeTaskRejectsMalformed(t *testing.T) {
	cases := map[string]func(map[string]interface{}){
		"missing board":  func(d map[string]interface{}) { delete(d, FieldBoardID) },
		"empty owner":    func(d map[string]interface{}) { d[FieldOwnerID] = "" },
		"bad status":     func(d map[string]interface{}) { d[FieldStatus] = "blocked" },
		"status type":    func(d map[string]interface{}) { d[FieldStatus] = 3 },
		"bad priority":   func(d map[string]interface{}) { d[FieldPriority] = "urgent" },
		"title type":     func(d map[string]interface{}) { d[FieldTitle] = []string{"x"} },
		"due date type":  func(d map[string]interface{}) { d[FieldDueDate] = "amanhã" },
		"created type":   func(d map[string]interface{}) { d[FieldCreatedAt] = int64(1) },
		"missing status": func(d map[string]interface{}) { delete(d, FieldStatus) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			doc := validTaskDoc()
			mutate(doc)
			if _, err := DecodeTask("t1", doc); !errors.Is(err, ErrMalformedRecord) {
				t.Fatalf("expected ErrMalformedRecord, got %v", err)
			}
		})
	}
}

func TestDecodeBoard(t *testing.T) {
	b, err := DecodeBoard("b1", map[string]interface{}{
		FieldName:    "Alpha",
		FieldOwnerID: "u1",
	})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b.Name != "Alpha" || b.OwnerID != "u1" || b.Description != "" {
		t.Fatalf("unexpected board: %+v", b)
	}

	if _, err := DecodeBoard("b2", map[string]interface{}{FieldName: "Beta"}); !errors.Is(err, ErrMalformedRecord) {
		t.Fatalf("expected malformed without owner, got %v", err)
	}
}

func TestTaskDocumentRoundTripThroughDecode(t *testing.T) {
	due := time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC)
	task := Task{
		ID: "t9", BoardID: "b1", OwnerID: "u1", Title: "Deploy",
		Status: StatusDone, Priority: PriorityLow, DueDate: &due,
		CreatedAt: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
	}
	got, err := DecodeTask(task.ID, task.Document())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Title != task.Title || got.Status != task.Status || !got.DueDate.Equal(due) || !got.CreatedAt.Equal(task.CreatedAt) {
		t.Fatalf("document did not decode back: %+v", got)
	}
}

func TestPatchFieldsClearDueDate(t *testing.T) {
	fields := TaskPatch{ClearDueDate: true}.Fields()
	v, ok := fields[FieldDueDate]
	if !ok || v != nil {
		t.Fatalf("expected dueDate=nil in fields, got %v (present=%v)", v, ok)
	}
	if len(StatusPatch(StatusDone).Fields()) != 1 {
		t.Fatalf("status patch must touch a single field")
	}
}
