package models

import (
	"errors"
	"fmt"
	"time"
)

// Nomes dos campos nos documentos. São os mesmos que o frontend já gravava no Firestore.
const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldOwnerID     = "userId"
	FieldCreatedAt   = "createdAt"
	FieldBoardID     = "boardId"
	FieldTitle       = "title"
	FieldStatus      = "status"
	FieldPriority    = "priority"
	FieldDueDate     = "dueDate"
)

// ErrMalformedRecord indica um documento que não pode virar entidade tipada
var ErrMalformedRecord = errors.New("documento malformado")

func malformed(id, field, reason string) error {
	return fmt.Errorf("%w: doc %s, campo %q: %s", ErrMalformedRecord, id, field, reason)
}

func requiredString(id string, data map[string]interface{}, field string) (string, error) {
	raw, ok := data[field]
	if !ok || raw == nil {
		return "", malformed(id, field, "ausente")
	}
	s, ok := raw.(string)
	if !ok {
		return "", malformed(id, field, fmt.Sprintf("tipo %T", raw))
	}
	return s, nil
}

func optionalString(id string, data map[string]interface{}, field string) (string, error) {
	raw, ok := data[field]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", malformed(id, field, fmt.Sprintf("tipo %T", raw))
	}
	return s, nil
}

func optionalTime(id string, data map[string]interface{}, field string) (*time.Time, error) {
	raw, ok := data[field]
	if !ok || raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case time.Time:
		return &v, nil
	case *time.Time:
		if v == nil {
			return nil, nil
		}
		t := *v
		return &t, nil
	}
	return nil, malformed(id, field, fmt.Sprintf("tipo %T", raw))
}

func createdAt(id string, data map[string]interface{}, now func() time.Time) (time.Time, error) {
	t, err := optionalTime(id, data, FieldCreatedAt)
	if err != nil {
		return time.Time{}, err
	}
	// documentos antigos sem createdAt usam o horário da leitura
	if t == nil {
		return now(), nil
	}
	return *t, nil
}

// DecodeBoard converte os dados de um documento de quadro
func DecodeBoard(id string, data map[string]interface{}) (Board, error) {
	if id == "" {
		return Board{}, malformed(id, "id", "vazio")
	}
	name, err := requiredString(id, data, FieldName)
	if err != nil {
		return Board{}, err
	}
	owner, err := requiredString(id, data, FieldOwnerID)
	if err != nil {
		return Board{}, err
	}
	if owner == "" {
		return Board{}, malformed(id, FieldOwnerID, "vazio")
	}
	desc, err := optionalString(id, data, FieldDescription)
	if err != nil {
		return Board{}, err
	}
	created, err := createdAt(id, data, time.Now)
	if err != nil {
		return Board{}, err
	}
	return Board{ID: id, Name: name, Description: desc, OwnerID: owner, CreatedAt: created}, nil
}

// DecodeTask converte os dados de um documento de tarefa
func DecodeTask(id string, data map[string]interface{}) (Task, error) {
	if id == "" {
		return Task{}, malformed(id, "id", "vazio")
	}
	boardID, err := requiredString(id, data, FieldBoardID)
	if err != nil {
		return Task{}, err
	}
	owner, err := requiredString(id, data, FieldOwnerID)
	if err != nil {
		return Task{}, err
	}
	if boardID == "" || owner == "" {
		return Task{}, malformed(id, FieldBoardID+"/"+FieldOwnerID, "vazio")
	}
	title, err := requiredString(id, data, FieldTitle)
	if err != nil {
		return Task{}, err
	}
	desc, err := optionalString(id, data, FieldDescription)
	if err != nil {
		return Task{}, err
	}
	rawStatus, err := requiredString(id, data, FieldStatus)
	if err != nil {
		return Task{}, err
	}
	status, err := ParseStatus(rawStatus)
	if err != nil {
		return Task{}, malformed(id, FieldStatus, err.Error())
	}
	rawPriority, err := requiredString(id, data, FieldPriority)
	if err != nil {
		return Task{}, err
	}
	priority, err := ParsePriority(rawPriority)
	if err != nil {
		return Task{}, malformed(id, FieldPriority, err.Error())
	}
	due, err := optionalTime(id, data, FieldDueDate)
	if err != nil {
		return Task{}, err
	}
	created, err := createdAt(id, data, time.Now)
	if err != nil {
		return Task{}, err
	}
	return Task{
		ID:          id,
		BoardID:     boardID,
		OwnerID:     owner,
		Title:       title,
		Description: desc,
		Status:      status,
		Priority:    priority,
		DueDate:     due,
		CreatedAt:   created,
	}, nil
}

// Document devolve os campos gravados no documento do quadro (sem o ID)
func (b Board) Document() map[string]interface{} {
	return map[string]interface{}{
		FieldName:        b.Name,
		FieldDescription: b.Description,
		FieldOwnerID:     b.OwnerID,
		FieldCreatedAt:   b.CreatedAt,
	}
}

func (t Task) Document() map[string]interface{} {
	doc := map[string]interface{}{
		FieldBoardID:     t.BoardID,
		FieldOwnerID:     t.OwnerID,
		FieldTitle:       t.Title,
		FieldDescription: t.Description,
		FieldStatus:      string(t.Status),
		FieldPriority:    string(t.Priority),
		FieldCreatedAt:   t.CreatedAt,
		FieldDueDate:     nil,
	}
	if t.DueDate != nil {
		doc[FieldDueDate] = *t.DueDate
	}
	return doc
}

// Fields devolve somente os campos alterados pelo patch. dueDate limpo vira nil, como no frontend original.
func (p TaskPatch) Fields() map[string]interface{} {
	fields := map[string]interface{}{}
	if p.Title != nil {
		fields[FieldTitle] = *p.Title
	}
	if p.Description != nil {
		fields[FieldDescription] = *p.Description
	}
	if p.Status != nil {
		fields[FieldStatus] = string(*p.Status)
	}
	if p.Priority != nil {
		fields[FieldPriority] = string(*p.Priority)
	}
	if p.ClearDueDate {
		fields[FieldDueDate] = nil
	} else if p.DueDate != nil {
		fields[FieldDueDate] = *p.DueDate
	}
	return fields
}
