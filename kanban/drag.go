package kanban

import (
	"errors"
	"math"

	"quadro-kanban/models"
)

var (
	ErrGestureInProgress = errors.New("já existe um gesto em andamento")
	ErrNoGesture         = errors.New("nenhum gesto em andamento para este item")
)

// DefaultActivationDistance é a distância (px) que o ponteiro precisa ultrapassar para virar drag
const DefaultActivationDistance = 8

// Point é uma posição do ponteiro em pixels
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) distance(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// StatusChangeRequested é o único evento semântico emitido por um gesto completo
type StatusChangeRequested struct {
	ItemID     string        `json:"itemId"`
	FromStatus models.Status `json:"fromStatus"`
	ToStatus   models.Status `json:"toStatus"`
}

// StatusLookup informa a coluna atual de um item
type StatusLookup func(itemID string) (models.Status, bool)

type gestureState int

const (
	gestureIdle gestureState = iota
	gesturePressed
	gestureDragging
)

// DragEngine transforma movimentos do ponteiro em no máximo um StatusChangeRequested por gesto.
// Um gesto por vez; não é seguro para uso concorrente (o BoardView serializa as chamadas).
type DragEngine struct {
	threshold float64
	lookup    StatusLookup

	state  gestureState
	item   string
	origin Point
}

func NewDragEngine(threshold float64, lookup StatusLookup) *DragEngine {
	if threshold < 0 {
		threshold = 0
	}
	return &DragEngine{threshold: threshold, lookup: lookup}
}

// Active devolve o item sendo arrastado, se o gesto já passou do limiar
func (d *DragEngine) Active() (string, bool) {
	if d.state != gestureDragging {
		return "", false
	}
	return d.item, true
}

// PointerDown registra o ponteiro pressionado sobre um card. Ainda não é um drag.
func (d *DragEngine) PointerDown(itemID string, at Point) error {
	if d.state != gestureIdle {
		return ErrGestureInProgress
	}
	d.state = gesturePressed
	d.item = itemID
	d.origin = at
	return nil
}

// PointerMove ativa o drag quando a distância do ponto inicial ultrapassa o limiar
func (d *DragEngine) PointerMove(at Point) (bool, error) {
	switch d.state {
	case gestureIdle:
		return false, ErrNoGesture
	case gesturePressed:
		if d.origin.distance(at) > d.threshold {
			d.state = gestureDragging
		}
	}
	return d.state == gestureDragging, nil
}

// PointerUp encerra o gesto. Se o limiar não foi ultrapassado foi um clique e nada é emitido.
func (d *DragEngine) PointerUp(targetColumn string) (StatusChangeRequested, bool, error) {
	switch d.state {
	case gestureIdle:
		return StatusChangeRequested{}, false, ErrNoGesture
	case gesturePressed:
		d.reset()
		return StatusChangeRequested{}, false, nil
	}
	return d.EndDrag(d.item, targetColumn)
}

// BeginDrag inicia um drag já reconhecido pelo cliente, sem passar pelo limiar
func (d *DragEngine) BeginDrag(itemID string) error {
	if d.state != gestureIdle {
		return ErrGestureInProgress
	}
	d.state = gestureDragging
	d.item = itemID
	return nil
}

// EndDrag solta o item. Sem coluna (fora de qualquer alvo), coluna desconhecida, item sumido
// ou mesma coluna: o gesto é descartado sem evento.
func (d *DragEngine) EndDrag(itemID, targetColumn string) (StatusChangeRequested, bool, error) {
	if d.state != gestureDragging || d.item != itemID {
		return StatusChangeRequested{}, false, ErrNoGesture
	}
	d.reset()

	if targetColumn == "" {
		return StatusChangeRequested{}, false, nil
	}
	to, err := models.ParseStatus(targetColumn)
	if err != nil {
		return StatusChangeRequested{}, false, nil
	}
	from, ok := d.lookup(itemID)
	if !ok || from == to {
		return StatusChangeRequested{}, false, nil
	}
	return StatusChangeRequested{ItemID: itemID, FromStatus: from, ToStatus: to}, true, nil
}

// Cancel descarta o gesto atual
func (d *DragEngine) Cancel() {
	d.reset()
}

func (d *DragEngine) reset() {
	d.state = gestureIdle
	d.item = ""
	d.origin = Point{}
}
