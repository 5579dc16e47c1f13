package kanban

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"quadro-kanban/gateway"
	"quadro-kanban/models"
	"quadro-kanban/session"
	"quadro-kanban/utilities"
)

var (
	ErrBoardNotFound     = errors.New("quadro não encontrado")
	ErrBoardCreateFailed = errors.New("falha ao criar quadro")
)

// Dashboard guarda a lista de quadros do usuário
type Dashboard struct {
	gw   gateway.Gateway
	sess session.Session
	opts Options

	mu      sync.Mutex
	loading bool
	gen     uint64
	boards  []models.Board

	writes sync.WaitGroup
}

func newDashboard(gw gateway.Gateway, sess session.Session, opts Options) *Dashboard {
	return &Dashboard{gw: gw, sess: sess, opts: opts, loading: true}
}

func (d *Dashboard) Loading() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loading
}

func (d *Dashboard) Load(ctx context.Context) error {
	d.mu.Lock()
	d.loading = true
	d.mu.Unlock()

	boards, err := d.gw.ListBoards(ctx, d.sess.UserID)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.loading = false
	if err != nil {
		utilities.LogError(err, fmt.Sprintf("Erro ao buscar quadros do usuário %s", d.sess.UserID))
		return err
	}
	d.gen++
	d.boards = boards
	return nil
}

func (d *Dashboard) Boards() []models.Board {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]models.Board{}, d.boards...)
}

// Board procura um quadro já carregado
func (d *Dashboard) Board(id string) (models.Board, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, b := range d.boards {
		if b.ID == id {
			return b, true
		}
	}
	return models.Board{}, false
}

func (d *Dashboard) CreateBoard(ctx context.Context, in models.BoardInput) (models.Board, error) {
	if err := in.Validate(); err != nil {
		return models.Board{}, err
	}
	created, err := d.gw.CreateBoard(ctx, models.NewBoard(d.sess.UserID, in, d.opts.now()))
	if err != nil {
		utilities.LogError(err, "Erro ao criar quadro")
		return models.Board{}, fmt.Errorf("%w: %v", ErrBoardCreateFailed, err)
	}

	d.mu.Lock()
	d.boards = append(d.boards, created)
	d.mu.Unlock()
	utilities.LogInfo("Quadro %s criado pelo usuário %s", created.ID, d.sess.UserID)
	return created, nil
}

// DeleteBoard tira o quadro da lista na hora; a deleção em cascata roda em segundo plano
func (d *Dashboard) DeleteBoard(ctx context.Context, id string) error {
	d.mu.Lock()
	pos := -1
	for i, b := range d.boards {
		if b.ID == id {
			pos = i
			break
		}
	}
	if pos < 0 {
		d.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrBoardNotFound, id)
	}
	removed := d.boards[pos]
	d.boards = append(d.boards[:pos], d.boards[pos+1:]...)
	gen := d.gen
	d.mu.Unlock()

	rollback := d.opts.RollbackOnFailure
	d.writes.Add(1)
	go func() {
		defer d.writes.Done()
		wctx := context.WithoutCancel(ctx)
		if d.opts.WriteTimeout > 0 {
			var cancel context.CancelFunc
			wctx, cancel = context.WithTimeout(wctx, d.opts.WriteTimeout)
			defer cancel()
		}
		if err := d.gw.DeleteBoard(wctx, d.sess.UserID, id); err != nil {
			utilities.LogError(err, fmt.Sprintf("Erro ao deletar quadro %s", id))
			if rollback {
				d.restore(gen, pos, removed)
			}
		}
	}()
	return nil
}

func (d *Dashboard) restore(gen uint64, pos int, b models.Board) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.gen != gen {
		return
	}
	for _, existing := range d.boards {
		if existing.ID == b.ID {
			return
		}
	}
	if pos > len(d.boards) {
		pos = len(d.boards)
	}
	d.boards = append(d.boards, models.Board{})
	copy(d.boards[pos+1:], d.boards[pos:])
	d.boards[pos] = b
	utilities.LogInfo("Quadro %s restaurado após falha na deleção", b.ID)
}

func (d *Dashboard) Flush() {
	d.writes.Wait()
}
