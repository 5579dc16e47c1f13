package kanban

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quadro-kanban/gateway"
	"quadro-kanban/session"
	"quadro-kanban/utilities"
)

var ErrViewNotFound = errors.New("quadro não está aberto nesta sessão")

type viewKey struct {
	userID  string
	boardID string
}

// Registry mantém as visualizações abertas por sessão. Um quadro aberto por Alpha
// nunca é visto por Beta: a chave inclui o usuário.
type Registry struct {
	gw      gateway.Gateway
	opts    Options
	idleTTL time.Duration

	mu         sync.Mutex
	boards     map[viewKey]*BoardView
	dashboards map[string]*Dashboard
	closed     bool
	opening    singleflight.Group

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewRegistry cria o registro. Com idleTTL > 0 um janitor fecha quadros parados.
func NewRegistry(gw gateway.Gateway, opts Options, idleTTL time.Duration) *Registry {
	r := &Registry{
		gw:         gw,
		opts:       opts,
		idleTTL:    idleTTL,
		boards:     map[viewKey]*BoardView{},
		dashboards: map[string]*Dashboard{},
		stop:       make(chan struct{}),
	}
	if idleTTL > 0 {
		r.wg.Add(1)
		go r.janitor()
	}
	return r
}

func (r *Registry) janitor() {
	defer r.wg.Done()
	interval := r.idleTTL / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			if n := r.Sweep(r.opts.now()); n > 0 {
				utilities.LogDebug("Janitor fechou %d quadros parados", n)
			}
		}
	}
}

// Sweep fecha os quadros sem uso há mais de idleTTL
func (r *Registry) Sweep(now time.Time) int {
	if r.idleTTL <= 0 {
		return 0
	}
	r.mu.Lock()
	var stale []*BoardView
	for k, v := range r.boards {
		if now.Sub(v.idleSince()) > r.idleTTL {
			stale = append(stale, v)
			delete(r.boards, k)
		}
	}
	r.mu.Unlock()

	for _, v := range stale {
		v.Close()
	}
	return len(stale)
}

// OpenBoard confere se o quadro é do usuário, cria uma visualização nova e carrega as tarefas.
// Uma visualização anterior do mesmo quadro na mesma sessão é descartada.
func (r *Registry) OpenBoard(ctx context.Context, sess session.Session, boardID string) (*BoardView, error) {
	board, err := r.gw.GetBoard(ctx, sess.UserID, boardID)
	if err != nil {
		return nil, err
	}

	v := newBoardView(r.gw, sess, board, r.opts)
	if err := v.Load(ctx); err != nil {
		utilities.LogError(err, fmt.Sprintf("Quadro %s aberto sem tarefas", boardID))
	}

	key := viewKey{userID: sess.UserID, boardID: boardID}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		v.Close()
		return nil, ErrViewClosed
	}
	old := r.boards[key]
	r.boards[key] = v
	r.mu.Unlock()

	if old != nil {
		old.Close()
	}
	utilities.LogDebug("Quadro %s aberto para o usuário %s", boardID, sess.UserID)
	return v, nil
}

// Board devolve a visualização aberta do quadro, ou ErrViewNotFound
func (r *Registry) Board(sess session.Session, boardID string) (*BoardView, error) {
	r.mu.Lock()
	v, ok := r.boards[viewKey{userID: sess.UserID, boardID: boardID}]
	r.mu.Unlock()
	if !ok {
		return nil, ErrViewNotFound
	}
	v.touch()
	return v, nil
}

// BoardOrOpen devolve a visualização aberta ou abre uma nova.
// Chamadas simultâneas para o mesmo quadro e usuário compartilham uma única abertura.
func (r *Registry) BoardOrOpen(ctx context.Context, sess session.Session, boardID string) (*BoardView, error) {
	if v, err := r.Board(sess, boardID); err == nil {
		return v, nil
	}
	res, err, _ := r.opening.Do(sess.UserID+"/"+boardID, func() (interface{}, error) {
		if v, err := r.Board(sess, boardID); err == nil {
			return v, nil
		}
		return r.OpenBoard(ctx, sess, boardID)
	})
	if err != nil {
		return nil, err
	}
	return res.(*BoardView), nil
}

// CloseBoard descarta o estado do quadro ao sair da tela
func (r *Registry) CloseBoard(sess session.Session, boardID string) bool {
	key := viewKey{userID: sess.UserID, boardID: boardID}
	r.mu.Lock()
	v, ok := r.boards[key]
	delete(r.boards, key)
	r.mu.Unlock()
	if ok {
		v.Close()
	}
	return ok
}

// Dashboard devolve a lista de quadros da sessão, carregando na primeira vez
func (r *Registry) Dashboard(ctx context.Context, sess session.Session) (*Dashboard, error) {
	r.mu.Lock()
	d, ok := r.dashboards[sess.UserID]
	r.mu.Unlock()
	if ok {
		return d, nil
	}

	d = newDashboard(r.gw, sess, r.opts)
	if err := d.Load(ctx); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.dashboards[sess.UserID]; ok {
		return existing, nil
	}
	r.dashboards[sess.UserID] = d
	return d, nil
}

// ReloadDashboard devolve a lista de quadros recarregada do gateway.
// Uma lista criada agora já vem carregada e não é buscada de novo.
func (r *Registry) ReloadDashboard(ctx context.Context, sess session.Session) (*Dashboard, error) {
	r.mu.Lock()
	d, ok := r.dashboards[sess.UserID]
	r.mu.Unlock()
	if !ok {
		return r.Dashboard(ctx, sess)
	}
	if err := d.Load(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// DeleteBoard tira o quadro da lista e fecha a visualização dele, se aberta
func (r *Registry) DeleteBoard(ctx context.Context, sess session.Session, boardID string) error {
	d, err := r.Dashboard(ctx, sess)
	if err != nil {
		return err
	}
	if err := d.DeleteBoard(ctx, boardID); err != nil {
		return err
	}
	r.CloseBoard(sess, boardID)
	return nil
}

// Logout descarta tudo que pertence ao usuário
func (r *Registry) Logout(userID string) {
	r.mu.Lock()
	var views []*BoardView
	for k, v := range r.boards {
		if k.userID == userID {
			views = append(views, v)
			delete(r.boards, k)
		}
	}
	d := r.dashboards[userID]
	delete(r.dashboards, userID)
	r.mu.Unlock()

	for _, v := range views {
		v.Close()
	}
	if d != nil {
		d.Flush()
	}
}

// Close para o janitor, fecha todas as visualizações e espera as escritas pendentes
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	views := make([]*BoardView, 0, len(r.boards))
	for _, v := range r.boards {
		views = append(views, v)
	}
	dashboards := make([]*Dashboard, 0, len(r.dashboards))
	for _, d := range r.dashboards {
		dashboards = append(dashboards, d)
	}
	r.boards = map[viewKey]*BoardView{}
	r.dashboards = map[string]*Dashboard{}
	r.mu.Unlock()

	close(r.stop)
	r.wg.Wait()
	for _, v := range views {
		v.Close()
	}
	for _, d := range dashboards {
		d.Flush()
	}
}
