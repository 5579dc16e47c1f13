package kanban

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"quadro-kanban/gateway"
	"quadro-kanban/models"
	"quadro-kanban/session"
	"quadro-kanban/utilities"
)

var (
	ErrTaskNotFound = errors.New("tarefa não encontrada no quadro")
	ErrCreateFailed = errors.New("falha ao criar tarefa")
	ErrViewClosed   = errors.New("visualização do quadro já foi fechada")
)

// Options controla o comportamento das visualizações criadas pelo Registry
type Options struct {
	// RefreshAfterCreate é o atraso da recarga completa depois de criar uma tarefa. Zero desliga.
	RefreshAfterCreate time.Duration

	// RollbackOnFailure desfaz a mudança otimista quando a escrita no gateway falha
	RollbackOnFailure bool

	// WriteTimeout limita cada escrita assíncrona. Zero é sem limite.
	WriteTimeout time.Duration

	DragActivationDistance float64
	Now                    func() time.Time
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Column é uma partição derivada da coleção, na ordem de exibição
type Column struct {
	Status models.Status `json:"status"`
	Title  string        `json:"title"`
	Tasks  []models.Task `json:"tasks"`
}

var columnTitles = map[models.Status]string{
	models.StatusTodo:       "To Do",
	models.StatusInProgress: "In Progress",
	models.StatusDone:       "Done",
}

// DragResult é o que sobrou de um gesto: o evento emitido (se houve) e se foi aplicado
type DragResult struct {
	Event   *StatusChangeRequested `json:"event,omitempty"`
	Applied bool                   `json:"applied"`
}

// entry guarda a tarefa exibida e o último estado que o gateway confirmou.
// pending conta as escritas da tarefa ainda em andamento.
type entry struct {
	task      models.Task
	confirmed models.Task
	pending   int
	failed    bool
}

// BoardView é o estado em memória de um quadro aberto por um usuário.
// Toda mutação passa pelo mutex, então os intents são aplicados um de cada vez
// e o estado otimista fica visível antes da escrita no gateway terminar.
type BoardView struct {
	gw    gateway.Gateway
	sess  session.Session
	board models.Board
	opts  Options

	mu       sync.Mutex
	loading  bool
	gen      uint64
	tasks    []*entry
	index    map[string]*entry
	drag     *DragEngine
	tails    map[string]chan struct{}
	refresh  *time.Timer
	closed   bool
	lastUsed time.Time

	writes sync.WaitGroup
}

func newBoardView(gw gateway.Gateway, sess session.Session, board models.Board, opts Options) *BoardView {
	v := &BoardView{
		gw:       gw,
		sess:     sess,
		board:    board,
		opts:     opts,
		loading:  true,
		index:    map[string]*entry{},
		tails:    map[string]chan struct{}{},
		lastUsed: opts.now(),
	}
	v.drag = NewDragEngine(opts.DragActivationDistance, v.statusLocked)
	return v
}

func (v *BoardView) Board() models.Board {
	return v.board
}

func (v *BoardView) Loading() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loading
}

// Load busca todas as tarefas do quadro e substitui a coleção inteira.
// Mudanças otimistas ainda pendentes ficam sob a nova coleção: o rollback delas é ignorado.
func (v *BoardView) Load(ctx context.Context) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrViewClosed
	}
	v.loading = true
	v.mu.Unlock()

	tasks, err := v.gw.ListTasks(ctx, v.sess.UserID, v.board.ID)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.loading = false
	if v.closed {
		return ErrViewClosed
	}
	if err != nil {
		utilities.LogError(err, fmt.Sprintf("Erro ao buscar tarefas do quadro %s", v.board.ID))
		return err
	}

	v.gen++
	v.tasks = make([]*entry, 0, len(tasks))
	v.index = make(map[string]*entry, len(tasks))
	for _, t := range tasks {
		e := &entry{task: t, confirmed: t}
		v.tasks = append(v.tasks, e)
		v.index[t.ID] = e
	}
	sort.SliceStable(v.tasks, func(i, j int) bool {
		return v.tasks[i].task.CreatedAt.After(v.tasks[j].task.CreatedAt)
	})
	utilities.LogDebug("Quadro %s carregado com %d tarefas", v.board.ID, len(v.tasks))
	return nil
}

// Refresh é a recarga completa usada depois de criar tarefas e pelo endpoint de refresh
func (v *BoardView) Refresh(ctx context.Context) error {
	return v.Load(ctx)
}

// Tasks devolve a coleção, mais recentes primeiro
func (v *BoardView) Tasks() []models.Task {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]models.Task, 0, len(v.tasks))
	for _, e := range v.tasks {
		out = append(out, e.task)
	}
	return out
}

func (v *BoardView) Task(id string) (models.Task, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	e, ok := v.index[id]
	if !ok {
		return models.Task{}, false
	}
	return e.task, true
}

// TasksByStatus filtra a coleção por status, preservando a ordem
func (v *BoardView) TasksByStatus(s models.Status) []models.Task {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := []models.Task{}
	for _, e := range v.tasks {
		if e.task.Status == s {
			out = append(out, e.task)
		}
	}
	return out
}

// Columns monta as três colunas a partir da coleção. Cada tarefa aparece em exatamente uma.
func (v *BoardView) Columns() []Column {
	v.mu.Lock()
	defer v.mu.Unlock()
	cols := make([]Column, len(models.Statuses))
	pos := make(map[models.Status]int, len(models.Statuses))
	for i, s := range models.Statuses {
		cols[i] = Column{Status: s, Title: columnTitles[s], Tasks: []models.Task{}}
		pos[s] = i
	}
	for _, e := range v.tasks {
		i, ok := pos[e.task.Status]
		if !ok {
			continue
		}
		cols[i].Tasks = append(cols[i].Tasks, e.task)
	}
	return cols
}

func (v *BoardView) statusLocked(itemID string) (models.Status, bool) {
	e, ok := v.index[itemID]
	if !ok {
		return "", false
	}
	return e.task.Status, true
}

// ApplyStatusChange aplica um evento de drag. O evento só vale se a tarefa ainda existe
// e ainda está no FromStatus; senão é descartado em silêncio.
func (v *BoardView) ApplyStatusChange(ctx context.Context, ev StatusChangeRequested) bool {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return false
	}
	e, ok := v.index[ev.ItemID]
	if !ok || e.task.Status != ev.FromStatus || ev.FromStatus == ev.ToStatus || !ev.ToStatus.Valid() {
		v.mu.Unlock()
		utilities.LogDebug("Evento de drag descartado para tarefa %s (%s -> %s)", ev.ItemID, ev.FromStatus, ev.ToStatus)
		return false
	}

	v.updateLocked(ctx, e, "atualizar status", models.StatusPatch(ev.ToStatus))
	v.mu.Unlock()
	return true
}

// EditTask aplica um patch na tarefa e envia a escrita em segundo plano
func (v *BoardView) EditTask(ctx context.Context, id string, patch models.TaskPatch) error {
	patch.Normalize()
	if err := patch.Validate(); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrViewClosed
	}
	e, ok := v.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	if patch.Empty() {
		return nil
	}

	v.updateLocked(ctx, e, "editar tarefa", patch)
	return nil
}

// updateLocked aplica o patch na hora e agenda a escrita dele
func (v *BoardView) updateLocked(ctx context.Context, e *entry, what string, patch models.TaskPatch) {
	id := e.task.ID
	v.beginWriteLocked(e)
	e.task = e.task.Apply(patch)
	v.enqueueLocked(ctx, id, what, func(ctx context.Context) error {
		return v.gw.UpdateTask(ctx, v.sess.UserID, v.board.ID, id, patch)
	}, func(err error) {
		v.settle(e, patch, err)
	})
}

// DeleteTask remove a tarefa da coleção na hora e deleta no gateway em segundo plano
func (v *BoardView) DeleteTask(ctx context.Context, id string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrViewClosed
	}
	e, ok := v.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	v.removeLocked(id)
	v.beginWriteLocked(e)
	gen := v.gen
	v.enqueueLocked(ctx, id, "deletar tarefa", func(ctx context.Context) error {
		return v.gw.DeleteTask(ctx, v.sess.UserID, v.board.ID, id)
	}, func(err error) {
		v.settleDelete(e, gen, err)
	})
	return nil
}

// CreateTask grava a tarefa no gateway e só então a insere na coleção.
// Uma recarga completa é agendada para depois de RefreshAfterCreate.
func (v *BoardView) CreateTask(ctx context.Context, in models.TaskInput) (models.Task, error) {
	if err := in.Validate(); err != nil {
		return models.Task{}, err
	}
	if v.isClosed() {
		return models.Task{}, ErrViewClosed
	}

	created, err := v.gw.CreateTask(ctx, models.NewTask(v.sess.UserID, v.board.ID, in, v.opts.now()))
	if err != nil {
		utilities.LogError(err, fmt.Sprintf("Erro ao criar tarefa no quadro %s", v.board.ID))
		return models.Task{}, fmt.Errorf("%w: %v", ErrCreateFailed, err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if _, exists := v.index[created.ID]; !exists {
		v.insertLocked(&entry{task: created, confirmed: created})
	}
	v.scheduleRefreshLocked()
	utilities.LogInfo("Tarefa %s criada no quadro %s", created.ID, v.board.ID)
	return created, nil
}

func (v *BoardView) scheduleRefreshLocked() {
	if v.opts.RefreshAfterCreate <= 0 || v.closed {
		return
	}
	if v.refresh != nil {
		v.refresh.Stop()
	}
	v.refresh = time.AfterFunc(v.opts.RefreshAfterCreate, func() {
		if err := v.Refresh(context.Background()); err != nil && !errors.Is(err, ErrViewClosed) {
			utilities.LogError(err, "Erro na recarga após criar tarefa")
		}
	})
}

func (v *BoardView) isClosed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

// insertLocked mantém a coleção ordenada por CreatedAt decrescente
func (v *BoardView) insertLocked(e *entry) {
	i := sort.Search(len(v.tasks), func(i int) bool {
		return !v.tasks[i].task.CreatedAt.After(e.task.CreatedAt)
	})
	v.tasks = append(v.tasks, nil)
	copy(v.tasks[i+1:], v.tasks[i:])
	v.tasks[i] = e
	v.index[e.task.ID] = e
}

func (v *BoardView) removeLocked(id string) {
	delete(v.index, id)
	for i, e := range v.tasks {
		if e.task.ID == id {
			v.tasks = append(v.tasks[:i], v.tasks[i+1:]...)
			return
		}
	}
}

func (v *BoardView) beginWriteLocked(e *entry) {
	if e.pending == 0 {
		e.confirmed = e.task
		e.failed = false
	}
	e.pending++
}

// settle registra o resultado de uma escrita de patch. Quando a última escrita pendente
// da tarefa termina e alguma falhou, a tarefa volta ao último estado confirmado.
func (v *BoardView) settle(e *entry, patch models.TaskPatch, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	e.pending--
	if err != nil {
		e.failed = true
	} else {
		e.confirmed = e.confirmed.Apply(patch)
	}
	if e.pending > 0 || !e.failed {
		return
	}
	e.failed = false
	if !v.opts.RollbackOnFailure || v.index[e.task.ID] != e {
		return
	}
	e.task = e.confirmed
	utilities.LogInfo("Mudança na tarefa %s desfeita após falha na escrita", e.task.ID)
}

// settleDelete devolve a tarefa à coleção quando a deleção falha, se não houve recarga desde então
func (v *BoardView) settleDelete(e *entry, gen uint64, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	e.pending--
	if err == nil || !v.opts.RollbackOnFailure || v.gen != gen {
		return
	}
	if _, ok := v.index[e.confirmed.ID]; ok {
		return
	}
	e.task = e.confirmed
	e.failed = false
	v.insertLocked(e)
	utilities.LogInfo("Tarefa %s restaurada após falha na deleção", e.task.ID)
}

// enqueueLocked dispara a escrita em uma goroutine. Escritas da mesma tarefa
// vão para o gateway na ordem em que foram aceitas.
func (v *BoardView) enqueueLocked(ctx context.Context, id, what string, write func(context.Context) error, settle func(error)) {
	prev := v.tails[id]
	done := make(chan struct{})
	v.tails[id] = done
	timeout := v.opts.WriteTimeout

	v.writes.Add(1)
	go func() {
		defer v.writes.Done()
		defer func() {
			close(done)
			v.mu.Lock()
			if v.tails[id] == done {
				delete(v.tails, id)
			}
			v.mu.Unlock()
		}()
		if prev != nil {
			<-prev
		}

		wctx := context.WithoutCancel(ctx)
		if timeout > 0 {
			var cancel context.CancelFunc
			wctx, cancel = context.WithTimeout(wctx, timeout)
			defer cancel()
		}
		err := write(wctx)
		if err != nil {
			utilities.LogError(err, fmt.Sprintf("Erro ao %s %s no quadro %s", what, id, v.board.ID))
		}
		settle(err)
	}()
}

// Flush espera todas as escritas em andamento
func (v *BoardView) Flush() {
	v.writes.Wait()
}

func (v *BoardView) touch() {
	v.mu.Lock()
	v.lastUsed = v.opts.now()
	v.mu.Unlock()
}

func (v *BoardView) idleSince() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastUsed
}

// Close descarta o estado do quadro. Escritas já aceitas terminam normalmente.
func (v *BoardView) Close() {
	v.mu.Lock()
	v.closed = true
	if v.refresh != nil {
		v.refresh.Stop()
		v.refresh = nil
	}
	v.drag.Cancel()
	v.tasks = nil
	v.index = map[string]*entry{}
	v.gen++
	v.mu.Unlock()
	v.Flush()
}

// ActiveDrag devolve o item sendo arrastado, se houver
func (v *BoardView) ActiveDrag() (string, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.drag.Active()
}

func (v *BoardView) PointerDown(itemID string, at Point) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.drag.PointerDown(itemID, at)
}

func (v *BoardView) PointerMove(at Point) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.drag.PointerMove(at)
}

func (v *BoardView) BeginDrag(itemID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.drag.BeginDrag(itemID)
}

func (v *BoardView) CancelDrag() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.drag.Cancel()
}

// PointerUp termina o gesto e aplica o evento, se algum foi emitido
func (v *BoardView) PointerUp(ctx context.Context, targetColumn string) (DragResult, error) {
	v.mu.Lock()
	ev, ok, err := v.drag.PointerUp(targetColumn)
	v.mu.Unlock()
	return v.dispatch(ctx, ev, ok, err)
}

// EndDrag solta o item sobre a coluna (vazia quando fora de qualquer coluna)
func (v *BoardView) EndDrag(ctx context.Context, itemID, targetColumn string) (DragResult, error) {
	v.mu.Lock()
	ev, ok, err := v.drag.EndDrag(itemID, targetColumn)
	v.mu.Unlock()
	return v.dispatch(ctx, ev, ok, err)
}

func (v *BoardView) dispatch(ctx context.Context, ev StatusChangeRequested, ok bool, err error) (DragResult, error) {
	if err != nil || !ok {
		return DragResult{}, err
	}
	return DragResult{Event: &ev, Applied: v.ApplyStatusChange(ctx, ev)}, nil
}
