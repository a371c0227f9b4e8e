package grid

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var ErrAlreadyRunning = errors.New("controller already running")

// Entity es cualquier fila con identificador único.
type Entity interface {
	GetID() string
}

// Validator lo implementan las entidades con reglas locales de guardado.
type Validator interface {
	Validate() error
}

// Page es el resultado de una consulta: una página de filas y el total de
// coincidencias en el servidor.
type Page[T Entity] struct {
	Rows       []T
	TotalCount int
}

// Collection es el puerto hacia el servicio remoto de colecciones.
type Collection[T Entity] interface {
	List(ctx context.Context, req Request) (Page[T], error)
	Create(ctx context.Context, entity T) (T, error)
	Update(ctx context.Context, entity T) (T, error)
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) error
}

// Snapshot es lo que ve la vista tras cada cambio aplicado.
type Snapshot[T Entity] struct {
	Rows       []T
	TotalCount int
	Loading    bool
	State      QueryState
	Err        error // último fallo de carga, nil si la última carga fue bien
}

// ---------------- Opciones ----------------

type Option func(*options)

type options struct {
	pageSize  int
	notifier  Notifier
	singular  string
	plural    string
	queueSize int
}

func WithPageSize(n int) Option { return func(o *options) { o.pageSize = n } }

func WithNotifier(n Notifier) Option { return func(o *options) { o.notifier = n } }

// WithEntityName fija los nombres usados en los avisos ("Employee", "Employees").
func WithEntityName(singular, plural string) Option {
	return func(o *options) { o.singular, o.plural = singular, plural }
}

func WithQueueSize(n int) Option { return func(o *options) { o.queueSize = n } }

// ---------------- Mensajes internos ----------------

type refetchRequested struct {
	op string
}

type fetchCompleted[T Entity] struct {
	seq  uint64
	page Page[T]
	err  error
}

// ---------------- Controller ----------------

// Controller es el controlador de consultas perezosas de una tabla. Run es
// el único consumidor de la cola de eventos y el único que escribe el estado;
// el resto de métodos solo encolan.
type Controller[T Entity] struct {
	client   Collection[T]
	log      *zap.Logger
	notifier Notifier
	singular string
	plural   string

	events  chan any
	done    chan struct{}
	running atomic.Bool

	// propiedad exclusiva del bucle de eventos
	state   QueryState
	seq     uint64
	rows    []T
	total   int
	loading bool
	lastErr error

	snapshot atomic.Pointer[Snapshot[T]]

	mu          sync.RWMutex
	subscribers []chan Snapshot[T]
}

// New crea un controlador con el estado inicial de montaje.
func New[T Entity](client Collection[T], log *zap.Logger, opts ...Option) *Controller[T] {
	o := options{
		pageSize:  DefaultPageSize,
		singular:  "Record",
		plural:    "Records",
		queueSize: 64,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if log == nil {
		log = zap.NewNop()
	}
	if o.notifier == nil {
		o.notifier = NewLogNotifier(log)
	}

	c := &Controller[T]{
		client:   client,
		log:      log,
		notifier: o.notifier,
		singular: o.singular,
		plural:   o.plural,
		events:   make(chan any, o.queueSize),
		done:     make(chan struct{}),
		state:    NewQueryState(o.pageSize),
	}
	c.snapshot.Store(&Snapshot[T]{State: c.state.clone()})
	return c
}

// Run monta la vista: lanza la carga inicial y procesa eventos hasta que ctx
// se cancela. Solo puede llamarse una vez.
func (c *Controller[T]) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer c.closeSubscribers()
	defer close(c.done)

	c.log.Info("Grid mounted", zap.Int("size", c.state.PageSize))
	c.dispatch(ctx, "mount")

	for {
		select {
		case <-ctx.Done():
			c.log.Info("Grid unmounted")
			return nil
		case msg := <-c.events:
			c.handle(ctx, msg)
		}
	}
}

// ---------------- Entradas de la vista ----------------

// Dispatch encola un evento de la vista.
func (c *Controller[T]) Dispatch(ev Event) { c.post(ev) }

func (c *Controller[T]) ChangePage(offset, pageSize int) {
	c.post(PageChange{Offset: offset, PageSize: pageSize})
}

func (c *Controller[T]) ChangeSort(field string, dir SortDirection) {
	c.post(SortChange{Field: field, Direction: dir})
}

func (c *Controller[T]) ChangeFilters(filters RawFilters) {
	c.post(FilterChange{Filters: filters})
}

// Search fija el filtro global conservando el resto de filtros.
func (c *Controller[T]) Search(term string) {
	c.post(GlobalFilterChange{Term: term})
}

// Refresh vuelve a consultar con el estado actual.
func (c *Controller[T]) Refresh() {
	c.post(refetchRequested{op: "refresh"})
}

// Snapshot devuelve la última vista publicada.
func (c *Controller[T]) Snapshot() Snapshot[T] {
	return *c.snapshot.Load()
}

// Subscribe devuelve un canal con cada Snapshot publicado. Si el suscriptor
// no consume a tiempo, los snapshots intermedios se pierden; Snapshot()
// siempre tiene el último. Tras desmontar devuelve un canal ya cerrado.
func (c *Controller[T]) Subscribe(bufferSize int) <-chan Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan Snapshot[T], bufferSize)
	select {
	case <-c.done:
		close(ch)
		return ch
	default:
	}
	c.subscribers = append(c.subscribers, ch)
	return ch
}

// ---------------- Bucle de eventos ----------------

// post encola sin bloquear mientras Run no ha arrancado: con la cola llena
// el mensaje se pierde.
func (c *Controller[T]) post(msg any) {
	if !c.running.Load() {
		select {
		case c.events <- msg:
		case <-c.done:
		default:
			c.log.Warn("Grid not running, dropping message", zap.String("type", fmt.Sprintf("%T", msg)))
		}
		return
	}
	select {
	case c.events <- msg:
	case <-c.done:
	}
}

func (c *Controller[T]) handle(ctx context.Context, msg any) {
	switch m := msg.(type) {
	case Event:
		next := Reduce(c.state, m)
		if next.Equal(c.state) {
			c.log.Debug("Query state unchanged, skipping fetch")
			return
		}
		c.state = next
		c.dispatch(ctx, "state change")

	case refetchRequested:
		c.dispatch(ctx, m.op)

	case fetchCompleted[T]:
		c.apply(m)

	default:
		c.log.Warn("Unknown grid message", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// dispatch etiqueta la petición con un número de secuencia y la lanza fuera
// del bucle. Las peticiones anteriores no se abortan: su resultado se
// descarta al llegar.
func (c *Controller[T]) dispatch(ctx context.Context, reason string) {
	c.seq++
	seq := c.seq
	req := BuildRequest(c.state)

	c.loading = true
	c.publish()

	c.log.Debug("Fetching page",
		zap.String("reason", reason),
		zap.Uint64("seq", seq),
		zap.Int("page", req.Page),
		zap.Int("size", req.Size),
		zap.String("sort", req.Sort),
	)

	go func() {
		page, err := c.client.List(ctx, req)
		c.post(fetchCompleted[T]{seq: seq, page: page, err: err})
	}()
}

func (c *Controller[T]) apply(m fetchCompleted[T]) {
	if m.seq != c.seq {
		c.log.Debug("Discarding stale result", zap.Uint64("seq", m.seq), zap.Uint64("latest", c.seq))
		return
	}
	c.loading = false

	if m.err != nil {
		err := &TransportError{Op: "list", Err: m.err}
		c.lastErr = err
		c.log.Error("Failed to fetch page",
			zap.String("op", err.Op),
			zap.Uint64("seq", m.seq),
			zap.Int("page", c.state.Page()),
			zap.Error(m.err),
		)
		c.notifier.Notify(errorNotification(fmt.Sprintf("Failed to load %s.", strings.ToLower(c.plural))))
		c.publish()
		return
	}

	c.lastErr = nil
	c.rows = c.uniqueRows(m.page.Rows)
	c.total = m.page.TotalCount
	if c.total < 0 {
		c.total = 0
	}
	c.publish()
}

// uniqueRows recorta a una página y elimina ids repetidos.
func (c *Controller[T]) uniqueRows(rows []T) []T {
	if len(rows) > c.state.PageSize {
		c.log.Warn("Server returned more rows than page size",
			zap.Int("rows", len(rows)), zap.Int("size", c.state.PageSize))
		rows = rows[:c.state.PageSize]
	}
	seen := make(map[string]struct{}, len(rows))
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		id := r.GetID()
		if _, dup := seen[id]; dup {
			c.log.Warn("Duplicate row id in page", zap.String("id", id))
			continue
		}
		seen[id] = struct{}{}
		out = append(out, r)
	}
	return out
}

func (c *Controller[T]) publish() {
	snap := &Snapshot[T]{
		Rows:       c.rows,
		TotalCount: c.total,
		Loading:    c.loading,
		State:      c.state.clone(),
		Err:        c.lastErr,
	}
	c.snapshot.Store(snap)

	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, ch := range c.subscribers {
		select {
		case ch <- *snap:
		default:
		}
	}
}

func (c *Controller[T]) closeSubscribers() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range c.subscribers {
		close(ch)
	}
	c.subscribers = nil
}
