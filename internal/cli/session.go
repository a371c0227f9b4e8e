// Package cli es la vista de terminal de lazygrid: monta un grid.Controller
// sobre la colección remota y lo maneja con comandos de texto.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	employeeDomain "github.com/davicafu/lazygrid/internal/employee/domain"
	"github.com/davicafu/lazygrid/internal/grid"
)

// Row es la fila que pinta la CLI.
type Row = employeeDomain.Employee

var ErrTimeout = errors.New("timed out waiting for the server")

// getter lo cumple collection.HTTPClient; permite editar filas que no están
// en la página visible.
type getter interface {
	Get(ctx context.Context, id string) (Row, error)
}

// Session mantiene montado un controlador y espera a que cada interacción
// quede aplicada antes de devolver.
type Session struct {
	client grid.Collection[Row]
	ctrl   *grid.Controller[Row]
	sub    <-chan grid.Snapshot[Row]
	wait   time.Duration
	log    *zap.Logger

	cancel context.CancelFunc
	done   chan error
}

// NewSession prepara la sesión; los avisos del controlador se escriben en out.
func NewSession(client grid.Collection[Row], out io.Writer, pageSize int, wait time.Duration, log *zap.Logger) *Session {
	ctrl := grid.New[Row](client, log,
		grid.WithPageSize(pageSize),
		grid.WithEntityName("Employee", "Employees"),
		grid.WithNotifier(NewWriterNotifier(out)),
	)
	return &Session{
		client: client,
		ctrl:   ctrl,
		sub:    ctrl.Subscribe(16),
		wait:   wait,
		log:    log,
	}
}

// Start monta la vista y espera a la primera página.
func (s *Session) Start(ctx context.Context) (grid.Snapshot[Row], error) {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan error, 1)
	go func() { s.done <- s.ctrl.Run(runCtx) }()

	return s.awaitRefetch()
}

// Close desmonta la vista.
func (s *Session) Close() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
}

func (s *Session) Snapshot() grid.Snapshot[Row] {
	return s.ctrl.Snapshot()
}

// Apply encola los eventos de golpe y espera al estado resultante. Las
// consultas intermedias se descartan al llegar, solo se pinta la última.
func (s *Session) Apply(events ...grid.Event) (grid.Snapshot[Row], error) {
	current := s.ctrl.Snapshot()
	expected := current.State
	for _, ev := range events {
		expected = grid.Reduce(expected, ev)
	}
	if expected.Equal(current.State) {
		return current, nil
	}

	s.drain()
	for _, ev := range events {
		s.ctrl.Dispatch(ev)
	}
	return s.await(func(snap grid.Snapshot[Row]) bool {
		return !snap.Loading && snap.State.Equal(expected)
	})
}

func (s *Session) Refresh() (grid.Snapshot[Row], error) {
	s.drain()
	s.ctrl.Refresh()
	return s.awaitRefetch()
}

func (s *Session) Create(ctx context.Context, row Row) (Row, grid.Snapshot[Row], error) {
	s.drain()
	created, err := s.ctrl.Create(ctx, row)
	if err != nil {
		return created, s.Snapshot(), err
	}
	snap, err := s.awaitRefetch()
	return created, snap, loadOK(err)
}

func (s *Session) Update(ctx context.Context, row Row) (Row, grid.Snapshot[Row], error) {
	s.drain()
	updated, err := s.ctrl.Update(ctx, row)
	if err != nil {
		return updated, s.Snapshot(), err
	}
	snap, err := s.awaitRefetch()
	return updated, snap, loadOK(err)
}

func (s *Session) Delete(ctx context.Context, id string) (grid.Snapshot[Row], error) {
	s.drain()
	if err := s.ctrl.Delete(ctx, id); err != nil {
		return s.Snapshot(), err
	}
	snap, err := s.awaitRefetch()
	return snap, loadOK(err)
}

func (s *Session) DeleteMany(ctx context.Context, ids []string) (grid.Snapshot[Row], error) {
	s.drain()
	if err := s.ctrl.DeleteMany(ctx, ids); err != nil {
		return s.Snapshot(), err
	}
	snap, err := s.awaitRefetch()
	return snap, loadOK(err)
}

// Lookup busca la fila en la página visible y, si no está, en el servidor.
func (s *Session) Lookup(ctx context.Context, id string) (Row, error) {
	for _, r := range s.ctrl.Snapshot().Rows {
		if r.GetID() == id {
			return r, nil
		}
	}
	g, ok := s.client.(getter)
	if !ok {
		return Row{}, fmt.Errorf("employee %s is not on the current page", id)
	}
	return g.Get(ctx, id)
}

// ---------------- espera ----------------

// awaitRefetch espera una carga completa: primero loading y luego el
// resultado.
func (s *Session) awaitRefetch() (grid.Snapshot[Row], error) {
	started := false
	return s.await(func(snap grid.Snapshot[Row]) bool {
		if snap.Loading {
			started = true
			return false
		}
		return started
	})
}

func (s *Session) await(ready func(grid.Snapshot[Row]) bool) (grid.Snapshot[Row], error) {
	timer := time.NewTimer(s.wait)
	defer timer.Stop()

	for {
		select {
		case snap, ok := <-s.sub:
			if !ok {
				return s.ctrl.Snapshot(), errors.New("grid unmounted")
			}
			if ready(snap) {
				return snap, snap.Err
			}
		case <-timer.C:
			return s.ctrl.Snapshot(), ErrTimeout
		}
	}
}

// loadOK ignora el fallo del refetch tras una mutación aplicada: ya se
// avisó y queda en Snapshot.Err.
func loadOK(err error) error {
	var terr *grid.TransportError
	if errors.As(err, &terr) && terr.Op == "list" {
		return nil
	}
	return err
}

// drain descarta snapshots anteriores a la interacción en curso.
func (s *Session) drain() {
	for {
		select {
		case <-s.sub:
		default:
			return
		}
	}
}
