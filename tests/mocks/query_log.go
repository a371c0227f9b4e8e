package mocks

import (
	"context"
	"sync"

	employeeDomain "github.com/davicafu/lazygrid/internal/employee/domain"
)

// RecordingQueryLogRepo guarda en memoria los lotes recibidos.
type RecordingQueryLogRepo struct {
	mu      sync.Mutex
	batches [][]employeeDomain.QueryLog
}

func (r *RecordingQueryLogRepo) LogBatch(ctx context.Context, logs []employeeDomain.QueryLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]employeeDomain.QueryLog, len(logs))
	copy(cp, logs)
	r.batches = append(r.batches, cp)
	return nil
}

// Entries devuelve todos los registros recibidos en orden.
func (r *RecordingQueryLogRepo) Entries() []employeeDomain.QueryLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []employeeDomain.QueryLog
	for _, b := range r.batches {
		all = append(all, b...)
	}
	return all
}

var _ employeeDomain.QueryLogRepository = (*RecordingQueryLogRepo)(nil)
