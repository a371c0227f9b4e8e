package application

import (
	"context"
	"time"

	"go.uber.org/zap"

	employeeDomain "github.com/davicafu/lazygrid/internal/employee/domain"
)

// QueryRecorder acumula los listados servidos y los vuelca por lotes.
// Record nunca bloquea: si el buffer está lleno el registro se descarta.
type QueryRecorder struct {
	repo      employeeDomain.QueryLogRepository
	entries   chan employeeDomain.QueryLog
	interval  time.Duration
	batchSize int
	log       *zap.Logger
}

func NewQueryRecorder(repo employeeDomain.QueryLogRepository, interval time.Duration, batchSize int, log *zap.Logger) *QueryRecorder {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &QueryRecorder{
		repo:      repo,
		entries:   make(chan employeeDomain.QueryLog, batchSize*4),
		interval:  interval,
		batchSize: batchSize,
		log:       log,
	}
}

func (r *QueryRecorder) Record(entry employeeDomain.QueryLog) {
	select {
	case r.entries <- entry:
	default:
		r.log.Debug("Query log buffer full, dropping entry")
	}
}

// Start vuelca cada interval o al llenar un lote. Bloquea hasta que ctx se
// cancela; antes de salir vuelca lo pendiente.
func (r *QueryRecorder) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	batch := make([]employeeDomain.QueryLog, 0, r.batchSize)
	flush := func(ctx context.Context) {
		if len(batch) == 0 {
			return
		}
		if err := r.repo.LogBatch(ctx, batch); err != nil {
			r.log.Warn("⚠️ Query log flush failed", zap.Int("count", len(batch)), zap.Error(err))
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			r.drain(&batch)
			final, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			flush(final)
			cancel()
			return
		case e := <-r.entries:
			batch = append(batch, e)
			if len(batch) >= r.batchSize {
				flush(ctx)
			}
		case <-ticker.C:
			flush(ctx)
		}
	}
}

func (r *QueryRecorder) drain(batch *[]employeeDomain.QueryLog) {
	for {
		select {
		case e := <-r.entries:
			*batch = append(*batch, e)
		default:
			return
		}
	}
}
