package relayer

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"go.uber.org/zap"

	sharedDomain "github.com/davicafu/lazygrid/internal/shared/domain"
	sharedEvents "github.com/davicafu/lazygrid/internal/shared/domain/events"
	sharedBus "github.com/davicafu/lazygrid/internal/shared/infra/platform/bus"
)

// Worker publica los eventos pendientes de la tabla outbox.
type Worker struct {
	repo          sharedDomain.OutboxRepository
	publisher     sharedBus.EventBus
	eventRegistry map[string]sharedEvents.EventMetadata
	interval      time.Duration
	batchSize     int
	log           *zap.Logger
}

func NewOutboxWorker(
	repo sharedDomain.OutboxRepository,
	publisher sharedBus.EventBus,
	registry map[string]sharedEvents.EventMetadata,
	interval time.Duration,
	batchSize int,
	log *zap.Logger,
) *Worker {
	return &Worker{
		repo:          repo,
		publisher:     publisher,
		eventRegistry: registry,
		interval:      interval,
		batchSize:     batchSize,
		log:           log,
	}
}

// Start hace polling hasta que ctx se cancela. Bloquea.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("🚀 Outbox worker iniciado", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.log.Info("🛑 Outbox worker detenido")
			return
		case <-ticker.C:
			w.ProcessBatch(ctx)
		}
	}
}

// ProcessBatch publica un lote y devuelve cuántos eventos se marcaron.
func (w *Worker) ProcessBatch(ctx context.Context) int {
	events, err := w.repo.FetchPendingOutbox(ctx, w.batchSize)
	if err != nil {
		w.log.Warn("⚠️ Error al obtener eventos pendientes", zap.Error(err))
		return 0
	}
	if len(events) > 0 {
		w.log.Debug(fmt.Sprintf("📬 %d eventos encontrados para procesar", len(events)))
	}

	processed := 0
	for _, evt := range events {
		if w.publishAndMark(ctx, evt) {
			processed++
		}
	}
	return processed
}

func (w *Worker) publishAndMark(ctx context.Context, evt sharedDomain.OutboxEvent) bool {
	integration, err := w.toIntegrationEvent(evt)
	if err != nil {
		// se queda pendiente; un tipo desconocido requiere desplegar el registro
		w.log.Error("Evento de outbox no publicable",
			zap.String("event_id", evt.ID.String()),
			zap.String("event_type", evt.EventType),
			zap.Error(err),
		)
		return false
	}

	if err := w.publisher.Publish(ctx, integration); err != nil {
		w.log.Warn("⚠️ No se pudo publicar evento",
			zap.String("event_id", evt.ID.String()),
			zap.Error(err),
		)
		return false
	}

	if err := w.repo.MarkOutboxProcessed(ctx, evt.ID); err != nil {
		w.log.Warn("⚠️ No se pudo marcar evento como procesado",
			zap.String("event_id", evt.ID.String()),
			zap.Error(err),
		)
		return false
	}

	w.log.Info("✅ Evento publicado y marcado",
		zap.String("event_id", evt.ID.String()),
		zap.String("event_type", evt.EventType),
	)
	return true
}

// toIntegrationEvent valida el payload contra el tipo registrado y lo envuelve.
func (w *Worker) toIntegrationEvent(evt sharedDomain.OutboxEvent) (sharedEvents.IntegrationEvent, error) {
	metadata, ok := w.eventRegistry[evt.EventType]
	if !ok {
		return sharedEvents.IntegrationEvent{}, fmt.Errorf("unknown event type %q", evt.EventType)
	}

	raw, err := json.Marshal(evt.Payload)
	if err != nil {
		return sharedEvents.IntegrationEvent{}, fmt.Errorf("marshaling payload: %w", err)
	}

	typed := reflect.New(metadata.Type).Interface()
	if err := json.Unmarshal(raw, typed); err != nil {
		return sharedEvents.IntegrationEvent{}, fmt.Errorf("decoding payload as %s: %w", metadata.Type, err)
	}
	data, err := json.Marshal(typed)
	if err != nil {
		return sharedEvents.IntegrationEvent{}, fmt.Errorf("encoding payload: %w", err)
	}

	return sharedEvents.IntegrationEvent{
		Type:        evt.EventType,
		AggregateID: evt.AggregateID,
		Timestamp:   evt.CreatedAt,
		Data:        data,
	}, nil
}
