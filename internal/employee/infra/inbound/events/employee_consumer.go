package events

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	employeeDomain "github.com/davicafu/lazygrid/internal/employee/domain"
	sharedEvents "github.com/davicafu/lazygrid/internal/shared/domain/events"
	sharedUtils "github.com/davicafu/lazygrid/internal/shared/infra/utils"
)

// CacheInvalidator es lo único que el consumidor necesita del servicio.
type CacheInvalidator interface {
	InvalidateCache(ctx context.Context, ids []string)
}

// EmployeeConsumer borra de caché los empleados que cambian en cualquier
// instancia, para que GetEmployee no sirva datos viejos.
type EmployeeConsumer struct {
	service CacheInvalidator
	log     *zap.Logger
}

func NewEmployeeConsumer(service CacheInvalidator, logger *zap.Logger) *EmployeeConsumer {
	return &EmployeeConsumer{
		service: service,
		log:     logger,
	}
}

func (c *EmployeeConsumer) HandleMessage(ctx context.Context, key string, payload []byte) {
	var base sharedEvents.IntegrationEvent
	if err := json.Unmarshal(payload, &base); err != nil {
		c.log.Warn("Failed to unmarshal integration event", zap.String("key", key), zap.Error(err))
		return
	}

	switch base.Type {
	case employeeDomain.EmployeeCreated, employeeDomain.EmployeeUpdated:
		sharedUtils.UnmarshalAndHandle(c.log, base.Data, func(e employeeDomain.Employee) {
			c.invalidate(ctx, base.Type, []string{e.ID.String()})
		})

	case employeeDomain.EmployeeDeleted, employeeDomain.EmployeesDeleted:
		sharedUtils.UnmarshalAndHandle(c.log, base.Data, func(p employeeDomain.DeletedPayload) {
			c.invalidate(ctx, base.Type, p.IDs)
		})

	default:
		c.log.Warn("Unknown event type", zap.String("type", base.Type))
	}
}

func (c *EmployeeConsumer) invalidate(ctx context.Context, eventType string, ids []string) {
	ctxCache, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	c.service.InvalidateCache(ctxCache, ids)
	c.log.Debug("Cache invalidated via event",
		zap.String("type", eventType),
		zap.Strings("ids", ids),
	)
}
