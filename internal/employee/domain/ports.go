package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/davicafu/lazygrid/internal/shared/domain"
	sharedQuery "github.com/davicafu/lazygrid/internal/shared/infra/platform/query"
)

// ---------- Errores de dominio ----------
var (
	ErrEmployeeNotFound      = errors.New("employee not found")
	ErrEmployeeAlreadyExists = errors.New("employee already exists")
	ErrInvalidEmployee       = errors.New("invalid employee")
	ErrInvalidQuery          = errors.New("invalid query")
)

// ---------- Interfaces (Ports) ----------

// EmployeeRepository persiste empleados. Cada mutación guarda su evento de
// outbox en la misma transacción.
type EmployeeRepository interface {
	// Debe devolver ErrEmployeeAlreadyExists si el email ya existe.
	Create(ctx context.Context, e *Employee, evt sharedDomain.OutboxEvent) error

	// Debe devolver ErrEmployeeNotFound si no existe.
	Update(ctx context.Context, e *Employee, evt sharedDomain.OutboxEvent) error
	GetByID(ctx context.Context, id uuid.UUID) (*Employee, error)
	DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error

	// DeleteByIDs ignora los ids que no existen y devuelve cuántos borró.
	DeleteByIDs(ctx context.Context, ids []uuid.UUID, evt sharedDomain.OutboxEvent) (int, error)

	// ListByCriteria devuelve la página pedida y el total de coincidencias.
	// Un campo de criterio u orden desconocido es ErrInvalidQuery.
	ListByCriteria(ctx context.Context, criteria sharedDomain.Criteria, pagination sharedQuery.OffsetPagination, sort sharedQuery.Sort) ([]*Employee, int, error)
}

// QueryLog describe una consulta servida, para analítica.
type QueryLog struct {
	ID         uuid.UUID
	Search     string
	Filters    map[string]string
	SortField  string
	SortDesc   bool
	Page       int
	Size       int
	Total      int
	DurationMs int64
	ServedAt   time.Time
}

type QueryLogRepository interface {
	LogBatch(ctx context.Context, logs []QueryLog) error
}

// ---------- Helpers comunes (cache keys, etc.) ----------

// CacheKeyByID forma una key consistente para cache usando ID.
func CacheKeyByID(id uuid.UUID) string {
	return fmt.Sprintf("employee:id:%s", id.String())
}
