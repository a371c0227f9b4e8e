package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	employeeDomain "github.com/davicafu/lazygrid/internal/employee/domain"
	sharedDomain "github.com/davicafu/lazygrid/internal/shared/domain"
	sharedCache "github.com/davicafu/lazygrid/internal/shared/infra/platform/cache"
	sharedQuery "github.com/davicafu/lazygrid/internal/shared/infra/platform/query"
	sharedUtils "github.com/davicafu/lazygrid/internal/shared/infra/utils"
)

const defaultCacheTTL = 60

// ListQuery es una consulta de listado tal como llega del cliente.
type ListQuery struct {
	Filters    map[string]string // campo lógico -> valor
	Search     string
	Pagination sharedQuery.OffsetPagination
	Sort       sharedQuery.Sort
}

// EmployeeService define los casos de uso de la colección de empleados.
type EmployeeService struct {
	repo     employeeDomain.EmployeeRepository
	cache    sharedCache.Cache
	recorder *QueryRecorder
	cacheTTL int
	now      func() time.Time
	log      *zap.Logger
}

type ServiceOption func(*EmployeeService)

// WithCacheTTL fija el TTL en segundos de las entradas por id.
func WithCacheTTL(secs int) ServiceOption {
	return func(s *EmployeeService) {
		if secs > 0 {
			s.cacheTTL = secs
		}
	}
}

// WithQueryRecorder registra cada listado servido para analítica.
func WithQueryRecorder(r *QueryRecorder) ServiceOption {
	return func(s *EmployeeService) { s.recorder = r }
}

func NewEmployeeService(repo employeeDomain.EmployeeRepository, cache sharedCache.Cache, log *zap.Logger, opts ...ServiceOption) *EmployeeService {
	s := &EmployeeService{
		repo:     repo,
		cache:    cache,
		cacheTTL: defaultCacheTTL,
		now:      func() time.Time { return time.Now().UTC() },
		log:      log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateEmployee asigna id y fechas, guarda el empleado con su evento y
// calienta la caché.
func (s *EmployeeService) CreateEmployee(ctx context.Context, input employeeDomain.Employee) (*employeeDomain.Employee, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	e := input
	e.ID = uuid.New()
	e.CreatedDate = now
	e.ModifiedDate = now

	evt := sharedDomain.NewOutboxEvent(employeeDomain.EmployeeAggregateType, e.ID.String(), employeeDomain.EmployeeCreated, e)
	if err := s.repo.Create(ctx, &e, evt); err != nil {
		s.log.Error("Failed to create employee", zap.Error(err))
		return nil, err
	}

	sharedCache.AsyncCacheSet(s.cache, employeeDomain.CacheKeyByID(e.ID), e, s.cacheTTL, s.log)
	return &e, nil
}

// UpdateEmployee reemplaza los campos editables. CreatedDate se conserva.
func (s *EmployeeService) UpdateEmployee(ctx context.Context, input employeeDomain.Employee) (*employeeDomain.Employee, error) {
	if input.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: id is required", employeeDomain.ErrInvalidEmployee)
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	current, err := s.repo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	e := input
	e.CreatedDate = current.CreatedDate
	e.ModifiedDate = s.now()

	evt := sharedDomain.NewOutboxEvent(employeeDomain.EmployeeAggregateType, e.ID.String(), employeeDomain.EmployeeUpdated, e)
	if err := s.repo.Update(ctx, &e, evt); err != nil {
		return nil, err
	}

	sharedCache.AsyncCacheSet(s.cache, employeeDomain.CacheKeyByID(e.ID), e, s.cacheTTL, s.log)
	return &e, nil
}

// GetEmployee usa cache-aside; el repositorio se reintenta salvo NotFound.
func (s *EmployeeService) GetEmployee(ctx context.Context, id uuid.UUID) (*employeeDomain.Employee, error) {
	if s.cache != nil {
		var e employeeDomain.Employee
		if hit, _ := s.cache.Get(ctx, employeeDomain.CacheKeyByID(id), &e); hit {
			return &e, nil
		}
	}

	var employee *employeeDomain.Employee
	err := sharedUtils.Retry(ctx, 3, 100*time.Millisecond, func() error {
		var errRetry error
		employee, errRetry = s.repo.GetByID(ctx, id)
		return errRetry
	}, isNotFound)
	if err != nil {
		if isNotFound(err) {
			s.log.Warn("Employee not found", zap.String("id", id.String()))
		} else {
			s.log.Error("Failed to fetch employee", zap.String("id", id.String()), zap.Error(err))
		}
		return nil, err
	}

	sharedCache.AsyncCacheSet(s.cache, employeeDomain.CacheKeyByID(employee.ID), employee, s.cacheTTL, s.log)
	return employee, nil
}

func (s *EmployeeService) DeleteEmployee(ctx context.Context, id uuid.UUID) error {
	evt := sharedDomain.NewOutboxEvent(employeeDomain.EmployeeAggregateType, id.String(), employeeDomain.EmployeeDeleted,
		employeeDomain.DeletedPayload{IDs: []string{id.String()}})

	if err := s.repo.DeleteByID(ctx, id, evt); err != nil {
		return err
	}

	sharedCache.AsyncCacheDelete(s.cache, []string{employeeDomain.CacheKeyByID(id)}, s.log)
	return nil
}

// DeleteEmployees borra en lote y devuelve cuántos existían.
func (s *EmployeeService) DeleteEmployees(ctx context.Context, ids []uuid.UUID) (int, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: no ids to delete", employeeDomain.ErrInvalidQuery)
	}

	payload := employeeDomain.DeletedPayload{IDs: make([]string, len(ids))}
	keys := make([]string, len(ids))
	for i, id := range ids {
		payload.IDs[i] = id.String()
		keys[i] = employeeDomain.CacheKeyByID(id)
	}
	evt := sharedDomain.NewOutboxEvent(employeeDomain.EmployeeAggregateType, ids[0].String(), employeeDomain.EmployeesDeleted, payload)

	n, err := s.repo.DeleteByIDs(ctx, ids, evt)
	if err != nil {
		s.log.Error("Failed to delete employees", zap.Int("count", len(ids)), zap.Error(err))
		return 0, err
	}

	sharedCache.AsyncCacheDelete(s.cache, keys, s.log)
	return n, nil
}

// ListEmployees resuelve filtros, búsqueda, orden y página en una sola
// consulta al repositorio.
func (s *EmployeeService) ListEmployees(ctx context.Context, q ListQuery) (sharedQuery.Page[*employeeDomain.Employee], error) {
	var page sharedQuery.Page[*employeeDomain.Employee]

	if q.Sort.Field != "" && !employeeDomain.IsSortableField(q.Sort.Field) {
		return page, fmt.Errorf("%w: unknown sort field %q", employeeDomain.ErrInvalidQuery, q.Sort.Field)
	}
	criteria, err := BuildCriteria(q.Filters, q.Search)
	if err != nil {
		return page, err
	}

	pagination := sharedQuery.NewPageRequest(q.Pagination.Page(), q.Pagination.Limit)
	start := time.Now()

	items, total, err := s.repo.ListByCriteria(ctx, criteria, pagination, q.Sort)
	if err != nil {
		s.log.Error("Failed to list employees", zap.Error(err))
		return page, err
	}

	s.log.Debug("Employees listed",
		zap.Int("page", pagination.Page()),
		zap.Int("size", pagination.Limit),
		zap.Int("total", total),
	)

	if s.recorder != nil {
		s.recorder.Record(employeeDomain.QueryLog{
			ID:         uuid.New(),
			Search:     q.Search,
			Filters:    q.Filters,
			SortField:  q.Sort.Field,
			SortDesc:   q.Sort.Desc,
			Page:       pagination.Page(),
			Size:       pagination.Limit,
			Total:      total,
			DurationMs: time.Since(start).Milliseconds(),
			ServedAt:   s.now(),
		})
	}

	return sharedQuery.Page[*employeeDomain.Employee]{
		Items:      items,
		Total:      total,
		Pagination: pagination,
	}, nil
}

// InvalidateCache borra las entradas de los ids dados. Lo usa el consumidor
// de eventos para que otras instancias no sirvan datos viejos.
func (s *EmployeeService) InvalidateCache(ctx context.Context, ids []string) {
	if s.cache == nil {
		return
	}
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			s.log.Warn("Invalid id in event", zap.String("id", raw))
			continue
		}
		if err := s.cache.Delete(ctx, employeeDomain.CacheKeyByID(id)); err != nil {
			s.log.Warn("Cache deletion failed", zap.String("id", raw), zap.Error(err))
		}
	}
}

// BuildCriteria traduce los filtros por campo y la búsqueda global a
// criterios neutrales. Los campos de texto usan "contiene"; salary, igualdad.
// Los campos desconocidos se ignoran.
func BuildCriteria(filters map[string]string, search string) (sharedDomain.Criteria, error) {
	var all []sharedDomain.Criteria

	for field, value := range filters {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		switch {
		case employeeDomain.IsTextField(field):
			all = append(all, employeeDomain.FieldContainsCriteria{Field: field, Value: value})
		case field == employeeDomain.FieldSalary:
			salary, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: salary must be a number", employeeDomain.ErrInvalidQuery)
			}
			all = append(all, employeeDomain.SalaryEqualsCriteria{Salary: salary})
		}
	}

	if sc := employeeDomain.SearchCriteria(search); sc != nil {
		all = append(all, sc)
	}

	if len(all) == 0 {
		return nil, nil
	}
	return sharedDomain.And(all...), nil
}

func isNotFound(err error) bool {
	return errors.Is(err, employeeDomain.ErrEmployeeNotFound)
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
