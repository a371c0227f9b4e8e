package mocks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	employeeDomain "github.com/davicafu/lazygrid/internal/employee/domain"
	sharedDomain "github.com/davicafu/lazygrid/internal/shared/domain"
	sharedQuery "github.com/davicafu/lazygrid/internal/shared/infra/platform/query"
)

// InMemoryEmployeeRepo simula EmployeeRepository con outbox incluido.
type InMemoryEmployeeRepo struct {
	Employees map[uuid.UUID]*employeeDomain.Employee
	Outbox    []sharedDomain.OutboxEvent

	// FailGets hace fallar las próximas N llamadas a GetByID.
	FailGets int
	GetCalls int

	mu sync.Mutex
}

var errTransient = errors.New("transient failure")

func NewInMemoryEmployeeRepo() *InMemoryEmployeeRepo {
	return &InMemoryEmployeeRepo{
		Employees: make(map[uuid.UUID]*employeeDomain.Employee),
	}
}

// Seed guarda empleados sin generar eventos.
func (r *InMemoryEmployeeRepo) Seed(employees ...employeeDomain.Employee) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range employees {
		e := employees[i]
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
		r.Employees[e.ID] = &e
	}
}

func (r *InMemoryEmployeeRepo) Create(ctx context.Context, e *employeeDomain.Employee, evt sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.Employees {
		if existing.ID == e.ID || strings.EqualFold(existing.Email, e.Email) {
			return employeeDomain.ErrEmployeeAlreadyExists
		}
	}
	cp := *e
	r.Employees[e.ID] = &cp
	r.Outbox = append(r.Outbox, evt)
	return nil
}

func (r *InMemoryEmployeeRepo) Update(ctx context.Context, e *employeeDomain.Employee, evt sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Employees[e.ID]; !ok {
		return employeeDomain.ErrEmployeeNotFound
	}
	cp := *e
	r.Employees[e.ID] = &cp
	r.Outbox = append(r.Outbox, evt)
	return nil
}

func (r *InMemoryEmployeeRepo) GetByID(ctx context.Context, id uuid.UUID) (*employeeDomain.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.GetCalls++
	if r.FailGets > 0 {
		r.FailGets--
		return nil, errTransient
	}
	e, ok := r.Employees[id]
	if !ok {
		return nil, employeeDomain.ErrEmployeeNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *InMemoryEmployeeRepo) DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Employees[id]; !ok {
		return employeeDomain.ErrEmployeeNotFound
	}
	delete(r.Employees, id)
	r.Outbox = append(r.Outbox, evt)
	return nil
}

func (r *InMemoryEmployeeRepo) DeleteByIDs(ctx context.Context, ids []uuid.UUID, evt sharedDomain.OutboxEvent) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, id := range ids {
		if _, ok := r.Employees[id]; ok {
			delete(r.Employees, id)
			n++
		}
	}
	r.Outbox = append(r.Outbox, evt)
	return n, nil
}

func (r *InMemoryEmployeeRepo) ListByCriteria(
	ctx context.Context,
	criteria sharedDomain.Criteria,
	pagination sharedQuery.OffsetPagination,
	sorts sharedQuery.Sort,
) ([]*employeeDomain.Employee, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var list []*employeeDomain.Employee
	for _, e := range r.Employees {
		ok, err := matchEmployee(e, criteria)
		if err != nil {
			return nil, 0, err
		}
		if ok {
			cp := *e
			list = append(list, &cp)
		}
	}

	sort.SliceStable(list, func(i, j int) bool {
		return lessEmployee(list[i], list[j], sorts)
	})

	total := len(list)
	start := pagination.Offset
	if start > total {
		return []*employeeDomain.Employee{}, total, nil
	}
	end := start + pagination.Limit
	if end > total {
		end = total
	}
	return list[start:end], total, nil
}

// --- Lógica de filtrado y ordenamiento del mock ---

func matchEmployee(e *employeeDomain.Employee, criteria sharedDomain.Criteria) (bool, error) {
	if sharedDomain.IsEmpty(criteria) {
		return true, nil
	}
	if comp, ok := criteria.(sharedDomain.CompositeCriteria); ok {
		matchedAny := false
		for _, sub := range comp.Criterias {
			if sharedDomain.IsEmpty(sub) {
				continue
			}
			ok, err := matchEmployee(e, sub)
			if err != nil {
				return false, err
			}
			if comp.Operator == sharedDomain.OpOr && ok {
				return true, nil
			}
			if comp.Operator != sharedDomain.OpOr && !ok {
				return false, nil
			}
			matchedAny = matchedAny || ok
		}
		if comp.Operator == sharedDomain.OpOr {
			return matchedAny, nil
		}
		return true, nil
	}

	for _, cond := range criteria.ToConditions() {
		ok, err := matchCondition(e, cond)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func matchCondition(e *employeeDomain.Employee, cond sharedDomain.Criterion) (bool, error) {
	if cond.Field == employeeDomain.FieldSalary {
		v, ok := cond.Value.(float64)
		return ok && e.Salary == v, nil
	}

	text, ok := textField(e, cond.Field)
	if !ok {
		return false, fmt.Errorf("%w: unknown field %s", employeeDomain.ErrInvalidQuery, cond.Field)
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(fmt.Sprint(cond.Value))), nil
}

func textField(e *employeeDomain.Employee, field string) (string, bool) {
	switch field {
	case employeeDomain.FieldFirstName:
		return e.FirstName, true
	case employeeDomain.FieldLastName:
		return e.LastName, true
	case employeeDomain.FieldEmail:
		return e.Email, true
	case employeeDomain.FieldPosition:
		return e.Position, true
	}
	return "", false
}

func lessEmployee(a, b *employeeDomain.Employee, s sharedQuery.Sort) bool {
	var less, greater bool
	switch s.Field {
	case employeeDomain.FieldSalary:
		less, greater = a.Salary < b.Salary, a.Salary > b.Salary
	case employeeDomain.FieldCreatedDate:
		less, greater = a.CreatedDate.Before(b.CreatedDate), a.CreatedDate.After(b.CreatedDate)
	case employeeDomain.FieldModifiedDate:
		less, greater = a.ModifiedDate.Before(b.ModifiedDate), a.ModifiedDate.After(b.ModifiedDate)
	case "":
		// orden por defecto: id, estable entre páginas
		return a.ID.String() < b.ID.String()
	default:
		x, _ := textField(a, s.Field)
		y, _ := textField(b, s.Field)
		less, greater = x < y, x > y
	}
	if !less && !greater {
		return a.ID.String() < b.ID.String()
	}
	if s.Desc {
		return greater
	}
	return less
}

var _ employeeDomain.EmployeeRepository = (*InMemoryEmployeeRepo)(nil)
