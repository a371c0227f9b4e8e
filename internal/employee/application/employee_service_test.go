package application

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	employeeDomain "github.com/davicafu/lazygrid/internal/employee/domain"
	sharedDomain "github.com/davicafu/lazygrid/internal/shared/domain"
	sharedQuery "github.com/davicafu/lazygrid/internal/shared/infra/platform/query"
	"github.com/davicafu/lazygrid/tests/mocks"
)

func newEmployee(first, last string) employeeDomain.Employee {
	return employeeDomain.Employee{
		FirstName: first,
		LastName:  last,
		Email:     fmt.Sprintf("%s.%s@example.com", first, last),
		Position:  "Developer",
		Salary:    40000,
	}
}

func newService(t *testing.T) (*EmployeeService, *mocks.InMemoryEmployeeRepo, *mocks.DummyCache) {
	t.Helper()
	repo := mocks.NewInMemoryEmployeeRepo()
	cache := mocks.NewDummyCache()
	return NewEmployeeService(repo, cache, zap.NewNop()), repo, cache
}

func TestCreateEmployee_Success(t *testing.T) {
	service, repo, cache := newService(t)

	e, err := service.CreateEmployee(context.Background(), newEmployee("ana", "smith"))

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, e.ID)
	assert.False(t, e.CreatedDate.IsZero())
	assert.Equal(t, e.CreatedDate, e.ModifiedDate)

	require.Len(t, repo.Outbox, 1)
	assert.Equal(t, employeeDomain.EmployeeCreated, repo.Outbox[0].EventType)
	assert.Equal(t, e.ID.String(), repo.Outbox[0].AggregateID)

	assert.Eventually(t, func() bool { return cache.Has(employeeDomain.CacheKeyByID(e.ID)) },
		time.Second, 10*time.Millisecond)
}

func TestCreateEmployee_Invalid(t *testing.T) {
	service, repo, _ := newService(t)

	in := newEmployee("ana", "smith")
	in.Email = ""
	_, err := service.CreateEmployee(context.Background(), in)

	assert.ErrorIs(t, err, employeeDomain.ErrInvalidEmployee)
	assert.Empty(t, repo.Outbox)
}

func TestCreateEmployee_DuplicateEmail(t *testing.T) {
	service, _, _ := newService(t)

	_, err := service.CreateEmployee(context.Background(), newEmployee("ana", "smith"))
	require.NoError(t, err)
	_, err = service.CreateEmployee(context.Background(), newEmployee("ana", "smith"))
	assert.ErrorIs(t, err, employeeDomain.ErrEmployeeAlreadyExists)
}

func TestUpdateEmployee_KeepsCreatedDate(t *testing.T) {
	service, repo, _ := newService(t)
	created, err := service.CreateEmployee(context.Background(), newEmployee("ana", "smith"))
	require.NoError(t, err)

	later := created.CreatedDate.Add(time.Hour)
	service.now = func() time.Time { return later }

	in := *created
	in.Position = "Lead"
	in.CreatedDate = time.Time{}
	updated, err := service.UpdateEmployee(context.Background(), in)

	require.NoError(t, err)
	assert.Equal(t, "Lead", updated.Position)
	assert.Equal(t, created.CreatedDate, updated.CreatedDate)
	assert.Equal(t, later, updated.ModifiedDate)

	require.Len(t, repo.Outbox, 2)
	assert.Equal(t, employeeDomain.EmployeeUpdated, repo.Outbox[1].EventType)
}

func TestUpdateEmployee_NotFound(t *testing.T) {
	service, _, _ := newService(t)

	in := newEmployee("ana", "smith")
	in.ID = uuid.New()
	_, err := service.UpdateEmployee(context.Background(), in)
	assert.ErrorIs(t, err, employeeDomain.ErrEmployeeNotFound)

	in.ID = uuid.Nil
	_, err = service.UpdateEmployee(context.Background(), in)
	assert.ErrorIs(t, err, employeeDomain.ErrInvalidEmployee)
}

// -------------------- GetEmployee con Cache --------------------

func TestGetEmployee_CacheHit(t *testing.T) {
	service, repo, cache := newService(t)
	e := newEmployee("ana", "smith")
	e.ID = uuid.New()
	require.NoError(t, cache.Set(context.Background(), employeeDomain.CacheKeyByID(e.ID), e, 60))

	got, err := service.GetEmployee(context.Background(), e.ID)

	require.NoError(t, err)
	assert.Equal(t, "ana", got.FirstName)
	assert.Zero(t, repo.GetCalls, "un hit no consulta el repositorio")
}

func TestGetEmployee_RetriesTransientErrors(t *testing.T) {
	service, repo, _ := newService(t)
	e := newEmployee("ana", "smith")
	e.ID = uuid.New()
	repo.Seed(e)
	repo.FailGets = 2

	got, err := service.GetEmployee(context.Background(), e.ID)

	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, 3, repo.GetCalls)
}

func TestGetEmployee_NotFoundIsNotRetried(t *testing.T) {
	service, repo, _ := newService(t)

	_, err := service.GetEmployee(context.Background(), uuid.New())

	assert.ErrorIs(t, err, employeeDomain.ErrEmployeeNotFound)
	assert.Equal(t, 1, repo.GetCalls)
}

func TestDeleteEmployee(t *testing.T) {
	service, repo, cache := newService(t)
	created, err := service.CreateEmployee(context.Background(), newEmployee("ana", "smith"))
	require.NoError(t, err)

	require.NoError(t, service.DeleteEmployee(context.Background(), created.ID))

	_, err = repo.GetByID(context.Background(), created.ID)
	assert.ErrorIs(t, err, employeeDomain.ErrEmployeeNotFound)
	require.Len(t, repo.Outbox, 2)
	assert.Equal(t, employeeDomain.EmployeeDeleted, repo.Outbox[1].EventType)
	assert.Equal(t, employeeDomain.DeletedPayload{IDs: []string{created.ID.String()}}, repo.Outbox[1].Payload)
	assert.Eventually(t, func() bool { return cache.Deletes() > 0 }, time.Second, 10*time.Millisecond)

	assert.ErrorIs(t, service.DeleteEmployee(context.Background(), created.ID), employeeDomain.ErrEmployeeNotFound)
}

func TestDeleteEmployees_Batch(t *testing.T) {
	service, repo, _ := newService(t)
	a, _ := service.CreateEmployee(context.Background(), newEmployee("ana", "smith"))
	b, _ := service.CreateEmployee(context.Background(), newEmployee("bob", "jones"))
	c, _ := service.CreateEmployee(context.Background(), newEmployee("carl", "wu"))

	n, err := service.DeleteEmployees(context.Background(), []uuid.UUID{a.ID, b.ID, a.ID, uuid.New()})

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, repo.Employees, 1)
	assert.Contains(t, repo.Employees, c.ID)

	last := repo.Outbox[len(repo.Outbox)-1]
	assert.Equal(t, employeeDomain.EmployeesDeleted, last.EventType)
	assert.Len(t, last.Payload.(employeeDomain.DeletedPayload).IDs, 3)

	_, err = service.DeleteEmployees(context.Background(), nil)
	assert.ErrorIs(t, err, employeeDomain.ErrInvalidQuery)
}

// -------------------- Listados --------------------

func seedPeople(repo *mocks.InMemoryEmployeeRepo) {
	people := []employeeDomain.Employee{
		{FirstName: "Ana", LastName: "Smith", Email: "ana@example.com", Position: "Developer", Salary: 50000},
		{FirstName: "Bob", LastName: "Smithers", Email: "bob@example.com", Position: "Manager", Salary: 70000},
		{FirstName: "Carla", LastName: "Jones", Email: "carla@example.com", Position: "Developer", Salary: 50000},
		{FirstName: "Dan", LastName: "Brown", Email: "dan@example.com", Position: "Analyst", Salary: 45000},
	}
	repo.Seed(people...)
}

func TestListEmployees(t *testing.T) {
	service, repo, _ := newService(t)
	seedPeople(repo)

	tests := []struct {
		name      string
		query     ListQuery
		wantTotal int
		wantFirst []string
	}{
		{
			name:      "sin filtros, por apellido",
			query:     ListQuery{Pagination: sharedQuery.NewPageRequest(0, 10), Sort: sharedQuery.Sort{Field: "lastName"}},
			wantTotal: 4,
			wantFirst: []string{"Brown", "Jones", "Smith", "Smithers"},
		},
		{
			name: "contiene sin distinguir mayúsculas",
			query: ListQuery{
				Filters:    map[string]string{"lastName": "SMITH"},
				Pagination: sharedQuery.NewPageRequest(0, 10),
				Sort:       sharedQuery.Sort{Field: "lastName", Desc: true},
			},
			wantTotal: 2,
			wantFirst: []string{"Smithers", "Smith"},
		},
		{
			name: "salario exacto y búsqueda global",
			query: ListQuery{
				Filters:    map[string]string{"salary": "50000"},
				Search:     "carla",
				Pagination: sharedQuery.NewPageRequest(0, 10),
			},
			wantTotal: 1,
			wantFirst: []string{"Jones"},
		},
		{
			name: "segunda página",
			query: ListQuery{
				Pagination: sharedQuery.NewPageRequest(1, 3),
				Sort:       sharedQuery.Sort{Field: "salary"},
			},
			wantTotal: 4,
			wantFirst: []string{"Smithers"},
		},
		{
			name: "campos desconocidos se ignoran",
			query: ListQuery{
				Filters:    map[string]string{"password": "x"},
				Pagination: sharedQuery.NewPageRequest(0, 10),
			},
			wantTotal: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := service.ListEmployees(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, page.Total)
			if tt.wantFirst != nil {
				var got []string
				for _, e := range page.Items {
					got = append(got, e.LastName)
				}
				assert.Equal(t, tt.wantFirst, got)
			}
		})
	}
}

func TestListEmployees_InvalidQuery(t *testing.T) {
	service, _, _ := newService(t)

	_, err := service.ListEmployees(context.Background(), ListQuery{Sort: sharedQuery.Sort{Field: "password"}})
	assert.ErrorIs(t, err, employeeDomain.ErrInvalidQuery)

	_, err = service.ListEmployees(context.Background(), ListQuery{Filters: map[string]string{"salary": "lots"}})
	assert.ErrorIs(t, err, employeeDomain.ErrInvalidQuery)
}

func TestListEmployees_RecordsQuery(t *testing.T) {
	repo := mocks.NewInMemoryEmployeeRepo()
	seedPeople(repo)
	logRepo := &mocks.RecordingQueryLogRepo{}
	recorder := NewQueryRecorder(logRepo, time.Hour, 1, zap.NewNop())
	service := NewEmployeeService(repo, nil, zap.NewNop(), WithQueryRecorder(recorder))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		recorder.Start(ctx)
		close(done)
	}()

	_, err := service.ListEmployees(context.Background(), ListQuery{
		Search:     "dev",
		Pagination: sharedQuery.NewPageRequest(0, 2),
		Sort:       sharedQuery.Sort{Field: "salary", Desc: true},
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return len(logRepo.Entries()) == 1 }, time.Second, 10*time.Millisecond)
	cancel()
	<-done

	entry := logRepo.Entries()[0]
	assert.Equal(t, "dev", entry.Search)
	assert.Equal(t, "salary", entry.SortField)
	assert.True(t, entry.SortDesc)
	assert.Equal(t, 2, entry.Size)
	assert.Equal(t, 2, entry.Total)
}

func TestBuildCriteria(t *testing.T) {
	c, err := BuildCriteria(map[string]string{"firstName": " ", "email": ""}, "")
	require.NoError(t, err)
	assert.True(t, sharedDomain.IsEmpty(c))

	c, err = BuildCriteria(map[string]string{"salary": "1e3"}, "x")
	require.NoError(t, err)
	comp, ok := c.(sharedDomain.CompositeCriteria)
	require.True(t, ok)
	assert.Equal(t, sharedDomain.OpAnd, comp.Operator)
	assert.Len(t, comp.Criterias, 2)
}

func TestInvalidateCache(t *testing.T) {
	service, _, cache := newService(t)
	id := uuid.New()
	key := employeeDomain.CacheKeyByID(id)
	require.NoError(t, cache.Set(context.Background(), key, newEmployee("a", "b"), 60))

	service.InvalidateCache(context.Background(), []string{id.String(), "not-a-uuid"})
	assert.False(t, cache.Has(key))
}
