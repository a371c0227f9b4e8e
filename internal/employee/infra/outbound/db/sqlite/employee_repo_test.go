package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	employeeDomain "github.com/davicafu/lazygrid/internal/employee/domain"
	sharedDomain "github.com/davicafu/lazygrid/internal/shared/domain"
	sharedSQLite "github.com/davicafu/lazygrid/internal/shared/infra/platform/db/sqlite"
	sharedQuery "github.com/davicafu/lazygrid/internal/shared/infra/platform/query"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// cada conexión a :memory: es una base distinta
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, InitSQLite(context.Background(), db))
	return db
}

func newEmployee(first, last, position string, salary float64, created time.Time) *employeeDomain.Employee {
	return &employeeDomain.Employee{
		ID:           uuid.New(),
		FirstName:    first,
		LastName:     last,
		Email:        fmt.Sprintf("%s@example.com", first),
		Position:     position,
		Salary:       salary,
		CreatedDate:  created,
		ModifiedDate: created,
	}
}

func createdEvent(e *employeeDomain.Employee) sharedDomain.OutboxEvent {
	return sharedDomain.NewOutboxEvent(employeeDomain.EmployeeAggregateType, e.ID.String(), employeeDomain.EmployeeCreated, e)
}

func TestEmployeeRepoSQLite_CRUD(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	repo := NewEmployeeRepoSQLite(db)
	outbox := sharedSQLite.NewOutboxRepoSQLite(db)

	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	e := newEmployee("ana", "Smith", "Developer", 50000, created)
	require.NoError(t, repo.Create(ctx, e, createdEvent(e)))

	got, err := repo.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.FirstName, got.FirstName)
	assert.Equal(t, e.Salary, got.Salary)
	assert.True(t, created.Equal(got.CreatedDate))

	dup := newEmployee("ana", "Other", "QA", 1, created)
	assert.ErrorIs(t, repo.Create(ctx, dup, createdEvent(dup)), employeeDomain.ErrEmployeeAlreadyExists)

	e.Position = "Lead"
	require.NoError(t, repo.Update(ctx, e, createdEvent(e)))
	got, err = repo.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lead", got.Position)

	missing := newEmployee("bob", "X", "QA", 1, created)
	assert.ErrorIs(t, repo.Update(ctx, missing, createdEvent(missing)), employeeDomain.ErrEmployeeNotFound)

	require.NoError(t, repo.DeleteByID(ctx, e.ID, createdEvent(e)))
	_, err = repo.GetByID(ctx, e.ID)
	assert.ErrorIs(t, err, employeeDomain.ErrEmployeeNotFound)
	assert.ErrorIs(t, repo.DeleteByID(ctx, e.ID, createdEvent(e)), employeeDomain.ErrEmployeeNotFound)

	// create + update + delete; el duplicado hizo rollback
	pending, err := outbox.FetchPendingOutbox(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 3)
}

func TestEmployeeRepoSQLite_DeleteByIDs(t *testing.T) {
	ctx := context.Background()
	repo := NewEmployeeRepoSQLite(setupDB(t))

	now := time.Now().UTC()
	a := newEmployee("ana", "A", "Dev", 1, now)
	b := newEmployee("bob", "B", "Dev", 1, now)
	c := newEmployee("carl", "C", "Dev", 1, now)
	for _, e := range []*employeeDomain.Employee{a, b, c} {
		require.NoError(t, repo.Create(ctx, e, createdEvent(e)))
	}

	evt := sharedDomain.NewOutboxEvent(employeeDomain.EmployeeAggregateType, a.ID.String(), employeeDomain.EmployeesDeleted,
		employeeDomain.DeletedPayload{IDs: []string{a.ID.String(), b.ID.String()}})
	n, err := repo.DeleteByIDs(ctx, []uuid.UUID{a.ID, b.ID, uuid.New()}, evt)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, total, err := repo.ListByCriteria(ctx, nil, sharedQuery.NewPageRequest(0, 10), sharedQuery.Sort{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestEmployeeRepoSQLite_ListByCriteria(t *testing.T) {
	ctx := context.Background()
	repo := NewEmployeeRepoSQLite(setupDB(t))

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	people := []*employeeDomain.Employee{
		newEmployee("ana", "Smith", "Developer", 50000, base),
		newEmployee("bob", "Smithers", "Manager", 70000, base.Add(time.Hour)),
		newEmployee("carla", "Jones", "Developer", 50000, base.Add(2*time.Hour)),
		newEmployee("dan", "Brown", "Analyst_1", 45000, base.Add(3*time.Hour)),
	}
	for _, e := range people {
		require.NoError(t, repo.Create(ctx, e, createdEvent(e)))
	}

	lastNames := func(list []*employeeDomain.Employee) []string {
		var out []string
		for _, e := range list {
			out = append(out, e.LastName)
		}
		return out
	}

	t.Run("orden por defecto: más recientes primero", func(t *testing.T) {
		list, total, err := repo.ListByCriteria(ctx, nil, sharedQuery.NewPageRequest(0, 2), sharedQuery.Sort{})
		require.NoError(t, err)
		assert.Equal(t, 4, total)
		assert.Equal(t, []string{"Brown", "Jones"}, lastNames(list))
	})

	t.Run("contiene sin distinguir mayúsculas", func(t *testing.T) {
		criteria := employeeDomain.FieldContainsCriteria{Field: "lastName", Value: "SMITH"}
		list, total, err := repo.ListByCriteria(ctx, criteria, sharedQuery.NewPageRequest(0, 10),
			sharedQuery.Sort{Field: "lastName", Desc: true})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Equal(t, []string{"Smithers", "Smith"}, lastNames(list))
	})

	t.Run("comodines literales", func(t *testing.T) {
		criteria := employeeDomain.FieldContainsCriteria{Field: "position", Value: "_"}
		list, total, err := repo.ListByCriteria(ctx, criteria, sharedQuery.NewPageRequest(0, 10), sharedQuery.Sort{})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Equal(t, []string{"Brown"}, lastNames(list))
	})

	t.Run("salario y búsqueda global", func(t *testing.T) {
		criteria := sharedDomain.And(
			employeeDomain.SalaryEqualsCriteria{Salary: 50000},
			employeeDomain.SearchCriteria("carla"),
		)
		list, total, err := repo.ListByCriteria(ctx, criteria, sharedQuery.NewPageRequest(0, 10), sharedQuery.Sort{})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Equal(t, []string{"Jones"}, lastNames(list))
	})

	t.Run("página más allá del final", func(t *testing.T) {
		list, total, err := repo.ListByCriteria(ctx, nil, sharedQuery.NewPageRequest(5, 10), sharedQuery.Sort{Field: "salary"})
		require.NoError(t, err)
		assert.Equal(t, 4, total)
		assert.Empty(t, list)
	})

	t.Run("orden desconocido", func(t *testing.T) {
		_, _, err := repo.ListByCriteria(ctx, nil, sharedQuery.NewPageRequest(0, 10), sharedQuery.Sort{Field: "id; DROP TABLE employees"})
		assert.ErrorIs(t, err, employeeDomain.ErrInvalidQuery)
	})
}
