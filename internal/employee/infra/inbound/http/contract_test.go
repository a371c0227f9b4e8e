package http

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/davicafu/lazygrid/internal/collection"
	employeeDomain "github.com/davicafu/lazygrid/internal/employee/domain"
	"github.com/davicafu/lazygrid/internal/grid"
)

// La tabla perezosa del cliente contra el servidor real: cada interacción
// llega al servidor con los parámetros que entiende.
func TestGridAgainstEmployeeAPI(t *testing.T) {
	r, repo := setupRouter(t)
	seed(repo, 42)
	repo.Seed(employeeDomain.Employee{FirstName: "Ana", LastName: "Smith", Email: "ana@example.com", Position: "Analyst", Salary: 99000})

	srv := httptest.NewServer(r)
	defer srv.Close()

	client := collection.NewHTTPClient[employeeDomain.Employee](srv.URL + "/api/employees")
	ctrl := grid.New[employeeDomain.Employee](client, zap.NewNop(),
		grid.WithPageSize(10),
		grid.WithEntityName("Employee", "Employees"),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ctrl.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	settled := func(check func(s grid.Snapshot[employeeDomain.Employee]) bool) {
		t.Helper()
		require.Eventually(t, func() bool {
			s := ctrl.Snapshot()
			return !s.Loading && check(s)
		}, 2*time.Second, 10*time.Millisecond)
	}

	// montaje
	settled(func(s grid.Snapshot[employeeDomain.Employee]) bool { return s.TotalCount == 43 && len(s.Rows) == 10 })

	// última página ordenada por salario
	ctrl.ChangeSort("salary", grid.SortDesc)
	ctrl.ChangePage(40, 10)
	settled(func(s grid.Snapshot[employeeDomain.Employee]) bool {
		return s.State.Offset == 40 && len(s.Rows) == 3 && s.Rows[2].Salary == 1000
	})

	// filtrar vuelve a la primera página
	ctrl.ChangeFilters(grid.RawFilters{"lastName": map[string]any{"value": "smi"}})
	settled(func(s grid.Snapshot[employeeDomain.Employee]) bool {
		return s.State.Offset == 0 && s.TotalCount == 1 && s.Rows[0].Email == "ana@example.com"
	})

	// búsqueda global sobre el filtro
	ctrl.Search("nobody")
	settled(func(s grid.Snapshot[employeeDomain.Employee]) bool { return s.TotalCount == 0 && len(s.Rows) == 0 })

	ctrl.ChangeFilters(grid.RawFilters{})
	settled(func(s grid.Snapshot[employeeDomain.Employee]) bool { return s.TotalCount == 43 })

	// borrado múltiple y recarga con el mismo estado
	rows := ctrl.Snapshot().Rows
	require.NoError(t, ctrl.DeleteMany(context.Background(), grid.IDs(rows[:3])))
	settled(func(s grid.Snapshot[employeeDomain.Employee]) bool { return s.TotalCount == 40 })

	// una validación local no llega al servidor
	_, err := ctrl.Create(context.Background(), employeeDomain.Employee{FirstName: "NoEmail", Position: "Dev"})
	assert.True(t, grid.IsValidation(err))
	assert.Len(t, repo.Employees, 40)
}
