package cli

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davicafu/lazygrid/internal/grid"
)

func exec(t *testing.T, sh *Shell, line string) {
	t.Helper()
	require.NoError(t, sh.Execute(context.Background(), line), line)
}

func TestShell_Navigation(t *testing.T) {
	srv, _ := newServer(t, 23)
	s, out := newTestSession(t, srv, 10)
	sh := NewShell(s, out)

	exec(t, sh, "sort salary asc")
	snap := s.Snapshot()
	assert.Equal(t, "Emp00", snap.Rows[0].FirstName)
	assert.Equal(t, 23, snap.TotalCount)

	exec(t, sh, "next")
	snap = s.Snapshot()
	assert.Equal(t, 10, snap.State.Offset)
	assert.Equal(t, "Emp10", snap.Rows[0].FirstName)
	assert.Equal(t, "salary", snap.State.SortField, "paginar conserva el orden")

	exec(t, sh, "last")
	snap = s.Snapshot()
	assert.Equal(t, 20, snap.State.Offset)
	assert.Len(t, snap.Rows, 3)
	assert.Contains(t, out.String(), "rows 21-23 of 23 | page 3/3 | size 10 | sort salary asc")

	assert.EqualError(t, sh.Execute(context.Background(), "next"), "already on the last page")

	exec(t, sh, "sort salary desc")
	snap = s.Snapshot()
	assert.Equal(t, 20, snap.State.Offset, "ordenar no vuelve a la primera página")
	assert.Equal(t, "Emp02", snap.Rows[0].FirstName)

	exec(t, sh, "page 2")
	exec(t, sh, "size 25")
	snap = s.Snapshot()
	assert.Equal(t, 0, snap.State.Offset)
	assert.Equal(t, 25, snap.State.PageSize)
	assert.Len(t, snap.Rows, 23)

	exec(t, sh, "first")
	assert.EqualError(t, sh.Execute(context.Background(), "prev"), "already on the first page")
}

func TestShell_FilterResetsPage(t *testing.T) {
	srv, _ := newServer(t, 23)
	s, out := newTestSession(t, srv, 5)
	sh := NewShell(s, out)

	exec(t, sh, "sort salary asc")
	exec(t, sh, "page 3")
	require.Equal(t, 10, s.Snapshot().State.Offset)

	exec(t, sh, "filter firstName emp1")
	snap := s.Snapshot()
	assert.Equal(t, 0, snap.State.Offset)
	assert.Equal(t, 10, snap.TotalCount)
	assert.Equal(t, "Emp10", snap.Rows[0].FirstName)

	exec(t, sh, "filter salary 12000")
	snap = s.Snapshot()
	require.Equal(t, 1, snap.TotalCount)
	assert.Equal(t, "Emp11", snap.Rows[0].FirstName)
	assert.Equal(t, grid.MatchEquals, snap.State.Filters["salary"].MatchMode)
	assert.Contains(t, out.String(), `filters firstName contains "emp1", salary equals "12000"`)

	exec(t, sh, "filter firstName")
	assert.Equal(t, 1, s.Snapshot().TotalCount)
	_, still := s.Snapshot().State.Filters["firstName"]
	assert.False(t, still)

	exec(t, sh, "clear")
	assert.Equal(t, 23, s.Snapshot().TotalCount)
}

func TestShell_Search(t *testing.T) {
	srv, _ := newServer(t, 23)
	s, out := newTestSession(t, srv, 10)
	sh := NewShell(s, out)

	exec(t, sh, "filter position dev")
	exec(t, sh, "search EMP22@")
	snap := s.Snapshot()
	require.Equal(t, 1, snap.TotalCount)
	assert.Equal(t, "emp22@example.com", snap.Rows[0].Email)
	assert.Equal(t, "dev", snap.State.Filters["position"].Value, "la búsqueda conserva los filtros")
	assert.Contains(t, out.String(), `search "EMP22@"`)

	exec(t, sh, "search")
	assert.Equal(t, 23, s.Snapshot().TotalCount)
}

func TestShell_Mutations(t *testing.T) {
	srv, repo := newServer(t, 12)
	s, out := newTestSession(t, srv, 10)
	sh := NewShell(s, out)

	exec(t, sh, "create firstName=Ana lastName=Smith email=ana@example.com position=Analyst salary=99000")
	assert.Contains(t, out.String(), "✔ Successful: Employee Created")
	assert.Equal(t, 13, s.Snapshot().TotalCount)

	// validación local, no llega al servidor
	err := sh.Execute(context.Background(), "create firstName=NoEmail position=Dev")
	assert.True(t, grid.IsValidation(err))
	assert.Equal(t, 13, s.Snapshot().TotalCount)

	exec(t, sh, "search ana@")
	ana := s.Snapshot().Rows[0]
	require.Equal(t, "Ana", ana.FirstName)

	exec(t, sh, "update "+ana.GetID()+" salary=100 position=Lead")
	assert.Contains(t, out.String(), "Employee Updated")
	stored, err := repo.GetByID(context.Background(), ana.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, stored.Salary)
	assert.Equal(t, "Lead", stored.Position)
	assert.Equal(t, "Smith", stored.LastName, "los campos no asignados se conservan")

	exec(t, sh, "delete "+ana.GetID())
	assert.Contains(t, out.String(), "Employee Deleted")
	assert.Equal(t, 0, s.Snapshot().TotalCount)

	exec(t, sh, "clear")
	exec(t, sh, "sort salary asc")
	rows := s.Snapshot().Rows
	exec(t, sh, "delete "+rows[0].GetID()+" "+rows[1].GetID())
	assert.Contains(t, out.String(), "Employees Deleted")
	snap := s.Snapshot()
	assert.Equal(t, 10, snap.TotalCount)
	assert.Equal(t, "salary", snap.State.SortField, "el refetch conserva el estado")
}

func TestShell_UpdateRowOutsidePage(t *testing.T) {
	srv, repo := newServer(t, 12)
	s, out := newTestSession(t, srv, 5)
	sh := NewShell(s, out)

	exec(t, sh, "sort salary desc")
	// Emp00 tiene el salario más bajo: no está en la primera página
	exec(t, sh, "search emp00@")
	target := s.Snapshot().Rows[0]
	exec(t, sh, "clear")

	exec(t, sh, "update "+target.GetID()+" lastName=Moved")
	stored, err := repo.GetByID(context.Background(), target.ID)
	require.NoError(t, err)
	assert.Equal(t, "Moved", stored.LastName)

	err = sh.Execute(context.Background(), "update "+uuid.NewString()+" lastName=X")
	assert.Error(t, err)
}

func TestShell_Errors(t *testing.T) {
	srv, _ := newServer(t, 3)
	s, out := newTestSession(t, srv, 10)
	sh := NewShell(s, out)

	tests := map[string]string{
		"dance":             `unknown command "dance" (try help)`,
		"page":              "usage: page N",
		"page 0":            `expected a positive number, got "0"`,
		"sort":              "usage: sort FIELD [asc|desc|none]",
		"sort salary up":    `invalid sort direction "up"`,
		"filter":            "usage: filter FIELD [VALUE]",
		"update x":          "usage: update ID field=value ...",
		"delete":            "usage: delete ID [ID ...]",
		"create nonsense":   `invalid assignment "nonsense" (expected field=value)`,
		"create height=180": `unknown field "height"`,
	}
	for line, want := range tests {
		t.Run(line, func(t *testing.T) {
			assert.EqualError(t, sh.Execute(context.Background(), line), want)
		})
	}

	// campo de orden que el servidor rechaza: aviso de error y filas intactas
	before := s.Snapshot()
	require.NoError(t, sh.Execute(context.Background(), "sort height asc"))
	after := s.Snapshot()
	assert.Error(t, after.Err)
	assert.Equal(t, before.Rows, after.Rows)
	assert.Contains(t, out.String(), "✖ Error: Failed to load employees.")
	assert.Contains(t, out.String(), "last load failed")
}

func TestShell_Run(t *testing.T) {
	srv, _ := newServer(t, 3)
	s, out := newTestSession(t, srv, 10)

	in := strings.NewReader("help\nsort salary desc\nbogus\nquit\nshow\n")
	require.NoError(t, NewShell(s, out).Run(context.Background(), in))

	text := out.String()
	assert.Contains(t, text, "Commands:")
	assert.Contains(t, text, `error: unknown command "bogus"`)
	assert.Contains(t, text, "sort salary desc")
	assert.Equal(t, 1, strings.Count(text, "Commands:"))
	assert.Equal(t, grid.SortDesc, s.Snapshot().State.SortDirection)
}
