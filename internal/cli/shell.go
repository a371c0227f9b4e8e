package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	employeeDomain "github.com/davicafu/lazygrid/internal/employee/domain"
	"github.com/davicafu/lazygrid/internal/grid"
)

const shellHelp = `Commands:
  show                         repaint the current page
  next | prev | first | last   move between pages
  page N                       go to page N (1-based)
  size N                       rows per page (5, 10, 25)
  sort FIELD [asc|desc|none]   sort by a column
  filter FIELD [VALUE]         filter a column; no value clears it
  search [TERM]                global search; no term clears it
  clear                        drop every filter and the search
  refresh                      reload with the current query
  create field=value ...       add an employee
  update ID field=value ...    edit an employee
  delete ID [ID ...]           delete one or several employees
  help | quit`

var errQuit = errors.New("quit")

// Shell interpreta una línea por comando sobre una Session montada.
type Shell struct {
	session *Session
	out     io.Writer
}

func NewShell(session *Session, out io.Writer) *Shell {
	return &Shell{session: session, out: out}
}

// Run lee comandos hasta EOF o "quit". Los errores de un comando se
// muestran y la sesión sigue.
func (sh *Shell) Run(ctx context.Context, in io.Reader) error {
	RenderTable(sh.out, sh.session.Snapshot())

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(sh.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(sh.out)
			return scanner.Err()
		}
		err := sh.Execute(ctx, scanner.Text())
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(sh.out, "error: %v\n", err)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// Execute ejecuta un comando y repinta la tabla si algo cambió.
func (sh *Shell) Execute(ctx context.Context, line string) error {
	args := strings.Fields(line)
	if len(args) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(args[0]), args[1:]

	snap := sh.session.Snapshot()
	st := snap.State

	var (
		next grid.Snapshot[Row]
		err  error
	)
	switch cmd {
	case "help", "?":
		fmt.Fprintln(sh.out, shellHelp)
		return nil
	case "quit", "exit", "q":
		return errQuit
	case "show":
		RenderTable(sh.out, snap)
		return nil

	case "next":
		if st.Offset+st.PageSize >= snap.TotalCount {
			return errors.New("already on the last page")
		}
		next, err = sh.session.Apply(grid.PageChange{Offset: st.Offset + st.PageSize, PageSize: st.PageSize})
	case "prev":
		if st.Offset == 0 {
			return errors.New("already on the first page")
		}
		next, err = sh.session.Apply(grid.PageChange{Offset: st.Offset - st.PageSize, PageSize: st.PageSize})
	case "first":
		next, err = sh.session.Apply(grid.PageChange{Offset: 0, PageSize: st.PageSize})
	case "last":
		last := 0
		if snap.TotalCount > 0 {
			last = (snap.TotalCount - 1) / st.PageSize * st.PageSize
		}
		next, err = sh.session.Apply(grid.PageChange{Offset: last, PageSize: st.PageSize})
	case "page":
		n, perr := intArg(args, "page N")
		if perr != nil {
			return perr
		}
		next, err = sh.session.Apply(grid.PageChange{Offset: (n - 1) * st.PageSize, PageSize: st.PageSize})
	case "size":
		n, perr := intArg(args, "size N")
		if perr != nil {
			return perr
		}
		next, err = sh.session.Apply(grid.PageChange{Offset: st.Offset, PageSize: n})

	case "sort":
		if len(args) == 0 {
			return errors.New("usage: sort FIELD [asc|desc|none]")
		}
		dir := grid.SortAsc
		if len(args) > 1 {
			if dir = grid.ParseSortDirection(strings.ToLower(args[1])); dir == grid.SortNone && strings.ToLower(args[1]) != "none" {
				return fmt.Errorf("invalid sort direction %q", args[1])
			}
		}
		next, err = sh.session.Apply(grid.SortChange{Field: args[0], Direction: dir})
	case "filter":
		if len(args) == 0 {
			return errors.New("usage: filter FIELD [VALUE]")
		}
		next, err = sh.session.Apply(grid.FilterChange{Filters: withFilter(st.Filters, args[0], strings.Join(args[1:], " "))})
	case "search":
		next, err = sh.session.Apply(grid.GlobalFilterChange{Term: strings.Join(args, " ")})
	case "clear":
		next, err = sh.session.Apply(grid.FilterChange{Filters: grid.RawFilters{}})
	case "refresh":
		next, err = sh.session.Refresh()

	case "create":
		var row Row
		if aerr := ApplyAssignments(&row, args); aerr != nil {
			return aerr
		}
		_, next, err = sh.session.Create(ctx, row)
	case "update":
		if len(args) < 2 {
			return errors.New("usage: update ID field=value ...")
		}
		row, lerr := sh.session.Lookup(ctx, args[0])
		if lerr != nil {
			return lerr
		}
		if aerr := ApplyAssignments(&row, args[1:]); aerr != nil {
			return aerr
		}
		_, next, err = sh.session.Update(ctx, row)
	case "delete", "rm":
		switch len(args) {
		case 0:
			return errors.New("usage: delete ID [ID ...]")
		case 1:
			next, err = sh.session.Delete(ctx, args[0])
		default:
			next, err = sh.session.DeleteMany(ctx, args)
		}

	default:
		return fmt.Errorf("unknown command %q (try help)", cmd)
	}

	// un fallo de carga ya se avisó por el notifier; se pinta lo que queda
	if err = loadOK(err); err != nil {
		return err
	}
	RenderTable(sh.out, next)
	return nil
}

// withFilter devuelve los filtros actuales con field fijado a value. Salary
// se compara por igualdad; el resto, por "contiene".
func withFilter(current grid.Filters, field, value string) grid.RawFilters {
	raw := current.Raw()
	if value == "" {
		delete(raw, field)
		return raw
	}
	mode := grid.MatchContains
	if field == employeeDomain.FieldSalary {
		mode = grid.MatchEquals
	}
	raw[field] = grid.FilterCriterion{Value: value, MatchMode: mode}
	return raw
}

func intArg(args []string, usage string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("usage: %s", usage)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("expected a positive number, got %q", args[0])
	}
	return n, nil
}
