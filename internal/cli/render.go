package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/davicafu/lazygrid/internal/grid"
)

// WriterNotifier pinta los avisos del controlador como líneas de texto.
type WriterNotifier struct {
	mu  sync.Mutex
	out io.Writer
}

func NewWriterNotifier(out io.Writer) *WriterNotifier {
	return &WriterNotifier{out: out}
}

func (n *WriterNotifier) Notify(msg grid.Notification) {
	icon := "ℹ"
	switch msg.Severity {
	case grid.SeveritySuccess:
		icon = "✔"
	case grid.SeverityWarn:
		icon = "⚠"
	case grid.SeverityError:
		icon = "✖"
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.out, "%s %s: %s\n", icon, msg.Summary, msg.Detail)
}

// RenderTable pinta la página visible y una línea de estado.
func RenderTable(w io.Writer, snap grid.Snapshot[Row]) {
	if len(snap.Rows) == 0 {
		fmt.Fprintln(w, "No employees found.")
	} else {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tFIRST NAME\tLAST NAME\tEMAIL\tPOSITION\tSALARY")
		for _, r := range snap.Rows {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				r.GetID(), r.FirstName, r.LastName, r.Email, r.Position, formatSalary(r.Salary))
		}
		tw.Flush()
	}
	fmt.Fprintln(w, StatusLine(snap))
}

// StatusLine resume paginación, orden y filtros del snapshot.
func StatusLine(snap grid.Snapshot[Row]) string {
	st := snap.State
	pages := 1
	if snap.TotalCount > 0 {
		pages = (snap.TotalCount + st.PageSize - 1) / st.PageSize
	}

	parts := []string{}
	if len(snap.Rows) > 0 {
		parts = append(parts, fmt.Sprintf("rows %d-%d of %d", st.Offset+1, st.Offset+len(snap.Rows), snap.TotalCount))
	} else {
		parts = append(parts, fmt.Sprintf("0 of %d", snap.TotalCount))
	}
	parts = append(parts, fmt.Sprintf("page %d/%d", st.Page()+1, pages), fmt.Sprintf("size %d", st.PageSize))

	if st.Sorted() {
		parts = append(parts, fmt.Sprintf("sort %s %s", st.SortField, st.SortDirection))
	}
	if global, ok := st.Filters.Global(); ok {
		parts = append(parts, fmt.Sprintf("search %q", grid.FormatValue(global.Value)))
	}
	if filters := describeFilters(st.Filters); filters != "" {
		parts = append(parts, "filters "+filters)
	}
	if snap.Err != nil {
		parts = append(parts, "last load failed")
	}
	return strings.Join(parts, " | ")
}

func describeFilters(f grid.Filters) string {
	fields := make([]string, 0, len(f))
	for field, c := range f {
		if field == grid.GlobalField || c.IsEmpty() {
			continue
		}
		fields = append(fields, field)
	}
	sort.Strings(fields)

	out := make([]string, 0, len(fields))
	for _, field := range fields {
		c := f[field]
		out = append(out, fmt.Sprintf("%s %s %q", field, c.MatchMode, grid.FormatValue(c.Value)))
	}
	return strings.Join(out, ", ")
}

func formatSalary(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

type pageJSON struct {
	Rows       []Row `json:"rows"`
	TotalCount int   `json:"totalCount"`
	Page       int   `json:"page"`
	Size       int   `json:"size"`
}

// RenderJSON escribe la página como JSON, para scripts.
func RenderJSON(w io.Writer, snap grid.Snapshot[Row]) error {
	rows := snap.Rows
	if rows == nil {
		rows = []Row{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(pageJSON{
		Rows:       rows,
		TotalCount: snap.TotalCount,
		Page:       snap.State.Page(),
		Size:       snap.State.PageSize,
	})
}
