package grid

import "strings"

// Event es una interacción de la vista que cambia la consulta.
type Event interface {
	isEvent()
}

// PageChange llega desde el paginador.
type PageChange struct {
	Offset   int
	PageSize int
}

// SortChange llega al pulsar una cabecera ordenable.
type SortChange struct {
	Field     string
	Direction SortDirection
}

// FilterChange trae el mapa completo de filtros de la vista.
type FilterChange struct {
	Filters RawFilters
}

// GlobalFilterChange cambia solo el término de búsqueda libre.
type GlobalFilterChange struct {
	Term string
}

func (PageChange) isEvent()         {}
func (SortChange) isEvent()         {}
func (FilterChange) isEvent()       {}
func (GlobalFilterChange) isEvent() {}

// Reduce calcula el siguiente estado. Es pura: no toca current y siempre
// devuelve un valor nuevo.
func Reduce(current QueryState, ev Event) QueryState {
	next := current.clone()

	switch e := ev.(type) {
	case PageChange:
		size := e.PageSize
		if size <= 0 {
			size = current.PageSize
		}
		if size <= 0 {
			size = DefaultPageSize
		}
		offset := e.Offset
		if offset < 0 {
			offset = 0
		}
		// el offset debe quedar alineado a la página en vigor
		next.Offset = offset / size * size
		next.PageSize = size

	case SortChange:
		field := strings.TrimSpace(e.Field)
		if field == "" || e.Direction == SortNone {
			next.SortField = ""
			next.SortDirection = SortNone
		} else {
			next.SortField = field
			next.SortDirection = e.Direction
		}

	case FilterChange:
		next.Filters = NormalizeFilters(e.Filters)
		next.Offset = 0

	case GlobalFilterChange:
		next.Filters[GlobalField] = FilterCriterion{Value: e.Term, MatchMode: MatchContains}
		next.Offset = 0
	}

	return next
}
