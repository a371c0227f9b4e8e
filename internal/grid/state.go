package grid

// ---------------- Orden ----------------

type SortDirection int

const (
	SortNone SortDirection = iota
	SortAsc
	SortDesc
)

func (d SortDirection) String() string {
	switch d {
	case SortAsc:
		return "asc"
	case SortDesc:
		return "desc"
	default:
		return "none"
	}
}

// ParseSortDirection acepta "asc"/"desc" y los valores 1/-1 de las tablas
// de la vista; cualquier otra cosa es SortNone.
func ParseSortDirection(s string) SortDirection {
	switch s {
	case "asc", "ASC", "1":
		return SortAsc
	case "desc", "DESC", "-1":
		return SortDesc
	default:
		return SortNone
	}
}

// ---------------- QueryState ----------------

const DefaultPageSize = 10

// PageSizeOptions son los tamaños de página que ofrece la vista.
var PageSizeOptions = []int{5, 10, 25}

// QueryState es la intención de paginación, orden y filtrado de la vista.
// Se reemplaza completa en cada transición; nunca se modifica en sitio.
type QueryState struct {
	Offset        int
	PageSize      int
	SortField     string
	SortDirection SortDirection
	Filters       Filters
}

// NewQueryState devuelve el estado inicial de la vista al montarse.
func NewQueryState(pageSize int) QueryState {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return QueryState{
		Offset:   0,
		PageSize: pageSize,
		Filters:  Filters{},
	}
}

// Sorted indica si hay un campo de orden activo.
func (s QueryState) Sorted() bool {
	return s.SortField != "" && s.SortDirection != SortNone
}

// Page es el índice de página (base 0) del offset actual.
func (s QueryState) Page() int {
	if s.PageSize <= 0 {
		return 0
	}
	return s.Offset / s.PageSize
}

// Equal compara dos estados campo a campo.
func (s QueryState) Equal(other QueryState) bool {
	return s.Offset == other.Offset &&
		s.PageSize == other.PageSize &&
		s.SortField == other.SortField &&
		s.SortDirection == other.SortDirection &&
		s.Filters.Equal(other.Filters)
}

func (s QueryState) clone() QueryState {
	s.Filters = s.Filters.Clone()
	return s
}
