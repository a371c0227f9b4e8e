package query

// ---------- Tipos de paginación / ordenamiento ----------

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// OffsetPagination para paginación clásica
type OffsetPagination struct {
	Limit  int
	Offset int
}

// NewPageRequest traduce page/size (base 0) a limit/offset, acotando size.
func NewPageRequest(page, size int) OffsetPagination {
	if size <= 0 {
		size = DefaultLimit
	}
	if size > MaxLimit {
		size = MaxLimit
	}
	if page < 0 {
		page = 0
	}
	return OffsetPagination{Limit: size, Offset: page * size}
}

// Page es el índice de página (base 0).
func (p OffsetPagination) Page() int {
	if p.Limit <= 0 {
		return 0
	}
	return p.Offset / p.Limit
}

// Sort indica campo y dirección. Field vacío = orden por defecto del repo.
type Sort struct {
	Field string // ej. "lastName", "salary"
	Desc  bool
}

// Page es una página de resultados y el total de coincidencias.
type Page[T any] struct {
	Items      []T
	Total      int
	Pagination OffsetPagination
}

// TotalPages calcula el número de páginas para el total actual.
func (p Page[T]) TotalPages() int {
	if p.Pagination.Limit <= 0 {
		return 0
	}
	return (p.Total + p.Pagination.Limit - 1) / p.Pagination.Limit
}
