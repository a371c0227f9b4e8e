package grid

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
)

// Parámetros reservados de la API de colecciones.
const (
	ParamPage   = "page"
	ParamSize   = "size"
	ParamSort   = "sort"
	ParamSearch = "search"
)

var reservedParams = map[string]struct{}{
	ParamPage: {}, ParamSize: {}, ParamSort: {}, ParamSearch: {},
}

// Request es el descriptor de consulta que se envía al servicio remoto.
type Request struct {
	Page    int
	Size    int
	Sort    string            // "<campo>,<asc|desc>", vacío si no hay orden
	Search  string            // término del filtro global
	Filters map[string]string // un parámetro por campo filtrado
}

// BuildRequest traduce un QueryState a la forma que entiende el servidor.
// Requiere un offset alineado a la página.
func BuildRequest(s QueryState) Request {
	size := s.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	req := Request{
		Page:    s.Offset / size,
		Size:    size,
		Filters: map[string]string{},
	}

	if s.Sorted() {
		req.Sort = s.SortField + "," + s.SortDirection.String()
	}

	for field, c := range s.Filters {
		if c.IsEmpty() {
			continue
		}
		if field == GlobalField {
			req.Search = FormatValue(c.Value)
			continue
		}
		if _, reserved := reservedParams[field]; reserved {
			continue
		}
		req.Filters[field] = FormatValue(c.Value)
	}
	return req
}

// Values devuelve los query params en el orden canónico de la API.
func (r Request) Values() url.Values {
	q := url.Values{}
	q.Set(ParamPage, strconv.Itoa(r.Page))
	q.Set(ParamSize, strconv.Itoa(r.Size))
	if r.Sort != "" {
		q.Set(ParamSort, r.Sort)
	}
	if r.Search != "" {
		q.Set(ParamSearch, r.Search)
	}
	for _, field := range r.FilterFields() {
		q.Set(field, r.Filters[field])
	}
	return q
}

// FilterFields devuelve los campos filtrados ordenados alfabéticamente.
func (r Request) FilterFields() []string {
	fields := make([]string, 0, len(r.Filters))
	for f := range r.Filters {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// FormatValue serializa un escalar sin notación exponencial.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
