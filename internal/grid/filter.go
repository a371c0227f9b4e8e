package grid

import (
	"strings"
)

// GlobalField es la clave del filtro de búsqueda libre.
const GlobalField = "global"

// MatchMode es el operador de comparación que el servidor aplica a un filtro.
type MatchMode string

const (
	MatchStartsWith  MatchMode = "startsWith"
	MatchContains    MatchMode = "contains"
	MatchNotContains MatchMode = "notContains"
	MatchEndsWith    MatchMode = "endsWith"
	MatchEquals      MatchMode = "equals"
	MatchNotEquals   MatchMode = "notEquals"
	MatchLt          MatchMode = "lt"
	MatchLte         MatchMode = "lte"
	MatchGt          MatchMode = "gt"
	MatchGte         MatchMode = "gte"
	MatchDateIs      MatchMode = "dateIs"
	MatchDateIsNot   MatchMode = "dateIsNot"
	MatchDateBefore  MatchMode = "dateBefore"
	MatchDateAfter   MatchMode = "dateAfter"
	MatchIn          MatchMode = "in"
	MatchBetween     MatchMode = "between"
	MatchCustom      MatchMode = "custom"
)

// DefaultMatchMode se aplica cuando el modo falta o no es reconocible.
const DefaultMatchMode = MatchContains

var knownMatchModes = map[MatchMode]struct{}{
	MatchStartsWith: {}, MatchContains: {}, MatchNotContains: {}, MatchEndsWith: {},
	MatchEquals: {}, MatchNotEquals: {}, MatchLt: {}, MatchLte: {}, MatchGt: {}, MatchGte: {},
	MatchDateIs: {}, MatchDateIsNot: {}, MatchDateBefore: {}, MatchDateAfter: {},
	MatchIn: {}, MatchBetween: {}, MatchCustom: {},
}

// FilterCriterion es una restricción sobre un campo.
type FilterCriterion struct {
	Value     any       `json:"value"`
	MatchMode MatchMode `json:"matchMode"`
}

// IsEmpty indica si el criterio no restringe nada (valor nil o "").
func (c FilterCriterion) IsEmpty() bool {
	if c.Value == nil {
		return true
	}
	s, ok := c.Value.(string)
	return ok && s == ""
}

// RawFilters son los filtros tal y como llegan de la vista: sin tipar y
// posiblemente incompletos.
type RawFilters map[string]any

// Filters es un mapa de filtros normalizado: cada entrada tiene un valor
// escalar (o vacío) y un MatchMode conocido.
type Filters map[string]FilterCriterion

// Raw convierte los filtros normalizados de nuevo en entrada de la vista.
func (f Filters) Raw() RawFilters {
	raw := make(RawFilters, len(f))
	for k, v := range f {
		raw[k] = v
	}
	return raw
}

func (f Filters) Clone() Filters {
	out := make(Filters, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Global devuelve el término de búsqueda libre, si existe y no está vacío.
func (f Filters) Global() (FilterCriterion, bool) {
	c, ok := f[GlobalField]
	if !ok || c.IsEmpty() {
		return FilterCriterion{}, false
	}
	return c, true
}

// Equal compara dos mapas de filtros campo a campo.
func (f Filters) Equal(other Filters) bool {
	if len(f) != len(other) {
		return false
	}
	for k, a := range f {
		b, ok := other[k]
		if !ok || a.MatchMode != b.MatchMode || a.Value != b.Value {
			return false
		}
	}
	return true
}

// NormalizeFilters convierte la entrada de la vista en un mapa completo.
// Las entradas sin forma {value, matchMode?} o con valor no escalar se
// descartan. Si dos claves coinciden tras recortar espacios gana la que ya
// venía recortada y, entre el resto, la menor. Nunca falla.
func NormalizeFilters(raw RawFilters) Filters {
	out := make(Filters, len(raw))
	from := make(map[string]string, len(raw))
	for key, entry := range raw {
		field := strings.TrimSpace(key)
		if field == "" {
			continue
		}
		c, ok := toCriterion(entry)
		if !ok {
			continue
		}
		if prev, seen := from[field]; seen && !keyWins(key, prev, field) {
			continue
		}
		from[field] = key
		out[field] = c
	}
	return out
}

func keyWins(key, prev, field string) bool {
	if prev == field {
		return false
	}
	return key == field || key < prev
}

func toCriterion(entry any) (FilterCriterion, bool) {
	var value, mode any
	switch e := entry.(type) {
	case FilterCriterion:
		value, mode = e.Value, string(e.MatchMode)
	case *FilterCriterion:
		if e == nil {
			return FilterCriterion{}, false
		}
		value, mode = e.Value, string(e.MatchMode)
	case map[string]any:
		v, ok := e["value"]
		if !ok {
			return FilterCriterion{}, false
		}
		value, mode = v, e["matchMode"]
	default:
		return FilterCriterion{}, false
	}

	if !isScalar(value) {
		return FilterCriterion{}, false
	}
	return FilterCriterion{Value: value, MatchMode: normalizeMatchMode(mode)}, true
}

func normalizeMatchMode(mode any) MatchMode {
	var s string
	switch m := mode.(type) {
	case string:
		s = m
	case MatchMode:
		s = string(m)
	default:
		return DefaultMatchMode
	}
	mm := MatchMode(strings.TrimSpace(s))
	if _, ok := knownMatchModes[mm]; !ok {
		return DefaultMatchMode
	}
	return mm
}

func isScalar(v any) bool {
	switch v.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}
