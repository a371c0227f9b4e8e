package domain

// ---------------- Operadores ----------------

type Operator string

const (
	OpEq    Operator = "="
	OpGt    Operator = ">"
	OpGte   Operator = ">="
	OpLt    Operator = "<"
	OpLte   Operator = "<="
	OpLike  Operator = "LIKE"
	OpILike Operator = "ILIKE"

	// OpContains: contiene el texto sin distinguir mayúsculas. Value es el
	// texto tal cual; cada adapter lo traduce (LIKE escapado, regex...).
	OpContains Operator = "CONTAINS"
)

type LogicalOperator string

const (
	OpAnd LogicalOperator = "AND"
	OpOr  LogicalOperator = "OR"
)

// ---------------- Criterion ----------------

// Criterion describe una condición neutral de filtrado. Field es el nombre
// lógico del campo (el de la API), cada adapter lo traduce a su columna.
type Criterion struct {
	Field string
	Op    Operator
	Value interface{}
}

// ---------------- Criteria interface ----------------

// Criteria permite transformar filtros a condiciones neutrales
type Criteria interface {
	ToConditions() []Criterion
}

// ---------------- Composite Criteria ----------------

// CompositeCriteria agrupa criterios con AND u OR. Los adapters que soportan
// grupos deben recorrer Criterias; ToConditions solo sirve para AND.
type CompositeCriteria struct {
	Operator  LogicalOperator
	Criterias []Criteria
}

func (c CompositeCriteria) ToConditions() []Criterion {
	var all []Criterion
	for _, crit := range c.Criterias {
		all = append(all, crit.ToConditions()...)
	}
	return all
}

// IsEmpty indica si el criterio no restringe nada.
func IsEmpty(c Criteria) bool {
	if c == nil {
		return true
	}
	if comp, ok := c.(CompositeCriteria); ok {
		for _, sub := range comp.Criterias {
			if !IsEmpty(sub) {
				return false
			}
		}
		return true
	}
	return len(c.ToConditions()) == 0
}

// ---------------- Helpers ----------------

// And crea un CompositeCriteria con operador AND
func And(criterias ...Criteria) CompositeCriteria {
	return CompositeCriteria{Operator: OpAnd, Criterias: criterias}
}

// Or crea un CompositeCriteria con operador OR
func Or(criterias ...Criteria) CompositeCriteria {
	return CompositeCriteria{Operator: OpOr, Criterias: criterias}
}
