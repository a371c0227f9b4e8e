package domain

import (
	"strings"

	sharedDomain "github.com/davicafu/lazygrid/internal/shared/domain"
)

// Campos lógicos por los que se puede filtrar y ordenar.
const (
	FieldFirstName    = "firstName"
	FieldLastName     = "lastName"
	FieldEmail        = "email"
	FieldPosition     = "position"
	FieldSalary       = "salary"
	FieldCreatedDate  = "createdDate"
	FieldModifiedDate = "modifiedDate"
)

// TextFields admiten "contiene" sin distinguir mayúsculas.
var TextFields = []string{FieldFirstName, FieldLastName, FieldEmail, FieldPosition}

// FilterFields admiten filtro por campo desde la petición.
var FilterFields = []string{FieldFirstName, FieldLastName, FieldEmail, FieldPosition, FieldSalary}

// SortFields es la lista blanca de campos ordenables.
var SortFields = []string{
	FieldFirstName, FieldLastName, FieldEmail, FieldPosition,
	FieldSalary, FieldCreatedDate, FieldModifiedDate,
}

func IsTextField(field string) bool { return contains(TextFields, field) }
func IsSortableField(field string) bool { return contains(SortFields, field) }

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// FieldContainsCriteria: el campo contiene Value.
type FieldContainsCriteria struct {
	Field string
	Value string
}

func (c FieldContainsCriteria) ToConditions() []sharedDomain.Criterion {
	return []sharedDomain.Criterion{{Field: c.Field, Op: sharedDomain.OpContains, Value: c.Value}}
}

// SalaryEqualsCriteria filtra por salario exacto.
type SalaryEqualsCriteria struct {
	Salary float64
}

func (c SalaryEqualsCriteria) ToConditions() []sharedDomain.Criterion {
	return []sharedDomain.Criterion{{Field: FieldSalary, Op: sharedDomain.OpEq, Value: c.Salary}}
}

// SearchCriteria busca el término en cualquiera de los campos de texto.
func SearchCriteria(term string) sharedDomain.Criteria {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}
	var anyOf []sharedDomain.Criteria
	for _, f := range TextFields {
		anyOf = append(anyOf, FieldContainsCriteria{Field: f, Value: term})
	}
	return sharedDomain.Or(anyOf...)
}
