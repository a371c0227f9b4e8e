// Package sqlwhere traduce criterios neutrales a cláusulas WHERE.
package sqlwhere

import (
	"errors"
	"fmt"
	"strings"

	sharedDomain "github.com/davicafu/lazygrid/internal/shared/domain"
)

var ErrUnknownField = errors.New("unknown filter field")

// Dialect recoge lo que cambia entre motores.
type Dialect struct {
	Placeholder func(n int) string // n empieza en 1
	Contains    string             // operador para OpContains
}

var (
	Postgres = Dialect{
		Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
		Contains:    "ILIKE",
	}
	// En SQLite LIKE ya ignora mayúsculas para ASCII.
	SQLite = Dialect{
		Placeholder: func(int) string { return "?" },
		Contains:    "LIKE",
	}
)

// Build devuelve la condición (sin "WHERE") y sus argumentos. columns mapea
// el nombre lógico del campo a la columna; un campo fuera del mapa es error.
// argOffset es el número de argumentos que ya lleva la consulta.
func Build(d Dialect, columns map[string]string, criteria sharedDomain.Criteria, argOffset int) (string, []interface{}, error) {
	b := &builder{dialect: d, columns: columns, n: argOffset}
	clause, err := b.build(criteria)
	if err != nil {
		return "", nil, err
	}
	return clause, b.args, nil
}

type builder struct {
	dialect Dialect
	columns map[string]string
	args    []interface{}
	n       int
}

func (b *builder) build(criteria sharedDomain.Criteria) (string, error) {
	if sharedDomain.IsEmpty(criteria) {
		return "", nil
	}

	if comp, ok := criteria.(sharedDomain.CompositeCriteria); ok {
		var parts []string
		for _, sub := range comp.Criterias {
			clause, err := b.build(sub)
			if err != nil {
				return "", err
			}
			if clause != "" {
				parts = append(parts, clause)
			}
		}
		op := comp.Operator
		if op != sharedDomain.OpOr {
			op = sharedDomain.OpAnd
		}
		return group(parts, op), nil
	}

	var parts []string
	for _, c := range criteria.ToConditions() {
		clause, err := b.condition(c)
		if err != nil {
			return "", err
		}
		parts = append(parts, clause)
	}
	return group(parts, sharedDomain.OpAnd), nil
}

func (b *builder) condition(c sharedDomain.Criterion) (string, error) {
	col, ok := b.columns[c.Field]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownField, c.Field)
	}

	b.n++
	ph := b.dialect.Placeholder(b.n)

	switch c.Op {
	case sharedDomain.OpContains:
		b.args = append(b.args, "%"+EscapeLike(fmt.Sprint(c.Value))+"%")
		return fmt.Sprintf(`%s %s %s ESCAPE '\'`, col, b.dialect.Contains, ph), nil
	case sharedDomain.OpEq, sharedDomain.OpGt, sharedDomain.OpGte, sharedDomain.OpLt,
		sharedDomain.OpLte, sharedDomain.OpLike, sharedDomain.OpILike:
		b.args = append(b.args, c.Value)
		return fmt.Sprintf("%s %s %s", col, c.Op, ph), nil
	default:
		return "", fmt.Errorf("unsupported operator %q", c.Op)
	}
}

func group(parts []string, op sharedDomain.LogicalOperator) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return "(" + strings.Join(parts, " "+string(op)+" ") + ")"
	}
}

// EscapeLike escapa los comodines de LIKE con '\'.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// OrderBy traduce un campo lógico a "col ASC|DESC"; vacío si no hay campo.
func OrderBy(columns map[string]string, field string, desc bool) (string, error) {
	if field == "" {
		return "", nil
	}
	col, ok := columns[field]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	if desc {
		return col + " DESC", nil
	}
	return col + " ASC", nil
}
