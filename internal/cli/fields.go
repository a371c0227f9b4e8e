package cli

import (
	"fmt"
	"strconv"
	"strings"

	employeeDomain "github.com/davicafu/lazygrid/internal/employee/domain"
)

// ApplyAssignments aplica "campo=valor" sobre la fila. Los nombres de campo
// son los del JSON de la colección.
func ApplyAssignments(row *Row, assignments []string) error {
	for _, a := range assignments {
		field, value, ok := strings.Cut(a, "=")
		if !ok || field == "" {
			return fmt.Errorf("invalid assignment %q (expected field=value)", a)
		}
		switch field {
		case employeeDomain.FieldFirstName:
			row.FirstName = value
		case employeeDomain.FieldLastName:
			row.LastName = value
		case employeeDomain.FieldEmail:
			row.Email = value
		case employeeDomain.FieldPosition:
			row.Position = value
		case employeeDomain.FieldSalary:
			salary, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return fmt.Errorf("invalid salary %q", value)
			}
			row.Salary = salary
		default:
			return fmt.Errorf("unknown field %q", field)
		}
	}
	return nil
}

// ParseSort acepta "campo", "campo,asc" o "campo,desc".
func ParseSort(spec string) (string, string, error) {
	field, dir, _ := strings.Cut(spec, ",")
	field = strings.TrimSpace(field)
	if field == "" {
		return "", "", fmt.Errorf("invalid sort %q", spec)
	}
	switch dir = strings.ToLower(strings.TrimSpace(dir)); dir {
	case "":
		dir = "asc"
	case "asc", "desc":
	default:
		return "", "", fmt.Errorf("invalid sort direction %q (asc or desc)", dir)
	}
	return field, dir, nil
}

// ParseFilter acepta "campo=valor".
func ParseFilter(spec string) (string, string, error) {
	field, value, ok := strings.Cut(spec, "=")
	if !ok || strings.TrimSpace(field) == "" {
		return "", "", fmt.Errorf("invalid filter %q (expected field=value)", spec)
	}
	return strings.TrimSpace(field), value, nil
}
