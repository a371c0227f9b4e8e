package domain

import (
	"reflect"

	sharedEvents "github.com/davicafu/lazygrid/internal/shared/domain/events"
)

// Las constantes de los tipos de evento se definen aquí, como valores string.
const (
	EmployeeCreated  = "employee.created"
	EmployeeUpdated  = "employee.updated"
	EmployeeDeleted  = "employee.deleted"
	EmployeesDeleted = "employees.deleted"
)

const (
	EmployeeTopic         = "employee"
	EmployeeAggregateType = "employee"
)

// DeletedPayload es el payload de los eventos de borrado.
type DeletedPayload struct {
	IDs []string `json:"ids"`
}

func NewEventRegistry() map[string]sharedEvents.EventMetadata {
	return map[string]sharedEvents.EventMetadata{
		EmployeeCreated: {
			Type:  reflect.TypeOf(Employee{}),
			Topic: EmployeeTopic,
		},
		EmployeeUpdated: {
			Type:  reflect.TypeOf(Employee{}),
			Topic: EmployeeTopic,
		},
		EmployeeDeleted: {
			Type:  reflect.TypeOf(DeletedPayload{}),
			Topic: EmployeeTopic,
		},
		EmployeesDeleted: {
			Type:  reflect.TypeOf(DeletedPayload{}),
			Topic: EmployeeTopic,
		},
	}
}
