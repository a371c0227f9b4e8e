package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	sharedBus "github.com/davicafu/lazygrid/internal/shared/infra/platform/bus"
)

// Employee es la fila de la colección /api/employees.
type Employee struct {
	ID           uuid.UUID `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	Position     string    `json:"position"`
	Salary       float64   `json:"salary"`
	CreatedDate  time.Time `json:"createdDate"`
	ModifiedDate time.Time `json:"modifiedDate"`
}

// GetID devuelve "" mientras el empleado no tiene id del servidor.
func (e Employee) GetID() string {
	if e.ID == uuid.Nil {
		return ""
	}
	return e.ID.String()
}

func (e Employee) PartitionKey() string {
	return e.ID.String()
}

// FullName para mensajes y logs.
func (e Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// Validate comprueba los campos obligatorios antes de guardar.
func (e Employee) Validate() error {
	switch {
	case strings.TrimSpace(e.FirstName) == "":
		return fmt.Errorf("%w: first name is required", ErrInvalidEmployee)
	case strings.TrimSpace(e.Email) == "":
		return fmt.Errorf("%w: email is required", ErrInvalidEmployee)
	case strings.TrimSpace(e.Position) == "":
		return fmt.Errorf("%w: position is required", ErrInvalidEmployee)
	case e.Salary < 0:
		return fmt.Errorf("%w: salary cannot be negative", ErrInvalidEmployee)
	}
	if _, err := mail.ParseAddress(e.Email); err != nil {
		return fmt.Errorf("%w: invalid email %q", ErrInvalidEmployee, e.Email)
	}
	return nil
}

var _ sharedBus.Keyer = Employee{}
