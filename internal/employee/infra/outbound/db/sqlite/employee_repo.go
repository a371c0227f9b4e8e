package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	// _ "github.com/mattn/go-sqlite3" // better performance but requires gcc
	_ "modernc.org/sqlite"

	employeeDomain "github.com/davicafu/lazygrid/internal/employee/domain"
	sharedDomain "github.com/davicafu/lazygrid/internal/shared/domain"
	sharedSQLite "github.com/davicafu/lazygrid/internal/shared/infra/platform/db/sqlite"
	"github.com/davicafu/lazygrid/internal/shared/infra/platform/db/sqlwhere"
	sharedQuery "github.com/davicafu/lazygrid/internal/shared/infra/platform/query"
)

// columns traduce campos lógicos a columnas. Es también la lista blanca
// de filtros y ordenación.
var columns = map[string]string{
	employeeDomain.FieldFirstName:    "first_name",
	employeeDomain.FieldLastName:     "last_name",
	employeeDomain.FieldEmail:        "email",
	employeeDomain.FieldPosition:     "position",
	employeeDomain.FieldSalary:       "salary",
	employeeDomain.FieldCreatedDate:  "created_date",
	employeeDomain.FieldModifiedDate: "modified_date",
}

const selectColumns = `id, first_name, last_name, email, position, salary, created_date, modified_date`

type EmployeeRepoSQLite struct {
	db *sql.DB
}

func NewEmployeeRepoSQLite(db *sql.DB) *EmployeeRepoSQLite {
	return &EmployeeRepoSQLite{db: db}
}

// ------------------ Métodos ------------------

// Create inserta empleado y evento en transacción
func (r *EmployeeRepoSQLite) Create(ctx context.Context, e *employeeDomain.Employee, evt sharedDomain.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO employees (`+selectColumns+`) VALUES (?,?,?,?,?,?,?,?)`,
		e.ID.String(), e.FirstName, e.LastName, e.Email, e.Position, e.Salary, e.CreatedDate, e.ModifiedDate,
	); err != nil {
		if isUniqueViolation(err) {
			return employeeDomain.ErrEmployeeAlreadyExists
		}
		return err
	}

	if err := sharedSQLite.InsertOutboxTx(ctx, tx, evt); err != nil {
		return err
	}

	return tx.Commit()
}

// Update actualiza empleado y crea evento Outbox en transacción
func (r *EmployeeRepoSQLite) Update(ctx context.Context, e *employeeDomain.Employee, evt sharedDomain.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE employees SET first_name=?, last_name=?, email=?, position=?, salary=?, modified_date=? WHERE id=?`,
		e.FirstName, e.LastName, e.Email, e.Position, e.Salary, e.ModifiedDate, e.ID.String(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return employeeDomain.ErrEmployeeAlreadyExists
		}
		return err
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		return employeeDomain.ErrEmployeeNotFound
	}

	if err := sharedSQLite.InsertOutboxTx(ctx, tx, evt); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteByID elimina empleado y crea evento Outbox en transacción
func (r *EmployeeRepoSQLite) DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM employees WHERE id=?`, id.String())
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return employeeDomain.ErrEmployeeNotFound
	}

	if err := sharedSQLite.InsertOutboxTx(ctx, tx, evt); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *EmployeeRepoSQLite) DeleteByIDs(ctx context.Context, ids []uuid.UUID, evt sharedDomain.OutboxEvent) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id.String()
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM employees WHERE id IN (`+strings.Join(placeholders, ",")+`)`, args...)
	if err != nil {
		return 0, err
	}
	rows, _ := res.RowsAffected()

	if err := sharedSQLite.InsertOutboxTx(ctx, tx, evt); err != nil {
		return 0, err
	}

	return int(rows), tx.Commit()
}

func (r *EmployeeRepoSQLite) GetByID(ctx context.Context, id uuid.UUID) (*employeeDomain.Employee, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM employees WHERE id = ?`, id.String())

	e, err := scanEmployee(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, employeeDomain.ErrEmployeeNotFound
		}
		return nil, err
	}
	return e, nil
}

// ListByCriteria cuenta y pagina con el mismo WHERE.
func (r *EmployeeRepoSQLite) ListByCriteria(
	ctx context.Context,
	criteria sharedDomain.Criteria,
	pagination sharedQuery.OffsetPagination,
	sort sharedQuery.Sort,
) ([]*employeeDomain.Employee, int, error) {
	where, args, err := sqlwhere.Build(sqlwhere.SQLite, columns, criteria, 0)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", employeeDomain.ErrInvalidQuery, err)
	}
	if where != "" {
		where = " WHERE " + where
	}

	orderBy, err := sqlwhere.OrderBy(columns, sort.Field, sort.Desc)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", employeeDomain.ErrInvalidQuery, err)
	}
	if orderBy == "" {
		orderBy = "created_date DESC"
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM employees`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM employees%s ORDER BY %s, id ASC LIMIT ? OFFSET ?`, selectColumns, where, orderBy)
	rows, err := r.db.QueryContext(ctx, query, append(args, pagination.Limit, pagination.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	employees := []*employeeDomain.Employee{}
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, 0, err
		}
		employees = append(employees, e)
	}
	return employees, total, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEmployee(s scanner) (*employeeDomain.Employee, error) {
	var e employeeDomain.Employee
	var idStr string
	if err := s.Scan(&idStr, &e.FirstName, &e.LastName, &e.Email, &e.Position, &e.Salary, &e.CreatedDate, &e.ModifiedDate); err != nil {
		return nil, err
	}

	parsedID, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid UUID in DB: %w", err)
	}
	e.ID = parsedID
	return &e, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// ------------------ Inicialización de DB ------------------

// InitSQLite crea las tablas employees y outbox si no existen.
func InitSQLite(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS employees (
            id TEXT PRIMARY KEY,
            first_name TEXT NOT NULL,
            last_name TEXT NOT NULL DEFAULT '',
            email TEXT UNIQUE NOT NULL,
            position TEXT NOT NULL,
            salary REAL NOT NULL DEFAULT 0,
            created_date DATETIME NOT NULL,
            modified_date DATETIME NOT NULL
        )
    `)
	if err != nil {
		return err
	}

	return sharedSQLite.InitOutbox(ctx, db)
}

var _ employeeDomain.EmployeeRepository = (*EmployeeRepoSQLite)(nil)
