package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // Driver de PostgreSQL

	employeeDomain "github.com/davicafu/lazygrid/internal/employee/domain"
	sharedDomain "github.com/davicafu/lazygrid/internal/shared/domain"
	sharedPostgres "github.com/davicafu/lazygrid/internal/shared/infra/platform/db/postgres"
	"github.com/davicafu/lazygrid/internal/shared/infra/platform/db/sqlwhere"
	sharedQuery "github.com/davicafu/lazygrid/internal/shared/infra/platform/query"
	sharedUtils "github.com/davicafu/lazygrid/internal/shared/infra/utils"
)

const uniqueViolation = "23505"

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

// EmployeeRepoPostgres implementa EmployeeRepository para PostgreSQL.
type EmployeeRepoPostgres struct {
	db *sql.DB
}

func NewEmployeeRepoPostgres(db *sql.DB) *EmployeeRepoPostgres {
	return &EmployeeRepoPostgres{db: db}
}

// ------------------ CRUD + Outbox ------------------

func (r *EmployeeRepoPostgres) Create(ctx context.Context, e *employeeDomain.Employee, evt sharedDomain.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback() // Se ignora si el Commit() es exitoso

	_, err = tx.ExecContext(ctx,
		`INSERT INTO employees (`+selectColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.FirstName, e.LastName, e.Email, e.Position, e.Salary, e.CreatedDate, e.ModifiedDate,
	)
	if err != nil {
		return mapWriteError(err)
	}

	if err := sharedPostgres.InsertOutboxTx(ctx, tx, evt); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *EmployeeRepoPostgres) Update(ctx context.Context, e *employeeDomain.Employee, evt sharedDomain.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE employees SET first_name=$1, last_name=$2, email=$3, position=$4, salary=$5, modified_date=$6 WHERE id=$7`,
		e.FirstName, e.LastName, e.Email, e.Position, e.Salary, e.ModifiedDate, e.ID,
	)
	if err != nil {
		return mapWriteError(err)
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		return employeeDomain.ErrEmployeeNotFound
	}

	if err := sharedPostgres.InsertOutboxTx(ctx, tx, evt); err != nil {
		return fmt.Errorf("failed to insert outbox: %w", err)
	}

	return tx.Commit()
}

func (r *EmployeeRepoPostgres) DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM employees WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		return employeeDomain.ErrEmployeeNotFound
	}

	if err := sharedPostgres.InsertOutboxTx(ctx, tx, evt); err != nil {
		return fmt.Errorf("failed to insert outbox: %w", err)
	}

	return tx.Commit()
}

// DeleteByIDs borra el lote con un solo evento.
func (r *EmployeeRepoPostgres) DeleteByIDs(ctx context.Context, ids []uuid.UUID, evt sharedDomain.OutboxEvent) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM employees WHERE id IN (`+strings.Join(placeholders, ", ")+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	rows, _ := res.RowsAffected()

	if err := sharedPostgres.InsertOutboxTx(ctx, tx, evt); err != nil {
		return 0, fmt.Errorf("failed to insert outbox: %w", err)
	}

	return int(rows), tx.Commit()
}

// ------------------ Lectura ------------------

func (r *EmployeeRepoPostgres) GetByID(ctx context.Context, id uuid.UUID) (*employeeDomain.Employee, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM employees WHERE id=$1`, id)

	var e employeeDomain.Employee
	err := row.Scan(&e.ID, &e.FirstName, &e.LastName, &e.Email, &e.Position, &e.Salary, &e.CreatedDate, &e.ModifiedDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, employeeDomain.ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("db scan error: %w", err)
	}
	return &e, nil
}

// ListByCriteria recupera una página aplicando filtros y orden, y el total
// de coincidencias con el mismo WHERE.
func (r *EmployeeRepoPostgres) ListByCriteria(
	ctx context.Context,
	criteria sharedDomain.Criteria,
	pagination sharedQuery.OffsetPagination,
	sort sharedQuery.Sort,
) ([]*employeeDomain.Employee, int, error) {
	whereSQL, args, err := sqlwhere.Build(sqlwhere.Postgres, columns, criteria, 0)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", employeeDomain.ErrInvalidQuery, err)
	}
	if whereSQL != "" {
		whereSQL = " WHERE " + whereSQL
	}

	orderBy := "created_date DESC"
	if sort.Field != "" {
		col, ok := columns[sort.Field]
		if !ok {
			return nil, 0, fmt.Errorf("%w: unknown sort field %s", employeeDomain.ErrInvalidQuery, sort.Field)
		}
		orderBy = col + " " + sharedUtils.Ternary(sort.Desc, "DESC", "ASC")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM employees"+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count error: %w", err)
	}

	argOffset := len(args)
	query := fmt.Sprintf("SELECT %s FROM employees%s ORDER BY %s, id LIMIT $%d OFFSET $%d",
		selectColumns, whereSQL, orderBy, argOffset+1, argOffset+2)
	args = append(args, pagination.Limit, pagination.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	employees := []*employeeDomain.Employee{}
	for rows.Next() {
		var e employeeDomain.Employee
		if err := rows.Scan(&e.ID, &e.FirstName, &e.LastName, &e.Email, &e.Position, &e.Salary, &e.CreatedDate, &e.ModifiedDate); err != nil {
			return nil, 0, err
		}
		employees = append(employees, &e)
	}
	return employees, total, rows.Err()
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return employeeDomain.ErrEmployeeAlreadyExists
	}
	return fmt.Errorf("db error: %w", err)
}

// ------------------ Inicialización del Esquema ------------------

// InitPostgresEmployeeSchema crea las tablas employees y outbox si no existen.
func InitPostgresEmployeeSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
    CREATE TABLE IF NOT EXISTS employees (
        id UUID PRIMARY KEY,
        first_name TEXT NOT NULL,
        last_name TEXT NOT NULL DEFAULT '',
        email TEXT NOT NULL UNIQUE,
        position TEXT NOT NULL,
        salary DOUBLE PRECISION NOT NULL DEFAULT 0,
        created_date TIMESTAMP WITH TIME ZONE NOT NULL,
        modified_date TIMESTAMP WITH TIME ZONE NOT NULL
    )`)
	if err != nil {
		return fmt.Errorf("failed to create employees table: %w", err)
	}

	return sharedPostgres.InitOutbox(ctx, db)
}

var _ employeeDomain.EmployeeRepository = (*EmployeeRepoPostgres)(nil)
