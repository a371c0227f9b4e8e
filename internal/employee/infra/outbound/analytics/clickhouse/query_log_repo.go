package clickhouse

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"

	employeeDomain "github.com/davicafu/lazygrid/internal/employee/domain"
)

// QueryLogRepo guarda en ClickHouse los listados servidos.
type QueryLogRepo struct {
	db *sql.DB
}

// NewQueryLogRepo abre la conexión y comprueba que responde.
func NewQueryLogRepo(ctx context.Context, addr string, dbName string) (*QueryLogRepo, error) {
	conn := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: dbName,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
	})

	if err := conn.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("could not ping clickhouse: %w", err)
	}

	return &QueryLogRepo{db: conn}, nil
}

// NewQueryLogRepoWithDB permite inyectar la conexión (tests).
func NewQueryLogRepoWithDB(db *sql.DB) *QueryLogRepo {
	return &QueryLogRepo{db: db}
}

// LogBatch inserta el lote en una sola transacción. ClickHouse funciona
// mejor con inserciones en lotes.
func (r *QueryLogRepo) LogBatch(ctx context.Context, logs []employeeDomain.QueryLog) error {
	if len(logs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO employee_queries (id, search, filters, sort_field, sort_desc, page, size, total, duration_ms, served_at)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, l := range logs {
		filters, err := json.Marshal(l.Filters)
		if err != nil {
			return fmt.Errorf("failed to encode filters for query %s: %w", l.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			l.ID.String(),
			l.Search,
			string(filters),
			l.SortField,
			l.SortDesc,
			int32(l.Page),
			int32(l.Size),
			int64(l.Total),
			l.DurationMs,
			l.ServedAt,
		); err != nil {
			return fmt.Errorf("failed to exec statement for query %s: %w", l.ID, err)
		}
	}

	return tx.Commit()
}

// InitSchema crea la tabla si no existe. Se particiona por mes.
func (r *QueryLogRepo) InitSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS employee_queries (
			id          UUID,
			search      String,
			filters     String,
			sort_field  String,
			sort_desc   Bool,
			page        Int32,
			size        Int32,
			total       Int64,
			duration_ms Int64,
			served_at   DateTime64(3)
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(served_at)
		ORDER BY (served_at, sort_field)
	`)
	return err
}

func (r *QueryLogRepo) Close() error {
	return r.db.Close()
}

// Verificación estática de la interfaz.
var _ employeeDomain.QueryLogRepository = (*QueryLogRepo)(nil)
