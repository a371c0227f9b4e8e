package main

import (
	"context"
	"database/sql"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	config "github.com/davicafu/lazygrid/internal/config"
	employeeDomain "github.com/davicafu/lazygrid/internal/employee/domain"
	employeeMongo "github.com/davicafu/lazygrid/internal/employee/infra/outbound/db/mongodb"
	employeePostgres "github.com/davicafu/lazygrid/internal/employee/infra/outbound/db/postgres"
	employeeSQLite "github.com/davicafu/lazygrid/internal/employee/infra/outbound/db/sqlite"
	sharedDomain "github.com/davicafu/lazygrid/internal/shared/domain"
	sharedMongo "github.com/davicafu/lazygrid/internal/shared/infra/platform/db/mongodb"
	sharedPostgres "github.com/davicafu/lazygrid/internal/shared/infra/platform/db/postgres"
	sharedSQLite "github.com/davicafu/lazygrid/internal/shared/infra/platform/db/sqlite"
)

// store agrupa el repositorio de empleados y el outbox del mismo backend:
// ambos deben compartir transacción.
type store struct {
	employees employeeDomain.EmployeeRepository
	outbox    sharedDomain.OutboxRepository
	close     func()
}

func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (*store, error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		db, err := sql.Open("sqlite", cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		// SQLite serializa las escrituras
		db.SetMaxOpenConns(1)
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("ping sqlite: %w", err)
		}
		if err := employeeSQLite.InitSQLite(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		log.Info("✅ SQLite listo", zap.String("path", cfg.SQLitePath))
		return &store{
			employees: employeeSQLite.NewEmployeeRepoSQLite(db),
			outbox:    sharedSQLite.NewOutboxRepoSQLite(db),
			close:     func() { db.Close() },
		}, nil

	case config.DriverPostgres:
		db, err := sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		if err := employeePostgres.InitPostgresEmployeeSchema(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		log.Info("✅ Postgres listo")
		return &store{
			employees: employeePostgres.NewEmployeeRepoPostgres(db),
			outbox:    sharedPostgres.NewOutboxRepoPostgres(db),
			close:     func() { db.Close() },
		}, nil

	case config.DriverMongoDB:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, err
		}
		disconnect := func() { _ = client.Disconnect(context.Background()) }

		repo, err := employeeMongo.NewEmployeeRepoMongoDB(ctx, client, cfg.MongoDB)
		if err != nil {
			disconnect()
			return nil, err
		}
		if err := repo.InitIndexes(ctx); err != nil {
			disconnect()
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		log.Info("✅ MongoDB listo", zap.String("db", cfg.MongoDB))
		return &store{
			employees: repo,
			outbox:    sharedMongo.NewOutboxRepoMongoDB(client, cfg.MongoDB),
			close:     disconnect,
		}, nil
	}

	return nil, fmt.Errorf("unknown driver %q (sqlite, postgres or mongodb)", cfg.DBDriver)
}
