package migration

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"go.uber.org/zap"

	"github.com/lunapapa-finland/JSON-resume/internal/logging"
)

// Migration represents a database migration
type Migration struct {
	Name string
	SQL  string
}

// Migrations lists the schema changes in the order they are applied. Every
// statement is idempotent so the list runs on each start.
var Migrations = []Migration{
	{
		Name: "create_render_jobs",
		SQL: `
		CREATE TABLE IF NOT EXISTS render_jobs (
			id         UUID PRIMARY KEY,
			source     TEXT NOT NULL DEFAULT '',
			status     TEXT NOT NULL,
			error      TEXT NOT NULL DEFAULT '',
			metadata   JSONB NOT NULL DEFAULT '{}'::jsonb,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);`,
	},
	{
		Name: "index_render_jobs_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS render_jobs_created_at_idx ON render_jobs (created_at DESC);`,
	},
}

// RunMigrations executes all migrations on startup. A nil pool is a no-op.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, log *zap.Logger) error {
	if pool == nil {
		return nil
	}
	return run(ctx, func(ctx context.Context, sql string) error {
		_, err := pool.Exec(ctx, sql)
		return err
	}, logging.OrNop(log))
}

func run(ctx context.Context, exec func(ctx context.Context, sql string) error, log *zap.Logger) error {
	log.Info("starting database migrations", zap.Int("count", len(Migrations)))
	for _, m := range Migrations {
		if err := exec(ctx, m.SQL); err != nil {
			log.Error("migration failed", zap.String("name", m.Name), zap.Error(err))
			return fmt.Errorf("migration %s: %w", m.Name, err)
		}
		log.Info("migration completed", zap.String("name", m.Name))
	}
	return nil
}
