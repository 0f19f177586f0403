package postgresql_test

import (
	"context"
	"fmt"
	"os"

	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-backend-go/internal/repository/postgresql"
	"github.com/cmlabs-hris/attendance-backend-go/migrations"
)

// TestDatabaseSetup wraps a migrated test database.
type TestDatabaseSetup struct {
	DB *database.DB
}

// NewTestDatabase connects to TEST_DATABASE_URL and applies the schema.
// It returns nil, nil when the variable is not set.
func NewTestDatabase(ctx context.Context) (*TestDatabaseSetup, error) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		return nil, nil
	}

	db, err := database.NewPostgreSQLDB(ctx, dsn, database.PoolConfig{MaxConns: 10, MinConns: 1})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}

	if err := postgresql.Migrate(ctx, db, migrations.FS); err != nil {
		db.Close()
		return nil, err
	}

	return &TestDatabaseSetup{DB: db}, nil
}

// TruncateAllTables removes all rows and restores the default settings.
func (t *TestDatabaseSetup) TruncateAllTables(ctx context.Context) error {
	return postgresql.WithTransaction(ctx, t.DB, func(ctx context.Context) error {
		q := postgresql.GetQuerier(ctx, t.DB)
		for _, table := range []string{"activity_logs", "attendance_records", "users", "system_settings"} {
			if _, err := q.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
				return fmt.Errorf("failed to truncate table %s: %w", table, err)
			}
		}
		_, err := q.Exec(ctx, `INSERT INTO system_settings (key, value) VALUES ('grace_period_minutes', '15')`)
		return err
	})
}

// CreateUser inserts a user and returns its id.
func (t *TestDatabaseSetup) CreateUser(ctx context.Context, fullName, department, role string) (string, error) {
	var id string
	err := t.DB.QueryRow(ctx,
		`INSERT INTO users (full_name, department, role) VALUES ($1, $2, $3) RETURNING id`,
		fullName, department, role,
	).Scan(&id)
	return id, err
}

// Close closes the connection pool.
func (t *TestDatabaseSetup) Close() {
	t.DB.Close()
}
