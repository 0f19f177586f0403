package postgresql_test

import (
	"context"
	"testing"

	"github.com/cmlabs-hris/attendance-backend-go/internal/repository/postgresql"
	"github.com/cmlabs-hris/attendance-backend-go/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_RecordsVersionAndIsRepeatable(t *testing.T) {
	tdb := setup(t)
	ctx := context.Background()

	// setup already migrated; a second run must find nothing pending.
	require.NoError(t, postgresql.Migrate(ctx, tdb.DB, migrations.FS))

	var version int64
	err := tdb.DB.QueryRow(ctx, `SELECT MAX(version_id) FROM goose_db_version WHERE is_applied`).Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	var applied int
	err = tdb.DB.QueryRow(ctx, `SELECT COUNT(*) FROM goose_db_version WHERE version_id = 1`).Scan(&applied)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)
}
