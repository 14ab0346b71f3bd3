package sqlstore_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"lawnorm/internal/config"
	"lawnorm/internal/domain"
	"lawnorm/internal/repository/sqlstore"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	cfg := &config.DBConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "lawnorm_test.db"),
	}
	require.NoError(t, sqlstore.Migrate(cfg))

	db, err := sqlstore.NewDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func loadDocs(t *testing.T, store interface {
	MarkLoaded(ctx context.Context, doc domain.LoadedDocument) error
}, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, store.MarkLoaded(context.Background(), domain.LoadedDocument{
			ContentID: id, StateCode: "IL", PlaceName: "Springfield",
		}))
	}
}

func strPtr(s string) *string {
	return &s
}
