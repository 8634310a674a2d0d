package persistence

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func testMeta() CreateMeta {
	return CreateMeta{
		CreatedBy:    "oaif-test",
		SourceSystem: "unit-tests",
		CompanyName:  "Example Company Inc.",
		BaseCurrency: "USD",
	}
}

func TestCreateAndOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "company.oaif")

	created, err := Create(ctx, newTestLogger(), path, testMeta())
	require.NoError(t, err)
	require.NoError(t, created.Close())

	opened, err := Open(ctx, newTestLogger(), path, false)
	require.NoError(t, err)
	defer opened.Close()

	meta, err := opened.Metadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, FormatVersion, meta[MetaVersion])
	assert.Equal(t, FormatVersion, meta[MetaMinReader])
	assert.Equal(t, "USD", meta[MetaBaseCurrency])
	assert.Equal(t, "Example Company Inc.", meta[MetaCompanyName])
	assert.NotEmpty(t, meta[MetaCreatedAt])

	// Seeded standard types must be present.
	var count int
	err = opened.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM transaction_type WHERE is_standard = 1").Scan(&count)
	require.NoError(t, err)
	assert.Greater(t, count, 0)
}

func TestOpen_ReadOnlyRejectsWrites(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "company.oaif")

	created, err := Create(ctx, newTestLogger(), path, testMeta())
	require.NoError(t, err)
	require.NoError(t, created.Close())

	ro, err := Open(ctx, newTestLogger(), path, true)
	require.NoError(t, err)
	defer ro.Close()

	// Reads work, direct writes do not.
	meta, err := ro.Metadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, FormatVersion, meta[MetaVersion])

	_, err = ro.DB().ExecContext(ctx, "INSERT INTO oaif_metadata (key, value) VALUES ('scratch', 'x')")
	require.Error(t, err)
}

func TestCreate_RefusesExistingFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "company.oaif")

	created, err := Create(ctx, newTestLogger(), path, testMeta())
	require.NoError(t, err)
	require.NoError(t, created.Close())

	_, err = Create(ctx, newTestLogger(), path, testMeta())
	assert.Error(t, err)
}

func TestOpen_RejectsForeignFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "plain.db")

	// An ordinary SQLite database without the magic marker.
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, "CREATE TABLE t (id INTEGER)")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = Open(ctx, newTestLogger(), path, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, NotAFileOfThisFormatError{})
}

func TestOpen_RejectsMissingFile(t *testing.T) {
	_, err := Open(context.Background(), newTestLogger(), filepath.Join(t.TempDir(), "nope.oaif"), false)
	assert.Error(t, err)
}

func TestOpen_VersionGate(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "future.oaif")

	created, err := Create(ctx, newTestLogger(), path, testMeta())
	require.NoError(t, err)
	require.NoError(t, created.SetMetadata(ctx, MetaMinReader, "99.0"))
	require.NoError(t, created.Close())

	_, err = Open(ctx, newTestLogger(), path, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, UnsupportedVersionError{})
}

func TestExecuteTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tx.oaif")

	db, err := Create(ctx, newTestLogger(), path, testMeta())
	require.NoError(t, err)
	defer db.Close()

	boom := assert.AnError
	err = db.ExecuteTx(ctx, func(tx *sql.Tx) error {
		if _, execErr := tx.ExecContext(ctx, "INSERT INTO oaif_metadata (key, value) VALUES ('tmp', 'x')"); execErr != nil {
			return execErr
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	meta, err := db.Metadata(ctx)
	require.NoError(t, err)
	_, present := meta["tmp"]
	assert.False(t, present, "rolled-back write must not be observable")
}

func TestCompareVersions(t *testing.T) {
	assert.Equal(t, 0, compareVersions("1.0", "1.0"))
	assert.Equal(t, -1, compareVersions("1.0", "1.1"))
	assert.Equal(t, 1, compareVersions("2.0", "1.9"))
	assert.Equal(t, 0, compareVersions("1", "1.0"))
}
