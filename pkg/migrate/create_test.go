package migrate

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSQLMigrationWritesValidFile(t *testing.T) {
	dir := t.TempDir()
	first, err := CreateSQLMigration(dir, "  Add Product Brand ")
	require.NoError(t, err)
	assert.Regexp(t, `^\d{14}_add_product_brand\.sql$`, filepath.Base(first))

	second, err := CreateSQLMigration(dir, "add-order-notes")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	require.NoError(t, ValidateDir(dir))
	latest, err := LatestVersion(os.DirFS(dir))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(second), strconv.FormatInt(latest, 10)+"_"))
}

func TestCreateSQLMigrationRejectsEmptyName(t *testing.T) {
	_, err := CreateSQLMigration(t.TempDir(), "!!!")
	assert.Error(t, err)
	_, err = CreateSQLMigration("", "x")
	assert.Error(t, err)
}

func TestNextVersionStaysAfterLatest(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, int64(20250301120000), nextVersion(now, 0))
	assert.Equal(t, int64(20250301120001), nextVersion(now, 20250301120000))
	assert.Equal(t, int64(20250301120000), nextVersion(now, 20250101000000))
}

func TestValidateFSRejectsBadMigrations(t *testing.T) {
	good := "-- +goose Up\nSELECT 1;\n-- +goose Down\nSELECT 1;\n"
	cases := map[string]fstest.MapFS{
		"bad name":     {"create_users.sql": {Data: []byte(good)}},
		"no down":      {"20250101000000_users.sql": {Data: []byte("-- +goose Up\nSELECT 1;\n")}},
		"down first":   {"20250101000000_users.sql": {Data: []byte("-- +goose Down\n-- +goose Up\n")}},
		"same version": {"20250101000000_a.sql": {Data: []byte(good)}, "20250101000000_b.sql": {Data: []byte(good)}},
	}
	for name, fsys := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, ValidateFS(fsys))
		})
	}

	ok := fstest.MapFS{
		"20250101000000_a.sql": {Data: []byte(good)},
		"README.md":            {Data: []byte("notes")},
	}
	assert.NoError(t, ValidateFS(ok))
}

func TestEmbeddedMigrationsValidate(t *testing.T) {
	require.NoError(t, ValidateEmbedded())
}
