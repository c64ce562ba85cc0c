package database

import (
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMigrations_SortsAndSkipsForeignFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"V10__later.sql": {Data: []byte("SELECT 10;")},
		"V2__second.sql": {Data: []byte("SELECT 2;")},
		"V1__first.sql":  {Data: []byte("SELECT 1;")},
		"README.md":      {Data: []byte("notes")},
		"v3__lower.sql":  {Data: []byte("SELECT 3;")},
	}

	migs, err := LoadMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, migs, 3)
	assert.Equal(t, []int64{1, 2, 10}, []int64{migs[0].Version, migs[1].Version, migs[2].Version})
	assert.Equal(t, "first", migs[0].Name)
	assert.Len(t, migs[0].Checksum, 64)
}

func TestLoadMigrations_RejectsDuplicatesAndEmpty(t *testing.T) {
	_, err := LoadMigrations(fstest.MapFS{
		"V1__a.sql":  {Data: []byte("SELECT 1;")},
		"V01__b.sql": {Data: []byte("SELECT 1;")},
	})
	assert.ErrorContains(t, err, "duplicate migration version")

	_, err = LoadMigrations(fstest.MapFS{"V1__a.sql": {Data: []byte("   ")}})
	assert.ErrorContains(t, err, "empty migration file")
}

func TestEmbeddedMigrations_Load(t *testing.T) {
	sub, err := fs.Sub(migrationFiles, "migrations")
	require.NoError(t, err)

	migs, err := LoadMigrations(sub)
	require.NoError(t, err)
	require.NotEmpty(t, migs)
	assert.Equal(t, int64(1), migs[0].Version)
	assert.Contains(t, migs[0].SQL, "CREATE TABLE IF NOT EXISTS time_slots")
}
