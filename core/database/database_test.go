package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/aiftbot/core/config"
)

func testConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Host:     "db",
		Port:     "5432",
		User:     "bot",
		Password: "p@ss word",
		Name:     "aiftbot",
		SSLMode:  "disable",
	}
}

func TestDSN(t *testing.T) {
	assert.Equal(t, "user=bot password=p@ss word host=db port=5432 dbname=aiftbot sslmode=disable", DSN(testConfig()))
}

func TestURLEscapesCredentials(t *testing.T) {
	assert.Equal(t, "postgres://bot:p%40ss%20word@db:5432/aiftbot?sslmode=disable", URL(testConfig()))
}

func TestMigrationFileHelpers(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"0002_b.up.sql", "0001_a.up.sql", "0001_a.down.sql", "0003_c.up.sql", "README.md",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	files := listMigrationFiles(dir)
	assert.Equal(t, []string{"0001_a.up.sql", "0002_b.up.sql", "0003_c.up.sql"}, files)
	assert.Equal(t, uint64(2), parseVersion("0002_b.up.sql"))
	assert.Equal(t, 2, countApplied(files, 1, 3))
	assert.Equal(t, 0, countApplied(files, 3, 3))
	assert.Equal(t, []string{"0002_b.up.sql", "0003_c.up.sql"}, selectApplied(files, 1, 3))
}

func TestShippedMigrationsAreListed(t *testing.T) {
	files := listMigrationFiles(filepath.Join("..", "..", "migrations"))
	assert.Contains(t, files, "0001_dispatch_journal.up.sql")
}

func TestSummarize(t *testing.T) {
	s, cut := summarize([]string{"a", "b"}, 6)
	assert.Equal(t, "a,b", s)
	assert.False(t, cut)

	s, cut = summarize([]string{"a", "b", "c"}, 2)
	assert.Equal(t, "a,b,...", s)
	assert.True(t, cut)
}
