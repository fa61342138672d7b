package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestQueryCommand_PrintsCanonicalPage(t *testing.T) {
	t.Setenv("DB_DSN", ":memory:")
	t.Setenv("PAGE_SIZE", "5")

	out := run(t, "query", "?category=Women&sort=price-asc&page=7")
	assert.Contains(t, out, "query: ?category=Women&page=2&sort=price-asc")
	assert.Contains(t, out, "page 2 of 2, 7 matching")
	assert.Contains(t, out, "trench-coat")
	assert.Contains(t, out, "OUT_OF_STOCK")
}

func TestImportCommand(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "shop.db")
	t.Setenv("DB_DSN", dsn)
	file := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(file, []byte(`[
		{"id":"a","title":"Alpha","price":"3.50","category":"Test"},
		{"id":"b","title":"Beta","price":"1.25","category":"Test","stock":2}
	]`), 0o600))

	out := run(t, "import", "--file", file)
	assert.Contains(t, out, "imported 2 products")

	out = run(t, "query", "sort=price-asc")
	assert.Contains(t, out, "page 1 of 1, 2 matching")
	assert.Contains(t, out, "LOW_STOCK")
	assert.Less(t, bytes.Index([]byte(out), []byte("Beta")), bytes.Index([]byte(out), []byte("Alpha")))
}

func TestPruneCommand(t *testing.T) {
	t.Setenv("DB_DSN", filepath.Join(t.TempDir(), "shop.db"))
	t.Setenv("REDIS_ADDR", "")
	out := run(t, "prune", "--older-than", "1h")
	assert.Contains(t, out, "removed 0 session entries")
}
