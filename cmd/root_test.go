package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gridcat/gridcat/internal/config"
	"github.com/gridcat/gridcat/internal/testutil"
)

// withTestConfig points the global config at a fresh temp database for the
// duration of one test.
func withTestConfig(t *testing.T) string {
	t.Helper()
	previous := cfg
	t.Cleanup(func() { cfg = previous })

	dbPath := filepath.Join(t.TempDir(), "catalog.db")
	cfg = config.Defaults()
	cfg.DBPath = dbPath
	cfg.Tracing.Enabled = false
	return dbPath
}

func TestOpenCatalog_CreatesAndMigratesDatabase(t *testing.T) {
	dbPath := withTestConfig(t)

	catalog, err := openCatalog()
	require.NoError(t, err)
	defer catalog.Close(rootCmd)

	_, err = os.Stat(dbPath)
	require.NoError(t, err, "database file should be created")

	dims, err := catalog.registry.ListDimensions()
	require.NoError(t, err)
	require.Empty(t, dims, "fresh catalog should have no dimensions")
}

func TestOpenCatalog_ServicesAreWired(t *testing.T) {
	withTestConfig(t)

	catalog, err := openCatalog()
	require.NoError(t, err)
	defer catalog.Close(rootCmd)

	// Registering against an empty catalog should fail cleanly: the scene's
	// dataset type has not been defined yet.
	ds := testutil.SceneDataset(1000, 2000)
	err = catalog.ingest.RegisterDataset(context.Background(), ds)
	require.Error(t, err)
}

func TestOpenCatalog_InvalidTracingConfig(t *testing.T) {
	withTestConfig(t)
	cfg.Tracing.SampleRate = 2.0

	_, err := openCatalog()
	require.Error(t, err)
	require.Contains(t, err.Error(), "sample_rate")
}

func TestConfigFilePath_Default(t *testing.T) {
	require.Equal(t, ".gridcat/config.yaml", configFilePath())
}

func TestAppendUnique(t *testing.T) {
	files := []string{"a.yaml"}
	require.Equal(t, []string{"a.yaml"}, appendUnique(files, "a.yaml"))
	require.Equal(t, []string{"a.yaml", "b.yaml"}, appendUnique(files, "b.yaml"))
}
