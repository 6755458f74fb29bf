package device

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.True(t, cfg.RestoreXattrs)
	assert.Equal(t, 1, cfg.ScanWorkersPerAG)
	assert.Equal(t, 1, cfg.AnalyzeWorkersPerAG)
	assert.Equal(t, uint64(0), cfg.StartBlock)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("XFSUNDELETE_RESTORE_XATTRS", "false")
	t.Setenv("XFSUNDELETE_SCAN_WORKERS_PER_AG", "4")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.False(t, cfg.RestoreXattrs)
	assert.Equal(t, 4, cfg.ScanWorkersPerAG)
}

func TestLoadConfigFileOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	contents := "start_block: 2048\nrestore_xattrs: false\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, uint64(2048), cfg.StartBlock)
	assert.False(t, cfg.RestoreXattrs)
}

func TestLoadConfigMissingFileErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
