package logging

import (
	"os"
	"path/filepath"
	"testing"

	"focustrack-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitUsesConfiguredDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	log, err := Init(config.LoggingConfig{
		Directory:  dir,
		MaxSize:    1,
		MaxBackups: 1,
		MaxAge:     1,
	})
	require.NoError(t, err)
	require.NotNil(t, log)

	// The configured directory must exist before anything is written.
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Sync errors are ignored: syncing the console core's stdout fails on
	// some platforms when stdout is a pipe.
	log.Info("rotation settings accepted")
	_ = log.Sync()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}
