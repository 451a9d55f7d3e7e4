package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storyapp.log")

	log := New(path, false)
	log.Named("api").Info("request finished")
	log.Debug("hidden in production")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `"message":"request finished"`)
	assert.Contains(t, out, `"logger":"api"`)
	assert.False(t, strings.Contains(out, "hidden in production"), "debug entries must not reach the file in production")
}

func TestNewDebugKeepsDebugEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storyapp.log")

	log := New(path, true)
	log.Debug("verbose entry")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "verbose entry")
}
