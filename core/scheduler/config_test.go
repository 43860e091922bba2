package scheduler

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scheduler.yaml")
	data := "retry_pad_seconds: 2.5\nmax_iterations_per_train: 50\nindex: sorted\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 2500*time.Millisecond, cfg.RetryPad())
	assert.Equal(t, 50, cfg.MaxIterationsPerTrain)
	assert.Equal(t, time.Second, cfg.Resolution())
	assert.Equal(t, "sorted", cfg.Index)
}

func TestDecodeConfigDefaults(t *testing.T) {
	cfg, err := DecodeConfig(strings.NewReader(""), "yaml")
	require.NoError(t, err)
	assert.Equal(t, Config{RetryPadSeconds: 1, MaxIterationsPerTrain: 10000, TimeResolutionMS: 1000, Index: "tree"}, cfg)

	cfg, err = DecodeConfig(strings.NewReader(`{"time_resolution_ms": 100}`), "json")
	require.NoError(t, err)
	assert.Equal(t, 100*time.Millisecond, cfg.Resolution())
}

func TestDecodeConfigErrors(t *testing.T) {
	_, err := DecodeConfig(strings.NewReader(""), "toml")
	assert.Error(t, err)
	_, err = DecodeConfig(strings.NewReader("retry_pad_seconds: -1\n"), "yaml")
	assert.Error(t, err)
	_, err = DecodeConfig(strings.NewReader("index: skiplist\n"), "yml")
	assert.Error(t, err)
	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
