package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "config.yaml", `scheduler:
  retry_pad_seconds: 2
  index: sorted
travel:
  type: padded
  conf:
    factor: 1.1
history:
  backend: sqlite
  path: history.db
metrics:
  prometheus_addr: ":9100"
  sinks:
    - type: prometheus
    - type: influx
      conf:
        url: http://localhost:8086
mqtt:
  broker: "tcp://localhost:1883"
  username: "user"
  ack_timeout_ms: 2000
sentry:
  dsn: ""
  environment: test
api:
  addr: ":8080"
  token: secret
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2.0, cfg.Scheduler.RetryPadSeconds)
	assert.Equal(t, "sorted", cfg.Scheduler.Index)
	assert.Equal(t, 1000, cfg.Scheduler.TimeResolutionMS, "defaults fill unset fields")
	assert.Equal(t, "padded", cfg.Travel.Type)
	assert.Equal(t, 1.1, cfg.Travel.Conf["factor"])
	assert.Equal(t, "sqlite", cfg.History.Backend)
	assert.Equal(t, "history.db", cfg.History.Path)
	assert.Equal(t, ":9100", cfg.Metrics.PrometheusAddr)
	require.Len(t, cfg.Metrics.Sinks, 2)
	assert.Equal(t, "influx", cfg.Metrics.Sinks[1].Type)
	assert.Equal(t, "http://localhost:8086", cfg.Metrics.Sinks[1].Conf["url"])
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTT.Broker)
	assert.Equal(t, "railsched", cfg.MQTT.TopicPrefix)
	assert.Equal(t, 2000, cfg.MQTT.AckTimeoutMS)
	assert.Equal(t, "test", cfg.Sentry.Environment)
	assert.Equal(t, ":8080", cfg.API.Addr)
	assert.Equal(t, "secret", cfg.API.Token)
}

func TestLoadJSONWithEnvOverride(t *testing.T) {
	path := writeFile(t, "config.json", `{"history": {"backend": "jsonl"}, "scheduler": {"index": "tree"}}`)
	t.Setenv("RAILSCHED_HISTORY__BACKEND", "memory")
	t.Setenv("RAILSCHED_SCHEDULER__MAX_ITERATIONS_PER_TRAIN", "50")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.History.Backend)
	assert.Equal(t, 50, cfg.Scheduler.MaxIterationsPerTrain)
	assert.False(t, cfg.MQTT.Enabled())
	assert.Empty(t, cfg.MQTT.TopicPrefix, "disabled mqtt is left untouched")
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(writeFile(t, "config.toml", ""))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.yaml", "scheduler:\n  index: btree\n"))
	assert.ErrorContains(t, err, "scheduler")

	_, err = Load(writeFile(t, "bad.yaml", "mqtt:\n  broker: tcp://x:1883\n  qos: 3\n"))
	assert.ErrorContains(t, err, "mqtt")
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "tree", cfg.Scheduler.Index)
	assert.NotEmpty(t, cfg.History.Backend)
}
