package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, "badger", c.Storage.Type)
	assert.Equal(t, "store", c.Backend.Type)
	assert.Equal(t, 5*time.Minute, c.Cache.TTL)
	assert.Equal(t, "sts", c.Estimator.Method)
	assert.NoError(t, c.Validate())
}

func TestParseOverridesDefaults(t *testing.T) {
	c, err := Parse([]byte(`
environment: production
storage:
  type: clickhouse
backend:
  type: kafka
kafka:
  brokers: ["k1:9092", "k2:9092"]
estimator:
  method: simple
  lookback: 24
`))
	require.NoError(t, err)
	assert.Equal(t, "production", c.Environment)
	assert.Equal(t, "clickhouse", c.Storage.Type)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.Equal(t, 24, c.Estimator.Lookback)
	// untouched sections keep defaults
	assert.Equal(t, "observations", c.Kafka.Topic)
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"storage":  "storage:\n  type: postgres\n",
		"backend":  "backend:\n  type: kafka\n",
		"feed":     "feed:\n  enabled: true\n",
		"queue":    "queue:\n  enabled: true\n  workers: 0\n",
		"method":   "estimator:\n  method: arima\n",
		"lookback": "estimator:\n  lookback: 2\n",
	}
	for name, doc := range cases {
		_, err := Parse([]byte(doc))
		assert.Error(t, err, name)
	}
}

func TestLoadWithEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("environment: test\n"), 0o600))

	t.Setenv("REDIS_ADDR", "redis:6380")
	t.Setenv("FEED_INDICATORS", "ipca,selic")

	c, err := LoadWithEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "redis:6380", c.Redis.Addr)
	assert.True(t, c.Redis.Enabled)
	assert.Equal(t, []string{"ipca", "selic"}, c.Feed.Indicators)
}
