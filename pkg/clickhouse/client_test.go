package clickhouse

import (
	"testing"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/stretchr/testify/assert"
)

func TestOptions(t *testing.T) {
	o := options(ClientConfig{
		Host:        "ch",
		Port:        9000,
		Database:    "trendpulse",
		User:        "default",
		Password:    "p@ss",
		DialTimeout: 5 * time.Second,
		AsyncInsert: true,
		MaxExecTime: 30 * time.Second,
	})

	assert.Equal(t, []string{"ch:9000"}, o.Addr)
	assert.Equal(t, clickhouse.Native, o.Protocol)
	assert.Equal(t, "trendpulse", o.Auth.Database)
	assert.Equal(t, "p@ss", o.Auth.Password)
	assert.Equal(t, 5*time.Second, o.DialTimeout)
	assert.Equal(t, 1, o.Settings["async_insert"])
	assert.Equal(t, 0, o.Settings["wait_for_async_insert"])
	assert.Equal(t, 30, o.Settings["max_execution_time"])
}

func TestOptionsHTTP(t *testing.T) {
	o := options(ClientConfig{Host: "::1", Port: 8123, Database: "db", UseHTTP: true})
	assert.Equal(t, clickhouse.HTTP, o.Protocol)
	assert.Equal(t, []string{"[::1]:8123"}, o.Addr)
	assert.NotContains(t, o.Settings, "async_insert")
}

func TestNewClientRequiresHost(t *testing.T) {
	_, err := NewClient()
	assert.Error(t, err)
}
