// Package clickhouse opens a database/sql pool over the native ClickHouse
// driver and runs schema bootstrap for the stores built on it.
package clickhouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
)

type ClientOption func(*ClientConfig)

type ClientConfig struct {
	Host            string
	Port            int
	Database        string
	User            string
	Password        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	DialTimeout     time.Duration
	ReadTimeout     time.Duration
	UseHTTP         bool
	// AsyncInsert lets the server buffer small inserts; WaitForAsync makes
	// the insert return only after the buffer is flushed.
	AsyncInsert  bool
	WaitForAsync bool
	MaxExecTime  time.Duration
}

func WithHost(host string) ClientOption {
	return func(c *ClientConfig) { c.Host = host }
}

func WithPort(port int) ClientOption {
	return func(c *ClientConfig) { c.Port = port }
}

func WithDatabase(database string) ClientOption {
	return func(c *ClientConfig) { c.Database = database }
}

func WithCredentials(user, password string) ClientOption {
	return func(c *ClientConfig) {
		c.User = user
		c.Password = password
	}
}

func WithMaxConnections(maxOpen, maxIdle int) ClientOption {
	return func(c *ClientConfig) {
		c.MaxOpenConns = maxOpen
		c.MaxIdleConns = maxIdle
	}
}

func WithTimeouts(dial, read time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.DialTimeout = dial
		c.ReadTimeout = read
	}
}

// WithHTTP switches from the native protocol (9000) to HTTP (8123).
func WithHTTP(useHTTP bool) ClientOption {
	return func(c *ClientConfig) { c.UseHTTP = useHTTP }
}

func WithAsyncInsert(enabled, wait bool) ClientOption {
	return func(c *ClientConfig) {
		c.AsyncInsert = enabled
		c.WaitForAsync = wait
	}
}

func WithMaxExecutionTime(d time.Duration) ClientOption {
	return func(c *ClientConfig) { c.MaxExecTime = d }
}

// Client is a ClickHouse connection pool bound to one database.
type Client struct {
	db       *sql.DB
	database string
}

func NewClient(opts ...ClientOption) (*Client, error) {
	cfg := ClientConfig{
		Port:            9000,
		Database:        "trendpulse",
		User:            "default",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		DialTimeout:     5 * time.Second,
		ReadTimeout:     30 * time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Host == "" {
		return nil, errors.New("clickhouse: host is required")
	}

	db := clickhouse.OpenDB(options(cfg))
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout+time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("clickhouse ping %s: %w", cfg.Host, err)
	}
	return &Client{db: db, database: cfg.Database}, nil
}

// options maps ClientConfig onto the driver's settings.
func options(cfg ClientConfig) *clickhouse.Options {
	o := &clickhouse.Options{
		Addr:        []string{net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))},
		Protocol:    clickhouse.Native,
		DialTimeout: cfg.DialTimeout,
		ReadTimeout: cfg.ReadTimeout,
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		Compression: &clickhouse.Compression{Method: clickhouse.CompressionLZ4},
		Settings:    clickhouse.Settings{},
	}
	if cfg.UseHTTP {
		o.Protocol = clickhouse.HTTP
	}
	if cfg.MaxExecTime > 0 {
		o.Settings["max_execution_time"] = int(cfg.MaxExecTime.Seconds())
	}
	if cfg.AsyncInsert {
		o.Settings["async_insert"] = 1
		if cfg.WaitForAsync {
			o.Settings["wait_for_async_insert"] = 1
		} else {
			o.Settings["wait_for_async_insert"] = 0
		}
	}
	return o
}

func (c *Client) DB() *sql.DB { return c.db }

func (c *Client) Database() string { return c.database }

func (c *Client) Health(ctx context.Context) error { return c.db.PingContext(ctx) }

func (c *Client) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// InitSchema runs idempotent DDL statements in order and stops at the
// first failure.
func (c *Client) InitSchema(ctx context.Context, stmts []string) error {
	for i, stmt := range stmts {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clickhouse schema step %d: %w", i+1, err)
		}
	}
	return nil
}
