package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"TrendPulse/pkg/http/middleware"
	applogger "TrendPulse/pkg/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ServerOption func(*ServerConfig)

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// CORSOrigins lists allowed origins; empty disables the CORS middleware.
	CORSOrigins   []string
	BodyLimit     string // echo size notation, e.g. "2M"; empty means no limit
	MetricsPath   string // empty disables request metrics and the scrape route
	SlowThreshold time.Duration
	Logger        *applogger.Logger
}

// Server is the Echo server behind the HTTP API.
type Server struct {
	echo   *echo.Echo
	config *ServerConfig
	log    *applogger.Logger
}

// NewServer builds the Echo instance, installs the middleware chain and
// registers handler's routes. Middleware order, outermost first: panic
// recovery, request id, logging, metrics, CORS, body limit.
func NewServer(handler Handler, opts ...ServerOption) *Server {
	cfg := &ServerConfig{
		Host:            "0.0.0.0",
		Port:            8080,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		CORSOrigins:     []string{"*"},
		MetricsPath:     "/metrics",
		SlowThreshold:   time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	l := cfg.Logger
	if l == nil {
		l = applogger.Nop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout

	e.Use(middleware.Recover(l))
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogging(l, cfg.SlowThreshold))
	if cfg.MetricsPath != "" {
		e.Use(middleware.EchoMetrics(nil))
	}
	if len(cfg.CORSOrigins) > 0 {
		e.Use(middleware.CORS(middleware.CORSConfig{
			AllowOrigins:  cfg.CORSOrigins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
			ExposeHeaders: []string{"X-Cache", echo.HeaderXRequestID},
			MaxAge:        600,
		}))
	}
	if cfg.BodyLimit != "" {
		e.Use(echomw.BodyLimit(cfg.BodyLimit))
	}

	if handler != nil {
		handler.RegisterRoutes(e)
	}
	if cfg.MetricsPath != "" {
		e.GET(cfg.MetricsPath, echo.WrapHandler(promhttp.Handler()))
	}

	return &Server{echo: e, config: cfg, log: l}
}

// Start listens in the background. Listen errors other than a closed
// server are logged.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	go func() {
		s.log.Info("http server listening", applogger.String("addr", addr))
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http server error", applogger.Error(err))
		}
	}()
	return nil
}

// Stop drains in-flight requests, bounded by ShutdownTimeout.
func (s *Server) Stop(ctx context.Context) error {
	if s.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()
	}
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	s.log.Info("http server stopped")
	return nil
}

func (s *Server) Echo() *echo.Echo { return s.echo }

func WithHost(host string) ServerOption {
	return func(c *ServerConfig) { c.Host = host }
}

func WithPort(port int) ServerOption {
	return func(c *ServerConfig) { c.Port = port }
}

func WithTimeouts(read, write, shutdown time.Duration) ServerOption {
	return func(c *ServerConfig) {
		c.ReadTimeout = read
		c.WriteTimeout = write
		c.ShutdownTimeout = shutdown
	}
}

// WithCORSOrigins replaces the allowed origins; no origins turns CORS off.
func WithCORSOrigins(origins ...string) ServerOption {
	return func(c *ServerConfig) { c.CORSOrigins = origins }
}

func WithBodyLimit(limit string) ServerOption {
	return func(c *ServerConfig) { c.BodyLimit = limit }
}

func WithMetricsPath(path string) ServerOption {
	return func(c *ServerConfig) { c.MetricsPath = path }
}

// WithSlowThreshold sets the latency above which requests log at warn.
func WithSlowThreshold(d time.Duration) ServerOption {
	return func(c *ServerConfig) { c.SlowThreshold = d }
}

func WithLogger(l *applogger.Logger) ServerOption {
	return func(c *ServerConfig) { c.Logger = l }
}
