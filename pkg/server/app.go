package server

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"TrendPulse/internal/usecase"
	"TrendPulse/pkg/config"
	xhttp "TrendPulse/pkg/http"
	pkgkafka "TrendPulse/pkg/kafka"
	applogger "TrendPulse/pkg/logger"
	"TrendPulse/pkg/queue"
)

type closer struct {
	name string
	fn   func() error
}

type periodic struct {
	name  string
	every time.Duration
	fn    func(context.Context)
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	handler    xhttp.Handler
	collector  *usecase.ObservationCollector
	consumer   *pkgkafka.Consumer
	kh         pkgkafka.MessageHandler
	jobs       queue.Runner
	httpServer *xhttp.Server
	closers    []closer
	tasks      []periodic
	wg         sync.WaitGroup
}

// Option attaches an optional component to the App.
type Option func(*App)

// WithCollector runs the live feed collector.
func WithCollector(c *usecase.ObservationCollector) Option {
	return func(a *App) { a.collector = c }
}

// WithConsumer runs consumer with h registered.
func WithConsumer(c *pkgkafka.Consumer, h pkgkafka.MessageHandler) Option {
	return func(a *App) {
		a.consumer = c
		a.kh = h
	}
}

// WithJobs starts and stops the job queue with the App.
func WithJobs(q queue.Runner) Option {
	return func(a *App) { a.jobs = q }
}

// WithCloser releases a resource on shutdown. Closers run in reverse order
// of registration.
func WithCloser(name string, fn func() error) Option {
	return func(a *App) {
		if fn != nil {
			a.closers = append(a.closers, closer{name: name, fn: fn})
		}
	}
}

// WithPeriodic runs fn every interval while the App is up.
func WithPeriodic(name string, every time.Duration, fn func(context.Context)) Option {
	return func(a *App) {
		if every > 0 && fn != nil {
			a.tasks = append(a.tasks, periodic{name: name, every: every, fn: fn})
		}
	}
}

// New creates a new App serving handler.
func New(cfg *config.Config, l *applogger.Logger, handler xhttp.Handler, opts ...Option) *App {
	if l == nil {
		l = applogger.Nop()
	}
	a := &App{cfg: cfg, log: l, handler: handler}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run starts every component and blocks until ctx ends or the process
// receives SIGINT/SIGTERM.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricsPath := ""
	if a.cfg.Metrics.Enabled {
		metricsPath = a.cfg.Metrics.Path
	}
	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithSlowThreshold(a.cfg.Server.SlowThreshold),
		xhttp.WithBodyLimit(a.cfg.Server.BodyLimit),
		xhttp.WithCORSOrigins(a.cfg.Server.CORSOrigins...),
		xhttp.WithLogger(a.log),
	)

	if a.jobs != nil {
		if err := a.jobs.Start(); err != nil {
			a.log.Error("job queue start error", applogger.Error(err))
			return err
		}
	}

	if a.collector != nil {
		if err := a.collector.Start(ctx); err != nil {
			a.log.Error("collector error", applogger.Error(err))
		} else {
			a.log.Info("collector started", applogger.Strings("indicators", a.cfg.Feed.Indicators))
		}
	}

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		if err := a.consumer.Start(); err != nil {
			a.log.Error("kafka consumer error", applogger.Error(err))
		} else {
			a.log.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
		}
	}

	for _, t := range a.tasks {
		a.wg.Add(1)
		go a.runPeriodic(ctx, t)
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown()
}

func (a *App) runPeriodic(ctx context.Context, t periodic) {
	defer a.wg.Done()
	ticker := time.NewTicker(t.every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.fn(ctx)
		}
	}
}

// shutdown stops intake first, then workers, then releases clients.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.collector != nil {
		if err := a.collector.Shutdown(ctx); err != nil {
			a.log.Warn("collector stop error", applogger.Error(err))
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.jobs != nil {
		if err := a.jobs.Stop(ctx); err != nil {
			a.log.Warn("job queue stop error", applogger.Error(err))
		}
	}

	a.wg.Wait()

	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.fn(); err != nil {
			a.log.Warn("close error", applogger.String("resource", c.name), applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
