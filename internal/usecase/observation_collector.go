package usecase

import (
	"context"
	"errors"
	"time"

	"TrendPulse/internal/domain/models"
	drepo "TrendPulse/internal/domain/repository"
	mid "TrendPulse/internal/middleware"
	applogger "TrendPulse/pkg/logger"
)

var errStreamClosed = errors.New("feed stream closed")

// ObservationCollector drains an ObservationStream through the ingest
// pipeline.
type ObservationCollector struct {
	stream         drepo.ObservationStream
	pipe           *mid.RealtimePipeline
	metrics        drepo.Metrics
	l              *applogger.Logger
	reconnectDelay time.Duration
	done           chan struct{}
}

func NewObservationCollector(stream drepo.ObservationStream, pipe *mid.RealtimePipeline, metrics drepo.Metrics, l *applogger.Logger, reconnectDelay time.Duration) *ObservationCollector {
	if l == nil {
		l = applogger.Nop()
	}
	if reconnectDelay <= 0 {
		reconnectDelay = 5 * time.Second
	}
	return &ObservationCollector{
		stream:         stream,
		pipe:           pipe,
		metrics:        metrics,
		l:              l,
		reconnectDelay: reconnectDelay,
		done:           make(chan struct{}),
	}
}

// IsConnected returns true if the feed is connected.
func (c *ObservationCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

// Start connects, subscribes and consumes in the background until ctx ends.
func (c *ObservationCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	c.pipe.Start(ctx)
	obsCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, obsCh, errCh)
	return nil
}

// Done is closed when the consume loop exits.
func (c *ObservationCollector) Done() <-chan struct{} { return c.done }

func (c *ObservationCollector) consume(ctx context.Context, obsCh <-chan *models.Observation, errCh <-chan error) {
	defer close(c.done)
	for {
		err := c.drain(ctx, obsCh, errCh)
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			err = errStreamClosed
		}
		c.metrics.RecordError("stream")
		c.l.Warn("feed error, reconnecting", applogger.Error(err))
		if !c.reconnect(ctx) {
			return
		}
		obsCh, errCh = c.stream.Read(ctx)
	}
}

// drain forwards observations until the current read ends. It returns the
// stream error, or nil when the channels closed without one.
func (c *ObservationCollector) drain(ctx context.Context, obsCh <-chan *models.Observation, errCh <-chan error) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-errCh:
			if ok {
				return err
			}
			errCh = nil
		case o, ok := <-obsCh:
			if !ok {
				if errCh == nil {
					return nil
				}
				if err, ok := <-errCh; ok {
					return err
				}
				return nil
			}
			if o == nil {
				continue
			}
			if err := c.pipe.Process(ctx, o); err != nil {
				c.l.Debug("pipeline rejected observation",
					applogger.String("indicator", o.Indicator),
					applogger.Error(err))
				continue
			}
			c.metrics.RecordLastValue(o.Indicator, o.Value)
		}
	}
}

// reconnect retries until the stream is back or ctx ends.
func (c *ObservationCollector) reconnect(ctx context.Context) bool {
	for {
		err := c.stream.Reconnect(ctx)
		if err == nil {
			return true
		}
		c.l.Warn("reconnect failed", applogger.Error(err), applogger.Duration("retry_in", c.reconnectDelay))
		select {
		case <-ctx.Done():
			return false
		case <-time.After(c.reconnectDelay):
		}
	}
}

// Shutdown stops the pipeline and closes the feed.
func (c *ObservationCollector) Shutdown(context.Context) error {
	c.pipe.Stop()
	return c.stream.Close()
}
