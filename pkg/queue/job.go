package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"TrendPulse/pkg/logger"
)

// Job defines a queue job handler.
type Job interface {
	// Name returns the unique identifier of the job.
	Name() string

	// Type returns the type of message that the job handles.
	Type() string

	// Handle processes the job with the given payload.
	Handle(ctx context.Context, payload interface{}) error
}

// runJob executes job for msg under the configured deadline and recovers a
// panicking handler into an error.
func runJob(ctx context.Context, cfg *QueueConfig, lgr *logger.Logger, job Job, msg Message) (err error) {
	if cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.JobTimeout)
		defer cancel()
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("job %s panic: %v", job.Name(), rec)
		}
	}()

	start := time.Now()
	err = job.Handle(ctx, msg.Payload)
	if err == nil {
		lgr.Debug("message processed",
			logger.String("id", msg.ID),
			logger.String("job", job.Name()),
			logger.Int64("elapsed_ms", time.Since(start).Milliseconds()))
	}
	return err
}

func isCancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}
