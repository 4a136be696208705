package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	applogger "TrendPulse/pkg/logger"
)

// ConsumerHook defines lifecycle hooks around message handling.
// Returning a non-nil error from BeforeHandle skips the handler and goes
// straight to error processing (OnError, DLQ, offset commit).
type ConsumerHook interface {
	BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error)
	AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error)
	OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error)
}

// NoopHook does nothing.
type NoopHook struct{}

func (NoopHook) BeforeHandle(ctx context.Context, _ string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
	return ctx, km, data, nil
}

func (NoopHook) AfterHandle(context.Context, string, kafka.Message, []byte, error) {}

func (NoopHook) OnError(context.Context, string, kafka.Message, []byte, error) {}

// HookError represents an error produced by a hook.
type HookError struct {
	Code string
	Err  error
}

func (e *HookError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *HookError) Unwrap() error { return e.Err }

// HookFuncs implements ConsumerHook from plain functions. Nil functions are
// no-ops.
type HookFuncs struct {
	Before func(context.Context, string, kafka.Message, []byte) (context.Context, kafka.Message, []byte, error)
	After  func(context.Context, string, kafka.Message, []byte, error)
	Err    func(context.Context, string, kafka.Message, []byte, error)
}

func (h HookFuncs) BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
	if h.Before == nil {
		return ctx, km, data, nil
	}
	return h.Before(ctx, topic, km, data)
}

func (h HookFuncs) AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
	if h.After != nil {
		h.After(ctx, topic, km, data, err)
	}
}

func (h HookFuncs) OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
	if h.Err != nil {
		h.Err(ctx, topic, km, data, err)
	}
}

// HookChain composes hooks. BeforeHandle runs in order and threads its
// outputs through; AfterHandle runs in reverse. A panicking hook is turned
// into an ERR_PANIC HookError.
type HookChain struct {
	hooks []ConsumerHook
}

// NewHookChain creates a hook chain. Nil hooks are ignored.
func NewHookChain(hooks ...ConsumerHook) *HookChain {
	filtered := make([]ConsumerHook, 0, len(hooks))
	for _, h := range hooks {
		if h != nil {
			filtered = append(filtered, h)
		}
	}
	return &HookChain{hooks: filtered}
}

func (c *HookChain) BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
	curCtx, curMsg, curData := ctx, km, data
	for _, h := range c.hooks {
		nextCtx, nextMsg, nextData, err := safeBefore(h, curCtx, topic, curMsg, curData)
		if err != nil {
			c.OnError(curCtx, topic, curMsg, curData, err)
			return curCtx, curMsg, curData, err
		}
		curCtx, curMsg, curData = nextCtx, nextMsg, nextData
	}
	return curCtx, curMsg, curData, nil
}

func (c *HookChain) AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
	for i := len(c.hooks) - 1; i >= 0; i-- {
		safeAfter(c.hooks[i], ctx, topic, km, data, err)
	}
}

func (c *HookChain) OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
	for _, h := range c.hooks {
		safeOnError(h, ctx, topic, km, data, err)
	}
}

type ctxKey string

const (
	// CtxStartTime holds time.Time for when handling started.
	CtxStartTime ctxKey = "kafka_hook_start_time"
	// CtxTraceID holds correlation/trace id extracted from headers.
	CtxTraceID ctxKey = "kafka_hook_trace_id"
)

// WithStartTime sets start time in the context.
func WithStartTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, CtxStartTime, t)
}

// WithTraceID sets trace id in the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	if traceID == "" {
		return ctx
	}
	return context.WithValue(ctx, CtxTraceID, traceID)
}

// TraceID returns the trace id stored by WithTraceID, if any.
func TraceID(ctx context.Context) string {
	s, _ := ctx.Value(CtxTraceID).(string)
	return s
}

// ExtractTraceID returns the trace_id header of msg, if present.
func ExtractTraceID(msg kafka.Message) string {
	for _, h := range msg.Headers {
		if h.Key == "trace_id" && len(h.Value) > 0 {
			return string(h.Value)
		}
	}
	return ""
}

// LoggingHook stamps start time and trace id and logs slow or failed
// handling.
func LoggingHook(l *applogger.Logger, slow time.Duration) ConsumerHook {
	return HookFuncs{
		Before: func(ctx context.Context, _ string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
			ctx = WithStartTime(ctx, time.Now())
			return WithTraceID(ctx, ExtractTraceID(km)), km, data, nil
		},
		After: func(ctx context.Context, topic string, km kafka.Message, _ []byte, err error) {
			started, _ := ctx.Value(CtxStartTime).(time.Time)
			elapsed := time.Since(started)
			if err == nil && (slow <= 0 || elapsed < slow) {
				return
			}
			fields := []applogger.Field{
				applogger.String("topic", topic),
				applogger.Int("partition", km.Partition),
				applogger.Int64("offset", km.Offset),
				applogger.Duration("elapsed", elapsed),
				applogger.String("trace_id", TraceID(ctx)),
			}
			if err != nil {
				l.Warn("kafka handle attempt failed", append(fields, applogger.Error(err))...)
				return
			}
			l.Warn("slow kafka handler", fields...)
		},
	}
}

func safeBefore(h ConsumerHook, ctx context.Context, topic string, km kafka.Message, data []byte) (nctx context.Context, nkm kafka.Message, ndata []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			nctx, nkm, ndata = ctx, km, data
			err = &HookError{Code: "ERR_PANIC", Err: fmt.Errorf("hook panic: %v", r)}
		}
	}()
	return h.BeforeHandle(ctx, topic, km, data)
}

func safeAfter(h ConsumerHook, ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
	defer func() { _ = recover() }()
	h.AfterHandle(ctx, topic, km, data, err)
}

func safeOnError(h ConsumerHook, ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
	defer func() { _ = recover() }()
	h.OnError(ctx, topic, km, data, err)
}
