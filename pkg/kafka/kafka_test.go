package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeValue(t *testing.T) {
	b, err := EncodeValue([]byte("raw"))
	require.NoError(t, err)
	assert.Equal(t, "raw", string(b))

	b, err = EncodeValue(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(b))

	_, err = EncodeValue(make(chan int))
	assert.Error(t, err)
}

func TestMessageHeaders(t *testing.T) {
	km, err := Message{Key: []byte("k"), Value: "v", Headers: map[string]string{"trace_id": "abc"}}.toKafka("t", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "t", km.Topic)
	assert.Equal(t, "abc", ExtractTraceID(km))
}

func TestHookChainOrderAndPanic(t *testing.T) {
	var order []string
	mk := func(name string) ConsumerHook {
		return HookFuncs{
			Before: func(ctx context.Context, _ string, km kafka.Message, d []byte) (context.Context, kafka.Message, []byte, error) {
				order = append(order, "before:"+name)
				return ctx, km, append(d, name...), nil
			},
			After: func(context.Context, string, kafka.Message, []byte, error) {
				order = append(order, "after:"+name)
			},
		}
	}
	chain := NewHookChain(mk("a"), nil, mk("b"))
	_, _, data, err := chain.BeforeHandle(context.Background(), "t", kafka.Message{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ab", string(data))
	chain.AfterHandle(context.Background(), "t", kafka.Message{}, data, nil)
	assert.Equal(t, []string{"before:a", "before:b", "after:b", "after:a"}, order)

	var gotErr error
	panicky := HookFuncs{Before: func(context.Context, string, kafka.Message, []byte) (context.Context, kafka.Message, []byte, error) {
		panic("boom")
	}}
	recorder := HookFuncs{Err: func(_ context.Context, _ string, _ kafka.Message, _ []byte, err error) { gotErr = err }}
	_, _, _, err = NewHookChain(recorder, panicky).BeforeHandle(context.Background(), "t", kafka.Message{}, nil)
	var he *HookError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, "ERR_PANIC", he.Code)
	assert.Equal(t, err, gotErr)
}

func TestBackoffWithJitter(t *testing.T) {
	for attempt := 1; attempt < 40; attempt++ {
		d := backoffWithJitter(10*time.Millisecond, 100*time.Millisecond, attempt)
		assert.LessOrEqual(t, d, 100*time.Millisecond)
		assert.Greater(t, d, time.Duration(0))
	}
}

func TestParseCompression(t *testing.T) {
	c, err := parseCompression("ZSTD")
	require.NoError(t, err)
	assert.Equal(t, kafka.Zstd, c)
	c, err = parseCompression("none")
	require.NoError(t, err)
	assert.Equal(t, kafka.Compression(0), c)
	_, err = parseCompression("brotli")
	assert.Error(t, err)
}

func TestNewProducerRejectsUnknownCompression(t *testing.T) {
	_, err := NewProducer(WithBrokers([]string{"localhost:9092"}), WithCompression("brotli"))
	assert.Error(t, err)
}

func TestNewRequiresBrokers(t *testing.T) {
	_, err := NewProducer()
	assert.Error(t, err)
	_, err = NewConsumer()
	assert.Error(t, err)
}
