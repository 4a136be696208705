package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["q"]})
	}))
	defer srv.Close()

	c := NewClient(WithTimeout(time.Second), WithRetry(3, time.Millisecond))
	var out map[string]string
	err := c.SendAndParse(context.Background(), &RequestOptions{
		Method: MethodPost,
		URL:    srv.URL,
		Body:   map[string]string{"q": "ipca"},
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, "ipca", out["echo"])
	assert.EqualValues(t, 3, calls.Load())
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad input", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(WithRetry(5, time.Millisecond))
	err := c.SendAndParse(context.Background(), &RequestOptions{Method: MethodGet, URL: srv.URL}, nil)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.Code)
	assert.Equal(t, "bad input", se.Body)
	assert.EqualValues(t, 1, calls.Load())
}

func TestRetryable(t *testing.T) {
	assert.False(t, Retryable(nil))
	assert.False(t, Retryable(context.Canceled))
	assert.True(t, Retryable(errors.New("connection reset")))
	assert.True(t, Retryable(&StatusError{Code: 503}))
	assert.True(t, Retryable(&StatusError{Code: 429}))
	assert.False(t, Retryable(&StatusError{Code: 404}))
}
