package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFrame(t *testing.T) {
	obs, err := decodeFrame([]byte(`{"type":"observation","data":[
		{"indicator":"ipca","date":"2024-03","value":0.16},
		{"indicator":"","date":"2024-03","value":1},
		{"indicator":"selic","date":"not a date","value":1}
	]}`))
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, "ipca", obs[0].Indicator)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), obs[0].Date)

	obs, err = decodeFrame([]byte(`{"type":"ping"}`))
	require.NoError(t, err)
	assert.Empty(t, obs)

	_, err = decodeFrame([]byte(`garbage`))
	assert.Error(t, err)
}

func newFeedServer(t *testing.T, got chan<- subscribeRequest, frames ...string) *httptest.Server {
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("token"))
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		var req subscribeRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		got <- req
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		// hold the connection until the client leaves
		_, _, _ = conn.ReadMessage()
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientStreamsObservations(t *testing.T) {
	subs := make(chan subscribeRequest, 1)
	srv := newFeedServer(t, subs,
		`{"type":"observation","data":[{"indicator":"ipca","date":"2024-01-01","value":0.42}]}`,
		`{"type":"heartbeat"}`,
		`{"type":"observation","data":[{"indicator":"selic","date":"2024-01-31","value":11.75}]}`,
	)

	c := New("ws"+strings.TrimPrefix(srv.URL, "http"), []string{"ipca", "selic"},
		WithToken("secret"), WithPingInterval(0))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, c.Connect(ctx))
	assert.True(t, c.IsConnected())
	require.NoError(t, c.Subscribe(ctx))
	assert.Equal(t, subscribeRequest{Type: "subscribe", Indicators: []string{"ipca", "selic"}}, <-subs)

	obsCh, _ := c.Read(ctx)
	var got []string
	for len(got) < 2 {
		select {
		case o := <-obsCh:
			got = append(got, o.Indicator)
		case <-ctx.Done():
			t.Fatal("timed out waiting for observations")
		}
	}
	assert.Equal(t, []string{"ipca", "selic"}, got)

	require.NoError(t, c.Close())
	assert.False(t, c.IsConnected())
}

func TestClientNotConnected(t *testing.T) {
	c := New("ws://127.0.0.1:1/feed", nil)
	assert.ErrorIs(t, c.Subscribe(context.Background()), errNotConnected)

	obsCh, errCh := c.Read(context.Background())
	assert.ErrorIs(t, <-errCh, errNotConnected)
	_, open := <-obsCh
	assert.False(t, open)
}
