package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"TrendPulse/internal/domain/models"
	drepo "TrendPulse/internal/domain/repository"
	applogger "TrendPulse/pkg/logger"
	"TrendPulse/pkg/util"

	"github.com/gorilla/websocket"
)

var errNotConnected = errors.New("feed not connected")

// Client is an ObservationStream over a websocket feed. The server pushes
// frames of the form {"type":"observation","data":[...]} after a subscribe
// request naming the indicators.
type Client struct {
	url            string
	token          string
	indicators     []string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	bufferSize     int
	dialer         *websocket.Dialer
	l              *applogger.Logger

	mu        sync.Mutex // guards conn and writes
	conn      *websocket.Conn
	connected bool
}

type Option func(*Client)

func WithToken(token string) Option { return func(c *Client) { c.token = token } }

func WithReconnectDelay(d time.Duration) Option {
	return func(c *Client) { c.reconnectDelay = d }
}

// WithPingInterval sets the keepalive period. Zero disables pings.
func WithPingInterval(d time.Duration) Option {
	return func(c *Client) { c.pingInterval = d }
}

func WithBufferSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.bufferSize = n
		}
	}
}

func WithLogger(l *applogger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.l = l
		}
	}
}

func New(rawURL string, indicators []string, opts ...Option) *Client {
	c := &Client{
		url:            rawURL,
		indicators:     indicators,
		reconnectDelay: 5 * time.Second,
		pingInterval:   30 * time.Second,
		bufferSize:     1024,
		dialer:         websocket.DefaultDialer,
		l:              applogger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) endpoint() (string, error) {
	u, err := url.Parse(c.url)
	if err != nil {
		return "", fmt.Errorf("feed url: %w", err)
	}
	if c.token != "" {
		q := u.Query()
		q.Set("token", c.token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Connect dials the feed.
func (c *Client) Connect(ctx context.Context) error {
	u, err := c.endpoint()
	if err != nil {
		return err
	}
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}
	conn, _, err := c.dialer.DialContext(ctx, u, header)
	if err != nil {
		return fmt.Errorf("feed connect: %w", err)
	}
	conn.SetPongHandler(func(string) error {
		return c.extendDeadline(conn)
	})

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()
	_ = c.extendDeadline(conn)

	c.l.Info("feed connected", applogger.String("url", c.url))
	return nil
}

func (c *Client) extendDeadline(conn *websocket.Conn) error {
	if c.pingInterval <= 0 {
		return nil
	}
	return conn.SetReadDeadline(time.Now().Add(2 * c.pingInterval))
}

type subscribeRequest struct {
	Type       string   `json:"type"`
	Indicators []string `json:"indicators"`
}

// Subscribe asks the feed for the configured indicators.
func (c *Client) Subscribe(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || !c.connected {
		return errNotConnected
	}
	if err := c.conn.WriteJSON(subscribeRequest{Type: "subscribe", Indicators: c.indicators}); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	c.l.Info("feed subscribed", applogger.Strings("indicators", c.indicators))
	return nil
}

type wireObservation struct {
	Indicator string  `json:"indicator"`
	Date      string  `json:"date"`
	Value     float64 `json:"value"`
	Unit      string  `json:"unit,omitempty"`
}

type frame struct {
	Type string            `json:"type"`
	Data []wireObservation `json:"data"`
}

// decodeFrame returns the observations of an observation frame. Other frame
// types yield nothing; malformed entries are skipped.
func decodeFrame(b []byte) ([]*models.Observation, error) {
	var f frame
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, err
	}
	if f.Type != "observation" {
		return nil, nil
	}
	out := make([]*models.Observation, 0, len(f.Data))
	for _, d := range f.Data {
		date, ok := util.ParseTime(d.Date)
		if !ok {
			continue
		}
		o := &models.Observation{Indicator: d.Indicator, Date: date, Value: d.Value, Unit: d.Unit}
		if o.Validate() != nil {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

// Read streams observations until ctx ends or the connection fails. Both
// channels are closed when reading stops. Observations are dropped when the
// consumer falls behind by more than the buffer.
func (c *Client) Read(ctx context.Context) (<-chan *models.Observation, <-chan error) {
	obs := make(chan *models.Observation, c.bufferSize)
	errs := make(chan error, 1)

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		errs <- errNotConnected
		close(obs)
		close(errs)
		return obs, errs
	}

	readCtx, stop := context.WithCancel(ctx)
	if c.pingInterval > 0 {
		go c.pingLoop(readCtx, conn)
	}
	go func() {
		<-readCtx.Done()
		if ctx.Err() != nil {
			// unblock ReadMessage
			_ = conn.SetReadDeadline(time.Now())
		}
	}()

	go func() {
		defer close(errs)
		defer close(obs)
		defer stop()
		dropped := 0
		for {
			_, b, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					errs <- fmt.Errorf("feed read: %w", err)
				}
				return
			}
			batch, err := decodeFrame(b)
			if err != nil {
				c.l.Debug("feed frame ignored", applogger.Error(err))
				continue
			}
			for _, o := range batch {
				select {
				case obs <- o:
				case <-ctx.Done():
					return
				default:
					dropped++
					if dropped%100 == 1 {
						c.l.Warn("feed backpressure, dropping observations", applogger.Int("dropped", dropped))
					}
				}
			}
		}
	}()

	return obs, errs
}

func (c *Client) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			c.mu.Unlock()
			if err != nil {
				c.l.Debug("feed ping failed", applogger.Error(err))
			}
		}
	}
}

// Reconnect closes the connection, waits the reconnect delay and dials again.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	if c.reconnectDelay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.reconnectDelay):
		}
	}
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	if c.conn == nil {
		return nil
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

var _ drepo.ObservationStream = (*Client)(nil)
