package narrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"TrendPulse/internal/domain/models"
	domsvc "TrendPulse/internal/domain/service"
	xhttp "TrendPulse/pkg/http"
	applogger "TrendPulse/pkg/logger"
)

type narrateResponse struct {
	Text string `json:"text"`
}

// HTTP asks a remote narration service for the text. When the service fails
// and a fallback is set, the fallback narrates instead.
type HTTP struct {
	baseURL  string
	client   *xhttp.Client
	fallback domsvc.Narrator
	l        *applogger.Logger
}

type Option func(*HTTP)

func WithFallback(n domsvc.Narrator) Option { return func(h *HTTP) { h.fallback = n } }

func WithLogger(l *applogger.Logger) Option {
	return func(h *HTTP) {
		if l != nil {
			h.l = l
		}
	}
}

func NewHTTP(baseURL string, timeout time.Duration, attempts int, opts ...Option) *HTTP {
	h := &HTTP{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout), xhttp.WithRetry(attempts, 50*time.Millisecond)),
		l:       applogger.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *HTTP) Narrate(ctx context.Context, in models.NarrationInput) (string, error) {
	text, err := h.remote(ctx, in)
	if err == nil {
		return text, nil
	}
	if h.fallback == nil {
		return "", err
	}
	h.l.Warn("narration service failed, using fallback",
		applogger.String("indicator", in.Indicator), applogger.Error(err))
	return h.fallback.Narrate(ctx, in)
}

func (h *HTTP) remote(ctx context.Context, in models.NarrationInput) (string, error) {
	if h.baseURL == "" {
		return "", errors.New("narration service url not configured")
	}
	var resp narrateResponse
	err := h.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    h.baseURL + "/narrate",
		Body:   in,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("post /narrate: %w", err)
	}
	if strings.TrimSpace(resp.Text) == "" {
		return "", errors.New("narration service returned empty text")
	}
	return resp.Text, nil
}

// New returns the HTTP narrator with the template as fallback, or the
// template alone when url is empty.
func New(url string, timeout time.Duration, attempts int, l *applogger.Logger) domsvc.Narrator {
	if url == "" {
		return Template{}
	}
	return NewHTTP(url, timeout, attempts, WithFallback(Template{}), WithLogger(l))
}
