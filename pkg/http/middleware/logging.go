package middleware

import (
	"time"

	applogger "TrendPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RequestLogging logs each request: debug when it succeeds quickly, warn
// when it is slower than slow or ends in a 5xx.
func RequestLogging(l *applogger.Logger, slow time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			took := time.Since(start)
			fields := []applogger.Field{
				applogger.String("request_id", res.Header().Get(echo.HeaderXRequestID)),
				applogger.String("method", req.Method),
				applogger.String("route", c.Path()),
				applogger.String("uri", req.RequestURI),
				applogger.String("remote", c.RealIP()),
				applogger.Int("status", res.Status),
				applogger.Int64("bytes", res.Size),
				applogger.Duration("duration_ms", took),
			}
			switch {
			case res.Status >= 500:
				l.Warn("http request failed", fields...)
			case slow > 0 && took > slow:
				l.Warn("slow http request", fields...)
			default:
				l.Debug("http request", fields...)
			}
			return nil
		}
	}
}
