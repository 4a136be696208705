package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	applogger "TrendPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Recover turns a handler panic into a 500 in the usual response envelope.
// Nothing is written when the handler already committed a response.
func Recover(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if r == http.ErrAbortHandler {
					panic(r)
				}
				perr, ok := r.(error)
				if !ok {
					perr = fmt.Errorf("%v", r)
				}
				rid := c.Response().Header().Get(echo.HeaderXRequestID)
				l.Error("panic recovered",
					applogger.Error(perr),
					applogger.String("request_id", rid),
					applogger.String("route", c.Path()),
					applogger.String("stack", string(debug.Stack())),
				)
				if c.Response().Committed {
					return
				}
				err = c.JSON(http.StatusInternalServerError, map[string]interface{}{
					"status":    http.StatusInternalServerError,
					"message":   http.StatusText(http.StatusInternalServerError),
					"requestId": rid,
				})
			}()
			return next(c)
		}
	}
}
