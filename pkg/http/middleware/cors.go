package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

type CORSConfig struct {
	// AllowOrigins lists exact origins; "*" allows any.
	AllowOrigins  []string
	AllowMethods  []string
	AllowHeaders  []string
	ExposeHeaders []string
	MaxAge        int // preflight cache, seconds
}

// CORS answers preflight requests itself and decorates the rest. Requests
// from origins outside AllowOrigins pass through without CORS headers, so
// browsers block them.
func CORS(cfg CORSConfig) echo.MiddlewareFunc {
	anyOrigin := false
	allowed := make(map[string]struct{}, len(cfg.AllowOrigins))
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			anyOrigin = true
		}
		allowed[strings.TrimRight(o, "/")] = struct{}{}
	}
	methods := strings.Join(cfg.AllowMethods, ", ")
	headers := strings.Join(cfg.AllowHeaders, ", ")
	expose := strings.Join(cfg.ExposeHeaders, ", ")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			h := c.Response().Header()
			origin := req.Header.Get(echo.HeaderOrigin)
			h.Add(echo.HeaderVary, echo.HeaderOrigin)

			if origin == "" {
				return next(c)
			}
			if _, ok := allowed[origin]; !ok && !anyOrigin {
				return next(c)
			}

			if anyOrigin {
				h.Set(echo.HeaderAccessControlAllowOrigin, "*")
			} else {
				h.Set(echo.HeaderAccessControlAllowOrigin, origin)
			}

			preflight := req.Method == http.MethodOptions && req.Header.Get(echo.HeaderAccessControlRequestMethod) != ""
			if !preflight {
				if expose != "" {
					h.Set(echo.HeaderAccessControlExposeHeaders, expose)
				}
				return next(c)
			}

			if methods != "" {
				h.Set(echo.HeaderAccessControlAllowMethods, methods)
			}
			if headers != "" {
				h.Set(echo.HeaderAccessControlAllowHeaders, headers)
			} else if reqHeaders := req.Header.Get(echo.HeaderAccessControlRequestHeaders); reqHeaders != "" {
				h.Set(echo.HeaderAccessControlAllowHeaders, reqHeaders)
			}
			if cfg.MaxAge > 0 {
				h.Set(echo.HeaderAccessControlMaxAge, strconv.Itoa(cfg.MaxAge))
			}
			return c.NoContent(http.StatusNoContent)
		}
	}
}
