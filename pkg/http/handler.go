package http

import "github.com/labstack/echo/v4"

// Handler registers a group of routes on the server.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(e *echo.Echo)

func (f HandlerFunc) RegisterRoutes(e *echo.Echo) { f(e) }

// Handlers registers each handler in order.
type Handlers []Handler

func (hs Handlers) RegisterRoutes(e *echo.Echo) {
	for _, h := range hs {
		if h != nil {
			h.RegisterRoutes(e)
		}
	}
}
