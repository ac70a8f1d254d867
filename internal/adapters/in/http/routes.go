package http

import (
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// Options tune the echo instance built by NewEcho.
type Options struct {
	// OpenAPI, when not nil, enables request validation against it.
	OpenAPI *openapi3.T
	// WebSocket serves GET /ws when not nil.
	WebSocket http.Handler
	// Health reports readiness for GET /health; nil means always healthy.
	Health func(c echo.Context) error
	Debug  bool
}

// NewEcho assembles the HTTP surface: REST routes behind bearer
// authentication, the WebSocket upgrade, health, the API document and its UI.
func NewEcho(s *Server, verifier TokenVerifier, opts Options) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = ErrorHandler
	if opts.Debug {
		e.Logger.SetLevel(log.DEBUG)
	} else {
		e.Logger.SetLevel(log.INFO)
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	e.GET("/health", func(c echo.Context) error {
		if opts.Health != nil {
			return opts.Health(c)
		}
		return c.String(http.StatusOK, "Healthy")
	})
	e.GET("/openapi.yaml", func(c echo.Context) error {
		return c.Blob(http.StatusOK, "application/yaml", OpenAPIDocument())
	})
	e.GET("/swagger/*", echoSwagger.EchoWrapHandler(echoSwagger.URL("/openapi.yaml")))
	if opts.WebSocket != nil {
		e.GET("/ws", echo.WrapHandler(opts.WebSocket))
	}

	api := []echo.MiddlewareFunc{Authenticate(verifier)}
	if opts.OpenAPI != nil {
		validate, err := ValidateRequests(opts.OpenAPI)
		if err != nil {
			return nil, err
		}
		api = append(api, validate)
	}
	s.RegisterRoutes(e, api...)

	return e, nil
}

// RegisterRoutes mounts the REST endpoints, each wrapped in mw.
func (s *Server) RegisterRoutes(e *echo.Echo, mw ...echo.MiddlewareFunc) {
	e.POST("/orders", s.CreateOrder, mw...)
	e.GET("/orders/:id", s.GetOrder, mw...)
	e.PUT("/orders/:id/status", s.UpdateOrderStatus, mw...)
	e.PUT("/orders/:id/cancel", s.CancelOrder, mw...)
	e.GET("/users/orders", s.ListCustomerOrders, mw...)

	e.POST("/kitchen/orders/:id/assign", s.AssignChef, mw...)
	e.POST("/kitchen/orders/:id/ready", s.MarkReady, mw...)

	e.POST("/delivery/orders/:id/assign-driver", s.AssignDriver, mw...)
	e.PUT("/delivery/orders/:id/status", s.UpdateDeliveryStatus, mw...)

	e.GET("/ws/connections", s.ListConnections, mw...)
}
