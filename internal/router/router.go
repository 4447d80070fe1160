package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"scheduler/internal/auth"
	"scheduler/internal/config"
	"scheduler/internal/handler"
	"scheduler/internal/metrics"
	"scheduler/internal/response"
	"scheduler/internal/validation"
)

// Deps are the components the routes are wired to.
type Deps struct {
	Logger    zerolog.Logger
	Metrics   *metrics.Metrics
	Validator *validation.Validator
	Auth      *auth.Middleware

	AuthHandler  *handler.AuthHandler
	EventHandler *handler.EventHandler
}

// Register wires routes and middleware.
func Register(e *echo.Echo, cfg *config.Config, deps Deps) {
	e.HTTPErrorHandler = response.ErrorHandler(deps.Logger)
	e.Validator = &CustomValidator{validator: deps.Validator}

	e.Use(middleware.RequestID())
	e.Use(requestLogger(deps.Logger))
	e.Use(middleware.Recover())
	if deps.Metrics != nil {
		e.Use(deps.Metrics.Middleware())
		e.GET("/metrics", echo.WrapHandler(deps.Metrics.Handler()))
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group(cfg.BaseAPIRoute)

	// Public routes
	api.POST("/signup", deps.AuthHandler.Signup)
	api.POST("/login", deps.AuthHandler.Login)

	// Secured routes (require a bearer token for an existing user). The
	// middleware is attached per route so unknown paths stay 404.
	authMW := deps.Auth.Handler()

	api.GET("/me", deps.AuthHandler.Me, authMW)

	api.GET("/events", deps.EventHandler.List, authMW)
	api.POST("/events", deps.EventHandler.Create, authMW)
	api.DELETE("/events", deps.EventHandler.Delete, authMW)
	api.GET("/events/:id", deps.EventHandler.Get, authMW)
	api.PATCH("/events/:id", deps.EventHandler.Update, authMW)
}

// CustomValidator adapts the payload validator to echo.
type CustomValidator struct {
	validator *validation.Validator
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Validate(i)
}

// requestLogger logs one line per request. Failed requests carry the error
// kind that was sent to the client.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		HandleError:  true,
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			event := log.Info()
			if v.Status >= http.StatusInternalServerError {
				event = log.Error()
			} else if v.Status >= http.StatusBadRequest {
				event = log.Warn()
			}

			event = event.
				Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP)
			if kind := response.ErrorKind(c); kind != "" {
				event = event.Str("kind", kind)
			}
			event.Msg("request")
			return nil
		},
	})
}
