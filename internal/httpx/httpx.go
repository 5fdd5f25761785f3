// Package httpx holds echo middleware shared by the API server and the mock supplier.
package httpx

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/m-mizutani/ctxlog"
)

// New creates an echo instance with panic recovery, request logging and the JSON error handler.
func New(logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(Logger(logger))
	e.HTTPErrorHandler = ErrorHandler
	return e
}

// Logger stores a request scoped logger in the request context and logs each request.
func Logger(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			reqLogger := logger.With("http_request_id", uuid.NewString())
			c.SetRequest(req.WithContext(ctxlog.With(req.Context(), reqLogger)))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			reqLogger.Info("http request",
				"method", req.Method,
				"path", req.URL.Path,
				"status", c.Response().Status,
				"duration", time.Since(start),
				"remote", c.RealIP(),
			)
			return nil
		}
	}
}

// ErrorHandler writes every error as {"error": "..."}.
func ErrorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := err.Error()
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
	}

	if code >= http.StatusInternalServerError {
		ctxlog.From(c.Request().Context()).Error("request failed", "status", code, "error", err)
	}
	if !c.Response().Committed {
		_ = c.JSON(code, map[string]any{"error": msg})
	}
}
