package middleware

import (
	"time"

	applogger "StockCast/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RequestLogging logs one structured line per request.
func RequestLogging(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			if l != nil {
				l.Info("http request",
					applogger.String("method", c.Request().Method),
					applogger.String("path", c.Request().RequestURI),
					applogger.String("remote", c.Request().RemoteAddr),
					applogger.Int("status", c.Response().Status),
					applogger.Duration("latency", time.Since(start)),
				)
			}
			return err
		}
	}
}
