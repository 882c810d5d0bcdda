package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	apperrors "school-activities/internal/common/errors"
	"school-activities/internal/common/logger"
	"school-activities/internal/common/metrics"
	"school-activities/internal/common/observability"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

type RouterOptions struct {
	StaticDir       string
	AllowOrigins    []string
	ReadinessChecks map[string]ReadinessCheck
}

// NewRouter builds the echo instance with middleware and every route.
func NewRouter(h *Handler, log logger.Logger, obs *observability.Observability, opts RouterOptions) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = apperrors.NewErrorHandler(log).
		OnError(func(c echo.Context, stdErr *apperrors.StandardError, status int) {
			metrics.ActivityRequestsFailed.WithLabelValues(operationOf(c), string(stdErr.Code)).Inc()
		}).
		Handle

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(log, obs))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: opts.AllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderXRequestID},
	}))

	e.GET("/", h.Root)
	e.GET("/activities", h.ListActivities)
	e.POST("/activities/:name/signup", h.Signup)
	e.DELETE("/activities/:name/unregister", h.Unregister)

	if opts.StaticDir != "" {
		e.Static("/static", opts.StaticDir)
	}

	e.GET("/health", health)
	e.GET("/ready", ready(opts.ReadinessChecks))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e
}

// requestLogger logs one line per request and feeds the request meter.
func requestLogger(log logger.Logger, obs *observability.Observability) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			obs.RecordRequest(c.Request().Context(), v.Method, route, v.Status, v.Latency)

			fields := map[string]interface{}{
				"requestId": v.RequestID,
				"method":    v.Method,
				"uri":       v.URI,
				"status":    v.Status,
				"latencyMs": v.Latency.Milliseconds(),
			}
			if strings.HasPrefix(route, "/static") || route == "/metrics" || route == "/health" || route == "/ready" {
				log.Debug("request served", fields)
				return nil
			}
			log.Info("request served", fields)
			return nil
		},
	})
}

// operationOf names the roster operation a request targeted, for metric labels.
func operationOf(c echo.Context) string {
	switch c.Path() {
	case "/activities":
		return "list"
	case "/activities/:name/signup":
		return "signup"
	case "/activities/:name/unregister":
		return "unregister"
	default:
		return "other"
	}
}

type statusResponse struct {
	Status string            `json:"status"`
	Time   string            `json:"time"`
	Checks map[string]string `json:"checks,omitempty"`
}

func health(c echo.Context) error {
	return c.JSON(http.StatusOK, statusResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

func ready(checks map[string]ReadinessCheck) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		resp := statusResponse{Status: "ready", Checks: map[string]string{}}
		status := http.StatusOK
		for name, check := range checks {
			if err := check(ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		resp.Time = time.Now().UTC().Format(time.RFC3339)
		return c.JSON(status, resp)
	}
}
