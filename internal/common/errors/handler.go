// internal/common/errors/handler.go
package errors

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Logger is the subset of logger.Logger the error handler needs.
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// ErrorResponse is the JSON body written for every failed request.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// ErrorHandler turns handler errors into {"detail": ...} responses.
type ErrorHandler struct {
	logger  Logger
	onError func(c echo.Context, stdErr *StandardError, status int)
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// OnError registers a hook invoked for every handled error, e.g. for metrics.
func (h *ErrorHandler) OnError(fn func(c echo.Context, stdErr *StandardError, status int)) *ErrorHandler {
	h.onError = fn
	return h
}

// Handle implements echo.HTTPErrorHandler.
func (h *ErrorHandler) Handle(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	stdErr, status := h.normalizeError(err)
	h.logError(c, stdErr, status)
	if h.onError != nil {
		h.onError(c, stdErr, status)
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, ErrorResponse{Detail: stdErr.Message})
	}
	if writeErr != nil {
		h.logger.Error("failed to write error response", map[string]interface{}{
			"error": writeErr,
		})
	}
}

// normalizeError ensures we always have a StandardError and a status.
func (h *ErrorHandler) normalizeError(err error) (*StandardError, int) {
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr, HTTPStatus(stdErr.Code)
	}

	if he, ok := err.(*echo.HTTPError); ok {
		code := ErrCodeInternal
		switch he.Code {
		case http.StatusNotFound:
			code = ErrCodeRouteNotFound
		case http.StatusMethodNotAllowed:
			code = ErrCodeMethodNotAllowed
		}
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok && s != "" {
			msg = s
		}
		return &StandardError{
			Code:      code,
			Message:   msg,
			Timestamp: time.Now().UTC(),
			cause:     he.Internal,
		}, he.Code
	}

	return NewInternalError(err), http.StatusInternalServerError
}

func (h *ErrorHandler) logError(c echo.Context, stdErr *StandardError, status int) {
	fields := map[string]interface{}{
		"requestId":     c.Response().Header().Get(echo.HeaderXRequestID),
		"method":        c.Request().Method,
		"path":          c.Request().URL.Path,
		"status":        status,
		"errorCode":     string(stdErr.Code),
		"errorCategory": GetErrorCategory(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields)
		return
	}
	h.logger.Info("request rejected", fields)
}
