package presenter

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/zeebo/xxh3"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/totegamma/kycgraph/internal/domain"
)

type errorResponse struct {
	Error  string `json:"error"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// OK wraps a successful response.
func OK(c echo.Context, payload any) error {
	return c.JSON(http.StatusOK, payload)
}

func Created(c echo.Context, payload any) error {
	return c.JSON(http.StatusCreated, payload)
}

func NoContent(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

// OKWithETag serves payload with a content hash ETag and answers a matching
// If-None-Match with 304.
func OKWithETag(c echo.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return InternalError(c, err)
	}
	etag := fmt.Sprintf(`"%016x"`, xxh3.Hash(body))
	c.Response().Header().Set("ETag", etag)
	if c.Request().Header.Get("If-None-Match") == etag {
		return c.NoContent(http.StatusNotModified)
	}
	return c.JSONBlob(http.StatusOK, body)
}

func BadRequest(c echo.Context, err error) error {
	log.Debug("bad request", "path", c.Path(), "err", err)
	return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func BadRequestMessage(c echo.Context, msg string) error {
	log.Debug("bad request", "path", c.Path(), "msg", msg)
	return c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

func Unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, errorResponse{Error: msg})
}

func NotFound(c echo.Context, msg string) error {
	return c.JSON(http.StatusNotFound, errorResponse{Error: msg})
}

// InternalError hides err from the client and records it on the request span.
func InternalError(c echo.Context, err error) error {
	span := trace.SpanFromContext(c.Request().Context())
	span.RecordError(err)
	span.SetStatus(codes.Error, "internal error")
	log.Error("internal error", "path", c.Path(), "traceId", span.SpanContext().TraceID().String(), "err", err)
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
}

// Error maps a domain error onto its HTTP status.
func Error(c echo.Context, err error) error {
	var invalid domain.ValidationError
	switch {
	case errors.As(err, &invalid):
		return c.JSON(http.StatusBadRequest, errorResponse{
			Error:  err.Error(),
			Field:  invalid.Field,
			Reason: invalid.Reason,
		})
	case errors.Is(err, domain.ErrNotFound):
		return NotFound(c, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		return InternalError(c, err)
	}
}
