package forecast

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed forecast call. Every kind is terminal.
type Kind string

const (
	KindBadRequest          Kind = "BAD_REQUEST"
	KindUpstreamUnavailable Kind = "UPSTREAM_UNAVAILABLE"
	KindUpstreamHTTP        Kind = "UPSTREAM_HTTP_ERROR"
	KindUpstreamData        Kind = "UPSTREAM_DATA_ERROR"
	KindNotFound            Kind = "NOT_FOUND"
)

// Error is returned by every stage of a forecast call. Message is safe to
// show to the caller; Err carries the diagnostic cause for logs.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Kind so callers can write errors.Is(err, forecast.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrBadRequest          = &Error{Kind: KindBadRequest}
	ErrUpstreamUnavailable = &Error{Kind: KindUpstreamUnavailable}
	ErrUpstreamHTTP        = &Error{Kind: KindUpstreamHTTP}
	ErrUpstreamData        = &Error{Kind: KindUpstreamData}
	ErrNotFound            = &Error{Kind: KindNotFound}
)

func BadRequest(format string, args ...any) *Error {
	return &Error{Kind: KindBadRequest, Status: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Status: http.StatusNotFound, Message: fmt.Sprintf(format, args...)}
}

func UpstreamUnavailable(err error) *Error {
	return &Error{
		Kind:    KindUpstreamUnavailable,
		Status:  http.StatusBadGateway,
		Message: fmt.Sprintf("A network error occurred connecting to the external weather API: %v", err),
		Err:     err,
	}
}

// UpstreamHTTP keeps the provider's status code as the response status.
func UpstreamHTTP(status int, err error) *Error {
	return &Error{
		Kind:    KindUpstreamHTTP,
		Status:  status,
		Message: fmt.Sprintf("Weather API HTTP Error: %d - Check API key or city name.", status),
		Err:     err,
	}
}

func UpstreamData(status int, message string, err error) *Error {
	if message == "" {
		message = "Could not retrieve forecast data"
	}
	return &Error{Kind: KindUpstreamData, Status: status, Message: message, Err: err}
}

// StatusOf returns the HTTP status for err, or 500 for errors outside the
// taxonomy.
func StatusOf(err error) int {
	var fe *Error
	if errors.As(err, &fe) && fe.Status != 0 {
		return fe.Status
	}
	return http.StatusInternalServerError
}
