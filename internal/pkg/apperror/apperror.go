package apperror

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

type Kind string

const (
	KindValidation      Kind = "validation_error"
	KindAuth            Kind = "unauthorized"
	KindNotFound        Kind = "not_found"
	KindUpstreamTimeout Kind = "upstream_timeout"
	KindUpstreamFailure Kind = "upstream_failure"
	KindInternal        Kind = "internal_server_error"
)

// Error is the caller-facing error type. Message is safe to return to clients,
// Err carries the underlying cause for logs only.
type Error struct {
	Kind    Kind
	Message string
	Details any
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

// Status maps the error kind to an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return fiber.StatusBadRequest
	case KindAuth:
		return fiber.StatusUnauthorized
	case KindNotFound:
		return fiber.StatusNotFound
	case KindUpstreamTimeout:
		return fiber.StatusGatewayTimeout
	case KindUpstreamFailure:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// Retryable reports whether the caller may retry the same request unchanged.
func (e *Error) Retryable() bool {
	return e.Kind == KindUpstreamTimeout
}

func Validation(message string, details any) *Error {
	return &Error{Kind: KindValidation, Message: message, Details: details}
}

func Auth(message string) *Error {
	return &Error{Kind: KindAuth, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func UpstreamTimeout(message string, err error) *Error {
	return &Error{Kind: KindUpstreamTimeout, Message: message, Err: err}
}

func UpstreamFailure(message string, err error) *Error {
	return &Error{Kind: KindUpstreamFailure, Message: message, Err: err}
}

func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsKind reports whether err carries an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}

// Handler is installed as fiber.Config.ErrorHandler.
func Handler(c *fiber.Ctx, err error) error {
	if appErr, ok := As(err); ok {
		status := appErr.Status()
		if status >= fiber.StatusInternalServerError {
			log.Errorf("[API] %s %s failed (request %v): %v", c.Method(), c.Path(), c.Locals("requestid"), appErr)
		}
		body := fiber.Map{
			"error":   string(appErr.Kind),
			"message": appErr.Message,
		}
		if appErr.Details != nil {
			body["details"] = appErr.Details
		}
		if appErr.Retryable() {
			body["retryable"] = true
		}
		return c.Status(status).JSON(body)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{
			"error":   codeForStatus(fiberErr.Code),
			"message": fiberErr.Message,
		})
	}

	log.Errorf("[API] %s %s unhandled error (request %v): %v", c.Method(), c.Path(), c.Locals("requestid"), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":   string(KindInternal),
		"message": "Internal server error",
	})
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return string(KindValidation)
	case fiber.StatusUnauthorized:
		return string(KindAuth)
	case fiber.StatusForbidden:
		return "forbidden"
	case fiber.StatusNotFound:
		return string(KindNotFound)
	case fiber.StatusMethodNotAllowed:
		return "method_not_allowed"
	case fiber.StatusRequestEntityTooLarge:
		return "payload_too_large"
	case fiber.StatusTooManyRequests:
		return "too_many_requests"
	}
	if status >= fiber.StatusInternalServerError {
		return string(KindInternal)
	}
	return "error"
}
