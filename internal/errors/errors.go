package errors

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// Error is a domain error carrying the HTTP status and category label it
// resolves to at the boundary.
type Error struct {
	Status  int
	Label   string
	Message string
	Fields  []string
}

func (e *Error) Error() string {
	return e.Message
}

// NotFound signals an absent resource.
func NotFound(message string) *Error {
	return &Error{Status: http.StatusNotFound, Label: "Not Found", Message: message}
}

// Forbidden signals an authenticated but unauthorized access.
func Forbidden(message string) *Error {
	return &Error{Status: http.StatusForbidden, Label: "Forbidden", Message: message}
}

// Conflict signals a uniqueness violation.
func Conflict(message string) *Error {
	return &Error{Status: http.StatusConflict, Label: "Conflict", Message: message}
}

// Unauthorized signals missing or invalid credentials.
func Unauthorized(message string) *Error {
	return &Error{Status: http.StatusUnauthorized, Label: "Unauthorized", Message: message}
}

// BadRequest signals a business-rule violation or a wrapped opaque failure.
func BadRequest(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Label: "Bad Request", Message: message}
}

// Validation signals malformed input with field-level messages.
func Validation(fields []string) *Error {
	return &Error{
		Status:  http.StatusBadRequest,
		Label:   "Validation Error",
		Message: "Validation failed",
		Fields:  fields,
	}
}

// IsDomain reports whether err is a domain error that should pass through to
// the boundary unchanged.
func IsDomain(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

// FromStorage translates storage-layer errors into domain errors. Unique index
// violations become Conflict and missing records NotFound; anything else is
// re-signaled as BadRequest with the supplied non-leaking message.
func FromStorage(err error, fallback string) *Error {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return Conflict("Email already exists")
	case errors.Is(err, gorm.ErrRecordNotFound):
		return NotFound("Record not found")
	default:
		return BadRequest(fallback)
	}
}

// Response is the structured error body returned to clients. Message is a
// string for single errors or a list for field-level validation errors.
type Response struct {
	StatusCode int         `json:"statusCode"`
	Message    interface{} `json:"message"`
	Error      string      `json:"error"`
	Timestamp  string      `json:"timestamp"`
	Path       string      `json:"path"`
}

// HTTPErrorHandler resolves every error to a Response. Domain errors keep
// their status and message; anything unrecognized becomes a 500 with no
// internal detail exposed.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	label := "Internal Server Error"
	var message interface{} = "Internal server error"

	var domainErr *Error
	var echoErr *echo.HTTPError
	var fieldErrs validator.ValidationErrors

	switch {
	case errors.As(err, &domainErr):
		status = domainErr.Status
		label = domainErr.Label
		if len(domainErr.Fields) > 0 {
			message = domainErr.Fields
		} else {
			message = domainErr.Message
		}
	case errors.As(err, &fieldErrs):
		status = http.StatusBadRequest
		label = "Validation Error"
		message = fieldMessages(fieldErrs)
	case errors.As(err, &echoErr):
		status = echoErr.Code
		label = http.StatusText(echoErr.Code)
		if msg, ok := echoErr.Message.(string); ok {
			message = msg
		}
	default:
		c.Logger().Error(err)
	}

	resp := Response{
		StatusCode: status,
		Message:    message,
		Error:      label,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Path:       c.Request().URL.Path,
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, resp)
}

// fieldMessages flattens validator errors into per-field messages.
func fieldMessages(errs validator.ValidationErrors) []string {
	messages := make([]string, 0, len(errs))
	for _, fe := range errs {
		messages = append(messages, fieldMessage(fe))
	}
	return messages
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email address"
	case "min":
		return fe.Field() + " must be at least " + fe.Param() + " characters"
	case "max":
		return fe.Field() + " cannot exceed " + fe.Param()
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param()
	default:
		return fe.Field() + " is invalid"
	}
}
