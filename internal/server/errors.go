package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	accountdomain "github.com/pagelift/pagelift/internal/account/domain"
	activitydomain "github.com/pagelift/pagelift/internal/activity/domain"
	businessdomain "github.com/pagelift/pagelift/internal/business/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type         string            `json:"type"`
	Message      string            `json:"message"`
	Errors       []ValidationError `json:"errors,omitempty"`
	Plan         string            `json:"plan,omitempty"`
	RequiredPlan string            `json:"required_plan,omitempty"`
	Max          *int              `json:"max,omitempty"`
	ResetAt      string            `json:"reset_at,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

// upgradeRequiredError is returned when the caller's plan lacks a feature.
// The current and required plan names let the front end render the right
// upgrade prompt.
type upgradeRequiredError struct {
	Feature      string
	Plan         string
	RequiredPlan string
}

func (e *upgradeRequiredError) Error() string {
	return "upgrade_required"
}

// quotaExceededError is returned when a plan quota ceiling is reached.
type quotaExceededError struct {
	Quota string
	Plan  string
	Max   int
}

func (e *quotaExceededError) Error() string {
	return "quota_exceeded"
}

// rateLimitedError carries the window close time so the response can tell
// the client when to retry.
type rateLimitedError struct {
	ResetAt string
}

func (e *rateLimitedError) Error() string {
	return "rate_limited"
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	var upgradeErr *upgradeRequiredError
	if errors.As(err, &upgradeErr) {
		return http.StatusPaymentRequired, errorPayload{
			Type:         "upgrade_required",
			Message:      "current plan does not include " + upgradeErr.Feature,
			Plan:         upgradeErr.Plan,
			RequiredPlan: upgradeErr.RequiredPlan,
		}
	}

	var quotaErr *quotaExceededError
	if errors.As(err, &quotaErr) {
		max := quotaErr.Max
		return http.StatusForbidden, errorPayload{
			Type:    "quota_exceeded",
			Message: "plan limit reached for " + quotaErr.Quota,
			Plan:    quotaErr.Plan,
			Max:     &max,
		}
	}

	var rateErr *rateLimitedError
	if errors.As(err, &rateErr) {
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
			ResetAt: rateErr.ResetAt,
		}
	}

	if isValidationError(err) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(err.Error()),
					Code:    err.Error(),
					Message: "invalid value",
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, ErrConflict),
		errors.Is(err, accountdomain.ErrDuplicate),
		errors.Is(err, businessdomain.ErrSlugTaken):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, accountdomain.ErrInvalidEmail),
		errors.Is(err, accountdomain.ErrInvalidName),
		errors.Is(err, businessdomain.ErrInvalidName),
		errors.Is(err, businessdomain.ErrInvalidEmail),
		errors.Is(err, activitydomain.ErrInvalidUser),
		errors.Is(err, activitydomain.ErrInvalidPageToken):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, accountdomain.ErrNotFound),
		errors.Is(err, businessdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorField(code string) string {
	switch code {
	case "invalid_request":
		return "request"
	case "invalid_email":
		return "email"
	case "invalid_name":
		return "name"
	case "invalid_page_token":
		return "page_token"
	case "invalid_user":
		return "user"
	default:
		return ""
	}
}

func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	switch {
	case status >= http.StatusInternalServerError:
		return "internal_error", payload.Type
	case status == http.StatusBadRequest:
		return "validation_error", payload.Type
	default:
		return payload.Type, payload.Type
	}
}
