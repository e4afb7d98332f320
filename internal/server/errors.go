package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	campaigndomain "github.com/opiniohq/opinio/internal/campaign/domain"
	companydomain "github.com/opiniohq/opinio/internal/company/domain"
	"github.com/opiniohq/opinio/internal/identity"
	portaldomain "github.com/opiniohq/opinio/internal/portal/domain"
	reviewdomain "github.com/opiniohq/opinio/internal/review/domain"
	subscriptiondomain "github.com/opiniohq/opinio/internal/subscription/domain"
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
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
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

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, subscriptiondomain.ErrBadSignature):
		return http.StatusBadRequest, errorPayload{
			Type:    "bad_signature",
			Message: "invalid webhook signature",
		}
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, identity.ErrUnauthenticated),
		errors.Is(err, portaldomain.ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, reviewdomain.ErrReviewsDisabled),
		errors.Is(err, companydomain.ErrCompanyLimitReached),
		errors.Is(err, companydomain.ErrPortalNotAllowed):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: forbiddenMessage(err),
		}
	case errors.Is(err, ErrConflict),
		errors.Is(err, reviewdomain.ErrInvalidTransition):
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

func forbiddenMessage(err error) string {
	switch {
	case errors.Is(err, reviewdomain.ErrReviewsDisabled):
		return "reviews are disabled for this company on this portal"
	case errors.Is(err, companydomain.ErrCompanyLimitReached):
		return "company limit reached for the current plan"
	case errors.Is(err, companydomain.ErrPortalNotAllowed):
		return "portal not included in the current plan"
	default:
		return "forbidden"
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
		errors.Is(err, reviewdomain.ErrInvalidRating),
		errors.Is(err, reviewdomain.ErrInvalidTitle),
		errors.Is(err, reviewdomain.ErrInvalidContent),
		errors.Is(err, reviewdomain.ErrInvalidAuthor),
		errors.Is(err, reviewdomain.ErrInvalidEmail),
		errors.Is(err, companydomain.ErrInvalidName),
		errors.Is(err, campaigndomain.ErrInvalidName),
		errors.Is(err, campaigndomain.ErrInvalidPortals),
		errors.Is(err, campaigndomain.ErrInvalidContact),
		errors.Is(err, portaldomain.ErrInvalidName),
		errors.Is(err, subscriptiondomain.ErrInvalidPlan):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, companydomain.ErrNotFound),
		errors.Is(err, reviewdomain.ErrNotFound),
		errors.Is(err, campaigndomain.ErrNotFound),
		errors.Is(err, campaigndomain.ErrTokenNotFound),
		errors.Is(err, portaldomain.ErrPortalNotFound),
		errors.Is(err, portaldomain.ErrKeyNotFound),
		errors.Is(err, subscriptiondomain.ErrNoActiveSubscription),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	if errors.Is(err, ErrInvalidRequest) {
		return "invalid_request"
	}
	return err.Error()
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	default:
		return "invalid value"
	}
}
