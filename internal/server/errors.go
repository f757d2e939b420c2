package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	addondomain "github.com/citadia/citadia/internal/addon/domain"
	associationdomain "github.com/citadia/citadia/internal/association/domain"
	auditdomain "github.com/citadia/citadia/internal/audit/domain"
	billingportaldomain "github.com/citadia/citadia/internal/billingportal/domain"
	mandatedomain "github.com/citadia/citadia/internal/mandate/domain"
	plandomain "github.com/citadia/citadia/internal/plan/domain"
	stripebillingdomain "github.com/citadia/citadia/internal/stripebilling/domain"
	tenantdomain "github.com/citadia/citadia/internal/tenant/domain"
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
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, stripebillingdomain.ErrGateway):
		return http.StatusBadGateway, errorPayload{
			Type:    "gateway_error",
			Message: "payment gateway error",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	case errors.Is(err, ErrInternal):
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
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
	case errors.Is(err, ErrInvalidRequest):
		return true
	case isTenantValidationError(err),
		isAssociationValidationError(err),
		isPlanValidationError(err),
		isAddonValidationError(err),
		isMandateValidationError(err),
		isAuditValidationError(err):
		return true
	case errors.Is(err, stripebillingdomain.ErrInvalidTenant),
		errors.Is(err, stripebillingdomain.ErrInvalidLines),
		errors.Is(err, billingportaldomain.ErrInvalidSlug):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, tenantdomain.ErrSlugTaken),
		errors.Is(err, tenantdomain.ErrTenantArchived),
		errors.Is(err, associationdomain.ErrSlugTaken),
		errors.Is(err, plandomain.ErrCodeTaken),
		errors.Is(err, plandomain.ErrPlanArchived),
		errors.Is(err, addondomain.ErrCodeTaken),
		errors.Is(err, addondomain.ErrAddonArchived),
		errors.Is(err, addondomain.ErrAlreadyAttached),
		errors.Is(err, mandatedomain.ErrInvalidTransition),
		errors.Is(err, mandatedomain.ErrInvoiceImmutable),
		errors.Is(err, mandatedomain.ErrNotIssued):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, tenantdomain.ErrTenantNotFound),
		errors.Is(err, associationdomain.ErrAssociationNotFound),
		errors.Is(err, plandomain.ErrPlanNotFound),
		errors.Is(err, addondomain.ErrAddonNotFound),
		errors.Is(err, addondomain.ErrNotAttached),
		errors.Is(err, mandatedomain.ErrInvoiceNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isTenantValidationError(err error) bool {
	switch err {
	case tenantdomain.ErrInvalidTenant,
		tenantdomain.ErrInvalidName,
		tenantdomain.ErrInvalidType,
		tenantdomain.ErrInvalidStatus,
		tenantdomain.ErrInvalidTrialEnd,
		tenantdomain.ErrInvalidParent,
		tenantdomain.ErrParentNotFound,
		tenantdomain.ErrParentTypeMismatch,
		tenantdomain.ErrDualParent:
		return true
	default:
		return false
	}
}

func isAssociationValidationError(err error) bool {
	switch err {
	case associationdomain.ErrInvalidAssociation,
		associationdomain.ErrInvalidName,
		associationdomain.ErrInvalidTenant:
		return true
	default:
		return false
	}
}

func isPlanValidationError(err error) bool {
	switch err {
	case plandomain.ErrInvalidPlan,
		plandomain.ErrInvalidCode,
		plandomain.ErrInvalidName,
		plandomain.ErrInvalidAmount,
		plandomain.ErrInvalidCurrency:
		return true
	default:
		return false
	}
}

func isAddonValidationError(err error) bool {
	switch err {
	case addondomain.ErrInvalidAddon,
		addondomain.ErrInvalidCode,
		addondomain.ErrInvalidName,
		addondomain.ErrInvalidTiers,
		addondomain.ErrInvalidQuantity,
		addondomain.ErrInvalidTenant:
		return true
	default:
		return false
	}
}

func isMandateValidationError(err error) bool {
	switch err {
	case mandatedomain.ErrInvalidInvoice,
		mandatedomain.ErrInvalidTenant,
		mandatedomain.ErrInvalidLines,
		mandatedomain.ErrInvalidStatus:
		return true
	default:
		return false
	}
}

func isAuditValidationError(err error) bool {
	switch err {
	case auditdomain.ErrInvalidAction,
		auditdomain.ErrInvalidPageToken,
		auditdomain.ErrInvalidTimeRange,
		auditdomain.ErrInvalidTenant:
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

// classifyErrorForLog feeds the request logger the coarse error family and
// code without rendering a response.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}
