package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	apperrors "github.com/stockdash/portfolio_service/pkg/errors"
	"github.com/stockdash/portfolio_service/pkg/logger"
)

var errMissingUserID = errors.New("userId is required")

// ErrorResponse is the body of every non-2xx answer
type ErrorResponse struct {
	Error     string            `json:"error"`
	Code      string            `json:"code,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

func init() {
	// report json field names in validation details
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// getRequestID extracts request ID from context
func getRequestID(c *gin.Context) string {
	return c.GetString("request_id")
}

// requestLogger returns the per-request logger set by middleware, or fallback
func requestLogger(c *gin.Context, fallback *logger.Logger) *logger.Logger {
	if v, ok := c.Get("logger"); ok {
		if l, ok := v.(*logger.Logger); ok {
			return l
		}
	}
	return fallback
}

// respondError maps err onto a status code and the standard error body
func respondError(c *gin.Context, err error) {
	status := apperrors.GetStatusCode(err)

	message := apperrors.GetMessage(err)
	if status >= http.StatusInternalServerError {
		// keep driver text out of client responses
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			message = appErr.Message
		} else {
			message = "Internal server error"
		}
	}

	resp := ErrorResponse{
		Error:     message,
		Code:      apperrors.GetCode(err),
		RequestID: getRequestID(c),
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && len(appErr.Details) > 0 {
		resp.Details = appErr.Details
	}

	c.Error(err)
	c.AbortWithStatusJSON(status, resp)
}

// respondBadRequest sends a 400 for malformed input
func respondBadRequest(c *gin.Context, err error) {
	resp := ErrorResponse{
		Error:     "Invalid request body",
		Code:      apperrors.CodeValidation,
		RequestID: getRequestID(c),
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		resp.Error = "Validation failed"
		resp.Details = validationDetails(verrs)
	} else if err != nil {
		resp.Error = err.Error()
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, resp)
}

func validationDetails(verrs validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			details[field] = "is required"
		case "uuid":
			details[field] = "must be a valid UUID"
		case "max":
			details[field] = fmt.Sprintf("must be at most %s characters", fe.Param())
		default:
			details[field] = fmt.Sprintf("failed %s validation", fe.Tag())
		}
	}
	return details
}

// uuidParam parses a UUID route parameter, answering 400 when it is malformed
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		respondError(c, apperrors.NewValidationError(fmt.Sprintf("invalid %s", name)))
		return uuid.Nil, false
	}
	return id, true
}

// optionalUserID reads the caller id from ?userId= or the X-User-ID header
func optionalUserID(c *gin.Context) (uuid.UUID, bool, error) {
	raw := c.Query("userId")
	if raw == "" {
		raw = c.GetHeader("X-User-ID")
	}
	if raw == "" {
		return uuid.Nil, false, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false, apperrors.NewValidationError("invalid userId")
	}
	return id, true, nil
}

// authorizePortfolio writes a 400 or 403 and returns false when ownership is
// enforced and userID does not own the portfolio
func authorizePortfolio(c *gin.Context, owners OwnershipChecker, enforce bool, portfolioID, userID uuid.UUID) bool {
	if !enforce {
		return true
	}
	if userID == uuid.Nil {
		respondBadRequest(c, errMissingUserID)
		return false
	}
	if err := owners.EnsureOwner(c.Request.Context(), portfolioID, userID); err != nil {
		respondError(c, err)
		return false
	}
	return true
}
