package helper

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskapp/internal/core/domain"
	"taskapp/internal/core/model/response"
)

func SendSuccess(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, data)
}

func SendError(c *gin.Context, statusCode int, code string, errors []response.ValidationError) {
	c.AbortWithStatusJSON(statusCode, response.ErrorResponse{
		Error: response.ResponseError{
			Code:   code,
			Errors: errors,
		},
	})
}

func SendValidationError(c *gin.Context, ve *domain.ValidationError) {
	SendError(c, http.StatusBadRequest, "VALIDATION_ERROR", response.FromFieldErrors(ve.Fields))
}

func SendInternalError(c *gin.Context, message string) {
	SendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", []response.ValidationError{
		{Field: "server", Message: message},
	})
}

func SendUnauthorizedError(c *gin.Context, message string) {
	SendError(c, http.StatusUnauthorized, "UNAUTHORIZED", []response.ValidationError{
		{Field: "auth", Message: message},
	})
}

func SendBadRequestError(c *gin.Context, field string, message string) {
	SendError(c, http.StatusBadRequest, "BAD_REQUEST", []response.ValidationError{
		{Field: field, Message: message},
	})
}

func SendNotFoundError(c *gin.Context, message string) {
	SendError(c, http.StatusNotFound, "NOT_FOUND", []response.ValidationError{
		{Field: "resource", Message: message},
	})
}

func SendTooManyRequests(c *gin.Context, message string) {
	SendError(c, http.StatusTooManyRequests, "RATE_LIMITED", []response.ValidationError{
		{Field: "request", Message: message},
	})
}

// SendDomainError maps a core error onto its HTTP status. It reports whether
// the error was one the core defines; unknown errors are sent as 500.
func SendDomainError(c *gin.Context, err error) bool {
	if ve, ok := domain.AsValidationError(err); ok {
		SendValidationError(c, ve)
		return true
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		SendNotFoundError(c, "Not found.")
	case errors.Is(err, domain.ErrUnauthenticated):
		SendUnauthorizedError(c, "Authentication credentials were not provided.")
	case errors.Is(err, domain.ErrIntegrity):
		SendBadRequestError(c, "body", "integrity violation")
	default:
		SendInternalError(c, "internal server error")
		return false
	}

	return true
}
