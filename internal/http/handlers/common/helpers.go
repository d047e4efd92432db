package common

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kfhr/cashdesk-backend/internal/dto"
	"github.com/kfhr/cashdesk-backend/internal/http/middleware"
	"github.com/kfhr/cashdesk-backend/internal/pkg/apperror"
)

// ErrUserNotFound is returned when the user is missing from the context.
var ErrUserNotFound = errors.New("user not found in context")

// CurrentUserID extracts the authenticated user id from the Gin context.
func CurrentUserID(c *gin.Context) (uuid.UUID, error) {
	raw, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return uuid.Nil, ErrUserNotFound
	}

	userID, ok := raw.(uuid.UUID)
	if !ok {
		return uuid.Nil, ErrUserNotFound
	}

	return userID, nil
}

// CurrentUserRole extracts the authenticated user's role from the Gin context.
func CurrentUserRole(c *gin.Context) (string, error) {
	raw, exists := c.Get(middleware.ContextRoleKey)
	if !exists {
		return "", ErrUserNotFound
	}

	role, ok := raw.(string)
	if !ok {
		return "", ErrUserNotFound
	}

	return role, nil
}

// RespondError sends a standardized error response.
func RespondError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, dto.ErrorResponse{Error: message, Status: statusCode})
}

// RespondAppError maps a service-layer error to its HTTP status. Unknown
// errors become an opaque 500 so internals never leak.
func RespondAppError(c *gin.Context, err error) {
	status := apperror.HTTPStatus(err)

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		RespondError(c, status, appErr.Message)
		return
	}
	RespondError(c, status, "internal server error")
}

// RespondSuccess sends a standardized success response.
func RespondSuccess(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, dto.SuccessResponse{
		Message: message,
		Data:    data,
	})
}

// RespondJSON sends a JSON response with the given status code and data.
func RespondJSON(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}
