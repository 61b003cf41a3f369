package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/lk2023060901/iqac-backend/internal/pkg/errors"
)

// The portal frontend consumes flat JSON objects with a human-readable
// "message" field on every non-file response, so helpers here emit gin.H
// directly instead of a nested envelope.

// Success sends a 200 response
func Success(c *gin.Context, data gin.H) {
	c.JSON(http.StatusOK, data)
}

// Created sends a 201 response
func Created(c *gin.Context, data gin.H) {
	c.JSON(http.StatusCreated, data)
}

// List sends a 200 response with a bare JSON array
func List(c *gin.Context, items interface{}) {
	c.JSON(http.StatusOK, items)
}

// Error sends an error response with the given HTTP status
func Error(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, gin.H{"message": message})
}

// BadRequest sends a 400 error
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// Unauthorized sends a 401 error
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message)
}

// Forbidden sends a 403 error
func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, message)
}

// NotFound sends a 404 error
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// InternalError sends a 500 error
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}

// HandleError maps an AppError to its HTTP status and message. Unknown
// errors surface as 500 with their detail preserved for operators.
func HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	code := apperrors.ExtractCode(err)
	httpStatus := apperrors.GetHTTPStatus(code)
	message := apperrors.FormatError(code, apperrors.GetDetails(err))

	Error(c, httpStatus, message)
}
