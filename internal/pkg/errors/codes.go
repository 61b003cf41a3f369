package errors

import (
	"fmt"
	"net/http"
)

// Code represents an error code with HTTP status and message
type Code struct {
	Code    int    // Business error code
	Status  int    // HTTP status code
	Message string // Error message
}

// Error codes for different modules
const (
	// Success
	Success = 0

	// Common errors (1000-1999)
	ErrInternalServer  = 1000
	ErrInvalidParams   = 1001
	ErrNotFound        = 1002
	ErrUnauthorized    = 1003
	ErrForbidden       = 1004
	ErrTooManyRequests = 1005

	// Auth errors (2000-2999)
	ErrAuthInvalidCredentials = 2000
	ErrAuthInvalidToken       = 2001
	ErrAuthAdminRequired      = 2002

	// Record errors (3000-3999)
	ErrRecordNotFound      = 3000
	ErrRecordInvalidKind   = 3001
	ErrRecordInvalidInput  = 3002
	ErrRecordInvalidAction = 3003
	ErrRecordFileMissing   = 3004
	ErrRecordInvalidType   = 3005
	ErrRecordFileTooLarge  = 3006

	// Storage errors (4000-4999)
	ErrStorageFailed   = 4000
	ErrPayloadNotFound = 4001
)

// codeMap maps error codes to their details
var codeMap = map[int]Code{
	Success: {Success, http.StatusOK, "Success"},

	// Common errors
	ErrInternalServer:  {ErrInternalServer, http.StatusInternalServerError, "Internal server error"},
	ErrInvalidParams:   {ErrInvalidParams, http.StatusBadRequest, "Invalid parameters"},
	ErrNotFound:        {ErrNotFound, http.StatusNotFound, "Resource not found"},
	ErrUnauthorized:    {ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
	ErrForbidden:       {ErrForbidden, http.StatusForbidden, "Forbidden"},
	ErrTooManyRequests: {ErrTooManyRequests, http.StatusTooManyRequests, "Too many requests"},

	// Auth errors
	ErrAuthInvalidCredentials: {ErrAuthInvalidCredentials, http.StatusUnauthorized, "Invalid email or password"},
	ErrAuthInvalidToken:       {ErrAuthInvalidToken, http.StatusUnauthorized, "Invalid or expired token"},
	ErrAuthAdminRequired:      {ErrAuthAdminRequired, http.StatusForbidden, "Admin access required"},

	// Record errors
	ErrRecordNotFound:      {ErrRecordNotFound, http.StatusNotFound, "Record not found"},
	ErrRecordInvalidKind:   {ErrRecordInvalidKind, http.StatusNotFound, "Unknown record kind"},
	ErrRecordInvalidInput:  {ErrRecordInvalidInput, http.StatusBadRequest, "Title and date are required"},
	ErrRecordInvalidAction: {ErrRecordInvalidAction, http.StatusBadRequest, "Invalid action. Must be \"approve\" or \"reject\""},
	ErrRecordFileMissing:   {ErrRecordFileMissing, http.StatusBadRequest, "No file uploaded"},
	ErrRecordInvalidType:   {ErrRecordInvalidType, http.StatusBadRequest, "Only PDF files are allowed"},
	ErrRecordFileTooLarge:  {ErrRecordFileTooLarge, http.StatusBadRequest, "File size exceeds limit"},

	// Storage errors
	ErrStorageFailed:   {ErrStorageFailed, http.StatusInternalServerError, "Storage operation failed"},
	ErrPayloadNotFound: {ErrPayloadNotFound, http.StatusNotFound, "File not found on server"},
}

// GetCode returns the Code for a given error code
func GetCode(code int) Code {
	if c, ok := codeMap[code]; ok {
		return c
	}
	return codeMap[ErrInternalServer]
}

// GetHTTPStatus returns HTTP status for a given error code
func GetHTTPStatus(code int) int {
	return GetCode(code).Status
}

// GetMessage returns the message for a given error code
func GetMessage(code int) string {
	return GetCode(code).Message
}

// FormatError formats an error message with code
func FormatError(code int, details ...string) string {
	msg := GetMessage(code)
	if len(details) > 0 && details[0] != "" {
		return fmt.Sprintf("%s: %s", msg, details[0])
	}
	return msg
}
