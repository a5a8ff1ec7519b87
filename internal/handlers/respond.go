package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/loreline/backend/internal/pipeline"
)

// ErrorResponse sends a standardized error response and logs at caller if needed
func ErrorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// RejectionResponse maps a pipeline rejection to its HTTP status and sends
// the structured rejection body as-is.
func RejectionResponse(c *gin.Context, rej *pipeline.Rejection) {
	c.JSON(rejectionStatus(rej.Code), rej)
}

func rejectionStatus(code string) int {
	switch code {
	case pipeline.CodeInvalidInput:
		return http.StatusBadRequest
	case pipeline.CodeUnauthorized:
		return http.StatusUnauthorized
	case pipeline.CodeForbiddenBanned, pipeline.CodeForbiddenMuted:
		return http.StatusForbidden
	case pipeline.CodeRejectedSpam:
		return http.StatusTooManyRequests
	case pipeline.CodeRejectedToxic:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
