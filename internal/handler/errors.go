package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"teamtasks/internal/repository"
	"teamtasks/internal/service"
)

// writeError maps service and store errors onto HTTP responses. Unknown
// errors are passed through with the store's message.
func writeError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to perform this action"})
	case service.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundMessage(err)})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound):
		return "Assignment not found"
	case errors.Is(err, repository.ErrProfileNotFound):
		return "Profile not found"
	default:
		return "Task not found"
	}
}
