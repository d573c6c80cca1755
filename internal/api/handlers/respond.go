// server/internal/api/handlers/respond.go
package handlers

import (
	"context"
	"errors"
	"net/http"

	"care-referral-api-server/internal/apperr"

	"github.com/gin-gonic/gin"
)

// respondError maps the workflow error taxonomy onto HTTP statuses. The
// message distinguishes "someone already claimed this resource" from
// "required field missing" from "network problem, please retry".
func respondError(c *gin.Context, err error) {
	switch {
	case apperr.IsValidation(err):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case apperr.IsConflict(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case apperr.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case apperr.IsTransient(err), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "network problem, please retry", "details": err.Error()})
	default:
		// Integrity violations land here too: a programming bug, reported
		// loudly and opaquely.
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "details": err.Error()})
	}
}
