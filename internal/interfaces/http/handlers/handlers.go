// internal/interfaces/http/handlers/handlers.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/your-org/farmmarket-backend/internal/pkg/apperr"
)

// respondError maps a service error onto its HTTP status. Handlers never pick
// status codes themselves; the error taxonomy does.
func respondError(c *gin.Context, err error) {
	c.JSON(apperr.Status(err), gin.H{
		"error": err.Error(),
	})
}
