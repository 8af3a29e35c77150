package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/use-agent/reviewharvest/models"
)

// abort stops the chain with the standard harvest error envelope.
func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, models.HarvestResponse{
		Success: false,
		Error:   &models.ErrorDetail{Code: code, Message: message},
	})
}
