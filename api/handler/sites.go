package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/reviewharvest/models"
	"github.com/use-agent/reviewharvest/sites"
)

// Sites returns a handler for GET /api/v1/sites listing registered sites.
func Sites(reg *sites.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		profiles := reg.Profiles()
		out := make([]models.SiteInfo, len(profiles))
		for i, p := range profiles {
			out[i] = p.Info()
		}
		c.JSON(http.StatusOK, gin.H{"sites": out})
	}
}
