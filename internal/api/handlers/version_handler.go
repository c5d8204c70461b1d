package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stockdash/portfolio_service/pkg/version"
)

// VersionHandler returns build metadata
// @Summary Get build version
// @Tags health
// @Produce json
// @Success 200 {object} version.Info
// @Router /version [get]
func VersionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, version.Get())
	}
}
