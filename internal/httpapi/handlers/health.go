package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/companion-studio/internal/common"
)

func (h *Handler) Ping(c *gin.Context) {
	sqlDB, err := h.DB.DB()
	if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		common.Fail(c, http.StatusServiceUnavailable, 50300, "database unavailable")
		return
	}
	common.OK(c, gin.H{"pong": true})
}
