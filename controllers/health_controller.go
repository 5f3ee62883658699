package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type DBPinger interface {
	PingContext(ctx context.Context) error
}

// HealthController 存活与就绪检查
type HealthController struct {
	db DBPinger
}

func NewHealthController(db DBPinger) *HealthController {
	return &HealthController{db: db}
}

func (hc *HealthController) Healthz(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// Readyz 数据库 1 秒内可达才算就绪
func (hc *HealthController) Readyz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
	defer cancel()

	if err := hc.db.PingContext(ctx); err != nil {
		c.String(http.StatusServiceUnavailable, "not ready")
		return
	}
	c.String(http.StatusOK, "ready")
}
