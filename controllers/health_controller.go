package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"motomar-api/database"
	"motomar-api/logger"
)

const (
	APIName    = "MotoMar API"
	APIVersion = "1.0.0"
)

type HealthController struct {
	db          *gorm.DB
	environment string
}

func NewHealthController(db *gorm.DB, environment string) *HealthController {
	return &HealthController{db: db, environment: environment}
}

// Health reports 503 when the database does not answer a ping.
func (hc *HealthController) Health(c *gin.Context) {
	status, dbStatus, code := "healthy", "connected", http.StatusOK
	if err := database.Ping(hc.db); err != nil {
		logger.Log.Warnw("health check: database ping failed", "error", err)
		status, dbStatus, code = "degraded", "unavailable", http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":      status,
		"environment": hc.environment,
		"version":     APIVersion,
		"database":    dbStatus,
		"timestamp":   time.Now().UTC(),
	})
}

func (hc *HealthController) APIInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    APIName,
		"version": APIVersion,
		"endpoints": gin.H{
			"auth":    "/api/auth",
			"motos":   "/api/motos",
			"search":  "/api/motos/search",
			"health":  "/health",
			"metrics": "/metrics",
		},
	})
}
