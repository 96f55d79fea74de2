package system

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/storyseed/core/internal/pkg/response"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var startedAt = time.Now()

// RegisterRoutes wires the health and info endpoints.
func RegisterRoutes(rg *gin.RouterGroup, db *gorm.DB, authMW gin.HandlerFunc) {
	rg.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	rg.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		dbOK := err == nil && sqlDB.Ping() == nil

		status := "ok"
		code := http.StatusOK
		if !dbOK {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":   status,
			"database": dbOK,
		})
	})

	admin := rg.Group("", authMW)
	admin.GET("/info", func(c *gin.Context) {
		response.OK(c, gin.H{
			"version":    Version,
			"go_version": runtime.Version(),
			"os":         runtime.GOOS,
			"arch":       runtime.GOARCH,
			"goroutines": runtime.NumGoroutine(),
		})
	})
	admin.GET("/uptime", func(c *gin.Context) {
		response.OK(c, gin.H{
			"started_at": startedAt,
			"uptime":     time.Since(startedAt).Round(time.Second).String(),
		})
	})
}
