package app

import (
	"github.com/gin-gonic/gin"

	"github.com/storyseed/core/internal/middleware"
	"github.com/storyseed/core/internal/modules/auth"
	"github.com/storyseed/core/internal/modules/backup"
	"github.com/storyseed/core/internal/modules/book"
	"github.com/storyseed/core/internal/modules/crontask"
	"github.com/storyseed/core/internal/modules/dailyprompt"
	"github.com/storyseed/core/internal/modules/element"
	"github.com/storyseed/core/internal/modules/export"
	"github.com/storyseed/core/internal/modules/prompt"
	"github.com/storyseed/core/internal/modules/resp"
	"github.com/storyseed/core/internal/modules/stats"
	"github.com/storyseed/core/internal/modules/system"
	"github.com/storyseed/core/internal/pkg/response"
)

func (a *App) registerRoutes(
	dailySvc *dailyprompt.Service,
	selector *dailyprompt.Selector,
	composer *dailyprompt.Composer,
) {
	r := a.router
	db := a.db
	authMW := middleware.Auth()

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"name":    "storyseed",
			"version": system.Version,
		})
	})

	api := r.Group("/api/v1")

	auth.NewHandler(auth.NewService(db, a.mailer, a.cfg.WebURL, a.logger)).RegisterRoutes(api, authMW)
	book.NewHandler(book.NewService(db)).RegisterRoutes(api, authMW)
	element.NewHandler(element.NewService(db)).RegisterRoutes(api, authMW)
	prompt.NewHandler(prompt.NewService(db, dailySvc, selector, composer)).RegisterRoutes(api, authMW)
	resp.NewHandler(resp.NewService(db, dailySvc, a.logger)).RegisterRoutes(api, authMW)
	dailyprompt.NewHandler(dailySvc, a.cycle).RegisterRoutes(api, authMW)
	stats.NewHandler(stats.NewService(db)).RegisterRoutes(api, authMW)
	export.NewHandler(export.NewService(db)).RegisterRoutes(api, authMW)
	backup.NewHandler(a.backupSvc).RegisterRoutes(api, authMW)
	crontask.NewHandler(a.sched).RegisterRoutes(api, authMW)
	system.RegisterRoutes(api, db, authMW)
}
