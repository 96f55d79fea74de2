package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/storyseed/core/internal/config"
	"github.com/storyseed/core/internal/database"
	"github.com/storyseed/core/internal/middleware"
	"github.com/storyseed/core/internal/modules/ai"
	"github.com/storyseed/core/internal/modules/backup"
	"github.com/storyseed/core/internal/modules/dailyprompt"
	"github.com/storyseed/core/internal/pkg/bark"
	pkgcron "github.com/storyseed/core/internal/pkg/cron"
	"github.com/storyseed/core/internal/pkg/jwt"
	"github.com/storyseed/core/internal/pkg/mail"
	"github.com/storyseed/core/internal/pkg/randx"
	pkgredis "github.com/storyseed/core/internal/pkg/redis"
)

// App holds all application dependencies.
type App struct {
	cfg    *config.AppConfig
	router *gin.Engine
	db     *gorm.DB
	logger *zap.Logger
	cancel context.CancelFunc
	sched  *pkgcron.Scheduler

	mailer    *mail.Sender
	barkSvc   *bark.Service
	redis     *pkgredis.Client
	cycle     *dailyprompt.Cycle
	backupSvc *backup.Service
}

// New initializes the application: config → DB → Redis → modules → routes.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	jwt.SetSecret(cfg.JWTSecret)

	db, err := database.Connect(cfg, true)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	var rc *pkgredis.Client
	if cfg.RedisURL != "" {
		rc, err = pkgredis.Connect(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
	} else {
		logger.Warn("redis not configured, rate limiting and delivery dedupe disabled")
	}

	var barkSvc *bark.Service
	if cfg.Bark.Enable {
		barkSvc = bark.New(func() (string, string, string) {
			return cfg.Bark.Key, cfg.Bark.ServerURL, "StorySeed"
		})
	}

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(cors.New(buildCORSConfig(cfg)))
	router.Use(middleware.OptionalAuth())
	if rc != nil {
		router.Use(middleware.RateLimit(rc.Raw(), barkSvc))
	}

	mailer := mail.New(cfg.Mail, logger)
	aiSvc := ai.NewService(&cfg.AI, logger)

	dailySvc := dailyprompt.NewService(db, logger)
	selector := dailyprompt.NewSelector(db, randx.Default())
	composer := dailyprompt.NewComposer(aiSvc, randx.Default())
	cycle := dailyprompt.NewCycle(db, dailySvc, selector, composer, mailer, rc, barkSvc, cfg, logger)

	backupSvc := backup.NewService(db, cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())

	sched := pkgcron.New()
	if cfg.Scheduler.Enable {
		registerCronJobs(sched, cycle, backupSvc, cfg, logger)
		go sched.Start(ctx)
	}
	if cfg.IsDev() && cfg.Scheduler.DevDryRun {
		scheduleDevDryRun(ctx, cycle, logger)
	}

	app := &App{
		cfg:       cfg,
		router:    router,
		db:        db,
		logger:    logger,
		cancel:    cancel,
		sched:     sched,
		mailer:    mailer,
		barkSvc:   barkSvc,
		redis:     rc,
		cycle:     cycle,
		backupSvc: backupSvc,
	}
	app.registerRoutes(dailySvc, selector, composer)

	return app, nil
}

func buildCORSConfig(cfg *config.AppConfig) cors.Config {
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
	}
	if len(cfg.AllowedOrigins) > 0 && !cfg.IsDev() {
		allowed := cfg.AllowedOrigins
		corsConfig.AllowOriginFunc = func(origin string) bool {
			for _, o := range allowed {
				if o == origin {
					return true
				}
			}
			return false
		}
	} else {
		corsConfig.AllowOriginFunc = func(origin string) bool { return true }
	}
	return corsConfig
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown stops background goroutines.
func (a *App) Shutdown() { a.cancel() }
