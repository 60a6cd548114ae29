package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/suteetoe/jobboard/internal/metrics"
	"github.com/suteetoe/jobboard/internal/middleware"
	"github.com/suteetoe/jobboard/internal/service"
	"github.com/suteetoe/jobboard/pkg/config"
	"github.com/suteetoe/jobboard/pkg/database"
	"github.com/suteetoe/jobboard/pkg/jwtutil"
	"github.com/suteetoe/jobboard/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Config  *config.Config
	DB      *gorm.DB
	JWT     *jwtutil.JWTUtil
	Metrics *metrics.Collector
	Limiter middleware.Limiter
	Logger  *zap.Logger
}

// New builds the echo server with every route registered.
func New(d Deps) *echo.Echo {
	log := d.Logger
	if log == nil {
		log = logger.GetLogger()
	}

	accounts := service.NewAccountService(d.DB, d.JWT, log, d.Metrics)
	categories := service.NewCategoryService(d.DB, log, d.Metrics)
	postings := service.NewPostingService(d.DB, log, d.Metrics)
	applications := service.NewApplicationService(d.DB, log, d.Metrics)
	saved := service.NewSavedJobService(d.DB, log, d.Metrics)

	pages := d.Config.Pagination
	authH := NewAuthHandler(accounts)
	categoryH := NewCategoryHandler(categories, pages)
	jobH := NewJobHandler(postings, saved, pages)
	applicationH := NewApplicationHandler(applications, pages)

	var metricsHandler http.Handler = http.NotFoundHandler()
	if d.Metrics != nil {
		metricsHandler = d.Metrics.Handler()
	}
	healthH := NewHealthHandler(d.Config.ServiceName, func(ctx context.Context) error {
		return database.Ping(ctx, d.DB)
	}, metricsHandler)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = HTTPErrorHandler

	// Apply global middleware - order matters
	e.Pre(echomiddleware.RemoveTrailingSlash())
	e.Use(middleware.RequestID())
	e.Use(logger.Middleware())
	if d.Metrics != nil {
		e.Use(d.Metrics.Middleware())
	}
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.Authenticate(d.JWT, accounts))

	// Operational routes
	e.GET("/", healthH.Root)
	e.GET("/health", healthH.HealthCheck)
	e.GET("/metrics", healthH.Metrics)

	rl := d.Config.Redis
	throttle := func(scope string, limit int) echo.MiddlewareFunc {
		return middleware.RateLimit(d.Limiter, scope, limit, rl.LimitWindow, d.Metrics)
	}

	api := e.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", authH.Register, throttle("register", rl.LoginLimit))
	auth.POST("/login", authH.Login, throttle("login", rl.LoginLimit))
	auth.POST("/token/refresh", authH.Refresh)
	auth.GET("/profile", authH.GetProfile)
	auth.PUT("/profile", authH.UpdateProfile)
	auth.PATCH("/profile", authH.UpdateProfile)

	cats := api.Group("/categories")
	cats.GET("", categoryH.List)
	cats.POST("", categoryH.Create)
	cats.GET("/:id", categoryH.Get)
	cats.PUT("/:id", categoryH.Update)
	cats.PATCH("/:id", categoryH.Update)
	cats.DELETE("/:id", categoryH.Delete)

	// Static segments take priority over :id in echo's router.
	jobs := api.Group("/jobs")
	jobs.GET("", jobH.List)
	jobs.POST("", jobH.Create)
	jobs.GET("/saved", jobH.Saved)
	jobs.GET("/stats", jobH.Stats)
	jobs.GET("/:id", jobH.Get)
	jobs.PUT("/:id", jobH.Update)
	jobs.PATCH("/:id", jobH.Update)
	jobs.DELETE("/:id", jobH.Delete)
	jobs.POST("/:id/save", jobH.ToggleSave)

	apps := api.Group("/applications")
	apps.POST("/apply", applicationH.Apply, throttle("apply", rl.ApplyLimit))
	apps.GET("/my", applicationH.Mine)
	apps.GET("/job/:job_id", applicationH.ForJob)
	apps.PUT("/:id/status", applicationH.UpdateStatus)
	apps.PATCH("/:id/status", applicationH.UpdateStatus)

	return e
}
