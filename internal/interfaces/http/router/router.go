// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"novel-planner/internal/application/pipeline"
	"novel-planner/internal/config"
	"novel-planner/internal/infrastructure/persistence/redis"
	"novel-planner/internal/interfaces/http/handler"
	"novel-planner/internal/interfaces/http/middleware"
)

// Router HTTP 路由器
type Router struct {
	engine *gin.Engine
	cfg    *config.Config
	deps   Deps
}

// Deps 路由依赖。Limiter 为空时使用进程内限流
type Deps struct {
	Service *pipeline.Service
	Health  *handler.HealthHandler
	Limiter middleware.Limiter
}

// New 创建新的路由器
func New(cfg *config.Config, deps Deps) *Router {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := &Router{
		engine: gin.New(),
		cfg:    cfg,
		deps:   deps,
	}
	r.setupMiddleware()
	r.setupRoutes()
	return r
}

// Engine 返回 Gin Engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) setupMiddleware() {
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.RequestID())

	r.engine.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: r.cfg.Security.CORS.AllowedOrigins,
		AllowedMethods: r.cfg.Security.CORS.AllowedMethods,
		AllowedHeaders: r.cfg.Security.CORS.AllowedHeaders,
	}))

	if r.cfg.Observability.Tracing.Enabled {
		r.engine.Use(middleware.Trace(r.cfg.App.Name))
		r.engine.Use(middleware.TraceContext())
	}

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.Use(middleware.Metrics())
	}
}

func (r *Router) setupRoutes() {
	health := r.deps.Health
	if health == nil {
		health = handler.NewHealthHandler(r.cfg.App.Version, nil, nil)
	}
	r.engine.GET("/health", health.Health)
	r.engine.GET("/ready", health.Ready)
	r.engine.GET("/live", health.Live)

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.GET(r.cfg.Observability.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	rl := r.cfg.Security.RateLimit
	limiter := r.deps.Limiter
	if limiter == nil {
		limiter = middleware.NewLocalLimiter(rl.RequestsPerSecond, rl.Burst)
	}

	v1 := r.engine.Group("/api/v1")
	v1.Use(middleware.RateLimit(middleware.RateLimitConfig{
		Enabled:           rl.Enabled,
		RequestsPerSecond: rl.RequestsPerSecond,
		Burst:             rl.Burst,
	}, limiter, redis.RateLimitKey))

	projectHandler := handler.NewProjectHandler(r.deps.Service)
	outlineHandler := handler.NewOutlineHandler(r.deps.Service)
	chapterHandler := handler.NewChapterHandler(r.deps.Service)

	projects := v1.Group("/projects")
	{
		projects.GET("", projectHandler.ListProjects)
		projects.POST("", projectHandler.CreateProject)
		projects.GET("/:pid", projectHandler.GetProject)
		projects.POST("/:pid/analyze", projectHandler.Analyze)
		projects.GET("/:pid/feasibility", projectHandler.GetReport)

		projects.POST("/:pid/outline", outlineHandler.CreateOutline)
		projects.GET("/:pid/outline", outlineHandler.GetOutline)
		projects.PUT("/:pid/outline", outlineHandler.ReviseOutline)
		projects.POST("/:pid/outline/validate", outlineHandler.ValidateOutline)

		projects.POST("/:pid/plan", chapterHandler.PlanChapters)
		projects.GET("/:pid/plan", chapterHandler.GetPlan)
		projects.PUT("/:pid/plan/chapters/:num", chapterHandler.UpdateChapter)

		projects.GET("/:pid/chapters", chapterHandler.ListChapters)
		projects.GET("/:pid/chapters/:num", chapterHandler.GetChapter)
		projects.POST("/:pid/chapters/:num/generate", chapterHandler.GenerateChapter)
		projects.POST("/:pid/chapters/:num/jobs", chapterHandler.EnqueueChapter)
		projects.POST("/:pid/chapters/jobs", chapterHandler.EnqueueRange)
	}
}
