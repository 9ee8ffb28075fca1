package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/UB-CSE-IT/Autolab-Self-Service/config"
	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/api/handler"
	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/api/middleware"
	"github.com/UB-CSE-IT/Autolab-Self-Service/pkg/jwt"
	"github.com/UB-CSE-IT/Autolab-Self-Service/pkg/redis"
)

// Setup builds the gin engine. rdb may be nil; rate limiting and token
// revocation are then skipped. gatherer backs /metrics when metrics are on.
func Setup(
	cfg *config.Config,
	h *handler.Handler,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	db *gorm.DB,
	gatherer prometheus.Gatherer,
	logger *zap.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── global middleware ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	var (
		limiter middleware.RateLimiter
		revoked middleware.RevocationChecker
	)
	if rdb != nil {
		revoked = rdb
		if cfg.RateLimit.Enabled {
			limiter = rdb
		}
	}
	readLimit := middleware.RateLimit(limiter, cfg.RateLimit.Read, cfg.RateLimit.Window, logger)
	writeLimit := middleware.RateLimit(limiter, cfg.RateLimit.Write, cfg.RateLimit.Window, logger)

	// ── health ──
	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := gin.H{"status": "ok", "database": "ok"}
		code := http.StatusOK
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			status["status"] = "degraded"
			status["database"] = "unreachable"
			code = http.StatusServiceUnavailable
		}
		if rdb == nil {
			status["redis"] = "disabled"
		} else if err := rdb.Ping(ctx); err != nil {
			status["redis"] = "unreachable"
		} else {
			status["redis"] = "ok"
		}
		c.JSON(code, status)
	})

	if cfg.Feature.Metrics && gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	registerAPI(r.Group("/api/v1"), h, guards{
		jwt:        middleware.JWTAuth(jwtMgr, cfg.Auth.Cookie.Name, revoked, logger),
		userAPIKey: middleware.UserAPIKey(h.UserAPI.Verifier()),
		read:       readLimit,
		write:      writeLimit,
	})

	return r
}

// guards are the middleware the route table attaches per group or route.
type guards struct {
	jwt        gin.HandlerFunc
	userAPIKey gin.HandlerFunc
	read       gin.HandlerFunc
	write      gin.HandlerFunc
}

// registerAPI is the /api/v1 route table. Mutating routes take the write
// budget, reads the read budget.
func registerAPI(v1 *gin.RouterGroup, h *handler.Handler, g guards) {
	readLimit, writeLimit := g.read, g.write
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/login", readLimit, h.Auth.Login)
			auth.POST("/dev-login", readLimit, h.Auth.DevLogin)
		}

		userAPI := v1.Group("/user-api")
		userAPI.Use(g.userAPIKey)
		{
			userAPI.POST("/courses/:course/roster/sync", writeLimit, h.UserAPI.SyncRoster)
			userAPI.GET("/assignments/:id", readLimit, h.UserAPI.GetAssignment)
			userAPI.GET("/tango-histogram", readLimit, h.UserAPI.SubmissionHistogram)
		}

		authorized := v1.Group("")
		authorized.Use(g.jwt)
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)
			authorized.POST("/auth/admin-toggle", writeLimit, h.Auth.ToggleAdmin)

			authorized.GET("/admin/users", middleware.RoleAuth("admin"), readLimit, h.User.ListUsers)
			authorized.POST("/autolab/courses", writeLimit, h.Course.CreateAutolabCourse)

			gat := authorized.Group("/gat")
			{
				gat.GET("/my-courses", readLimit, h.Course.MyCourses)
				gat.POST("/courses", writeLimit, h.Course.Create)

				course := gat.Group("/courses/:course")
				{
					course.GET("", readLimit, h.Course.Get)
					course.GET("/assessments", readLimit, h.Course.Assessments)

					course.POST("/roster/sync", writeLimit, h.Roster.Sync)
					course.GET("/roster", readLimit, h.Roster.List)
					course.PUT("/roster/hours", writeLimit, h.Roster.SetGradingHours)

					course.GET("/conflicts", readLimit, h.Conflict.List)
					course.POST("/conflicts", writeLimit, h.Conflict.Create)
					course.DELETE("/conflicts/:id", writeLimit, h.Conflict.Delete)

					course.POST("/assignments", writeLimit, h.Grading.Create)
					course.GET("/assignments", readLimit, h.Grading.List)
				}

				assignments := gat.Group("/assignments/:id")
				{
					assignments.GET("", readLimit, h.Grading.Get)
					assignments.GET("/mine", readLimit, h.Grading.Mine)
					assignments.PUT("/archived", writeLimit, h.Grading.SetArchived)
					assignments.GET("/export", readLimit, h.Export.ExportAssignment)
				}

				gat.PUT("/pairs/:id/completed", writeLimit, h.Grading.SetPairCompleted)
			}

			sections := authorized.Group("/sections/:course")
			{
				sections.GET("", readLimit, h.Section.List)
				sections.POST("", writeLimit, h.Section.Upsert)
				sections.POST("/import-ics", writeLimit, h.Section.ImportICS)
			}
		}
	}
}
