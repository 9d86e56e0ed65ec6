package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"istc-sms/backend/config"
	"istc-sms/backend/internal/api/handler"
	"istc-sms/backend/internal/api/middleware"
	"istc-sms/backend/pkg/jwt"
	"istc-sms/backend/pkg/redis"
)

// Setup builds the Gin engine. rdb may be nil; rate limiting is then off.
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, db *gorm.DB, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── global middleware ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodySize))

	// ── health ──
	r.GET("/health", func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			sqlDB, err := db.DB()
			if err != nil || sqlDB.PingContext(ctx) != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	staff := middleware.RoleAuth(jwt.RoleAdmin, jwt.RoleRegistrar)
	graders := middleware.RoleAuth(jwt.RoleTeacher, jwt.RoleRegistrar)
	importLimit := middleware.RateLimit(rdb, cfg.Import.RateLimit, cfg.Import.RateWindow)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr))
	{
		semesters := v1.Group("/semesters")
		{
			semesters.GET("", staff, h.Semester.ListSemesters)
			semesters.GET("/:id", staff, h.Semester.GetSemester)
			semesters.POST("", staff, h.Semester.CreateSemester)
			semesters.GET("/:id/dmc-eligible", staff, h.Semester.DMCEligible)
		}

		subjects := v1.Group("/subjects")
		{
			subjects.GET("", staff, h.Subject.ListSubjects)
			subjects.POST("", staff, h.Subject.CreateSubject)
			subjects.PUT("/:id", staff, h.Subject.UpdateSubject)
		}

		v1.POST("/students/import", staff, importLimit, h.Student.ImportStudents)

		results := v1.Group("/results")
		{
			results.GET("", h.Result.ListResults)
			results.GET("/:student_id/:subject_id", h.Result.GetResult)
			results.POST("/import", graders, importLimit, h.Result.ImportResults)
		}
		v1.GET("/imports/:batch_id/progress", h.Result.ImportProgress)

		v1.GET("/grace-pools/:student_id/:semester_id", h.Grace.GetPool)

		grace := v1.Group("/grace")
		{
			grace.GET("/preview", graders, h.Grace.PreviewGrace)
			grace.POST("/apply", graders, h.Grace.ApplyGrace)
			grace.GET("/history/:student_id", h.Grace.GraceHistory)
		}

		failed := v1.Group("/failed")
		{
			failed.GET("/export", staff, h.Export.ExportFailed)
			failed.GET("/:student_id", h.Failed.ListFailed)
		}

		v1.GET("/reconcile", middleware.RoleAuth(jwt.RoleAdmin), h.Failed.Reconcile)
	}

	return r
}
