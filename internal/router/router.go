package router

import (
	"github.com/burnlog/internal/config"
	"github.com/burnlog/internal/db"
	"github.com/burnlog/internal/handler"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(cfg config.AppConfig) *gin.Engine {
	r := gin.Default()

	// 配置会话中间件
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("burnlog_session", store))

	// 照片等静态资源
	r.Static(cfg.UploadURLPath, cfg.UploadDir)

	api := handler.NewAPI(db.DB, cfg.UploadDir, cfg.UploadURLPath)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	auth := r.Group("/auth")
	{
		auth.POST("/register", api.Register)
		auth.POST("/login", api.Login)
		auth.POST("/logout", api.Logout)
	}

	// 需要登录的用户路由
	user := r.Group("/api")
	user.Use(handler.AuthRequired())
	{
		user.GET("/points", api.GetMyPoints)
		user.GET("/leaderboard", api.GetLeaderboard)
		user.GET("/rules", api.GetRules)

		user.GET("/challenges", api.ListChallenges)
		user.POST("/challenges/:id/toggle", api.ToggleChallenge)

		user.GET("/weights", api.ListWeights)
		user.POST("/weights", api.CreateWeight)

		user.GET("/profile", api.GetProfile)
		user.PUT("/profile", api.UpdateProfile)
	}

	// 后台管理路由
	admin := r.Group("/admin/api")
	admin.Use(handler.AuthRequired(), handler.AdminRequired())
	{
		admin.GET("/rules", api.AdminListRules)
		admin.POST("/rules", api.AdminCreateRule)
		admin.PUT("/rules/:id", api.AdminUpdateRule)
		admin.DELETE("/rules/:id", api.AdminDeleteRule)

		admin.GET("/challenges", api.AdminListChallenges)
		admin.POST("/challenges", api.AdminCreateChallenge)
		admin.PUT("/challenges/:id", api.AdminUpdateChallenge)
		admin.DELETE("/challenges/:id", api.AdminDeleteChallenge)
	}

	return r
}
