package app

import (
	"skill_assessment_backend/docs"
	"skill_assessment_backend/internal/config"
	"skill_assessment_backend/internal/middleware"
	"skill_assessment_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)

		// 技能读取对测评客户端开放
		public.GET("/skills", c.skill.ListSkills)
		public.GET("/skills/:id", c.skill.GetSkill)

		// 测评主流程：客户端以不透明 userID 标识，无账号体系
		assessment := public.Group("/assessment")
		{
			assessment.POST("/:skill_id/start", c.assessment.StartAssessment)
			assessment.GET("/session/:session_id", c.assessment.GetSession)
			assessment.POST("/question/:number", c.assessment.GetQuestion)
			assessment.POST("/answer/:number", c.assessment.AnswerQuestion)
			assessment.PUT("/answer/:number", c.assessment.UpdateAnswer)
			assessment.POST("/evaluate/:session_id", c.assessment.EvaluateSession)
		}

		feedback := public.Group("/feedback")
		{
			feedback.GET("/:id", c.feedback.GetFeedback)
			feedback.GET("/user/:user_id", c.feedback.ListUserFeedbacks)
		}
	}

	// 2. 管理端路由：技能写操作需要管理员令牌
	admin := router.Group("/api/skills")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware("admin"))
	{
		admin.POST("", c.skill.CreateSkill)
		admin.PUT("/:id", c.skill.UpdateSkill)
		admin.DELETE("/:id", c.skill.DeleteSkill)
	}
}
