package handlers

import (
	"slices"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	APIToken    string
	CORSOrigins []string
	Logger      *log.Logger
}

// NewRouter wires every /api/v1 route. Health is served without auth.
func NewRouter(cfg RouterConfig, jobs *JobHandler, templates *TemplateHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID())
	if cfg.Logger != nil {
		r.Use(RequestLogger(cfg.Logger.WithPrefix("http")))
	}

	corsConfig := cors.DefaultConfig()
	if len(cfg.CORSOrigins) == 0 || slices.Contains(cfg.CORSOrigins, "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.CORSOrigins
	}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", RequestIDHeader}
	corsConfig.ExposeHeaders = []string{RequestIDHeader}
	r.Use(cors.New(corsConfig))

	api := r.Group("/api/v1")
	api.GET("/health", HealthCheck)

	authed := api.Group("", BearerAuth(cfg.APIToken))
	{
		authed.GET("/jobs", jobs.ListJobs)
		authed.POST("/jobs", jobs.CreateJob)
		authed.POST("/jobs/extract", jobs.ParseJob)
		authed.GET("/jobs/:id/events", jobs.ListJobEvents)

		authed.GET("/email-templates", templates.ListTemplates)
		authed.POST("/email-templates", templates.CreateTemplate)
		authed.POST("/email-templates/draft", templates.DraftTemplate)
		authed.GET("/email-templates/:id", templates.GetTemplate)
		authed.DELETE("/email-templates/:id", templates.DeleteTemplate)
	}
	return r
}
