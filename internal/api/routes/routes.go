package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/matias-olea/inmobrain/internal/api/handlers"
	"github.com/matias-olea/inmobrain/internal/api/middleware"
)

type Deps struct {
	Auth      *handlers.AuthHandler
	Chat      *handlers.ChatHandler
	Report    *handlers.ReportHandler
	Knowledge *handlers.KnowledgeHandler
	WS        *handlers.WSHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	r.POST("/auth/login", d.Auth.Login)

	// Protected routes (JWT)
	auth := r.Group("/")
	auth.Use(middleware.JWTAuth())

	auth.POST("/brain/chat", d.Chat.Ask)
	auth.GET("/brain/chat/history/:session_id", d.Chat.History)
	auth.GET("/brain/chat/recent", d.Chat.Recent)
	auth.POST("/brain/dashboard-analysis", d.Chat.DashboardAnalysis)

	auth.POST("/brain/reports/generate", d.Report.Generate)
	auth.GET("/brain/reports", d.Report.List)
	auth.GET("/brain/reports/communes", d.Report.Communes)
	auth.GET("/brain/reports/:report_id", d.Report.Get)

	// Admin-only knowledge base management
	admin := auth.Group("/brain/admin")
	admin.Use(middleware.RequireAdmin())
	admin.GET("/knowledge", d.Knowledge.List)
	admin.POST("/knowledge", d.Knowledge.Ingest)
	admin.POST("/knowledge/upload", d.Knowledge.Upload)
	admin.DELETE("/knowledge/:doc_id", d.Knowledge.Delete)

	// WebSocket
	auth.GET("/ws/analyst", d.WS.AnalystWS)
}
