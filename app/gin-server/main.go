package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/matias-olea/inmobrain/config"
	"github.com/matias-olea/inmobrain/internal/api/handlers"
	"github.com/matias-olea/inmobrain/internal/api/middleware"
	"github.com/matias-olea/inmobrain/internal/api/routes"
	"github.com/matias-olea/inmobrain/internal/brain"
	"github.com/matias-olea/inmobrain/internal/cache"
	"github.com/matias-olea/inmobrain/internal/knowledge"
	"github.com/matias-olea/inmobrain/internal/logger"
	"github.com/matias-olea/inmobrain/internal/providers/llm"
	mongorepo "github.com/matias-olea/inmobrain/internal/repositories/mongo"
	pgrepo "github.com/matias-olea/inmobrain/internal/repositories/postgres"
	"github.com/matias-olea/inmobrain/internal/reports"
	"github.com/matias-olea/inmobrain/internal/services"
	"github.com/matias-olea/inmobrain/internal/storage"
	"github.com/matias-olea/inmobrain/internal/workers"
)

func main() {
	_ = godotenv.Load()

	lg := logger.New()
	ctx := context.Background()

	// Init PostgreSQL
	if err := config.InitPostgres(); err != nil {
		log.Fatalf("PostgreSQL init error: %v", err)
	}
	lg.Info("PostgreSQL connected")

	// Init MongoDB
	if err := config.InitMongo(); err != nil {
		log.Fatalf("MongoDB init error: %v", err)
	}
	if err := config.EnsureMongoIndexes(); err != nil {
		log.Fatalf("MongoDB index error: %v", err)
	}
	lg.Info("MongoDB connected")

	// Init Redis
	if err := config.InitRedis(); err != nil {
		log.Fatalf("Redis init error: %v", err)
	}
	lg.Info("Redis connected")

	mongoName := os.Getenv("MONGO_DB")
	if mongoName == "" {
		mongoName = "inmobrain"
	}
	mongoDB := config.MongoClient.Database(mongoName)

	// Repositories
	projectRepo := pgrepo.NewProjectRepo(config.PostgresDB)
	knowledgeRepo := pgrepo.NewKnowledgeRepo(config.PostgresDB)
	reportRepo := pgrepo.NewReportRepo(config.PostgresDB)
	userRepo := pgrepo.NewUserRepo(config.PostgresDB)
	chatRepo := mongorepo.NewChatRepo(mongoDB)

	// Model providers
	provider, err := llm.NewProviderFromEnv(ctx)
	if err != nil {
		log.Fatalf("LLM provider init error: %v", err)
	}
	defer provider.Close()

	embedder, err := llm.NewEmbedderFromEnv()
	if err != nil {
		log.Fatalf("Embedder init error: %v", err)
	}

	// Domain services
	knowledgeSvc := knowledge.NewService(knowledgeRepo, embedder, lg)
	if os.Getenv("SEED_KNOWLEDGE") == "true" {
		if err := knowledgeSvc.Seed(ctx); err != nil {
			lg.WithError(err).Warn("knowledge seed failed")
		}
	}
	redisCache := cache.NewRedisCache(config.RedisClient)
	registry := brain.NewTools(projectRepo, redisCache, lg).Registry()
	agent := brain.NewAgent(provider, knowledgeSvc, registry, lg)
	generator := reports.NewGenerator(reportRepo, projectRepo, agent, lg)

	authSvc := services.NewAuthService(userRepo, os.Getenv("JWT_SECRET"))
	chatSvc := services.NewChatService(agent, chatRepo, lg)
	reportSvc := services.NewReportService(reportRepo, projectRepo, config.RedisClient)

	// Optional source-file archive for knowledge uploads
	var uploader storage.Uploader
	if bucket := os.Getenv("GCS_BUCKET"); bucket != "" {
		gcs, err := storage.NewGCSUploader(ctx, bucket)
		if err != nil {
			log.Fatalf("GCS init error: %v", err)
		}
		defer gcs.Close()
		uploader = gcs
	}

	// Report worker pool
	pool := &workers.ReportWorkerPool{
		Redis:     config.RedisClient,
		Generator: generator,
		Logger:    lg,
		Stream:    services.ReportStream,
	}
	if err := pool.Start(ctx); err != nil {
		log.Fatalf("Report worker init error: %v", err)
	}

	// HTTP server
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(lg))

	routes.RegisterRoutes(r, routes.Deps{
		Auth:      handlers.NewAuthHandler(authSvc),
		Chat:      handlers.NewChatHandler(chatSvc, agent),
		Report:    handlers.NewReportHandler(reportSvc),
		Knowledge: handlers.NewKnowledgeHandler(knowledgeSvc, uploader),
		WS:        handlers.NewWSHandler(agent, config.RedisClient),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
