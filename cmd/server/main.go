package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"prepdeck/internal/cache"
	"prepdeck/internal/config"
	"prepdeck/internal/repository"
	"prepdeck/internal/service"
	"prepdeck/internal/transport/rest"
	"prepdeck/internal/transport/ws"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// @title PrepDeck API
// @version 1.0
// @description Timed quiz and mock interview sessions with deterministic and AI-assisted scoring
// @host localhost:8080
// @BasePath /v1
func main() {
	log.Println("started")
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	// Load AI config and log model settings
	aiConfig := config.DefaultAIConfig()
	log.Printf("AI Config:")
	log.Printf("  Question Gen: %s", aiConfig.Models.QuestionGen)
	log.Printf("  Answer Eval:  %s", aiConfig.Models.AnswerEval)
	log.Printf("  Feedback:     %s", aiConfig.Models.Feedback)
	if aiConfig.IsEnabled() {
		log.Println("  API Key:      configured ✓")
	} else {
		log.Println("  API Key:      NOT SET (using offline evaluator)")
	}

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(ctx)

	// Ping MongoDB
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB:", err)
	}
	log.Println("Connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB)

	// Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	defer rdb.Close()

	// Ping Redis
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Failed to ping Redis:", err)
	}
	log.Println("Connected to Redis")

	// Initialize WebSocket hub
	wsHub := ws.NewHub()
	log.Println("WebSocket hub started")

	// Initialize repositories
	questionRepo := repository.NewQuestionRepo(db)
	reportRepo := repository.NewReportRepo(db)

	// Initialize caches
	sessionCache := cache.NewSessionCache(rdb)
	reportCache := cache.NewReportCache(rdb)

	// Initialize services
	authSvc := service.NewAuthService()
	grader := service.NewGrader(cfg.PassingScore)
	generatorSvc := service.NewGeneratorService(aiConfig)
	reportSvc := service.NewReportService(grader, reportRepo, reportCache)
	sessionSvc := service.NewSessionService(grader, generatorSvc, reportSvc, sessionCache)

	// Inject broadcaster (wsHub implements service.Broadcaster)
	sessionSvc.SetBroadcaster(wsHub)

	// Create router with container
	container := &rest.Container{
		AuthService:      authSvc,
		SessionService:   sessionSvc,
		ReportService:    reportSvc,
		GeneratorService: generatorSvc,
		QuestionRepo:     questionRepo,
		WSHub:            wsHub,
	}

	router := rest.NewRouter(container)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		log.Println("Endpoints:")
		log.Println("  POST /v1/auth/login")
		log.Println("  POST /v1/sessions")
		log.Println("  GET/DELETE /v1/sessions/{id}")
		log.Println("  PUT  /v1/sessions/{id}/answers/{questionId}")
		log.Println("  POST /v1/sessions/{id}/submit")
		log.Println("  GET  /v1/sessions/{id}/report")
		log.Println("  POST /v1/quiz/submit")
		log.Println("  POST /v1/interview")
		log.Println("  GET  /v1/reports")
		log.Println("  WS   /v1/ws/sessions/{id}")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
