package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nahuelmieres/rf-online-backend/internal/api"
	"github.com/nahuelmieres/rf-online-backend/internal/config"
	"github.com/nahuelmieres/rf-online-backend/internal/repository/mongo"
	"github.com/nahuelmieres/rf-online-backend/internal/service"
	"github.com/nahuelmieres/rf-online-backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
)

func main() {
	log.Println("Starting RF Online Server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Println("Configuration loaded.")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Println("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Println("Database connection established.")

	// --- Ensure Indexes ---
	log.Println("Ensuring database indexes...")
	go func() { // Run index creation concurrently/in background
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureUserIndexes(ctx, appDB.Collection("users"))
		mongo.EnsureBlockIndexes(ctx, appDB.Collection("blocks"))
		mongo.EnsurePlanIndexes(ctx, appDB.Collection("plans"))
		mongo.EnsureCommentIndexes(ctx, appDB.Collection("comments"))
		mongo.EnsureReservationIndexes(ctx, appDB.Collection("reservations"))
		mongo.EnsureMediaIndexes(ctx, appDB.Collection("media_uploads"))
		log.Println("Index creation process completed.")
	}()

	// --- Initialize Storage ---
	log.Println("Initializing file storage service...")
	fileStorage, err := storage.NewS3Storage(cfg.S3)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize S3 storage: %v", err)
	}

	// --- Initialize Repositories ---
	log.Println("Initializing repositories...")
	userRepo := mongo.NewMongoUserRepository(appDB)
	blockRepo := mongo.NewMongoBlockRepository(appDB)
	planRepo := mongo.NewMongoPlanRepository(appDB)
	commentRepo := mongo.NewMongoCommentRepository(appDB)
	reservationRepo := mongo.NewMongoReservationRepository(appDB)
	mediaRepo := mongo.NewMongoMediaRepository(appDB)

	// --- Initialize Services ---
	log.Println("Initializing services...")
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration, cfg.JWT.ExtendedExpiration)
	blockService := service.NewBlockService(blockRepo, planRepo, userRepo)
	planService := service.NewPlanService(planRepo, blockRepo)
	userService := service.NewUserService(userRepo, planRepo)
	commentService := service.NewCommentService(commentRepo, planRepo)
	reservationService := service.NewReservationService(reservationRepo)
	mediaService := service.NewMediaService(mediaRepo, blockRepo, fileStorage)

	// --- Background Integrity Sweep ---
	// Repairs plans left holding references to deleted blocks, e.g. when a
	// purge ran against a plan mid-save or the process died between the two.
	var scheduler *cron.Cron
	if cfg.Maintenance.SweepEnabled {
		scheduler = cron.New()
		_, err := scheduler.AddFunc(cfg.Maintenance.SweepSchedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			repaired, err := planService.SweepDanglingRefs(ctx)
			if err != nil {
				log.Printf("ERROR: Integrity sweep failed: %v", err)
				return
			}
			log.Printf("Integrity sweep completed, %d plan(s) repaired", repaired)
		})
		if err != nil {
			log.Fatalf("FATAL: Invalid sweep schedule %q: %v", cfg.Maintenance.SweepSchedule, err)
		}
		scheduler.Start()
		log.Printf("Integrity sweep scheduled: %s", cfg.Maintenance.SweepSchedule)
	}

	// --- Initialize Gin Engine ---
	// gin.SetMode(gin.ReleaseMode) // Uncomment for production
	router := gin.Default() // Includes Logger and Recovery middleware

	// --- Setup Routes ---
	log.Println("Setting up API routes...")
	policy := service.NewAccessPolicy()
	api.SetupRoutes(router, cfg.JWT.Secret, policy, api.Services{
		Auth:        authService,
		Block:       blockService,
		Plan:        planService,
		User:        userService,
		Comment:     commentService,
		Reservation: reservationService,
		Media:       mediaService,
	})

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	if scheduler != nil {
		scheduler.Stop()
	}

	// The context is used to inform the server it has 5 seconds to finish
	// the requests it is currently handling
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("FATAL: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
