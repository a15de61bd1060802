package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"parking_console/internal/api"
	"parking_console/internal/api/middleware"
	"parking_console/internal/config"
	"parking_console/internal/metrics"
	"parking_console/internal/repository"
	"parking_console/internal/repository/memory"
	"parking_console/internal/repository/postgresql"
	"parking_console/internal/repository/redisstore"
	"parking_console/internal/service"
	"sync"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
)

func main() {
	// 1. Configuration
	cfg := config.Load()
	metrics.Register()
	log.Println("Configuration loaded.")

	ctx := context.Background()

	// 2. Storage
	store, closeStore := openStore(cfg)
	defer closeStore()

	// 3. Token revocations
	revocations := openRevocations(ctx, cfg)

	// 4. Services
	authService := service.NewAuthService(store, revocations, cfg.JWTSecret, cfg.JWTExpirationHours)
	parkingService := service.NewParkingService(store, cfg.RatePerHour)
	reportService := service.NewReportService(store)

	var lprService *service.LPRService
	if cfg.LPREnabled {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			log.Fatalf("Could not load AWS SDK config: %v", err)
		}
		lprService = service.NewLPRService(rekognition.NewFromConfig(awsCfg))
		log.Println("Plate recognition enabled for region:", cfg.AWSRegion)
	}

	// 5. Bootstrap admin and facility inventory
	if created, err := authService.EnsureBootstrapAdmin(ctx, cfg.BootstrapAdmin); err != nil {
		log.Fatalf("Could not create bootstrap admin: %v", err)
	} else if created {
		log.Printf("Bootstrap admin '%s' created", cfg.BootstrapAdmin.Username)
	}
	facility, err := config.LoadFacility(cfg.FacilityFile)
	if err != nil {
		log.Fatalf("Could not load facility: %v", err)
	}
	if _, err := service.SeedFacility(ctx, store, facility); err != nil {
		log.Fatalf("Could not seed facility: %v", err)
	}

	// 6. Background occupancy gauge
	var wg sync.WaitGroup
	jobCtx, cancelJobs := context.WithCancel(ctx)
	wg.Add(1)
	go func() {
		defer wg.Done()
		startOccupancyJob(jobCtx, parkingService)
	}()

	// 7. HTTP
	authMiddleware := middleware.NewAuthMiddleware(authService)
	router := api.SetupRouter(api.Services{
		Auth:    authService,
		Parking: parkingService,
		Reports: reportService,
		LPR:     lprService,
	}, authMiddleware)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server listening on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	cancelJobs()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Forced shutdown: %v", err)
	}
	wg.Wait()
	log.Println("Server stopped.")
}

func openStore(cfg *config.Config) (repository.Store, func()) {
	switch cfg.StorageDriver {
	case config.StorageMemory:
		log.Println("Using in-memory storage; data is lost on restart.")
		return memory.NewStore(), func() {}
	case config.StoragePostgres:
		if err := postgresql.Migrate(cfg); err != nil {
			log.Fatalf("Could not run migrations: %v", err)
		}
		db, err := postgresql.NewDB(cfg)
		if err != nil {
			log.Fatalf("Could not connect to database: %v", err)
		}
		log.Println("Connected to database.")
		return postgresql.NewPgStore(db), func() { closeDB(db) }
	default:
		log.Fatalf("Unknown STORAGE_DRIVER '%s'", cfg.StorageDriver)
		return nil, nil
	}
}

func closeDB(db *sql.DB) {
	if err := db.Close(); err != nil {
		log.Printf("Error closing database: %v", err)
	}
}

func openRevocations(ctx context.Context, cfg *config.Config) repository.TokenRevocationRepository {
	if cfg.RedisAddr == "" {
		log.Println("REDIS_ADDR is not set; logouts are tracked in memory.")
		return memory.NewTokenRevocationRepository()
	}
	client := redisstore.NewRedisClient(cfg)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := redisstore.Ping(pingCtx, client); err != nil {
		log.Fatalf("Could not connect to redis: %v", err)
	}
	log.Println("Connected to redis at", cfg.RedisAddr)
	return redisstore.NewTokenRevocationRepository(client)
}

func startOccupancyJob(ctx context.Context, ps *service.ParkingService) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		refreshCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := ps.RefreshOccupancy(refreshCtx); err != nil {
			log.Printf("Could not refresh slot occupancy: %v", err)
		}
		cancel()

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
