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

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/taghsit/installment-engine/internal/config"
	"github.com/taghsit/installment-engine/internal/handler"
	"github.com/taghsit/installment-engine/internal/notify"
	"github.com/taghsit/installment-engine/internal/repository"
	"github.com/taghsit/installment-engine/internal/service"
	"github.com/taghsit/installment-engine/pkg/response"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Initialize Redis
	redisClient := initRedis(cfg)
	defer redisClient.Close()

	// Initialize repositories
	agreementRepo := repository.NewAgreementRepository(db)
	installmentRepo := repository.NewInstallmentRepository(db)
	customerRepo := repository.NewCustomerRepository(db)

	// Initialize services and handlers
	notifier := notify.FromConfig(cfg.SMS)
	agreementService := service.NewAgreementService(agreementRepo, installmentRepo, customerRepo, notifier, redisClient, cfg)
	customerService := service.NewCustomerService(customerRepo)

	agreementHandler := handler.NewAgreementHandler(agreementService)
	customerHandler := handler.NewCustomerHandler(customerService)
	healthHandler := handler.NewHealthHandler(db, redisClient, cfg.Health.Timeout)

	// Setup routes
	router := setupRoutes(agreementHandler, customerHandler, healthHandler)

	// Start server
	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func setupRoutes(agreementHandler *handler.AgreementHandler, customerHandler *handler.CustomerHandler, healthHandler *handler.HealthHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware, response.CORSMiddleware)

	// Health check
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/agreements", agreementHandler.CreateAgreement).Methods("POST")
	api.HandleFunc("/agreements/{agreementId}", agreementHandler.GetAgreement).Methods("GET")
	api.HandleFunc("/agreements/{agreementId}/schedule", agreementHandler.GetSchedule).Methods("GET")
	api.HandleFunc("/agreements/{agreementId}/outstanding", agreementHandler.GetOutstanding).Methods("GET")
	api.HandleFunc("/agreements/{agreementId}/installments/{number}/payment", agreementHandler.PayInstallment).Methods("POST")

	api.HandleFunc("/customers", customerHandler.CreateCustomer).Methods("POST")
	api.HandleFunc("/customers/{customerId}", customerHandler.GetCustomer).Methods("GET")

	return router
}
