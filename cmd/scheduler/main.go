package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"

	"github.com/taghsit/installment-engine/internal/config"
	"github.com/taghsit/installment-engine/internal/notify"
	"github.com/taghsit/installment-engine/internal/repository"
	"github.com/taghsit/installment-engine/internal/service"
)

func main() {
	_ = godotenv.Load()

	log.Println("Starting installment scheduler...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	agreementRepo := repository.NewAgreementRepository(db)
	installmentRepo := repository.NewInstallmentRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	notifier := notify.FromConfig(cfg.SMS)

	// The scheduler only reads and sends reminders, so it runs without redis.
	agreementService := service.NewAgreementService(agreementRepo, installmentRepo, customerRepo, notifier, nil, cfg)

	// Initialize cron scheduler
	c := cron.New(cron.WithSeconds(), cron.WithLocation(cfg.SchedulerLocation()))

	setupCronJobs(c, cfg, agreementService)

	c.Start()
	log.Println("Scheduler started successfully")

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down scheduler...")
	<-c.Stop().Done()
	log.Println("Scheduler stopped")
}

func setupCronJobs(c *cron.Cron, cfg *config.Config, svc *service.AgreementService) {
	// Payment reminders for installments due in the next few days
	_, err := c.AddFunc(cfg.Scheduler.ReminderSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		sent, err := svc.RemindUpcoming(ctx, cfg.Scheduler.ReminderDays)
		if err != nil {
			log.Printf("Reminder job failed: %v", err)
			return
		}
		log.Printf("Reminder job sent %d reminders", sent)
	})
	if err != nil {
		log.Printf("Error scheduling reminder job: %v", err)
	}

	// Daily overdue report. Overdue is a derived state, so this job only
	// logs; it never writes statuses back.
	_, err = c.AddFunc(cfg.Scheduler.OverdueSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		count, total, err := svc.ReportOverdue(ctx)
		if err != nil {
			log.Printf("Overdue report job failed: %v", err)
			return
		}
		log.Printf("Overdue report: %d installments overdue, total %s", count, total.StringFixed(0))
	})
	if err != nil {
		log.Printf("Error scheduling overdue report job: %v", err)
	}

	log.Println("Cron jobs scheduled successfully")
}
