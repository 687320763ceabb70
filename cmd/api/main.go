package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/doc-courier/internal/config"
	"github.com/doc-courier/internal/infrastructure/dynamo"
	s3infra "github.com/doc-courier/internal/infrastructure/s3"
	"github.com/doc-courier/internal/infrastructure/smtp"
	"github.com/doc-courier/internal/infrastructure/sns"
	"github.com/doc-courier/internal/ledger"
	transporthttp "github.com/doc-courier/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap the DynamoDB records table (creates it if it doesn't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.RecordsTable)

	// S3 document store.
	s3Client := s3infra.NewClient(cfg)
	docStore := s3infra.NewStore(s3Client, cfg.S3BucketName)

	// SMTP mailer.
	mailer, err := smtp.NewMailer(cfg)
	if err != nil {
		log.Fatalf("mailer init: %v", err)
	}

	// SNS delivery-failure alerts (optional — nil when no topic is configured).
	alerts, err := sns.NewPublisher(cfg)
	if err != nil {
		log.Printf("WARN: SNS alert publisher not available: %v", err)
		alerts = nil
	}

	deps := &transporthttp.Deps{
		Ledger:  ledger.New(cfg.CodeTTL),
		Records: dynamo.NewRecordRepo(dynamoClient, cfg.RecordsTable),
		Objects: docStore,
		Mailer:  mailer,
		Alerts:  alerts,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
