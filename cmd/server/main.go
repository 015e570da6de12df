package main

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"parsemybill/internal/config"
	"parsemybill/internal/email/noop"
	"parsemybill/internal/email/ses"
	"parsemybill/internal/extract/gemini"
	"parsemybill/internal/handler"
	"parsemybill/internal/port"
	"parsemybill/internal/repository/postgres"
	"parsemybill/internal/router"
	"parsemybill/internal/service"
	s3storage "parsemybill/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Optional .env for local development; real environments set vars directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	userRepo := postgres.NewUserRepo(db)
	invoiceRepo := postgres.NewInvoiceRepo(db)

	// Initialize storage and extraction
	s3Client, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}
	extractor := gemini.NewExtractor(&cfg.Extractor)

	var sender port.EmailSender
	switch cfg.Email.Provider {
	case "ses":
		sender, err = ses.NewSESSender(cfg.Email.Region, cfg.Email.FromAddress, cfg.Email.FromName, cfg.Email.FrontendURL)
		if err != nil {
			return fmt.Errorf("failed to initialize SES sender: %w", err)
		}
	default:
		sender = noop.NewNoopSender(cfg.Email.FrontendURL)
	}

	// Initialize services
	authSvc := service.NewAuthService(userRepo, sender, cfg.JWT)
	invoiceSvc := service.NewInvoiceService(invoiceRepo, s3Client, cfg.S3, cfg.Server.PublicBaseURL)
	uploadSvc := service.NewUploadService(invoiceSvc, invoiceRepo, extractor)

	// Initialize handlers
	authH := handler.NewAuthHandler(authSvc)
	invoiceH := handler.NewInvoiceHandler(invoiceSvc)
	uploadH := handler.NewUploadHandler(uploadSvc)
	publicH := handler.NewPublicHandler(invoiceSvc, uploadSvc)
	healthH := handler.NewHealthHandler(db)

	// Setup router
	r := router.Setup(cfg, authSvc, authH, invoiceH, uploadH, publicH, healthH)

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
