package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mdappsolutions/bellasjob-api/internal/api"
	"github.com/mdappsolutions/bellasjob-api/internal/auth"
	"github.com/mdappsolutions/bellasjob-api/internal/config"
	"github.com/mdappsolutions/bellasjob-api/internal/db"
	"github.com/mdappsolutions/bellasjob-api/internal/logger"
	"github.com/mdappsolutions/bellasjob-api/internal/mail"
	"github.com/mdappsolutions/bellasjob-api/internal/metrics"
	"github.com/mdappsolutions/bellasjob-api/internal/pagseguro"
	"github.com/mdappsolutions/bellasjob-api/internal/repository/postgres"
	"github.com/mdappsolutions/bellasjob-api/internal/services"
)

const tokenIssuer = "bellasjob-api"

func main() {
	// a missing .env is fine, the platform injects the environment
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.Migrate {
		if err := db.RunMigrations(ctx, pool); err != nil {
			log.Error("migrations", "err", err)
			os.Exit(1)
		}
	}

	repos := postgres.NewRepositories(pool)

	gateway := pagseguro.NewClient(pagseguro.Config{
		BaseURL: cfg.PagSeguroBaseURL,
		Email:   cfg.PagSeguroEmail,
		Token:   cfg.PagSeguroToken,
		Timeout: cfg.PagSeguroTimeout,
	})

	var mailer mail.Sender
	switch cfg.MailProvider {
	case "resend":
		mailer = mail.NewResendTransport(cfg.ResendAPIKey)
	default:
		mailer = mail.NewSMTPTransport(mail.SMTPConfig{
			Host:     cfg.MailHost,
			Port:     cfg.MailPort,
			Username: cfg.MailUser,
			Password: cfg.MailPass,
		})
	}

	tokens := auth.NewTokenManager(cfg.SetupTokenSecret, tokenIssuer, cfg.SetupTokenTTL)
	accountSvc := services.NewAccountService(repos.Accounts, tokens, cfg.AppURL)
	notificationSvc := services.NewNotificationService(
		gateway,
		accountSvc,
		repos.Users,
		repos.Logs,
		repos.Notifications,
		mailer,
		services.NotificationOptions{
			From:            mail.FromHeader(cfg.MailFromName, cfg.MailUser),
			LoginURL:        cfg.AppURL,
			IncludePassword: cfg.MailIncludePassword,
			SetupTTL:        cfg.SetupTokenTTL,
		},
		log,
	)

	metrics.Init()
	r := api.NewRouter(api.RouterDeps{
		RateRPS:       cfg.RateRPS,
		Notifications: notificationSvc,
		Accounts:      accountSvc,
		Log:           log,
	})

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.HTTPPort, "env", cfg.Env, "mail_provider", cfg.MailProvider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "err", err)
	}
}
