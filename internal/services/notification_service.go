package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mdappsolutions/bellasjob-api/internal/auth"
	"github.com/mdappsolutions/bellasjob-api/internal/mail"
	"github.com/mdappsolutions/bellasjob-api/internal/metrics"
	"github.com/mdappsolutions/bellasjob-api/internal/models"
	repo "github.com/mdappsolutions/bellasjob-api/internal/repository"
)

var (
	ErrGatewayResponse    = errors.New("invalid pagseguro response")
	ErrMissingSenderEmail = errors.New("transaction has no sender email")
)

// Gateway resolves a notification code into the transaction it announces.
type Gateway interface {
	FetchTransaction(ctx context.Context, notificationCode string) (models.Transaction, error)
}

type Result struct {
	Success bool   `json:"success"`
	User    string `json:"user,omitempty"`
	Status  string `json:"status,omitempty"`
}

type NotificationOptions struct {
	From            string // full From header
	LoginURL        string
	IncludePassword bool
	SetupTTL        time.Duration
}

type NotificationService struct {
	gateway   Gateway
	accounts  *AccountService
	users     repo.Users
	logs      repo.NotificationLogs
	processed repo.ProcessedNotifications
	mailer    mail.Sender
	opts      NotificationOptions
	log       *slog.Logger
}

func NewNotificationService(
	gw Gateway,
	accounts *AccountService,
	users repo.Users,
	logs repo.NotificationLogs,
	processed repo.ProcessedNotifications,
	mailer mail.Sender,
	opts NotificationOptions,
	log *slog.Logger,
) *NotificationService {
	return &NotificationService{
		gateway:   gw,
		accounts:  accounts,
		users:     users,
		logs:      logs,
		processed: processed,
		mailer:    mailer,
		opts:      opts,
		log:       log,
	}
}

// Handle runs one notification through fetch, classification and then either
// provisioning or audit logging. Nothing is rolled back on failure.
func (s *NotificationService) Handle(ctx context.Context, notificationCode string) (Result, error) {
	res, outcome, err := s.handle(ctx, notificationCode)
	if err != nil {
		outcome = "error"
	}
	metrics.NotificationsTotal.WithLabelValues(outcome).Inc()
	return res, err
}

func (s *NotificationService) handle(ctx context.Context, code string) (Result, string, error) {
	tx, err := s.gateway.FetchTransaction(ctx, code)
	if err != nil {
		s.log.Warn("pagseguro fetch failed", "notification_code", code, "err", err)
		return Result{}, "", fmt.Errorf("%w: %v", ErrGatewayResponse, err)
	}

	s.log.Info("transaction received",
		"status", string(tx.Status),
		"sender", tx.Sender.Email,
		"reference", tx.Reference,
		"transaction_code", tx.Code,
	)

	switch tx.Status.Classify() {
	case models.ClassConfirmed:
		return s.provision(ctx, code, tx)
	case models.ClassUnknown:
		s.log.Warn("unrecognized transaction status", "status", string(tx.Status), "notification_code", code)
	}

	if _, err := s.logs.Append(ctx, models.NotificationLog{
		Status:           tx.Status,
		NotificationCode: code,
	}); err != nil {
		return Result{}, "", fmt.Errorf("append notification log: %w", err)
	}
	return Result{Success: false, Status: string(tx.Status)}, "unconfirmed", nil
}

func (s *NotificationService) provision(ctx context.Context, code string, tx models.Transaction) (Result, string, error) {
	email := models.NormalizeEmail(tx.Sender.Email)
	if email == "" {
		return Result{}, "", ErrMissingSenderEmail
	}
	if err := models.ValidateEmail(email); err != nil {
		return Result{}, "", fmt.Errorf("sender email %q: %w", email, err)
	}

	if tx.Code != "" {
		done, err := s.processed.Get(ctx, tx.Code, tx.Status)
		switch {
		case err == nil:
			s.log.Info("notification already processed", "transaction_code", tx.Code, "status", string(tx.Status), "user", done.UserID)
			return Result{Success: true, User: done.UserID}, "duplicate", nil
		case !errors.Is(err, repo.ErrNotFound):
			return Result{}, "", fmt.Errorf("lookup processed notification: %w", err)
		}
	}

	password, err := auth.GeneratePassword()
	if err != nil {
		return Result{}, "", fmt.Errorf("generate password: %w", err)
	}

	acc, created, err := s.accounts.Ensure(ctx, email, password)
	if err != nil {
		return Result{}, "", err
	}
	if created {
		s.log.Info("account created", "user", acc.ID)
	} else {
		s.log.Info("account exists", "user", acc.ID)
	}

	if _, err := s.users.Upsert(ctx, models.UserRecord{
		UserID:    acc.ID,
		Email:     email,
		PagSeguro: tx.PaymentSummary(),
	}); err != nil {
		return Result{}, "", fmt.Errorf("upsert user record: %w", err)
	}

	if err := s.sendAccess(ctx, acc, email, password, created); err != nil {
		metrics.EmailsFailed.Inc()
		return Result{}, "", err
	}
	metrics.EmailsSent.Inc()

	if tx.Code != "" {
		if err := s.processed.Mark(ctx, models.ProcessedNotification{
			TransactionCode:  tx.Code,
			Status:           tx.Status,
			NotificationCode: code,
			UserID:           acc.ID,
		}); err != nil {
			// the email is out; a retry would only resend it
			s.log.Error("mark notification processed", "transaction_code", tx.Code, "err", err)
		}
	}
	return Result{Success: true, User: acc.ID}, "confirmed", nil
}

func (s *NotificationService) sendAccess(ctx context.Context, acc models.Account, email, password string, created bool) error {
	link, err := s.accounts.SetupLink(ctx, acc)
	if err != nil {
		return err
	}
	ae := mail.AccessEmail{
		From:          s.opts.From,
		To:            email,
		LoginURL:      s.opts.LoginURL,
		Email:         email,
		SetupURL:      link,
		SetupValidFor: s.opts.SetupTTL.String(),
	}
	if s.opts.IncludePassword && created {
		ae.Password = password
	}
	msg, err := ae.Message()
	if err != nil {
		return fmt.Errorf("compose access email: %w", err)
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send access email: %w", err)
	}
	return nil
}
