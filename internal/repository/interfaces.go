package repository

import (
	"context"
	"errors"

	"github.com/mdappsolutions/bellasjob-api/internal/models"
)

var ErrNotFound = errors.New("not found")

// Accounts is the identity provider: one account per email.
type Accounts interface {
	GetByEmail(ctx context.Context, email string) (models.Account, error)
	GetByID(ctx context.Context, id string) (models.Account, error)
	// Create inserts an account; created is false when the email already
	// existed, in which case the existing account is returned untouched.
	Create(ctx context.Context, email, passwordHash string) (acc models.Account, created bool, err error)
	SetSetupToken(ctx context.Context, id, tokenID string) error
	// ConsumeSetupToken swaps in the new hash if tokenID is still pending.
	ConsumeSetupToken(ctx context.Context, id, tokenID, passwordHash string) (bool, error)
}

// Users holds profile documents keyed by account id.
type Users interface {
	Upsert(ctx context.Context, u models.UserRecord) (models.UserRecord, error)
	GetByID(ctx context.Context, id string) (models.UserRecord, error)
}

type NotificationLogs interface {
	Append(ctx context.Context, l models.NotificationLog) (models.NotificationLog, error)
}

type ProcessedNotifications interface {
	Get(ctx context.Context, transactionCode string, status models.TransactionStatus) (models.ProcessedNotification, error)
	Mark(ctx context.Context, p models.ProcessedNotification) error
}
