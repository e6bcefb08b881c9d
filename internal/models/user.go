package models

import (
	"errors"
	"strings"
	"time"
)

// Account is the identity record: one per email, owns the password hash.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	SetupTokenID *string   `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PaymentSummary is merged into the user record on every confirmed payment.
type PaymentSummary struct {
	Status          TransactionStatus `json:"status"`
	Reference       string            `json:"reference"`
	TransactionCode string            `json:"transactionCode"`
	GrossAmount     string            `json:"grossAmount"`
}

// UserRecord is the profile document keyed by account id.
type UserRecord struct {
	UserID    string         `json:"user_id"`
	Email     string         `json:"email"`
	PagSeguro PaymentSummary `json:"pagseguro"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func NormalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

func ValidateEmail(email string) error {
	at := strings.LastIndex(email, "@")
	if at < 1 || at == len(email)-1 {
		return errors.New("invalid email")
	}
	return nil
}
