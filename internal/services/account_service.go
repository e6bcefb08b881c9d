package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/mdappsolutions/bellasjob-api/internal/auth"
	"github.com/mdappsolutions/bellasjob-api/internal/models"
	repo "github.com/mdappsolutions/bellasjob-api/internal/repository"
)

var (
	ErrSetupTokenUsed = errors.New("setup token already used or superseded")
	ErrWeakPassword   = errors.New("password too short")
)

const MinPasswordLen = 8

type AccountService struct {
	accounts repo.Accounts
	tokens   *auth.TokenManager
	appURL   string
}

func NewAccountService(accounts repo.Accounts, tokens *auth.TokenManager, appURL string) *AccountService {
	return &AccountService{accounts: accounts, tokens: tokens, appURL: appURL}
}

// Ensure looks the email up and creates the account with password when it
// does not exist. Lookup failures other than not-found are returned as is.
func (s *AccountService) Ensure(ctx context.Context, email, password string) (models.Account, bool, error) {
	acc, err := s.accounts.GetByEmail(ctx, email)
	if err == nil {
		return acc, false, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return models.Account{}, false, fmt.Errorf("lookup account: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.Account{}, false, fmt.Errorf("hash password: %w", err)
	}
	acc, created, err := s.accounts.Create(ctx, email, hash)
	if err != nil {
		return models.Account{}, false, fmt.Errorf("create account: %w", err)
	}
	return acc, created, nil
}

// SetupLink issues a fresh one-time link, invalidating earlier ones.
func (s *AccountService) SetupLink(ctx context.Context, acc models.Account) (string, error) {
	token, id, err := s.tokens.IssueSetup(acc.ID, acc.Email)
	if err != nil {
		return "", fmt.Errorf("issue setup token: %w", err)
	}
	if err := s.accounts.SetSetupToken(ctx, acc.ID, id); err != nil {
		return "", fmt.Errorf("store setup token: %w", err)
	}
	return s.appURL + "/account/setup?token=" + url.QueryEscape(token), nil
}

func (s *AccountService) CompleteSetup(ctx context.Context, token, password string) error {
	if len(password) < MinPasswordLen {
		return fmt.Errorf("%w: need at least %d characters", ErrWeakPassword, MinPasswordLen)
	}
	claims, err := s.tokens.ParseSetup(token)
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	ok, err := s.accounts.ConsumeSetupToken(ctx, claims.UserID, claims.ID, hash)
	if err != nil {
		return fmt.Errorf("consume setup token: %w", err)
	}
	if !ok {
		return ErrSetupTokenUsed
	}
	return nil
}
