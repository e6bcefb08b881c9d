package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	repo "github.com/mdappsolutions/bellasjob-api/internal/repository"
)

type Repositories struct {
	Accounts      repo.Accounts
	Users         repo.Users
	Logs          repo.NotificationLogs
	Notifications repo.ProcessedNotifications
}

func NewRepositories(pool *pgxpool.Pool) Repositories {
	return Repositories{
		Accounts:      &accountsRepo{pool},
		Users:         &usersRepo{pool},
		Logs:          &logsRepo{pool},
		Notifications: &notificationsRepo{pool},
	}
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return repo.ErrNotFound
	}
	return err
}
