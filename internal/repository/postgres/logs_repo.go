package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mdappsolutions/bellasjob-api/internal/models"
)

type logsRepo struct{ pool *pgxpool.Pool }

// Append ignores l.ReceivedAt; the database clock is authoritative.
func (r *logsRepo) Append(ctx context.Context, l models.NotificationLog) (models.NotificationLog, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO pagseguro_logs(id, status, notification_code) VALUES($1,$2,$3)
		 RETURNING received_at`,
		l.ID, l.Status, l.NotificationCode,
	).Scan(&l.ReceivedAt)
	return l, err
}
