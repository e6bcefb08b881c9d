package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mdappsolutions/bellasjob-api/internal/models"
)

type notificationsRepo struct{ pool *pgxpool.Pool }

func (r *notificationsRepo) Get(ctx context.Context, code string, status models.TransactionStatus) (models.ProcessedNotification, error) {
	var p models.ProcessedNotification
	err := r.pool.QueryRow(ctx,
		`SELECT transaction_code, status, notification_code, user_id, processed_at
		   FROM processed_notifications
		  WHERE transaction_code=$1 AND status=$2`,
		code, status,
	).Scan(&p.TransactionCode, &p.Status, &p.NotificationCode, &p.UserID, &p.ProcessedAt)
	return p, notFound(err)
}

// Mark keeps the first record when a duplicate races in.
func (r *notificationsRepo) Mark(ctx context.Context, p models.ProcessedNotification) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO processed_notifications(transaction_code, status, notification_code, user_id)
		 VALUES($1,$2,$3,$4)
		 ON CONFLICT (transaction_code, status) DO NOTHING`,
		p.TransactionCode, p.Status, p.NotificationCode, p.UserID,
	)
	return err
}
