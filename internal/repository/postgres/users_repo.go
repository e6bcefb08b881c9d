package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mdappsolutions/bellasjob-api/internal/models"
)

type usersRepo struct{ pool *pgxpool.Pool }

const userCols = `id, email, pagseguro, created_at, updated_at`

func scanUser(row pgx.Row) (models.UserRecord, error) {
	var (
		u       models.UserRecord
		payment []byte
	)
	if err := row.Scan(&u.UserID, &u.Email, &payment, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return models.UserRecord{}, err
	}
	if len(payment) > 0 {
		if err := json.Unmarshal(payment, &u.PagSeguro); err != nil {
			return models.UserRecord{}, err
		}
	}
	return u, nil
}

// Upsert merges the payment summary keys into the stored object; created_at
// is only set by the first insert.
func (r *usersRepo) Upsert(ctx context.Context, u models.UserRecord) (models.UserRecord, error) {
	payment, err := json.Marshal(u.PagSeguro)
	if err != nil {
		return models.UserRecord{}, err
	}
	return scanUser(r.pool.QueryRow(ctx,
		`INSERT INTO users(id, email, pagseguro) VALUES($1,$2,$3::jsonb)
		 ON CONFLICT (id) DO UPDATE
		    SET email = EXCLUDED.email,
		        pagseguro = users.pagseguro || EXCLUDED.pagseguro,
		        updated_at = now()
		 RETURNING `+userCols,
		u.UserID, u.Email, string(payment),
	))
}

func (r *usersRepo) GetByID(ctx context.Context, id string) (models.UserRecord, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id=$1`, id))
	return u, notFound(err)
}
