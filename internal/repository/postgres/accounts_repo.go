package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mdappsolutions/bellasjob-api/internal/models"
)

type accountsRepo struct{ pool *pgxpool.Pool }

const accountCols = `id, email, password_hash, setup_token_id, created_at, updated_at`

func scanAccount(row pgx.Row) (models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.SetupTokenID, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *accountsRepo) GetByEmail(ctx context.Context, email string) (models.Account, error) {
	a, err := scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountCols+` FROM accounts WHERE email=$1`, email))
	return a, notFound(err)
}

func (r *accountsRepo) GetByID(ctx context.Context, id string) (models.Account, error) {
	a, err := scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountCols+` FROM accounts WHERE id=$1`, id))
	return a, notFound(err)
}

// Create relies on the unique email index, so two concurrent creators for
// the same address end up with the same account.
func (r *accountsRepo) Create(ctx context.Context, email, hash string) (models.Account, bool, error) {
	a, err := scanAccount(r.pool.QueryRow(ctx,
		`INSERT INTO accounts(id, email, password_hash) VALUES($1,$2,$3)
		 ON CONFLICT (email) DO NOTHING
		 RETURNING `+accountCols,
		uuid.NewString(), email, hash,
	))
	if err == nil {
		return a, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return models.Account{}, false, err
	}
	a, err = r.GetByEmail(ctx, email)
	return a, false, err
}

func (r *accountsRepo) SetSetupToken(ctx context.Context, id, tokenID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE accounts SET setup_token_id=$2, updated_at=now() WHERE id=$1`, id, tokenID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound(pgx.ErrNoRows)
	}
	return nil
}

func (r *accountsRepo) ConsumeSetupToken(ctx context.Context, id, tokenID, hash string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE accounts
		    SET password_hash=$3, setup_token_id=NULL, updated_at=now()
		  WHERE id=$1 AND setup_token_id=$2`,
		id, tokenID, hash,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
