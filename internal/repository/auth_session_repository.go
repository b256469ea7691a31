package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"scribemarket/api/internal/models"
)

var ErrAuthSessionNotFound = errors.New("auth session not found")

type AuthSessionRepository struct {
	pool *pgxpool.Pool
}

func NewAuthSessionRepository(pool *pgxpool.Pool) *AuthSessionRepository {
	return &AuthSessionRepository{pool: pool}
}

func (r *AuthSessionRepository) Create(ctx context.Context, session models.AuthSession) error {
	const query = `
		INSERT INTO auth_sessions (
			id, account_id, refresh_token_hash, created_at, last_seen_at, expires_at
		) VALUES (
			$1, $2, $3, NOW(), NOW(), $4
		)
		ON CONFLICT (id)
		DO UPDATE SET
			refresh_token_hash = EXCLUDED.refresh_token_hash,
			last_seen_at = NOW(),
			expires_at = EXCLUDED.expires_at
	`

	_, err := r.pool.Exec(ctx, query,
		session.ID,
		session.AccountID,
		session.RefreshTokenHash,
		session.ExpiresAt,
	)
	return err
}

func (r *AuthSessionRepository) GetByID(ctx context.Context, id string) (models.AuthSession, error) {
	const query = `
		SELECT id, account_id, refresh_token_hash, created_at, last_seen_at, expires_at
		FROM auth_sessions
		WHERE id = $1
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *AuthSessionRepository) FindByRefreshHash(ctx context.Context, refreshHash []byte) (models.AuthSession, error) {
	const query = `
		SELECT id, account_id, refresh_token_hash, created_at, last_seen_at, expires_at
		FROM auth_sessions
		WHERE refresh_token_hash = $1
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, refreshHash))
}

func (r *AuthSessionRepository) DeleteByID(ctx context.Context, id string) error {
	const query = `DELETE FROM auth_sessions WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAuthSessionNotFound
	}
	return nil
}

func (r *AuthSessionRepository) DeleteByAccount(ctx context.Context, accountID string) error {
	const query = `DELETE FROM auth_sessions WHERE account_id = $1`
	_, err := r.pool.Exec(ctx, query, accountID)
	return err
}

func (r *AuthSessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	const query = `DELETE FROM auth_sessions WHERE expires_at < NOW()`
	cmd, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *AuthSessionRepository) Touch(ctx context.Context, id string) error {
	const query = `UPDATE auth_sessions SET last_seen_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

func (r *AuthSessionRepository) scanOne(row pgx.Row) (models.AuthSession, error) {
	var session models.AuthSession
	if err := row.Scan(
		&session.ID,
		&session.AccountID,
		&session.RefreshTokenHash,
		&session.CreatedAt,
		&session.LastSeenAt,
		&session.ExpiresAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.AuthSession{}, ErrAuthSessionNotFound
		}
		return models.AuthSession{}, err
	}
	return session, nil
}
