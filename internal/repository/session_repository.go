package repository

import (
	"context"
	"errors"
	"fmt"

	"chatbe/internal/domain"
	"chatbe/pkg/database"

	"github.com/jackc/pgx/v5"
)

type PostgresSessionRepository struct {
	db *database.PostgresDB
}

func NewSessionRepository(db *database.PostgresDB) *PostgresSessionRepository {
	return &PostgresSessionRepository{db: db}
}

func (r *PostgresSessionRepository) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	var session domain.Session
	query := `
		SELECT session_id, account_id, auth_method, created_at, updated_at
		FROM sessions
		WHERE session_id = $1
	`

	err := r.db.Pool.QueryRow(ctx, query, sessionID).Scan(
		&session.SessionID,
		&session.AccountID,
		&session.AuthMethod,
		&session.CreatedAt,
		&session.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return &session, nil
}

func (r *PostgresSessionRepository) Upsert(ctx context.Context, sessionID, accountID, method string) error {
	query := `
		INSERT INTO sessions (session_id, account_id, auth_method)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_id)
		DO UPDATE SET account_id = $2, auth_method = $3, updated_at = now()
	`

	if _, err := r.db.Pool.Exec(ctx, query, sessionID, accountID, method); err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}

	return nil
}

func (r *PostgresSessionRepository) ClearAuthMethod(ctx context.Context, sessionID, method string) error {
	// Only clear when the tag still is this method; another login may have
	// replaced it since.
	query := `
		UPDATE sessions
		SET auth_method = NULL, updated_at = now()
		WHERE session_id = $1 AND auth_method = $2
	`

	if _, err := r.db.Pool.Exec(ctx, query, sessionID, method); err != nil {
		return fmt.Errorf("failed to clear session auth method: %w", err)
	}

	return nil
}
