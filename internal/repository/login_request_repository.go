package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chatbe/internal/domain"
	"chatbe/pkg/database"

	"github.com/jackc/pgx/v5"
)

type PostgresLoginRequestRepository struct {
	db *database.PostgresDB
}

func NewLoginRequestRepository(db *database.PostgresDB) *PostgresLoginRequestRepository {
	return &PostgresLoginRequestRepository{db: db}
}

func (r *PostgresLoginRequestRepository) Create(ctx context.Context, req *domain.LoginRequest) error {
	query := `
		INSERT INTO login_requests (id, session_id, provider, redirect_uri, status, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		req.ID,
		req.SessionID,
		req.Provider,
		req.RedirectURI,
		req.Status,
		req.CreatedAt,
		req.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create login request: %w", err)
	}

	return nil
}

func (r *PostgresLoginRequestRepository) Get(ctx context.Context, id string) (*domain.LoginRequest, error) {
	var req domain.LoginRequest
	query := `
		SELECT id, session_id, provider, redirect_uri, status, error, created_at, expires_at, completed_at
		FROM login_requests
		WHERE id = $1
	`

	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&req.ID,
		&req.SessionID,
		&req.Provider,
		&req.RedirectURI,
		&req.Status,
		&req.Error,
		&req.CreatedAt,
		&req.ExpiresAt,
		&req.CompletedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get login request: %w", err)
	}

	return &req, nil
}

func (r *PostgresLoginRequestRepository) Complete(ctx context.Context, id string, status domain.LoginRequestStatus, errMsg *string) error {
	query := `
		UPDATE login_requests
		SET status = $2, error = $3, completed_at = now()
		WHERE id = $1
	`

	tag, err := r.db.Pool.Exec(ctx, query, id, status, errMsg)
	if err != nil {
		return fmt.Errorf("failed to complete login request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("login request %s not found", id)
	}

	return nil
}

func (r *PostgresLoginRequestRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	// The whole predicate runs server-side, so two sweepers racing each
	// other simply split or repeat a no-op delete.
	query := `
		DELETE FROM login_requests
		WHERE status != $1 AND expires_at < $2
	`

	tag, err := r.db.Pool.Exec(ctx, query, domain.LoginRequestCompleted, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired login requests: %w", err)
	}

	return tag.RowsAffected(), nil
}
