package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"chatbe/internal/domain"
	"chatbe/pkg/database"
	apperrors "chatbe/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const accountColumns = `id, kind, username, email, name, avatar_url, google_id, google_profile, recovery_code, role, created_at, updated_at`

type PostgresAccountRepository struct {
	db *database.PostgresDB
}

func NewAccountRepository(db *database.PostgresDB) *PostgresAccountRepository {
	return &PostgresAccountRepository{db: db}
}

func (r *PostgresAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

func (r *PostgresAccountRepository) GetByGoogleID(ctx context.Context, googleID string) (*domain.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE google_id = $1`, googleID)
}

func (r *PostgresAccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
}

func (r *PostgresAccountRepository) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE username = $1`, username)
}

func (r *PostgresAccountRepository) getOne(ctx context.Context, query string, arg interface{}) (*domain.Account, error) {
	var account domain.Account
	err := r.db.Pool.QueryRow(ctx, query, arg).Scan(
		&account.ID,
		&account.Kind,
		&account.Username,
		&account.Email,
		&account.Name,
		&account.AvatarURL,
		&account.GoogleID,
		&account.GoogleProfile,
		&account.RecoveryCode,
		&account.Role,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &account, nil
}

// Create inserts a new account. The unique indexes on email, google_id, and
// username are the authoritative collision guard; violations surface as the
// same conflict errors the service-level pre-checks produce.
func (r *PostgresAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (
			id, kind, username, email, name, avatar_url,
			google_id, google_profile, recovery_code, role
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		account.ID,
		account.Kind,
		account.Username,
		account.Email,
		account.Name,
		account.AvatarURL,
		account.GoogleID,
		account.GoogleProfile,
		account.RecoveryCode,
		account.Role,
	).Scan(&account.CreatedAt, &account.UpdatedAt)

	if err != nil {
		if conflictErr := mapUniqueViolation(err); conflictErr != nil {
			return conflictErr
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

func (r *PostgresAccountRepository) UpdateGoogleProfile(ctx context.Context, id string, profile *domain.ExternalProfile, raw json.RawMessage) error {
	query := `
		UPDATE accounts
		SET name = $2, email = $3, avatar_url = NULLIF($4, ''), google_profile = $5, updated_at = now()
		WHERE id = $1
	`

	tag, err := r.db.Pool.Exec(ctx, query, id, profile.Name, profile.Email, profile.AvatarURL, raw)
	if err != nil {
		if conflictErr := mapUniqueViolation(err); conflictErr != nil {
			return conflictErr
		}
		return fmt.Errorf("failed to update account profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account %s not found", id)
	}

	return nil
}

func (r *PostgresAccountRepository) LinkGoogle(ctx context.Context, id string, googleID string, email *string, raw json.RawMessage) error {
	query := `
		UPDATE accounts
		SET google_id = $2, google_profile = $3, email = COALESCE($4, email), updated_at = now()
		WHERE id = $1
	`

	tag, err := r.db.Pool.Exec(ctx, query, id, googleID, raw, email)
	if err != nil {
		if conflictErr := mapUniqueViolation(err); conflictErr != nil {
			return conflictErr
		}
		return fmt.Errorf("failed to link account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account %s not found", id)
	}

	return nil
}

func (r *PostgresAccountRepository) UpgradeAnonymous(ctx context.Context, id, username, email, name, googleID string, raw json.RawMessage) error {
	// kind flips to full; recovery_code and role are preserved because the
	// anonymous account's identity continues.
	query := `
		UPDATE accounts
		SET kind = $2, username = $3, email = $4, name = $5,
		    google_id = $6, google_profile = $7, updated_at = now()
		WHERE id = $1 AND kind = $8
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		id,
		domain.AccountKindFull,
		username,
		email,
		name,
		googleID,
		raw,
		domain.AccountKindAnonymous,
	)
	if err != nil {
		if conflictErr := mapUniqueViolation(err); conflictErr != nil {
			return conflictErr
		}
		return fmt.Errorf("failed to upgrade account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("anonymous account %s not found", id)
	}

	return nil
}

func (r *PostgresAccountRepository) ClearGoogleLink(ctx context.Context, id string) error {
	query := `
		UPDATE accounts
		SET google_id = NULL, google_profile = NULL, updated_at = now()
		WHERE id = $1
	`

	tag, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to clear account link: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account %s not found", id)
	}

	return nil
}

// mapUniqueViolation converts a Postgres 23505 on one of the account unique
// indexes into the matching conflict error, so a write racing past the
// service-level pre-check still fails with the right code.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return nil
	}

	switch pgErr.ConstraintName {
	case "accounts_email_key", "accounts_email_idx":
		return apperrors.NewConflictError(apperrors.CodeEmailExists, "An account with this email already exists")
	case "accounts_google_id_key", "accounts_google_id_idx":
		return apperrors.NewConflictError(apperrors.CodeSubjectInUse, "This Google account is already linked to another account")
	case "accounts_username_key", "accounts_username_idx":
		return apperrors.NewConflictError(apperrors.CodeEmailExists, "Username already taken")
	default:
		return apperrors.NewConflictError(apperrors.CodeSubjectInUse, "Account conflicts with an existing account")
	}
}
