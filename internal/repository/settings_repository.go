package repository

import (
	"context"
	"errors"
	"fmt"

	"chatbe/internal/domain"
	"chatbe/pkg/database"

	"github.com/jackc/pgx/v5"
)

type PostgresSettingsRepository struct {
	db *database.PostgresDB
}

func NewSettingsRepository(db *database.PostgresDB) *PostgresSettingsRepository {
	return &PostgresSettingsRepository{db: db}
}

func (r *PostgresSettingsRepository) GetProvider(ctx context.Context, provider string) (*domain.ProviderSettings, error) {
	var settings domain.ProviderSettings
	query := `
		SELECT provider, client_id, client_secret, enabled, updated_at
		FROM provider_settings
		WHERE provider = $1
	`

	err := r.db.Pool.QueryRow(ctx, query, provider).Scan(
		&settings.Provider,
		&settings.ClientID,
		&settings.ClientSecret,
		&settings.Enabled,
		&settings.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get provider settings: %w", err)
	}

	return &settings, nil
}

func (r *PostgresSettingsRepository) UpsertProvider(ctx context.Context, settings *domain.ProviderSettings) error {
	query := `
		INSERT INTO provider_settings (provider, client_id, client_secret, enabled)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (provider)
		DO UPDATE SET client_id = $2, client_secret = $3, enabled = $4, updated_at = now()
	`

	if _, err := r.db.Pool.Exec(ctx, query,
		settings.Provider,
		settings.ClientID,
		settings.ClientSecret,
		settings.Enabled,
	); err != nil {
		return fmt.Errorf("failed to upsert provider settings: %w", err)
	}

	return nil
}

func (r *PostgresSettingsRepository) GetFlag(ctx context.Context, key string, defaultValue bool) (bool, error) {
	var value bool
	query := `SELECT value FROM app_settings WHERE key = $1`

	err := r.db.Pool.QueryRow(ctx, query, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return defaultValue, nil
	}
	if err != nil {
		return defaultValue, fmt.Errorf("failed to get flag %s: %w", key, err)
	}

	return value, nil
}

func (r *PostgresSettingsRepository) SetFlag(ctx context.Context, key string, value bool) error {
	query := `
		INSERT INTO app_settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key)
		DO UPDATE SET value = $2, updated_at = now()
	`

	if _, err := r.db.Pool.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to set flag %s: %w", key, err)
	}

	return nil
}
