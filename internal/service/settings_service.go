package service

import (
	"context"
	"encoding/json"
	"strconv"

	"chatbe/internal/domain"
	"chatbe/internal/repository"
	"chatbe/pkg/errors"
	"chatbe/pkg/logger"
	"chatbe/pkg/redis"
)

type settingsService struct {
	repo        repository.SettingsRepository
	cache       *redis.Client // may be nil; reads fall through to the database
	readSecrets bool
	logger      *logger.Logger
}

// NewSettingsService creates a settings service. readSecrets fixes at
// construction time whether this instance may expose client secrets; the
// exchanger gets a secret-capable instance, admin read paths do not.
func NewSettingsService(repo repository.SettingsRepository, cache *redis.Client, readSecrets bool, log *logger.Logger) SettingsService {
	return &settingsService{
		repo:        repo,
		cache:       cache,
		readSecrets: readSecrets,
		logger:      log,
	}
}

func (s *settingsService) ProviderStatus(ctx context.Context, provider string) (*domain.ProviderStatus, error) {
	enabled, err := s.LoginEnabled(ctx)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return &domain.ProviderStatus{Enabled: false}, nil
	}

	settings, err := s.loadProvider(ctx, provider)
	if err != nil {
		return nil, err
	}
	if settings == nil || !settings.Enabled || settings.ClientID == "" || settings.ClientSecret == "" {
		return &domain.ProviderStatus{Enabled: false}, nil
	}

	status := &domain.ProviderStatus{
		Enabled:  true,
		ClientID: settings.ClientID,
	}
	if s.readSecrets {
		status.ClientSecret = settings.ClientSecret
	}

	return status, nil
}

func (s *settingsService) GetProvider(ctx context.Context, provider string) (*domain.ProviderSettings, error) {
	settings, err := s.loadProvider(ctx, provider)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return nil, nil
	}

	if !s.readSecrets {
		copied := *settings
		copied.ClientSecret = ""
		return &copied, nil
	}

	return settings, nil
}

func (s *settingsService) UpdateProvider(ctx context.Context, settings *domain.ProviderSettings) error {
	if settings == nil || settings.Provider == "" {
		return errors.NewValidationError("Provider is required", nil)
	}

	if err := s.repo.UpsertProvider(ctx, settings); err != nil {
		return errors.NewInternalError("Failed to update provider settings", err)
	}

	s.invalidate(ctx, s.providerKey(settings.Provider))

	s.logger.WithFields(map[string]interface{}{
		"provider": settings.Provider,
		"enabled":  settings.Enabled,
	}).Info("Provider settings updated")

	return nil
}

func (s *settingsService) LoginEnabled(ctx context.Context) (bool, error) {
	if s.cache != nil {
		if val, err := s.cache.Get(ctx, s.cache.KeyBuilder.KeyLoginEnabled()); err == nil && val != "" {
			if enabled, err := strconv.ParseBool(val); err == nil {
				return enabled, nil
			}
		}
	}

	enabled, err := s.repo.GetFlag(ctx, domain.FlagLoginEnabled, true)
	if err != nil {
		return false, errors.NewInternalError("Failed to read login flag", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, s.cache.KeyBuilder.KeyLoginEnabled(), strconv.FormatBool(enabled), redis.TTLSettings); err != nil {
			s.logger.WithError(err).Warn("Failed to cache login flag")
		}
	}

	return enabled, nil
}

func (s *settingsService) SetLoginEnabled(ctx context.Context, enabled bool) error {
	if err := s.repo.SetFlag(ctx, domain.FlagLoginEnabled, enabled); err != nil {
		return errors.NewInternalError("Failed to update login flag", err)
	}

	s.invalidate(ctx, s.cacheKeyLoginEnabled())

	s.logger.WithField("enabled", enabled).Info("Global login flag updated")
	return nil
}

func (s *settingsService) loadProvider(ctx context.Context, provider string) (*domain.ProviderSettings, error) {
	key := s.providerKey(provider)

	if s.cache != nil && key != "" {
		if val, err := s.cache.Get(ctx, key); err == nil && val != "" {
			var settings domain.ProviderSettings
			if err := json.Unmarshal([]byte(val), &settings); err == nil {
				return &settings, nil
			}
		}
	}

	settings, err := s.repo.GetProvider(ctx, provider)
	if err != nil {
		return nil, errors.NewInternalError("Failed to read provider settings", err)
	}
	if settings == nil {
		return nil, nil
	}

	if s.cache != nil && key != "" {
		if data, err := json.Marshal(settings); err == nil {
			if err := s.cache.Set(ctx, key, string(data), redis.TTLSettings); err != nil {
				s.logger.WithError(err).Warn("Failed to cache provider settings")
			}
		}
	}

	return settings, nil
}

func (s *settingsService) providerKey(provider string) string {
	if s.cache == nil {
		return ""
	}
	return s.cache.KeyBuilder.KeySettingsProvider(provider)
}

func (s *settingsService) cacheKeyLoginEnabled() string {
	if s.cache == nil {
		return ""
	}
	return s.cache.KeyBuilder.KeyLoginEnabled()
}

func (s *settingsService) invalidate(ctx context.Context, key string) {
	if s.cache == nil || key == "" {
		return
	}
	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.WithError(err).Warn("Failed to invalidate settings cache")
	}
}
