package service

import (
	"context"
	"testing"
	"time"

	"chatbe/internal/domain"
	"chatbe/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoginRequestFixture() (*fakeLoginRequestRepo, LoginRequestService) {
	repo := newFakeLoginRequestRepo()
	return repo, NewLoginRequestService(repo, logger.NewNop())
}

func TestCreateLoginRequest(t *testing.T) {
	repo, svc := newLoginRequestFixture()

	req, err := svc.Create(context.Background(), "sess-1", "https://app.example.com/cb")
	require.NoError(t, err)

	assert.NotEmpty(t, req.ID)
	assert.Equal(t, "sess-1", req.SessionID)
	assert.Equal(t, domain.ProviderGoogle, req.Provider)
	assert.Equal(t, domain.LoginRequestPending, req.Status)
	assert.Equal(t, req.CreatedAt.Add(domain.LoginRequestTTL), req.ExpiresAt)

	stored := repo.get(req.ID)
	require.NotNil(t, stored)
	assert.Equal(t, req.ID, stored.ID)
}

func TestCreateLoginRequestValidation(t *testing.T) {
	_, svc := newLoginRequestFixture()
	ctx := context.Background()

	_, err := svc.Create(ctx, "", "https://app.example.com/cb")
	assert.Error(t, err)

	_, err = svc.Create(ctx, "sess-1", "")
	assert.Error(t, err)
}

func TestCreateLoginRequestIDsAreUnique(t *testing.T) {
	_, svc := newLoginRequestFixture()
	ctx := context.Background()

	a, err := svc.Create(ctx, "sess-1", "https://app.example.com/cb")
	require.NoError(t, err)
	b, err := svc.Create(ctx, "sess-1", "https://app.example.com/cb")
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
}

func TestGetLoginRequestAbsent(t *testing.T) {
	_, svc := newLoginRequestFixture()

	req, err := svc.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, req)
}

func TestCompleteLoginRequest(t *testing.T) {
	repo, svc := newLoginRequestFixture()
	ctx := context.Background()

	req, err := svc.Create(ctx, "sess-1", "https://app.example.com/cb")
	require.NoError(t, err)

	require.NoError(t, svc.Complete(ctx, req.ID, domain.LoginRequestFailed, "token exchange rejected"))

	stored := repo.get(req.ID)
	assert.Equal(t, domain.LoginRequestFailed, stored.Status)
	require.NotNil(t, stored.Error)
	assert.Equal(t, "token exchange rejected", *stored.Error)
	assert.NotNil(t, stored.CompletedAt)
}

func TestLoginRequestExpiryBoundary(t *testing.T) {
	now := time.Now().UTC()
	req := &domain.LoginRequest{ExpiresAt: now}

	assert.True(t, req.Expired(now), "expiresAt == now must count as expired")
	assert.True(t, req.Expired(now.Add(time.Second)))
	assert.False(t, req.Expired(now.Add(-time.Second)))
}

func TestSweepExpired(t *testing.T) {
	repo, svc := newLoginRequestFixture()
	ctx := context.Background()
	now := time.Now().UTC()

	repo.Create(ctx, &domain.LoginRequest{
		ID: "stale-pending", Status: domain.LoginRequestPending,
		ExpiresAt: now.Add(-time.Minute),
	})
	repo.Create(ctx, &domain.LoginRequest{
		ID: "stale-failed", Status: domain.LoginRequestFailed,
		ExpiresAt: now.Add(-time.Minute),
	})
	// Completed requests are retained for audit even past expiry.
	repo.Create(ctx, &domain.LoginRequest{
		ID: "stale-completed", Status: domain.LoginRequestCompleted,
		ExpiresAt: now.Add(-time.Minute),
	})
	repo.Create(ctx, &domain.LoginRequest{
		ID: "fresh", Status: domain.LoginRequestPending,
		ExpiresAt: now.Add(10 * time.Minute),
	})

	deleted, err := svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	assert.Nil(t, repo.get("stale-pending"))
	assert.Nil(t, repo.get("stale-failed"))
	assert.NotNil(t, repo.get("stale-completed"))
	assert.NotNil(t, repo.get("fresh"))
}

func TestSweeperLifecycle(t *testing.T) {
	repo, svc := newLoginRequestFixture()
	ctx := context.Background()

	repo.Create(ctx, &domain.LoginRequest{
		ID: "stale", Status: domain.LoginRequestPending,
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	})

	sweeper := NewSweeper(svc, 10*time.Millisecond, logger.NewNop())
	require.NoError(t, sweeper.Start(ctx))

	assert.Eventually(t, func() bool {
		return repo.get("stale") == nil
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, sweeper.Stop(ctx))

	// Stopping twice is harmless.
	require.NoError(t, sweeper.Stop(ctx))
}
