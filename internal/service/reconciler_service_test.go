package service

import (
	"context"
	"testing"

	"chatbe/internal/domain"
	"chatbe/pkg/errors"
	"chatbe/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReconcilerFixture() (*fakeAccountRepo, *fakeSessionRepo, ReconcilerService) {
	accounts := newFakeAccountRepo()
	sessions := newFakeSessionRepo()
	svc := NewReconcilerService(accounts, sessions, logger.NewNop())
	return accounts, sessions, svc
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
}

func TestReconcileLoginCreatesAccount(t *testing.T) {
	accounts, sessions, svc := newReconcilerFixture()
	ctx := context.Background()

	result, err := svc.Reconcile(ctx, "sess-1", testProfile())
	require.NoError(t, err)

	assert.Equal(t, OutcomeLogin, result.Outcome)
	assert.Equal(t, FlowLogin, result.Flow)
	assert.NotEmpty(t, result.AccountID)

	created := accounts.get(result.AccountID)
	require.NotNil(t, created)
	assert.Equal(t, domain.AccountKindFull, created.Kind)
	assert.Equal(t, "b@y.com", *created.Email)
	assert.Equal(t, "sub-123", *created.GoogleID)
	assert.Equal(t, domain.DefaultRole, created.Role)

	session := sessions.get("sess-1")
	require.NotNil(t, session)
	assert.Equal(t, result.AccountID, *session.AccountID)
	assert.Equal(t, domain.AuthMethodGoogle, *session.AuthMethod)
}

func TestReconcileLoginResolvesExistingAccount(t *testing.T) {
	accounts, _, svc := newReconcilerFixture()
	ctx := context.Background()

	accounts.put(&domain.Account{
		ID:       "acc-1",
		Kind:     domain.AccountKindFull,
		Email:    strPtr("b@y.com"),
		Name:     strPtr("Old Name"),
		GoogleID: strPtr("sub-123"),
		Role:     domain.DefaultRole,
	})

	result, err := svc.Reconcile(ctx, "sess-1", testProfile())
	require.NoError(t, err)

	assert.Equal(t, "acc-1", result.AccountID)
	assert.Equal(t, OutcomeLogin, result.Outcome)

	// The stored profile is refreshed on every login.
	assert.Equal(t, "B Y", *accounts.get("acc-1").Name)
}

func TestReconcileLoginRejectsForeignEmail(t *testing.T) {
	accounts, _, svc := newReconcilerFixture()
	ctx := context.Background()

	// Same email, no Google link: never silently adopted.
	accounts.put(&domain.Account{
		ID:    "acc-other",
		Kind:  domain.AccountKindFull,
		Email: strPtr("b@y.com"),
		Role:  domain.DefaultRole,
	})

	_, err := svc.Reconcile(ctx, "sess-1", testProfile())
	assertCode(t, err, errors.CodeEmailExists)
}

func TestReconcileLoginRejectsNonFullSubjectOwner(t *testing.T) {
	accounts, _, svc := newReconcilerFixture()
	ctx := context.Background()

	accounts.put(&domain.Account{
		ID:       "acc-anon",
		Kind:     domain.AccountKindAnonymous,
		GoogleID: strPtr("sub-123"),
		Role:     domain.DefaultRole,
	})

	_, err := svc.Reconcile(ctx, "sess-1", testProfile())
	assertCode(t, err, errors.CodeTypeMismatch)
}

func TestReconcileConnectLinksAccount(t *testing.T) {
	accounts, sessions, svc := newReconcilerFixture()
	ctx := context.Background()

	accounts.put(&domain.Account{
		ID:    "acc-1",
		Kind:  domain.AccountKindFull,
		Email: strPtr("existing@y.com"),
		Role:  domain.DefaultRole,
	})
	sessions.put(&domain.Session{SessionID: "sess-1", AccountID: strPtr("acc-1")})

	result, err := svc.Reconcile(ctx, "sess-1", testProfile())
	require.NoError(t, err)

	assert.Equal(t, OutcomeConnect, result.Outcome)
	assert.Equal(t, FlowConnect, result.Flow)
	assert.Equal(t, "acc-1", result.AccountID)

	linked := accounts.get("acc-1")
	assert.Equal(t, "sub-123", *linked.GoogleID)
	// The account already had an email, so the profile's does not replace it.
	assert.Equal(t, "existing@y.com", *linked.Email)
}

func TestReconcileConnectIsIdempotent(t *testing.T) {
	accounts, sessions, svc := newReconcilerFixture()
	ctx := context.Background()

	accounts.put(&domain.Account{
		ID:       "acc-1",
		Kind:     domain.AccountKindFull,
		Email:    strPtr("b@y.com"),
		GoogleID: strPtr("sub-123"),
		Role:     domain.DefaultRole,
	})
	sessions.put(&domain.Session{SessionID: "sess-1", AccountID: strPtr("acc-1")})

	result, err := svc.Reconcile(ctx, "sess-1", testProfile())
	require.NoError(t, err)
	assert.Equal(t, OutcomeConnect, result.Outcome)
	assert.Equal(t, "acc-1", result.AccountID)
}

func TestReconcileConnectRejectsSecondIdentity(t *testing.T) {
	accounts, sessions, svc := newReconcilerFixture()
	ctx := context.Background()

	accounts.put(&domain.Account{
		ID:       "acc-1",
		Kind:     domain.AccountKindFull,
		Email:    strPtr("b@y.com"),
		GoogleID: strPtr("sub-other"),
		Role:     domain.DefaultRole,
	})
	sessions.put(&domain.Session{SessionID: "sess-1", AccountID: strPtr("acc-1")})

	_, err := svc.Reconcile(ctx, "sess-1", testProfile())
	assertCode(t, err, errors.CodeAlreadyConnected)
}

func TestReconcileConnectRejectsSubjectInUse(t *testing.T) {
	accounts, sessions, svc := newReconcilerFixture()
	ctx := context.Background()

	accounts.put(&domain.Account{
		ID:   "acc-1",
		Kind: domain.AccountKindFull,
		Role: domain.DefaultRole,
	})
	accounts.put(&domain.Account{
		ID:       "acc-2",
		Kind:     domain.AccountKindFull,
		GoogleID: strPtr("sub-123"),
		Role:     domain.DefaultRole,
	})
	sessions.put(&domain.Session{SessionID: "sess-1", AccountID: strPtr("acc-1")})

	_, err := svc.Reconcile(ctx, "sess-1", testProfile())
	assertCode(t, err, errors.CodeSubjectInUse)
}

func TestReconcileUpgradeConvertsAnonymousInPlace(t *testing.T) {
	accounts, sessions, svc := newReconcilerFixture()
	ctx := context.Background()

	accounts.put(&domain.Account{
		ID:           "acc-anon",
		Kind:         domain.AccountKindAnonymous,
		RecoveryCode: strPtr("recovery-xyz"),
		Role:         "moderator",
	})
	sessions.put(&domain.Session{SessionID: "sess-1", AccountID: strPtr("acc-anon")})

	result, err := svc.Reconcile(ctx, "sess-1", testProfile())
	require.NoError(t, err)

	// Upgrades keep the row identity and report as a login.
	assert.Equal(t, "acc-anon", result.AccountID)
	assert.Equal(t, OutcomeUpgrade, result.Outcome)
	assert.Equal(t, FlowLogin, result.Flow)

	upgraded := accounts.get("acc-anon")
	assert.Equal(t, domain.AccountKindFull, upgraded.Kind)
	assert.Equal(t, "b_y_com", *upgraded.Username)
	assert.Equal(t, "b@y.com", *upgraded.Email)
	assert.Equal(t, "sub-123", *upgraded.GoogleID)
	// Recovery code and role survive the upgrade untouched.
	assert.Equal(t, "recovery-xyz", *upgraded.RecoveryCode)
	assert.Equal(t, "moderator", upgraded.Role)
}

func TestReconcileUpgradeSuffixesTakenUsername(t *testing.T) {
	accounts, sessions, svc := newReconcilerFixture()
	ctx := context.Background()

	accounts.put(&domain.Account{
		ID:       "acc-taken",
		Kind:     domain.AccountKindFull,
		Username: strPtr("b_y_com"),
		Role:     domain.DefaultRole,
	})
	accounts.put(&domain.Account{
		ID:   "acc-anon",
		Kind: domain.AccountKindAnonymous,
		Role: domain.DefaultRole,
	})
	sessions.put(&domain.Session{SessionID: "sess-1", AccountID: strPtr("acc-anon")})

	_, err := svc.Reconcile(ctx, "sess-1", testProfile())
	require.NoError(t, err)

	upgraded := accounts.get("acc-anon")
	require.NotNil(t, upgraded.Username)
	assert.NotEqual(t, "b_y_com", *upgraded.Username)
	assert.Contains(t, *upgraded.Username, "b_y_com_")
}

func TestReconcileRejectsIncompleteProfile(t *testing.T) {
	_, _, svc := newReconcilerFixture()

	profile := testProfile()
	profile.Email = ""

	_, err := svc.Reconcile(context.Background(), "sess-1", profile)
	assertCode(t, err, errors.CodeOAuthFailed)
}

func TestDisconnectClearsLink(t *testing.T) {
	accounts, sessions, svc := newReconcilerFixture()
	ctx := context.Background()

	accounts.put(&domain.Account{
		ID:       "acc-1",
		Kind:     domain.AccountKindFull,
		Email:    strPtr("b@y.com"),
		GoogleID: strPtr("sub-123"),
		Role:     domain.DefaultRole,
	})
	sessions.put(&domain.Session{
		SessionID:  "sess-1",
		AccountID:  strPtr("acc-1"),
		AuthMethod: strPtr(domain.AuthMethodGoogle),
	})

	require.NoError(t, svc.Disconnect(ctx, "sess-1"))

	assert.Nil(t, accounts.get("acc-1").GoogleID)
	assert.Nil(t, sessions.get("sess-1").AuthMethod)
}

func TestDisconnectRefusedWithoutOtherCredential(t *testing.T) {
	accounts, sessions, svc := newReconcilerFixture()
	ctx := context.Background()

	// Google is the only way back into this account.
	accounts.put(&domain.Account{
		ID:       "acc-1",
		Kind:     domain.AccountKindFull,
		GoogleID: strPtr("sub-123"),
		Role:     domain.DefaultRole,
	})
	sessions.put(&domain.Session{SessionID: "sess-1", AccountID: strPtr("acc-1")})

	err := svc.Disconnect(ctx, "sess-1")
	assertCode(t, err, errors.CodeUnsafeDisconnect)

	// Nothing changed.
	assert.NotNil(t, accounts.get("acc-1").GoogleID)
}

func TestDisconnectRefusedWhenNotConnected(t *testing.T) {
	accounts, sessions, svc := newReconcilerFixture()
	ctx := context.Background()

	accounts.put(&domain.Account{
		ID:    "acc-1",
		Kind:  domain.AccountKindFull,
		Email: strPtr("b@y.com"),
		Role:  domain.DefaultRole,
	})
	sessions.put(&domain.Session{SessionID: "sess-1", AccountID: strPtr("acc-1")})

	err := svc.Disconnect(ctx, "sess-1")
	assertCode(t, err, errors.CodeNotConnected)
}

func TestDisconnectRequiresAuthenticatedSession(t *testing.T) {
	_, _, svc := newReconcilerFixture()

	err := svc.Disconnect(context.Background(), "sess-unknown")
	require.Error(t, err)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrorTypeAuthentication, appErr.Type)
}

func TestDeriveUsername(t *testing.T) {
	assert.Equal(t, "b_y_com", deriveUsername("b@y.com"))
	assert.Equal(t, "first_last_example_org", deriveUsername("First.Last@example.org"))
}
