package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/filterhub/filterhub-api/internal/models"
	appErrors "github.com/filterhub/filterhub-api/pkg/errors"
)

type mockAuthRepo struct {
	providers     map[int64]*models.Provider
	refreshTokens map[string]*models.RefreshToken
	revoked       []string
	auditLogs     []models.AuditLog
	lastLogin     *time.Time
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.Provider, error) {
	for _, p := range m.providers {
		if p.Email == email {
			copied := *p
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByWallet(ctx context.Context, wallet string) (*models.Provider, error) {
	for _, p := range m.providers {
		if p.WalletAddress == wallet {
			copied := *p
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id int64) (*models.Provider, error) {
	if p, ok := m.providers[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) Create(ctx context.Context, provider *models.Provider) error {
	provider.ID = int64(len(m.providers) + 1)
	if m.providers == nil {
		m.providers = make(map[int64]*models.Provider)
	}
	m.providers[provider.ID] = provider
	return nil
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	m.lastLogin = &at
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if m.refreshTokens == nil {
		m.refreshTokens = make(map[string]*models.RefreshToken)
	}
	m.refreshTokens[token.Token] = token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if t, ok := m.refreshTokens[token]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string) error {
	m.revoked = append(m.revoked, id)
	for _, t := range m.refreshTokens {
		if t.ID == id {
			t.Revoked = true
		}
	}
	return nil
}

func (m *mockAuthRepo) CreateAuditLog(ctx context.Context, entry *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, *entry)
	return nil
}

func newAuthFixture(t *testing.T) (*AuthService, *mockAuthRepo) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &mockAuthRepo{
		providers: map[int64]*models.Provider{
			7: {ID: 7, Email: "ops@acme.test", WalletAddress: "f1abc", PasswordHash: string(hash)},
		},
		refreshTokens: make(map[string]*models.RefreshToken),
	}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  time.Minute,
		RefreshTokenExpiry: time.Hour,
		Issuer:             "filterhub-api",
	})
	return svc, repo
}

func TestAuthServiceLogin(t *testing.T) {
	svc, repo := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "ops@acme.test", Password: "correct-horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, int64(7), resp.Provider.ID)
	require.NotNil(t, repo.lastLogin)
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, "LOGIN", repo.auditLogs[0].Action)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.ProviderID)
}

func TestAuthServiceLoginRejectsBadPassword(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ops@acme.test", Password: "wrong"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestAuthServiceRegisterRejectsDuplicateWallet(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		WalletAddress: "f1abc",
		Email:         "other@acme.test",
		Password:      "long-enough-pass",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestAuthServiceRefreshRotatesToken(t *testing.T) {
	svc, repo := newAuthFixture(t)

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "ops@acme.test", Password: "correct-horse"})
	require.NoError(t, err)

	resp, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEqual(t, login.RefreshToken, resp.RefreshToken)
	assert.Len(t, repo.revoked, 1)

	// the used token is revoked and cannot be replayed
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestAuthServiceLogoutIsIdempotent(t *testing.T) {
	svc, repo := newAuthFixture(t)

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "ops@acme.test", Password: "correct-horse"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), login.RefreshToken))
	assert.Len(t, repo.revoked, 1)

	// unknown tokens are a no-op, not an error
	require.NoError(t, svc.Logout(context.Background(), "never-issued"))
	assert.Len(t, repo.revoked, 1)
}

func TestAuthServiceValidateTokenRejectsForgedSignature(t *testing.T) {
	svc, _ := newAuthFixture(t)
	other := NewAuthService(&mockAuthRepo{}, validator.New(), zap.NewNop(), AuthConfig{
		AccessTokenSecret: "another-secret",
		AccessTokenExpiry: time.Minute,
	})

	forged, err := other.generateAccessToken(&models.Provider{ID: 7})
	require.NoError(t, err)

	_, err = svc.ValidateToken(forged)
	require.Error(t, err)
}
