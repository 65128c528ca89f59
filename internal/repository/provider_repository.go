package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/filterhub/filterhub-api/internal/models"
)

// ProviderRepository manages provider accounts, their config, refresh token
// sessions, audit logs and the account delete cascade.
type ProviderRepository struct {
	db *sqlx.DB
}

// NewProviderRepository constructs a ProviderRepository.
func NewProviderRepository(db *sqlx.DB) *ProviderRepository {
	return &ProviderRepository{db: db}
}

const providerColumns = "id, wallet_address_hashed, email, password_hash, business_name, website, contact_person, address, country, last_login, created_at, updated_at"

// FindByID fetches a provider by numeric id.
func (r *ProviderRepository) FindByID(ctx context.Context, id int64) (*models.Provider, error) {
	var provider models.Provider
	query := fmt.Sprintf("SELECT %s FROM providers WHERE id = $1", providerColumns)
	if err := r.db.GetContext(ctx, &provider, query, id); err != nil {
		return nil, err
	}
	return &provider, nil
}

// FindByEmail fetches a provider by login email.
func (r *ProviderRepository) FindByEmail(ctx context.Context, email string) (*models.Provider, error) {
	var provider models.Provider
	query := fmt.Sprintf("SELECT %s FROM providers WHERE LOWER(email) = LOWER($1)", providerColumns)
	if err := r.db.GetContext(ctx, &provider, query, email); err != nil {
		return nil, err
	}
	return &provider, nil
}

// FindByWallet fetches a provider by hashed wallet address.
func (r *ProviderRepository) FindByWallet(ctx context.Context, wallet string) (*models.Provider, error) {
	var provider models.Provider
	query := fmt.Sprintf("SELECT %s FROM providers WHERE wallet_address_hashed = $1", providerColumns)
	if err := r.db.GetContext(ctx, &provider, query, wallet); err != nil {
		return nil, err
	}
	return &provider, nil
}

// Create inserts a new provider account.
func (r *ProviderRepository) Create(ctx context.Context, provider *models.Provider) error {
	now := time.Now().UTC()
	provider.CreatedAt = now
	provider.UpdatedAt = now
	const query = `INSERT INTO providers (wallet_address_hashed, email, password_hash, business_name, website, contact_person, address, country, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	if err := r.db.GetContext(ctx, &provider.ID, query,
		provider.WalletAddress, provider.Email, provider.PasswordHash, provider.BusinessName, provider.Website,
		provider.ContactPerson, provider.Address, provider.Country, provider.CreatedAt, provider.UpdatedAt); err != nil {
		return fmt.Errorf("create provider: %w", err)
	}
	return nil
}

// Update persists the provider's editable business metadata.
func (r *ProviderRepository) Update(ctx context.Context, provider *models.Provider) error {
	provider.UpdatedAt = time.Now().UTC()
	const query = `UPDATE providers SET email = :email, business_name = :business_name, website = :website, contact_person = :contact_person, address = :address, country = :country, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, provider); err != nil {
		return fmt.Errorf("update provider: %w", err)
	}
	return nil
}

// UpdateLastLogin stamps a successful login.
func (r *ProviderRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE providers SET last_login = $2 WHERE id = $1", id, at); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

// GetConfig returns the provider's settings row.
func (r *ProviderRepository) GetConfig(ctx context.Context, providerID int64) (*models.ProviderConfig, error) {
	var cfg models.ProviderConfig
	const query = `SELECT id, provider_id, bitscreen, import_enabled, share_enabled, safer, created_at, updated_at FROM provider_configs WHERE provider_id = $1`
	if err := r.db.GetContext(ctx, &cfg, query, providerID); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// UpsertConfig creates or updates the provider's settings row.
func (r *ProviderRepository) UpsertConfig(ctx context.Context, cfg *models.ProviderConfig) error {
	now := time.Now().UTC()
	cfg.UpdatedAt = now
	const query = `INSERT INTO provider_configs (provider_id, bitscreen, import_enabled, share_enabled, safer, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $6)
        ON CONFLICT (provider_id) DO UPDATE SET bitscreen = $2, import_enabled = $3, share_enabled = $4, safer = $5, updated_at = $6
        RETURNING id`
	if err := r.db.GetContext(ctx, &cfg.ID, query, cfg.ProviderID, cfg.Bitscreen, cfg.ImportEnabled, cfg.ShareEnabled, cfg.Safer, now); err != nil {
		return fmt.Errorf("upsert provider config: %w", err)
	}
	return nil
}

// DeleteCascade removes a provider and everything referencing it in one
// transaction: deals first, then cids of owned filters, then ledger rows
// (subscriptions to owned filters plus the provider's own subscriptions
// elsewhere), then owned filters, then the config row, then the provider.
// Steps touching empty collections are no-ops.
func (r *ProviderRepository) DeleteCascade(ctx context.Context, providerID int64) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin provider delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	steps := []struct {
		label string
		query string
	}{
		{"delete deals", "DELETE FROM deals WHERE provider_id = $1"},
		{"delete owned cids", "DELETE FROM cids WHERE filter_id IN (SELECT id FROM filters WHERE provider_id = $1)"},
		{"delete subscriptions", "DELETE FROM provider_filters WHERE provider_id = $1 OR filter_id IN (SELECT id FROM filters WHERE provider_id = $1)"},
		{"delete owned filters", "DELETE FROM filters WHERE provider_id = $1"},
		{"delete refresh tokens", "DELETE FROM refresh_tokens WHERE provider_id = $1"},
		{"delete config", "DELETE FROM provider_configs WHERE provider_id = $1"},
		{"delete provider", "DELETE FROM providers WHERE id = $1"},
	}
	for _, step := range steps {
		if _, err = tx.ExecContext(ctx, step.query, providerID); err != nil {
			return fmt.Errorf("%s: %w", step.label, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit provider delete: %w", err)
	}
	return nil
}

// CreateRefreshToken persists a refresh token session.
func (r *ProviderRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO refresh_tokens (id, provider_id, token, expires_at, created_at, revoked, ip_address, user_agent)
        VALUES (:id, :provider_id, :token, :expires_at, :created_at, :revoked, :ip_address, :user_agent)`
	if _, err := r.db.NamedExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

// FindRefreshToken looks up an unrevoked refresh token.
func (r *ProviderRepository) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var row models.RefreshToken
	const query = `SELECT id, provider_id, token, expires_at, created_at, revoked, revoked_at, ip_address, user_agent
        FROM refresh_tokens WHERE token = $1 AND revoked = false`
	if err := r.db.GetContext(ctx, &row, query, token); err != nil {
		return nil, err
	}
	return &row, nil
}

// RevokeRefreshToken marks a session revoked.
func (r *ProviderRepository) RevokeRefreshToken(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE refresh_tokens SET revoked = true, revoked_at = $2 WHERE id = $1", id, time.Now().UTC()); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// CreateAuditLog appends an audit record. Failures are the caller's to
// ignore; auditing never blocks the request path.
func (r *ProviderRepository) CreateAuditLog(ctx context.Context, entry *models.AuditLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (provider_id, action, resource, resource_id, new_values, ip_address, user_agent, created_at)
        VALUES (:provider_id, :action, :resource, :resource_id, :new_values, :ip_address, :user_agent, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}
