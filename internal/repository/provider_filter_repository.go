package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/filterhub/filterhub-api/internal/models"
)

// ProviderFilterRepository manages the subscription ledger and the
// ledger-wide cascades triggered by owners.
type ProviderFilterRepository struct {
	db *sqlx.DB
}

// NewProviderFilterRepository constructs a ProviderFilterRepository.
func NewProviderFilterRepository(db *sqlx.DB) *ProviderFilterRepository {
	return &ProviderFilterRepository{db: db}
}

const providerFilterColumns = "id, provider_id, filter_id, active, notes, created_at, updated_at"

// Find returns the ledger row for the (provider, filter) pair.
func (r *ProviderFilterRepository) Find(ctx context.Context, providerID, filterID int64) (*models.ProviderFilter, error) {
	var row models.ProviderFilter
	query := fmt.Sprintf("SELECT %s FROM provider_filters WHERE provider_id = $1 AND filter_id = $2", providerFilterColumns)
	if err := r.db.GetContext(ctx, &row, query, providerID, filterID); err != nil {
		return nil, err
	}
	return &row, nil
}

// ListByFilter returns every ledger row for the filter.
func (r *ProviderFilterRepository) ListByFilter(ctx context.Context, filterID int64) ([]models.ProviderFilter, error) {
	query := fmt.Sprintf("SELECT %s FROM provider_filters WHERE filter_id = $1 ORDER BY id ASC", providerFilterColumns)
	var rows []models.ProviderFilter
	if err := r.db.SelectContext(ctx, &rows, query, filterID); err != nil {
		return nil, fmt.Errorf("list filter subscriptions: %w", err)
	}
	return rows, nil
}

// Create inserts a new ledger row. The unique (provider, filter) constraint
// rejects duplicate subscriptions.
func (r *ProviderFilterRepository) Create(ctx context.Context, row *models.ProviderFilter) error {
	now := time.Now().UTC()
	row.CreatedAt = now
	row.UpdatedAt = now
	const query = `INSERT INTO provider_filters (provider_id, filter_id, active, notes, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := r.db.GetContext(ctx, &row.ID, query, row.ProviderID, row.FilterID, row.Active, row.Notes, row.CreatedAt, row.UpdatedAt); err != nil {
		return fmt.Errorf("create subscription: %w", err)
	}
	return nil
}

// Update persists the subscriber-controlled fields of a ledger row.
func (r *ProviderFilterRepository) Update(ctx context.Context, row *models.ProviderFilter) error {
	row.UpdatedAt = time.Now().UTC()
	const query = `UPDATE provider_filters SET active = :active, notes = :notes, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	return nil
}

// Delete removes the ledger row for the (provider, filter) pair. Used for
// non-owner unsubscription, which has no further side effects.
func (r *ProviderFilterRepository) Delete(ctx context.Context, providerID, filterID int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM provider_filters WHERE provider_id = $1 AND filter_id = $2", providerID, filterID); err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}

// SetEnabledForAll sets the filter's catalog enabled flag and forces every
// ledger row's active flag to the same value, the owner's included, in one
// transaction.
func (r *ProviderFilterRepository) SetEnabledForAll(ctx context.Context, filterID int64, enabled bool) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin enable cascade: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	if _, err = tx.ExecContext(ctx, "UPDATE filters SET enabled = $2, updated_at = $3 WHERE id = $1", filterID, enabled, now); err != nil {
		return fmt.Errorf("update filter enabled: %w", err)
	}
	if _, err = tx.ExecContext(ctx, "UPDATE provider_filters SET active = $2, updated_at = $3 WHERE filter_id = $1", filterID, enabled, now); err != nil {
		return fmt.Errorf("update subscriptions active: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit enable cascade: %w", err)
	}
	return nil
}

// UnsubscribeOwner removes the owner's ledger row, deactivates every
// remaining row and force-disables the filter's catalog enabled flag, all in
// one transaction. The filter itself survives for remaining subscribers.
func (r *ProviderFilterRepository) UnsubscribeOwner(ctx context.Context, ownerID, filterID int64) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin owner unsubscribe: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	if _, err = tx.ExecContext(ctx, "DELETE FROM provider_filters WHERE provider_id = $1 AND filter_id = $2", ownerID, filterID); err != nil {
		return fmt.Errorf("delete owner subscription: %w", err)
	}
	if _, err = tx.ExecContext(ctx, "UPDATE provider_filters SET active = false, updated_at = $2 WHERE filter_id = $1", filterID, now); err != nil {
		return fmt.Errorf("deactivate remaining subscriptions: %w", err)
	}
	if _, err = tx.ExecContext(ctx, "UPDATE filters SET enabled = false, updated_at = $2 WHERE id = $1", filterID, now); err != nil {
		return fmt.Errorf("disable filter: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit owner unsubscribe: %w", err)
	}
	return nil
}
