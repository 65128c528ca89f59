package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/filterhub/filterhub-api/internal/models"
)

// DealRepository records retrieval decisions and answers the coverage query
// used by the statistics collaborator.
type DealRepository struct {
	db *sqlx.DB
}

// NewDealRepository constructs a DealRepository.
func NewDealRepository(db *sqlx.DB) *DealRepository {
	return &DealRepository{db: db}
}

// Create inserts a deal row.
func (r *DealRepository) Create(ctx context.Context, deal *models.Deal) error {
	if deal.CreatedAt.IsZero() {
		deal.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO deals (provider_id, deal_cid, status, created_at) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := r.db.GetContext(ctx, &deal.ID, query, deal.ProviderID, deal.DealCid, deal.Status, deal.CreatedAt); err != nil {
		return fmt.Errorf("create deal: %w", err)
	}
	return nil
}

// ListByProvider returns the provider's recorded deals, newest first.
func (r *DealRepository) ListByProvider(ctx context.Context, providerID int64) ([]models.Deal, error) {
	const query = `SELECT id, provider_id, deal_cid, status, created_at FROM deals WHERE provider_id = $1 ORDER BY created_at DESC`
	var deals []models.Deal
	if err := r.db.SelectContext(ctx, &deals, query, providerID); err != nil {
		return nil, fmt.Errorf("list deals: %w", err)
	}
	return deals, nil
}

// IsCidCovered reports whether the cid appears in a filter the provider
// subscribes to with enforcement currently in effect: both the filter's
// catalog enabled flag and the subscriber's active flag must hold.
func (r *DealRepository) IsCidCovered(ctx context.Context, providerID int64, value string) (bool, error) {
	const query = `SELECT EXISTS (
        SELECT 1 FROM provider_filters pf
        JOIN filters f ON f.id = pf.filter_id
        JOIN cids c ON c.filter_id = f.id
        WHERE pf.provider_id = $1 AND pf.active = true AND f.enabled = true AND LOWER(c.cid) = LOWER($2))`
	var covered bool
	if err := r.db.GetContext(ctx, &covered, query, providerID, value); err != nil {
		return false, fmt.Errorf("check cid coverage: %w", err)
	}
	return covered, nil
}
