package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/filterhub/filterhub-api/internal/models"
)

// CidRepository manages persistence for content identifier entries and the
// overlap count queries used by conflict detection.
type CidRepository struct {
	db *sqlx.DB
}

// NewCidRepository constructs a CidRepository.
func NewCidRepository(db *sqlx.DB) *CidRepository {
	return &CidRepository{db: db}
}

// Create inserts a new cid under its filter.
func (r *CidRepository) Create(ctx context.Context, cid *models.Cid) error {
	now := time.Now().UTC()
	cid.CreatedAt = now
	cid.UpdatedAt = now
	const query = `INSERT INTO cids (cid, ref_url, filter_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	if err := r.db.GetContext(ctx, &cid.ID, query, cid.Cid, cid.RefURL, cid.FilterID, cid.CreatedAt, cid.UpdatedAt); err != nil {
		return fmt.Errorf("create cid: %w", err)
	}
	return nil
}

// FindByID fetches a single cid.
func (r *CidRepository) FindByID(ctx context.Context, id int64) (*models.Cid, error) {
	var cid models.Cid
	const query = `SELECT id, cid, ref_url, filter_id, created_at, updated_at FROM cids WHERE id = $1`
	if err := r.db.GetContext(ctx, &cid, query, id); err != nil {
		return nil, err
	}
	return &cid, nil
}

// ListByFilter returns every cid belonging to the filter.
func (r *CidRepository) ListByFilter(ctx context.Context, filterID int64) ([]models.Cid, error) {
	const query = `SELECT id, cid, ref_url, filter_id, created_at, updated_at FROM cids WHERE filter_id = $1 ORDER BY id ASC`
	var cids []models.Cid
	if err := r.db.SelectContext(ctx, &cids, query, filterID); err != nil {
		return nil, fmt.Errorf("list cids: %w", err)
	}
	return cids, nil
}

// Update persists cid value, reference URL and parent filter. Re-parenting
// moves the cid between filters controlled by the same provider; ownership is
// checked by the service layer.
func (r *CidRepository) Update(ctx context.Context, cid *models.Cid) error {
	cid.UpdatedAt = time.Now().UTC()
	const query = `UPDATE cids SET cid = :cid, ref_url = :ref_url, filter_id = :filter_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, cid); err != nil {
		return fmt.Errorf("update cid: %w", err)
	}
	return nil
}

// Delete removes a single cid.
func (r *CidRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM cids WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete cid: %w", err)
	}
	return nil
}

// CountLocalOverlap counts the provider's own other filters (id differs from
// the candidate) already containing a cid matching the normalized value.
func (r *CidRepository) CountLocalOverlap(ctx context.Context, providerID, excludeFilterID int64, value string) (int64, error) {
	const query = `SELECT COUNT(DISTINCT f.id) FROM filters f
        JOIN cids c ON c.filter_id = f.id
        WHERE f.provider_id = $1 AND f.id <> $2 AND LOWER(c.cid) = LOWER($3)`
	var count int64
	if err := r.db.GetContext(ctx, &count, query, providerID, excludeFilterID, value); err != nil {
		return 0, fmt.Errorf("count local overlap: %w", err)
	}
	return count, nil
}

// CountRemoteOverlap counts filters the provider subscribes to but does not
// own that already contain a cid matching the normalized value.
func (r *CidRepository) CountRemoteOverlap(ctx context.Context, providerID int64, value string) (int64, error) {
	const query = `SELECT COUNT(DISTINCT f.id) FROM provider_filters pf
        JOIN filters f ON f.id = pf.filter_id
        JOIN cids c ON c.filter_id = f.id
        WHERE pf.provider_id = $1 AND f.provider_id <> $1 AND LOWER(c.cid) = LOWER($2)`
	var count int64
	if err := r.db.GetContext(ctx, &count, query, providerID, value); err != nil {
		return 0, fmt.Errorf("count remote overlap: %w", err)
	}
	return count, nil
}
