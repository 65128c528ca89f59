package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/filterhub/filterhub-api/internal/models"
)

// FilterRepository manages persistence for filters and the catalog search
// queries with their computed columns.
type FilterRepository struct {
	db *sqlx.DB
}

// NewFilterRepository constructs a FilterRepository.
func NewFilterRepository(db *sqlx.DB) *FilterRepository {
	return &FilterRepository{db: db}
}

const filterColumns = "f.id, f.name, f.description, f.override, f.visibility, f.share_id, f.enabled, f.provider_id, f.created_at, f.updated_at"

// publicSortColumns maps recognized public-search sort keys to SQL columns.
// Unrecognized keys fall back to the filter's own column of the same name,
// restricted to the allow-listed set below.
var publicSortColumns = map[string]string{
	"provider_id":   "p.id",
	"provider_name": "p.business_name",
	"business_name": "p.business_name",
	"country":       "p.country",
	"cids_count":    "cids_count",
	"subs_count":    "subs_count",
}

var filterOwnColumns = map[string]string{
	"id":          "f.id",
	"name":        "f.name",
	"description": "f.description",
	"enabled":     "f.enabled",
	"visibility":  "f.visibility",
	"override":    "f.override",
	"created_at":  "f.created_at",
	"updated_at":  "f.updated_at",
}

// Create persists the filter, its initial cid set and the owner's active
// ledger row as one transaction. The owner row is what keeps the invariant
// that a filter always carries its owner's subscription.
func (r *FilterRepository) Create(ctx context.Context, filter *models.Filter, cids []models.Cid) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin filter create: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	filter.CreatedAt = now
	filter.UpdatedAt = now

	const insertFilter = `INSERT INTO filters (name, description, override, visibility, share_id, enabled, provider_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	if err = tx.GetContext(ctx, &filter.ID, insertFilter,
		filter.Name, filter.Description, filter.Override, filter.Visibility, filter.ShareID, filter.Enabled, filter.ProviderID, filter.CreatedAt, filter.UpdatedAt); err != nil {
		return fmt.Errorf("insert filter: %w", err)
	}

	const insertCid = `INSERT INTO cids (cid, ref_url, filter_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	for i := range cids {
		cids[i].FilterID = filter.ID
		cids[i].CreatedAt = now
		cids[i].UpdatedAt = now
		if err = tx.GetContext(ctx, &cids[i].ID, insertCid, cids[i].Cid, cids[i].RefURL, filter.ID, now, now); err != nil {
			return fmt.Errorf("insert cid: %w", err)
		}
	}

	const insertOwnerRow = `INSERT INTO provider_filters (provider_id, filter_id, active, notes, created_at, updated_at)
        VALUES ($1, $2, true, '', $3, $4)`
	if _, err = tx.ExecContext(ctx, insertOwnerRow, filter.ProviderID, filter.ID, now, now); err != nil {
		return fmt.Errorf("insert owner subscription: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit filter create: %w", err)
	}
	return nil
}

// ShareIDExists reports whether a filter already uses the share token.
func (r *FilterRepository) ShareIDExists(ctx context.Context, shareID string) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, "SELECT 1 FROM filters WHERE share_id = $1 LIMIT 1", shareID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check share id: %w", err)
	}
	return true, nil
}

// FindByID fetches a filter by its numeric id.
func (r *FilterRepository) FindByID(ctx context.Context, id int64) (*models.Filter, error) {
	var filter models.Filter
	query := fmt.Sprintf("SELECT %s FROM filters f WHERE f.id = $1", filterColumns)
	if err := r.db.GetContext(ctx, &filter, query, id); err != nil {
		return nil, err
	}
	return &filter, nil
}

// FindOwned fetches a filter scoped to its owner.
func (r *FilterRepository) FindOwned(ctx context.Context, id, providerID int64) (*models.Filter, error) {
	var filter models.Filter
	query := fmt.Sprintf("SELECT %s FROM filters f WHERE f.id = $1 AND f.provider_id = $2", filterColumns)
	if err := r.db.GetContext(ctx, &filter, query, id, providerID); err != nil {
		return nil, err
	}
	return &filter, nil
}

// FindByShareID fetches a filter by its public share token together with the
// projected identifier count.
func (r *FilterRepository) FindByShareID(ctx context.Context, shareID string) (*models.PublicFilterRow, error) {
	query := fmt.Sprintf(`SELECT %s, p.business_name, p.country,
        (SELECT COUNT(*) FROM cids c WHERE c.filter_id = f.id) AS cids_count,
        (SELECT COUNT(*) FROM provider_filters pf WHERE pf.filter_id = f.id) AS subs_count,
        false AS is_imported
        FROM filters f JOIN providers p ON p.id = f.provider_id
        WHERE f.share_id = $1`, filterColumns)
	var row models.PublicFilterRow
	if err := r.db.GetContext(ctx, &row, query, shareID); err != nil {
		return nil, err
	}
	return &row, nil
}

// FindByName fetches a filter by exact name, case-insensitively. Used by the
// assessor collaborator to locate well-known public lists.
func (r *FilterRepository) FindByName(ctx context.Context, name string) (*models.Filter, error) {
	var filter models.Filter
	query := fmt.Sprintf("SELECT %s FROM filters f WHERE LOWER(f.name) = LOWER($1) LIMIT 1", filterColumns)
	if err := r.db.GetContext(ctx, &filter, query, name); err != nil {
		return nil, err
	}
	return &filter, nil
}

// Update persists the mutable filter fields.
func (r *FilterRepository) Update(ctx context.Context, filter *models.Filter) error {
	filter.UpdatedAt = time.Now().UTC()
	const query = `UPDATE filters SET name = :name, description = :description, override = :override, visibility = :visibility, enabled = :enabled, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, filter); err != nil {
		return fmt.Errorf("update filter: %w", err)
	}
	return nil
}

// Delete removes the filter with its cids and every ledger row in one
// transaction, children first.
func (r *FilterRepository) Delete(ctx context.Context, filterID int64) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin filter delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM cids WHERE filter_id = $1", filterID); err != nil {
		return fmt.Errorf("delete filter cids: %w", err)
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM provider_filters WHERE filter_id = $1", filterID); err != nil {
		return fmt.Errorf("delete filter subscriptions: %w", err)
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM filters WHERE id = $1", filterID); err != nil {
		return fmt.Errorf("delete filter: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit filter delete: %w", err)
	}
	return nil
}

// SearchPublic returns public filters matching the free-text query, sorted
// and paginated, each annotated with cid count, subscriber count and whether
// the requesting provider already imported it. The total count is computed
// independently of the page slice.
func (r *FilterRepository) SearchPublic(ctx context.Context, params models.PublicSearchParams) ([]models.PublicFilterRow, int, error) {
	base := "FROM filters f JOIN providers p ON p.id = f.provider_id"
	conditions := []string{fmt.Sprintf("f.visibility = $%d", 1)}
	args := []interface{}{models.VisibilityPublic}

	if params.Query != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf(`(LOWER(f.name) LIKE $%d OR LOWER(f.description) LIKE $%d OR LOWER(p.business_name) LIKE $%d
            OR EXISTS (SELECT 1 FROM cids c WHERE c.filter_id = f.id AND LOWER(c.cid) LIKE $%d))`, idx, idx, idx, idx))
		args = append(args, "%"+strings.ToLower(params.Query)+"%")
	}

	where := fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	countQuery := "SELECT COUNT(*) " + where
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count public filters: %w", err)
	}

	requesterIdx := len(args) + 1
	selectArgs := append(append([]interface{}{}, args...), params.ProviderID)

	limit, offset := pageSlice(params.Page, params.PerPage)
	query := fmt.Sprintf(`SELECT %s, p.business_name, p.country,
        (SELECT COUNT(*) FROM cids c WHERE c.filter_id = f.id) AS cids_count,
        (SELECT COUNT(*) FROM provider_filters pf WHERE pf.filter_id = f.id) AS subs_count,
        (f.provider_id <> $%d AND EXISTS (SELECT 1 FROM provider_filters pf2 WHERE pf2.filter_id = f.id AND pf2.provider_id = $%d)) AS is_imported
        %s ORDER BY %s LIMIT %d OFFSET %d`,
		filterColumns, requesterIdx, requesterIdx, where, publicOrderBy(params.Sort), limit, offset)

	var rows []models.PublicFilterRow
	if err := r.db.SelectContext(ctx, &rows, query, selectArgs...); err != nil {
		return nil, 0, fmt.Errorf("search public filters: %w", err)
	}
	return rows, total, nil
}

// SearchDashboard returns every filter the provider subscribes to (active or
// not) matching the free-text query, annotated with the provider's own
// enablement flag.
func (r *FilterRepository) SearchDashboard(ctx context.Context, params models.DashboardSearchParams) ([]models.DashboardFilterRow, int, error) {
	base := "FROM provider_filters pf JOIN filters f ON f.id = pf.filter_id"
	conditions := []string{"pf.provider_id = $1"}
	args := []interface{}{params.ProviderID}

	if params.Query != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf(`(LOWER(f.name) LIKE $%d OR LOWER(f.description) LIKE $%d
            OR EXISTS (SELECT 1 FROM cids c WHERE c.filter_id = f.id AND LOWER(c.cid) LIKE $%d))`, idx, idx, idx))
		args = append(args, "%"+strings.ToLower(params.Query)+"%")
	}

	where := fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	countQuery := "SELECT COUNT(*) " + where
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count dashboard filters: %w", err)
	}

	limit, offset := pageSlice(params.Page, params.PerPage)
	query := fmt.Sprintf(`SELECT %s, pf.active AS subscription_active, pf.notes,
        (SELECT COUNT(*) FROM cids c WHERE c.filter_id = f.id) AS cids_count,
        (SELECT COUNT(*) FROM provider_filters pf2 WHERE pf2.filter_id = f.id) AS subs_count
        %s ORDER BY %s LIMIT %d OFFSET %d`,
		filterColumns, where, dashboardOrderBy(params.Sort), limit, offset)

	var rows []models.DashboardFilterRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("search dashboard filters: %w", err)
	}
	return rows, total, nil
}

// ListDashboardAll returns the provider's full unpaged subscribed set for
// rollup aggregation.
func (r *FilterRepository) ListDashboardAll(ctx context.Context, providerID int64) ([]models.DashboardFilterRow, error) {
	query := fmt.Sprintf(`SELECT %s, pf.active AS subscription_active, pf.notes,
        (SELECT COUNT(*) FROM cids c WHERE c.filter_id = f.id) AS cids_count,
        (SELECT COUNT(*) FROM provider_filters pf2 WHERE pf2.filter_id = f.id) AS subs_count
        FROM provider_filters pf JOIN filters f ON f.id = pf.filter_id
        WHERE pf.provider_id = $1 ORDER BY pf.active DESC, f.name ASC, f.id ASC`, filterColumns)

	var rows []models.DashboardFilterRow
	if err := r.db.SelectContext(ctx, &rows, query, providerID); err != nil {
		return nil, fmt.Errorf("list dashboard filters: %w", err)
	}
	return rows, nil
}

// ListOwned returns every filter owned by the provider.
func (r *FilterRepository) ListOwned(ctx context.Context, providerID int64) ([]models.Filter, error) {
	query := fmt.Sprintf("SELECT %s FROM filters f WHERE f.provider_id = $1 ORDER BY f.id ASC", filterColumns)
	var filters []models.Filter
	if err := r.db.SelectContext(ctx, &filters, query, providerID); err != nil {
		return nil, fmt.Errorf("list owned filters: %w", err)
	}
	return filters, nil
}

func publicOrderBy(sort []models.SortField) string {
	clauses := make([]string, 0, len(sort)+1)
	for _, s := range sort {
		column, ok := publicSortColumns[s.Field]
		if !ok {
			column, ok = filterOwnColumns[s.Field]
		}
		if !ok {
			continue
		}
		clauses = append(clauses, column+" "+direction(s.Descending))
	}
	// stable across pages for a fixed query
	clauses = append(clauses, "f.id ASC")
	return strings.Join(clauses, ", ")
}

func dashboardOrderBy(sort []models.SortField) string {
	clauses := make([]string, 0, len(sort)+2)
	for _, s := range sort {
		switch s.Field {
		case "name":
			clauses = append(clauses, "f.name "+direction(s.Descending))
		case "enabled":
			clauses = append(clauses, "pf.active "+direction(s.Descending))
		}
	}
	if len(clauses) == 0 {
		clauses = append(clauses, "pf.active DESC", "f.name ASC")
	}
	clauses = append(clauses, "f.id ASC")
	return strings.Join(clauses, ", ")
}

func direction(desc bool) string {
	if desc {
		return "DESC"
	}
	return "ASC"
}

// pageSlice converts a zero-based page index into LIMIT/OFFSET values.
func pageSlice(page, perPage int) (limit, offset int) {
	if page < 0 {
		page = 0
	}
	if perPage <= 0 || perPage > 100 {
		perPage = 20
	}
	return perPage, page * perPage
}
