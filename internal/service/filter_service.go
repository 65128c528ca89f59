package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/filterhub/filterhub-api/internal/models"
	appErrors "github.com/filterhub/filterhub-api/pkg/errors"
)

const (
	shareIDBytes       = 4
	shareIDMaxAttempts = 10
)

type filterRepository interface {
	Create(ctx context.Context, filter *models.Filter, cids []models.Cid) error
	ShareIDExists(ctx context.Context, shareID string) (bool, error)
	FindByID(ctx context.Context, id int64) (*models.Filter, error)
	FindOwned(ctx context.Context, id, providerID int64) (*models.Filter, error)
	FindByShareID(ctx context.Context, shareID string) (*models.PublicFilterRow, error)
	FindByName(ctx context.Context, name string) (*models.Filter, error)
	Update(ctx context.Context, filter *models.Filter) error
	Delete(ctx context.Context, filterID int64) error
	SearchPublic(ctx context.Context, params models.PublicSearchParams) ([]models.PublicFilterRow, int, error)
	ListOwned(ctx context.Context, providerID int64) ([]models.Filter, error)
}

type filterLedgerRepository interface {
	ListByFilter(ctx context.Context, filterID int64) ([]models.ProviderFilter, error)
}

type filterProviderRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Provider, error)
}

type searchCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// PublicSearchResult bundles a public search page with its total count.
type PublicSearchResult struct {
	Filters []models.PublicFilterRow `json:"filters"`
	Total   int                      `json:"total"`
}

// FilterService owns the filter catalog: creation with share token minting,
// partial edits, lookup by share token or name, public search and deletion.
type FilterService struct {
	repo      filterRepository
	ledger    filterLedgerRepository
	providers filterProviderRepository
	cache     searchCache
	validator *validator.Validate
	logger    *zap.Logger
	cacheTTL  time.Duration
}

// NewFilterService constructs a FilterService. The cache is optional; pass nil
// to disable public search caching.
func NewFilterService(repo filterRepository, ledger filterLedgerRepository, providers filterProviderRepository, cache searchCache, validate *validator.Validate, logger *zap.Logger, cacheTTL time.Duration) *FilterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &FilterService{repo: repo, ledger: ledger, providers: providers, cache: cache, validator: validate, logger: logger, cacheTTL: cacheTTL}
}

// Create mints a unique share token and persists the filter together with its
// initial identifiers and the owner's active ledger row.
func (s *FilterService) Create(ctx context.Context, providerID int64, req models.CreateFilterRequest) (*models.Filter, error) {
	if providerID <= 0 {
		return nil, appErrors.Validationf("provider", "provider is required")
	}
	if _, err := s.providers.FindByID(ctx, providerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Validationf("provider", "provider %d does not exist", providerID)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch provider")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid filter payload")
	}

	shareID, err := s.mintShareID(ctx)
	if err != nil {
		return nil, err
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	filter := &models.Filter{
		Name:        req.Name,
		Description: req.Description,
		Override:    req.Override,
		Visibility:  req.Visibility,
		ShareID:     shareID,
		Enabled:     enabled,
		ProviderID:  providerID,
	}

	cids := make([]models.Cid, 0, len(req.Cids))
	for _, c := range req.Cids {
		cids = append(cids, models.Cid{Cid: c.Cid, RefURL: c.RefURL})
	}

	if err := s.repo.Create(ctx, filter, cids); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create filter")
	}

	s.invalidateSearchCache(ctx)
	s.logger.Info("filter created",
		zap.Int64("filter_id", filter.ID),
		zap.Int64("provider_id", providerID),
		zap.String("share_id", filter.ShareID))
	return filter, nil
}

// GetOwned returns the filter only if the provider owns it.
func (s *FilterService) GetOwned(ctx context.Context, providerID, filterID int64) (*models.Filter, error) {
	filter, err := s.repo.FindOwned(ctx, filterID, providerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "filter not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch filter")
	}
	return filter, nil
}

// GetByShareID resolves a share token into a discoverable filter. Tokens of
// non-shareable filters resolve for their owner only.
func (s *FilterService) GetByShareID(ctx context.Context, requesterID int64, shareID string) (*models.PublicFilterRow, error) {
	if shareID == "" {
		return nil, appErrors.Validationf("share_id", "share id is required")
	}
	row, err := s.repo.FindByShareID(ctx, shareID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "filter not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch filter")
	}
	if row.Visibility != models.VisibilityPublic && row.Visibility != models.VisibilityThirdParty && row.ProviderID != requesterID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "filter not found")
	}
	row.IsImported = row.ProviderID != requesterID
	return row, nil
}

// GetByName locates a filter by exact, case-insensitive name.
func (s *FilterService) GetByName(ctx context.Context, name string) (*models.Filter, error) {
	if name == "" {
		return nil, appErrors.Validationf("name", "name is required")
	}
	filter, err := s.repo.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "filter not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch filter")
	}
	return filter, nil
}

// Update applies a partial patch to an owned filter. The share token, owner
// and timestamps are never patchable.
func (s *FilterService) Update(ctx context.Context, providerID, filterID int64, patch models.FilterPatch) (*models.Filter, error) {
	filter, err := s.GetOwned(ctx, providerID, filterID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		if *patch.Name == "" {
			return nil, appErrors.Validationf("name", "name cannot be empty")
		}
		filter.Name = *patch.Name
	}
	if patch.Description != nil {
		filter.Description = *patch.Description
	}
	if patch.Override != nil {
		filter.Override = *patch.Override
	}
	if patch.Visibility != nil {
		if *patch.Visibility < models.VisibilityNone || *patch.Visibility > models.VisibilityThirdParty {
			return nil, appErrors.Validationf("visibility", "unknown visibility %d", *patch.Visibility)
		}
		filter.Visibility = *patch.Visibility
	}
	if patch.Enabled != nil {
		filter.Enabled = *patch.Enabled
	}

	if err := s.repo.Update(ctx, filter); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update filter")
	}

	s.invalidateSearchCache(ctx)
	return filter, nil
}

// Delete removes an owned filter with its identifiers and every ledger row.
func (s *FilterService) Delete(ctx context.Context, providerID, filterID int64) error {
	if _, err := s.GetOwned(ctx, providerID, filterID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, filterID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete filter")
	}
	s.invalidateSearchCache(ctx)
	s.logger.Info("filter deleted", zap.Int64("filter_id", filterID), zap.Int64("provider_id", providerID))
	return nil
}

// SearchPublic runs the public catalog search, serving repeat queries from
// the cache when one is configured.
func (s *FilterService) SearchPublic(ctx context.Context, params models.PublicSearchParams) (*PublicSearchResult, error) {
	key := publicSearchCacheKey(params)
	if s.cache != nil {
		var cached PublicSearchResult
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("public search cache read failed", zap.Error(err))
		}
	}

	rows, total, err := s.repo.SearchPublic(ctx, params)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search filters")
	}
	if rows == nil {
		rows = []models.PublicFilterRow{}
	}

	result := &PublicSearchResult{Filters: rows, Total: total}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, result, s.cacheTTL); err != nil {
			s.logger.Warn("public search cache write failed", zap.Error(err))
		}
	}
	return result, nil
}

// ListOwned returns every filter owned by the provider.
func (s *FilterService) ListOwned(ctx context.Context, providerID int64) ([]models.Filter, error) {
	filters, err := s.repo.ListOwned(ctx, providerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list filters")
	}
	return filters, nil
}

// IsOrphaned reports whether the filter currently has no external subscriber.
func (s *FilterService) IsOrphaned(ctx context.Context, filter *models.Filter) (bool, error) {
	rows, err := s.ledger.ListByFilter(ctx, filter.ID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subscribers")
	}
	return filter.IsOrphan(rows), nil
}

// mintShareID generates a short random hex token and retries on the rare
// collision with an existing filter.
func (s *FilterService) mintShareID(ctx context.Context) (string, error) {
	for attempt := 0; attempt < shareIDMaxAttempts; attempt++ {
		buf := make([]byte, shareIDBytes)
		if _, err := rand.Read(buf); err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate share id")
		}
		candidate := hex.EncodeToString(buf)

		exists, err := s.repo.ShareIDExists(ctx, candidate)
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check share id")
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", appErrors.Clone(appErrors.ErrInternal, "could not mint a unique share id")
}

func (s *FilterService) invalidateSearchCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "filters:search:*"); err != nil {
		s.logger.Warn("search cache invalidation failed", zap.Error(err))
	}
}

func publicSearchCacheKey(params models.PublicSearchParams) string {
	sortKey := ""
	for _, f := range params.Sort {
		sortKey += f.Field
		if f.Descending {
			sortKey += "-desc"
		}
		sortKey += ";"
	}
	return fmt.Sprintf("filters:search:public:%d:%s:%s:%d:%d", params.ProviderID, params.Query, sortKey, params.Page, params.PerPage)
}
